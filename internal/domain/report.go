package domain

import "time"

// ReportStatus enumerates handling states for abuse reports.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReviewed ReportStatus = "reviewed"
	ReportStatusResolved ReportStatus = "resolved"
)

// Report is an abuse report filed against platform content.
type Report struct {
	ID          string       `json:"id"`
	ContentType string       `json:"contentType"`
	ContentID   string       `json:"contentId"`
	ReportedBy  string       `json:"reportedBy"`
	Reason      string       `json:"reason"`
	Status      ReportStatus `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
}

func (r Report) EntityKind() Kind   { return KindReports }
func (r Report) Key() string        { return r.ID }
func (r Report) Version() time.Time { return r.Timestamp }
