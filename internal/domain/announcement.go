package domain

import "time"

// Announcement is a platform-wide notice published by admins.
type Announcement struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Author         string    `json:"author"`
	IsActive       bool      `json:"isActive"`
	TargetAudience string    `json:"targetAudience"`
	Timestamp      time.Time `json:"timestamp"`
}

func (a Announcement) EntityKind() Kind   { return KindAnnouncements }
func (a Announcement) Key() string        { return a.ID }
func (a Announcement) Version() time.Time { return a.Timestamp }
