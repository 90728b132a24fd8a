package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketReply is one message in a ticket thread. The thread is
// append-only from this side: replies are never edited locally.
type TicketReply struct {
	Message   string    `json:"message"`
	IsAdmin   bool      `json:"isAdmin"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is a support request together with its reply thread.
//
// Versioning is by UpdatedAt, and version comparison is wholesale: the
// newest complete payload wins, fields are never merged across payloads
// of different ages, so a stale copy can never drop replies the newer
// copy carries.
type Ticket struct {
	ID         string         `json:"id"`
	Subject    string         `json:"subject"`
	Message    string         `json:"message"`
	Category   string         `json:"category"`
	Priority   TicketPriority `json:"priority"`
	Status     TicketStatus   `json:"status"`
	UserID     string         `json:"userId"`
	AssignedTo *string        `json:"assignedTo,omitempty"`
	Replies    []TicketReply  `json:"replies"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (t Ticket) EntityKind() Kind   { return KindTickets }
func (t Ticket) Key() string        { return t.ID }
func (t Ticket) Version() time.Time { return t.UpdatedAt }
