// Package actions dispatches admin mutations. Every action round-trips
// through the backend first and applies the returned payload through the
// shared ingest path; the store is never touched before the backend
// responds, so a rejected action needs no rollback, and the later push
// confirmation of an accepted one lands as an idempotent no-op.
package actions

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/backend"
	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/ingest"
)

// Dispatcher applies admin actions against the backend and the stores.
type Dispatcher struct {
	backend *backend.Client
	ingest  *ingest.Ingestor
	logger  *zap.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(client *backend.Client, ing *ingest.Ingestor, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{backend: client, ingest: ing, logger: logger}
}

// MutateUser applies verify/suspend/activate/premium to a user.
func (d *Dispatcher) MutateUser(ctx context.Context, id string, action backend.UserAction) (domain.Entity, error) {
	raw, err := d.backend.MutateUser(ctx, id, action)
	if err != nil {
		return nil, err
	}
	return d.applyResult(domain.KindUsers, raw, string(action))
}

// DeleteUser removes a user from the backend and the store.
func (d *Dispatcher) DeleteUser(ctx context.Context, id string) error {
	if err := d.backend.DeleteUser(ctx, id); err != nil {
		return err
	}
	d.ingest.ApplyRemove(domain.KindUsers, id)
	return nil
}

// ModeratePost approves or rejects a post.
func (d *Dispatcher) ModeratePost(ctx context.Context, id string, status domain.PostStatus) (domain.Entity, error) {
	raw, err := d.backend.SetPostStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return d.applyResult(domain.KindPosts, raw, "moderate")
}

// DeletePost removes a post from the backend and the store.
func (d *Dispatcher) DeletePost(ctx context.Context, id string) error {
	if err := d.backend.DeletePost(ctx, id); err != nil {
		return err
	}
	d.ingest.ApplyRemove(domain.KindPosts, id)
	return nil
}

// ResolveReport updates an abuse report's handling status.
func (d *Dispatcher) ResolveReport(ctx context.Context, id string, status domain.ReportStatus) (domain.Entity, error) {
	raw, err := d.backend.SetReportStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return d.applyResult(domain.KindReports, raw, "resolve")
}

// CreateAnnouncement publishes an announcement.
func (d *Dispatcher) CreateAnnouncement(ctx context.Context, input backend.AnnouncementInput) (domain.Entity, error) {
	raw, err := d.backend.CreateAnnouncement(ctx, input)
	if err != nil {
		return nil, err
	}
	return d.applyResult(domain.KindAnnouncements, raw, "create")
}

// ToggleAnnouncement switches an announcement's active flag.
func (d *Dispatcher) ToggleAnnouncement(ctx context.Context, id string, active bool) (domain.Entity, error) {
	raw, err := d.backend.SetAnnouncementActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	return d.applyResult(domain.KindAnnouncements, raw, "toggle")
}

// DeleteAnnouncement removes an announcement from the backend and the store.
func (d *Dispatcher) DeleteAnnouncement(ctx context.Context, id string) error {
	if err := d.backend.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	d.ingest.ApplyRemove(domain.KindAnnouncements, id)
	return nil
}

// UpdateTicketStatus moves a support ticket through its lifecycle.
func (d *Dispatcher) UpdateTicketStatus(ctx context.Context, id string, status domain.TicketStatus) (domain.Entity, error) {
	raw, err := d.backend.SetTicketStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return d.applyResult(domain.KindTickets, raw, "status")
}

// AssignTicket sets or clears a ticket's assignee.
func (d *Dispatcher) AssignTicket(ctx context.Context, id string, assignee *string) (domain.Entity, error) {
	raw, err := d.backend.AssignTicket(ctx, id, assignee)
	if err != nil {
		return nil, err
	}
	return d.applyResult(domain.KindTickets, raw, "assign")
}

// ReplyToTicket appends an admin reply to a ticket thread.
func (d *Dispatcher) ReplyToTicket(ctx context.Context, id, message string) (domain.Entity, error) {
	raw, err := d.backend.ReplyToTicket(ctx, id, message)
	if err != nil {
		return nil, err
	}
	return d.applyResult(domain.KindTickets, raw, "reply")
}

func (d *Dispatcher) applyResult(kind domain.Kind, raw map[string]any, action string) (domain.Entity, error) {
	entity, err := d.ingest.ApplyRaw(kind, raw)
	if err != nil {
		return nil, err
	}
	d.logger.Info("admin action applied",
		zap.String("kind", string(kind)),
		zap.String("action", action),
		zap.String("id", entity.Key()))
	return entity, nil
}
