package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-sync/internal/bridge"
	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/observability"
	"github.com/spec-kit/admin-sync/internal/selection"
	"github.com/spec-kit/admin-sync/internal/syncer"
	"github.com/spec-kit/admin-sync/pkg/util"
)

// SyncHandler exposes manual refresh, connectivity, focus, and stats.
type SyncHandler struct {
	syncer  *syncer.Syncer
	bridge  *bridge.Bridge
	guard   *selection.Guard
	metrics *observability.Metrics
}

// NewSyncHandler returns a new handler instance.
func NewSyncHandler(s *syncer.Syncer, b *bridge.Bridge, g *selection.Guard, m *observability.Metrics) *SyncHandler {
	return &SyncHandler{syncer: s, bridge: b, guard: g, metrics: m}
}

// Refresh triggers a manual full refresh. Shares the in-flight guard
// with the scheduler: a refresh already running yields 409.
func (h *SyncHandler) Refresh(c *fiber.Ctx) error {
	err := h.syncer.RefreshAll(c.UserContext())
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"status": "refreshed"})
	case errors.Is(err, util.ErrRefreshInFlight):
		return err
	case errors.Is(err, util.ErrAuthRequired):
		return err
	default:
		return util.NewRecoverable("refresh incomplete", err)
	}
}

// Connection reports the push channel state for the connectivity indicator.
func (h *SyncHandler) Connection(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"state": h.bridge.State().String()})
}

// Stats dumps the in-memory sync counters.
func (h *SyncHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"counters": h.metrics.Snapshot()})
}

// GetFocus returns the focused entity, null when unfocused.
func (h *SyncHandler) GetFocus(c *fiber.Ctx) error {
	entity, ok := h.guard.Current()
	if !ok {
		return c.JSON(fiber.Map{"focus": nil})
	}
	return c.JSON(fiber.Map{"focus": fiber.Map{
		"kind": entity.EntityKind(),
		"data": entity,
	}})
}

type focusRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// PutFocus focuses an entity for the detail view.
func (h *SyncHandler) PutFocus(c *fiber.Ctx) error {
	var req focusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid focus payload", nil)
	}
	kind, err := domain.ParseKind(req.Kind)
	if err != nil {
		return util.NewValidationError(err.Error(), nil)
	}
	if req.ID == "" {
		return util.NewValidationError("id is required", nil)
	}
	if err := h.guard.SetFocus(c.UserContext(), kind, req.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "focused"})
}

// DeleteFocus clears the focus explicitly.
func (h *SyncHandler) DeleteFocus(c *fiber.Ctx) error {
	h.guard.ClearFocus(c.UserContext())
	return c.JSON(fiber.Map{"status": "cleared"})
}
