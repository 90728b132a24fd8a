package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-sync/internal/actions"
	"github.com/spec-kit/admin-sync/internal/backend"
	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/pkg/util"
)

// ActionsHandler exposes the admin action dispatchers.
type ActionsHandler struct {
	dispatcher *actions.Dispatcher
}

// NewActionsHandler returns a new handler instance.
func NewActionsHandler(dispatcher *actions.Dispatcher) *ActionsHandler {
	return &ActionsHandler{dispatcher: dispatcher}
}

// UserAction applies verify/suspend/activate/premium to a user.
func (h *ActionsHandler) UserAction(c *fiber.Ctx) error {
	action := backend.UserAction(c.Params("action"))
	switch action {
	case backend.UserActionVerify, backend.UserActionSuspend,
		backend.UserActionActivate, backend.UserActionPremium:
	default:
		return util.NewValidationError("unknown user action", map[string]any{"action": string(action)})
	}
	entity, err := h.dispatcher.MutateUser(c.UserContext(), c.Params("id"), action)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

// DeleteUser removes a user.
func (h *ActionsHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.dispatcher.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

type postStatusRequest struct {
	Status domain.PostStatus `json:"status"`
}

// ModeratePost approves or rejects a post.
func (h *ActionsHandler) ModeratePost(c *fiber.Ctx) error {
	var req postStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid post status payload", nil)
	}
	switch req.Status {
	case domain.PostStatusApproved, domain.PostStatusRejected, domain.PostStatusPending:
	default:
		return util.NewValidationError("unknown post status", map[string]any{"status": string(req.Status)})
	}
	entity, err := h.dispatcher.ModeratePost(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

// DeletePost removes a post.
func (h *ActionsHandler) DeletePost(c *fiber.Ctx) error {
	if err := h.dispatcher.DeletePost(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

type reportStatusRequest struct {
	Status domain.ReportStatus `json:"status"`
}

// ResolveReport updates an abuse report's handling status.
func (h *ActionsHandler) ResolveReport(c *fiber.Ctx) error {
	var req reportStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid report status payload", nil)
	}
	switch req.Status {
	case domain.ReportStatusPending, domain.ReportStatusReviewed, domain.ReportStatusResolved:
	default:
		return util.NewValidationError("unknown report status", map[string]any{"status": string(req.Status)})
	}
	entity, err := h.dispatcher.ResolveReport(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

// CreateAnnouncement publishes an announcement.
func (h *ActionsHandler) CreateAnnouncement(c *fiber.Ctx) error {
	var req backend.AnnouncementInput
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid announcement payload", nil)
	}
	if req.Title == "" || req.Content == "" {
		return util.NewValidationError("title and content are required", nil)
	}
	entity, err := h.dispatcher.CreateAnnouncement(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

type announcementToggleRequest struct {
	IsActive bool `json:"isActive"`
}

// ToggleAnnouncement switches an announcement's active flag.
func (h *ActionsHandler) ToggleAnnouncement(c *fiber.Ctx) error {
	var req announcementToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid toggle payload", nil)
	}
	entity, err := h.dispatcher.ToggleAnnouncement(c.UserContext(), c.Params("id"), req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

// DeleteAnnouncement removes an announcement.
func (h *ActionsHandler) DeleteAnnouncement(c *fiber.Ctx) error {
	if err := h.dispatcher.DeleteAnnouncement(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

type ticketStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UpdateTicketStatus moves a ticket through its lifecycle.
func (h *ActionsHandler) UpdateTicketStatus(c *fiber.Ctx) error {
	var req ticketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid ticket status payload", nil)
	}
	switch req.Status {
	case domain.TicketStatusOpen, domain.TicketStatusInProgress,
		domain.TicketStatusResolved, domain.TicketStatusClosed:
	default:
		return util.NewValidationError("unknown ticket status", map[string]any{"status": string(req.Status)})
	}
	entity, err := h.dispatcher.UpdateTicketStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

type ticketAssignRequest struct {
	AssignedTo *string `json:"assignedTo"`
}

// AssignTicket sets or clears a ticket's assignee.
func (h *ActionsHandler) AssignTicket(c *fiber.Ctx) error {
	var req ticketAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid assign payload", nil)
	}
	entity, err := h.dispatcher.AssignTicket(c.UserContext(), c.Params("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

type ticketReplyRequest struct {
	Message string `json:"message"`
}

// ReplyToTicket appends an admin reply to a ticket thread.
func (h *ActionsHandler) ReplyToTicket(c *fiber.Ctx) error {
	var req ticketReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid reply payload", nil)
	}
	if req.Message == "" {
		return util.NewValidationError("message is required", nil)
	}
	entity, err := h.dispatcher.ReplyToTicket(c.UserContext(), c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}
