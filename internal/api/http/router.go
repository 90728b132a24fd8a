package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-sync/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Collections *handlers.CollectionsHandler
	Sync        *handlers.SyncHandler
	Actions     *handlers.ActionsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/collections/:kind", cfg.Collections.List)
	app.Get("/collections/:kind/:id", cfg.Collections.Get)

	app.Post("/refresh", cfg.Sync.Refresh)
	app.Get("/connection", cfg.Sync.Connection)
	app.Get("/stats", cfg.Sync.Stats)

	app.Get("/focus", cfg.Sync.GetFocus)
	app.Put("/focus", cfg.Sync.PutFocus)
	app.Delete("/focus", cfg.Sync.DeleteFocus)

	actionsGroup := app.Group("/actions")
	actionsGroup.Patch("/users/:id/:action", cfg.Actions.UserAction)
	actionsGroup.Delete("/users/:id", cfg.Actions.DeleteUser)
	actionsGroup.Patch("/posts/:id/status", cfg.Actions.ModeratePost)
	actionsGroup.Delete("/posts/:id", cfg.Actions.DeletePost)
	actionsGroup.Patch("/reports/:id/status", cfg.Actions.ResolveReport)
	actionsGroup.Post("/announcements", cfg.Actions.CreateAnnouncement)
	actionsGroup.Patch("/announcements/:id/active", cfg.Actions.ToggleAnnouncement)
	actionsGroup.Delete("/announcements/:id", cfg.Actions.DeleteAnnouncement)
	actionsGroup.Patch("/tickets/:id/status", cfg.Actions.UpdateTicketStatus)
	actionsGroup.Patch("/tickets/:id/assign", cfg.Actions.AssignTicket)
	actionsGroup.Post("/tickets/:id/replies", cfg.Actions.ReplyToTicket)
}
