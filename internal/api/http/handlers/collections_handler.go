package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/store"
	"github.com/spec-kit/admin-sync/pkg/util"
)

// CollectionsHandler exposes the read-only list/get accessors per collection.
type CollectionsHandler struct {
	stores *store.Stores
}

// NewCollectionsHandler returns a new handler instance.
func NewCollectionsHandler(stores *store.Stores) *CollectionsHandler {
	return &CollectionsHandler{stores: stores}
}

// List returns one collection in store order.
func (h *CollectionsHandler) List(c *fiber.Ctx) error {
	kind, err := domain.ParseKind(c.Params("kind"))
	if err != nil {
		return util.NewValidationError(err.Error(), nil)
	}
	entities := h.stores.List(kind)
	return c.JSON(fiber.Map{
		"kind":  kind,
		"count": len(entities),
		"data":  entities,
	})
}

// Get resolves one entity by key.
func (h *CollectionsHandler) Get(c *fiber.Ctx) error {
	kind, err := domain.ParseKind(c.Params("kind"))
	if err != nil {
		return util.NewValidationError(err.Error(), nil)
	}
	entity, ok := h.stores.Get(kind, c.Params("id"))
	if !ok {
		return util.NewNotFound(string(kind), map[string]any{"id": c.Params("id")})
	}
	return c.JSON(fiber.Map{"data": entity})
}
