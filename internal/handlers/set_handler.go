package handlers

import (
	"log"

	"deckforge/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SetHandler handles HTTP requests for the set catalog.
type SetHandler struct {
	service *services.SetService
}

// NewSetHandler creates a new SetHandler.
func NewSetHandler(service *services.SetService) *SetHandler {
	return &SetHandler{
		service: service,
	}
}

// RegisterRoutes registers the set routes with the Fiber app.
func (h *SetHandler) RegisterRoutes(router fiber.Router) {
	setRoutes := router.Group("/sets")
	setRoutes.Get("/", h.HandleListSets)
	setRoutes.Get("/:code", h.HandleGetSet)
}

// HandleListSets retrieves all sets.
func (h *SetHandler) HandleListSets(c *fiber.Ctx) error {
	sets, err := h.service.GetAllSets()
	if err != nil {
		log.Printf("Error listing sets: %v", err)
		return respondError(c, "Could not retrieve sets", err)
	}
	return c.JSON(sets)
}

// HandleGetSet retrieves a single set by its code.
func (h *SetHandler) HandleGetSet(c *fiber.Ctx) error {
	code := c.Params("code")
	set, err := h.service.GetSetByCode(code)
	if err != nil {
		log.Printf("Error getting set by code %s: %v", code, err)
		return respondError(c, "Could not retrieve set", err)
	}
	return c.JSON(set)
}
