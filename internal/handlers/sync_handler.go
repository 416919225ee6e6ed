package handlers

import (
	"context"
	"log"

	"deckforge/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SyncHandler handles the catalog synchronization trigger and status
// endpoints (admin-only).
type SyncHandler struct {
	service *services.SyncService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(service *services.SyncService) *SyncHandler {
	return &SyncHandler{
		service: service,
	}
}

// RegisterRoutes registers the sync routes with the Fiber app.
func (h *SyncHandler) RegisterRoutes(router fiber.Router) {
	syncRoutes := router.Group("/sync")
	syncRoutes.Post("/cards", h.HandleStartSync)
	syncRoutes.Get("/status", h.HandleSyncStatus)
}

// HandleStartSync launches a synchronization run in the background and
// answers 202 Accepted. A run already in flight answers 409.
func (h *SyncHandler) HandleStartSync(c *fiber.Ctx) error {
	// The run outlives the request, so it gets its own context.
	if err := h.service.StartBackground(context.Background()); err != nil {
		log.Printf("Error starting catalog sync: %v", err)
		return respondError(c, "Could not start synchronization", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Synchronization started. This can take several minutes.",
	})
}

// HandleSyncStatus reports the timestamp of the last completed run, or null
// if none has completed yet.
func (h *SyncHandler) HandleSyncStatus(c *fiber.Ctx) error {
	lastSync, err := h.service.LastSync()
	if err != nil {
		log.Printf("Error reading sync status: %v", err)
		return respondError(c, "Could not read synchronization status", err)
	}
	if lastSync == "" {
		return c.JSON(fiber.Map{"last_sync": nil})
	}
	return c.JSON(fiber.Map{"last_sync": lastSync})
}
