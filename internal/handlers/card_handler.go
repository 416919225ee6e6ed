package handlers

import (
	"log"
	"strconv"

	"deckforge/internal/repositories"
	"deckforge/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CardHandler handles HTTP requests for the card catalog.
type CardHandler struct {
	service *services.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(service *services.CardService) *CardHandler {
	return &CardHandler{
		service: service,
	}
}

// RegisterRoutes registers the card routes with the Fiber app.
func (h *CardHandler) RegisterRoutes(router fiber.Router) {
	cardRoutes := router.Group("/cards")
	cardRoutes.Get("/", h.HandleListCards)
	cardRoutes.Get("/:id", h.HandleGetCard)
}

// HandleListCards retrieves cards matching the optional query filters:
// name, type, rarity, set_name, mana_cost, skip, limit.
func (h *CardHandler) HandleListCards(c *fiber.Ctx) error {
	filter := repositories.CardFilter{
		Name:    c.Query("name"),
		Type:    c.Query("type"),
		Rarity:  c.Query("rarity"),
		SetName: c.Query("set_name"),
		Skip:    c.QueryInt("skip", 0),
		Limit:   c.QueryInt("limit", 100),
	}
	if raw := c.Query("mana_cost"); raw != "" {
		manaCost, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "mana_cost must be an integer",
			})
		}
		filter.ManaCost = &manaCost
	}

	cards, err := h.service.ListCards(filter)
	if err != nil {
		log.Printf("Error listing cards: %v", err)
		return respondError(c, "Could not retrieve cards", err)
	}
	return c.JSON(cards)
}

// HandleGetCard retrieves a single card by its ID.
func (h *CardHandler) HandleGetCard(c *fiber.Ctx) error {
	cardID := c.Params("id")
	card, err := h.service.GetCardByID(cardID)
	if err != nil {
		log.Printf("Error getting card by ID %s: %v", cardID, err)
		return respondError(c, "Could not retrieve card", err)
	}
	return c.JSON(card)
}
