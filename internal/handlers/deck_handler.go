package handlers

import (
	"errors"
	"log"
	"strconv"

	"deckforge/internal/middleware"
	"deckforge/internal/models"
	"deckforge/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// DeckHandler handles HTTP requests for decks.
type DeckHandler struct {
	service  *services.DeckService
	validate *validator.Validate
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(service *services.DeckService) *DeckHandler {
	return &DeckHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the deck routes with the Fiber app.
func (h *DeckHandler) RegisterRoutes(router fiber.Router) {
	deckRoutes := router.Group("/decks")
	deckRoutes.Get("/", h.HandleListDecks)
	deckRoutes.Get("/:id", h.HandleGetDeck)
	deckRoutes.Post("/", h.HandleCreateDeck)
	deckRoutes.Put("/:id", h.HandleUpdateDeck)
	deckRoutes.Delete("/:id", h.HandleDeleteDeck)
	deckRoutes.Post("/:id/cards/:cardID", h.HandleAddCard)
	deckRoutes.Delete("/:id/cards/:cardID", h.HandleRemoveCard)
}

// DeckCardInput is one card line in a deck create or update request.
type DeckCardInput struct {
	CardID      string `json:"card_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"omitempty,gte=1"`
	IsSideboard bool   `json:"is_sideboard"`
}

// CreateDeckRequest represents the request body for deck creation.
type CreateDeckRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Format      string          `json:"format" validate:"omitempty,max=32"`
	Cards       []DeckCardInput `json:"cards" validate:"dive"`
}

// UpdateDeckRequest represents a partial deck update. A non-nil Cards list
// wholesale-replaces the deck's lines.
type UpdateDeckRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Format      *string          `json:"format" validate:"omitempty,max=32"`
	Cards       *[]DeckCardInput `json:"cards" validate:"omitempty,dive"`
}

// HandleListDecks retrieves the current user's decks.
func (h *DeckHandler) HandleListDecks(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	decks, err := h.service.ListDecks(user.ID, c.QueryInt("skip", 0), c.QueryInt("limit", 100))
	if err != nil {
		log.Printf("Error listing decks for user %d: %v", user.ID, err)
		return respondError(c, "Could not retrieve decks", err)
	}
	return c.JSON(decks)
}

// HandleGetDeck retrieves a single deck with its card lines.
func (h *DeckHandler) HandleGetDeck(c *fiber.Ctx) error {
	deck, err := h.loadOwnedDeck(c)
	if err != nil {
		return respondError(c, "Could not access deck", err)
	}
	return c.JSON(deck)
}

// HandleCreateDeck creates a deck plus its initial card lines in one
// transaction; an unknown card identifier aborts the whole operation.
func (h *DeckHandler) HandleCreateDeck(c *fiber.Ctx) error {
	var req CreateDeckRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create deck request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user := middleware.CurrentUser(c)
	deck := models.Deck{
		Name:        req.Name,
		Description: req.Description,
		Format:      req.Format,
		UserID:      user.ID,
		Cards:       toDeckCards(req.Cards),
	}

	if err := h.service.CreateDeck(&deck); err != nil {
		log.Printf("Error creating deck for user %d: %v", user.ID, err)
		return respondError(c, "Could not create deck", err)
	}
	return c.Status(fiber.StatusCreated).JSON(deck)
}

// HandleUpdateDeck applies a partial update; a supplied card list replaces
// all existing lines.
func (h *DeckHandler) HandleUpdateDeck(c *fiber.Ctx) error {
	deck, err := h.loadOwnedDeck(c)
	if err != nil {
		return respondError(c, "Could not access deck", err)
	}

	var req UpdateDeckRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update deck request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	if req.Name != nil {
		deck.Name = *req.Name
	}
	if req.Description != nil {
		deck.Description = *req.Description
	}
	if req.Format != nil {
		deck.Format = *req.Format
	}
	replaceCards := req.Cards != nil
	if replaceCards {
		deck.Cards = toDeckCards(*req.Cards)
	}

	if err := h.service.UpdateDeck(deck, replaceCards); err != nil {
		log.Printf("Error updating deck %d: %v", deck.ID, err)
		return respondError(c, "Could not update deck", err)
	}

	updated, err := h.service.GetDeck(deck.ID)
	if err != nil {
		return respondError(c, "Could not retrieve updated deck", err)
	}
	return c.JSON(updated)
}

// HandleDeleteDeck removes the deck; its card lines are cascade-deleted.
func (h *DeckHandler) HandleDeleteDeck(c *fiber.Ctx) error {
	deck, err := h.loadOwnedDeck(c)
	if err != nil {
		return respondError(c, "Could not access deck", err)
	}
	if err := h.service.DeleteDeck(deck.ID); err != nil {
		log.Printf("Error deleting deck %d: %v", deck.ID, err)
		return respondError(c, "Could not delete deck", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddCard adds a card to the deck, incrementing the quantity when the
// same card/sideboard combination is already present.
func (h *DeckHandler) HandleAddCard(c *fiber.Ctx) error {
	deck, err := h.loadOwnedDeck(c)
	if err != nil {
		return respondError(c, "Could not access deck", err)
	}
	cardID := c.Params("cardID")
	quantity := c.QueryInt("quantity", 1)
	sideboard := c.QueryBool("is_sideboard", false)

	updated, err := h.service.AddCard(deck.ID, cardID, quantity, sideboard)
	if err != nil {
		log.Printf("Error adding card %s to deck %d: %v", cardID, deck.ID, err)
		return respondError(c, "Could not add card to deck", err)
	}
	return c.JSON(updated)
}

// HandleRemoveCard removes the (card, sideboard) line from the deck.
func (h *DeckHandler) HandleRemoveCard(c *fiber.Ctx) error {
	deck, err := h.loadOwnedDeck(c)
	if err != nil {
		return respondError(c, "Could not access deck", err)
	}
	cardID := c.Params("cardID")
	sideboard := c.QueryBool("is_sideboard", false)

	updated, err := h.service.RemoveCard(deck.ID, cardID, sideboard)
	if err != nil {
		log.Printf("Error removing card %s from deck %d: %v", cardID, deck.ID, err)
		return respondError(c, "Could not remove card from deck", err)
	}
	return c.JSON(updated)
}

// Handler-local failures of loadOwnedDeck, mapped to statuses in errors.go.
var (
	errBadDeckID    = errors.New("deck ID must be an integer")
	errNotDeckOwner = errors.New("you do not own this deck")
)

// loadOwnedDeck parses the deck ID, loads the deck and enforces that the
// current user owns it. Admins may touch any deck.
func (h *DeckHandler) loadOwnedDeck(c *fiber.Ctx) (*models.Deck, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, errBadDeckID
	}

	deck, err := h.service.GetDeck(uint(id))
	if err != nil {
		return nil, err
	}

	user := middleware.CurrentUser(c)
	if deck.UserID != user.ID && !user.IsAdmin() {
		return nil, errNotDeckOwner
	}
	return deck, nil
}

func toDeckCards(inputs []DeckCardInput) []models.DeckCard {
	lines := make([]models.DeckCard, 0, len(inputs))
	for _, in := range inputs {
		quantity := in.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		lines = append(lines, models.DeckCard{
			CardID:      in.CardID,
			Quantity:    quantity,
			IsSideboard: in.IsSideboard,
		})
	}
	return lines
}
