package repositories

import "deckforge/internal/models"

// DeckRepository defines the interface for deck data access.
type DeckRepository interface {
	ListByUser(userID uint, skip, limit int) ([]models.Deck, error)
	GetByID(id uint) (*models.Deck, error)
	// CreateWithCards inserts the deck and its initial card lines in one
	// transaction. A line referencing an unknown card aborts the whole
	// operation with ErrNotFound and no deck is persisted.
	CreateWithCards(deck *models.Deck) error
	// Update persists the deck's fields. When replaceCards is true the deck's
	// card lines are reconciled to exactly deck.Cards; otherwise lines are
	// left untouched.
	Update(deck *models.Deck, replaceCards bool) error
	Delete(id uint) error
	// AddCard increments the quantity of the (deck, card, sideboard) line if
	// it exists, otherwise inserts it.
	AddCard(deckID uint, cardID string, quantity int, sideboard bool) error
	// RemoveCard deletes the (deck, card, sideboard) line, returning
	// ErrNotFound if it does not exist.
	RemoveCard(deckID uint, cardID string, sideboard bool) error
}
