package repositories

import "deckforge/internal/models"

// CardFilter holds the optional filters for listing cards.
// Name and Type match as case-insensitive substrings, Rarity and SetName
// match exactly. ManaCost uses threshold semantics: a value of 5 or more
// matches every card with cmc >= 5, anything lower matches the exact cost.
type CardFilter struct {
	Name     string
	Type     string
	Rarity   string
	SetName  string
	ManaCost *int
	Skip     int
	Limit    int
}

// CardRepository defines the interface for card data access.
type CardRepository interface {
	List(filter CardFilter) ([]models.Card, error)
	GetByID(id string) (*models.Card, error)
	// Upsert inserts the card if its ID is unknown, otherwise overwrites all
	// mutable fields. The card's Colors are reconciled to exactly the given
	// list. Returns true when a new row was created.
	Upsert(card *models.Card) (bool, error)
	// UpsertBatch upserts all cards in a single transaction and returns how
	// many were added and how many updated.
	UpsertBatch(cards []models.Card) (added int, updated int, err error)
}
