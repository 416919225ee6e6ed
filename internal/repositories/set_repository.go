package repositories

import "deckforge/internal/models"

// SetRepository defines the interface for set data access.
type SetRepository interface {
	GetAll() ([]models.Set, error)
	GetByCode(code string) (*models.Set, error)
	// Upsert inserts the set if its code is unknown, otherwise overwrites all
	// mutable fields.
	Upsert(set *models.Set) error
}

// ColorRepository defines the interface for the fixed color enumeration.
type ColorRepository interface {
	// Seed inserts any missing colors from the fixed enumeration. Calling it
	// repeatedly is a no-op once all five exist.
	Seed() error
	GetAll() ([]models.Color, error)
}
