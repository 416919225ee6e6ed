package models

import "time"

// Deck is a named collection of cards owned by a user.
type Deck struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"index;not null" validate:"required,min=1,max=100"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	Format      string     `json:"format" gorm:"type:varchar(32)" validate:"omitempty,max=32"`
	UserID      uint       `json:"user_id" gorm:"index"`
	Cards       []DeckCard `json:"cards" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DeckCard is one line of a deck: a card reference with a quantity and a
// sideboard flag. (deck, card, sideboard) is unique; adding the same
// combination again increments the quantity instead of inserting a new row.
type DeckCard struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	DeckID      uint   `json:"deck_id" gorm:"uniqueIndex:idx_deck_card_side"`
	CardID      string `json:"card_id" gorm:"uniqueIndex:idx_deck_card_side;type:varchar(64)"`
	Quantity    int    `json:"quantity" gorm:"default:1"`
	IsSideboard bool   `json:"is_sideboard" gorm:"uniqueIndex:idx_deck_card_side"`
	Card        *Card  `json:"card,omitempty" gorm:"foreignKey:CardID"`
}
