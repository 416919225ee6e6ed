package repositories

import (
	"fmt"

	"deckforge/internal/models"

	"gorm.io/gorm"
)

// GORMDeckRepository is a GORM implementation of DeckRepository.
type GORMDeckRepository struct {
	db *gorm.DB
}

// NewGORMDeckRepository creates a new instance of GORMDeckRepository.
func NewGORMDeckRepository(db *gorm.DB) *GORMDeckRepository {
	return &GORMDeckRepository{
		db: db,
	}
}

// ListByUser retrieves the decks owned by a user, without their card lines.
func (r *GORMDeckRepository) ListByUser(userID uint, skip, limit int) ([]models.Deck, error) {
	if limit <= 0 {
		limit = 100
	}
	var decks []models.Deck
	if err := r.db.Where("user_id = ?", userID).Offset(skip).Limit(limit).Find(&decks).Error; err != nil {
		return nil, fmt.Errorf("failed to list decks for user %d: %w", userID, err)
	}
	return decks, nil
}

// GetByID retrieves a deck with its card lines and the referenced cards.
func (r *GORMDeckRepository) GetByID(id uint) (*models.Deck, error) {
	var deck models.Deck
	err := r.db.Preload("Cards").Preload("Cards.Card").Preload("Cards.Card.Colors").First(&deck, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("deck with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get deck by ID %d: %w", id, err)
	}
	return &deck, nil
}

// CreateWithCards inserts the deck and its initial lines atomically.
func (r *GORMDeckRepository) CreateWithCards(deck *models.Deck) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		lines := deck.Cards
		deck.Cards = nil
		if err := tx.Create(deck).Error; err != nil {
			return fmt.Errorf("failed to create deck: %w", err)
		}
		for i := range lines {
			if err := checkCardExists(tx, lines[i].CardID); err != nil {
				return err
			}
			lines[i].DeckID = deck.ID
			if err := tx.Create(&lines[i]).Error; err != nil {
				return fmt.Errorf("failed to add card %s to deck: %w", lines[i].CardID, err)
			}
		}
		deck.Cards = lines
		return nil
	})
}

// Update persists the deck's fields and, when requested, reconciles its card
// lines against deck.Cards via a key diff instead of delete-and-reinsert.
func (r *GORMDeckRepository) Update(deck *models.Deck, replaceCards bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		lines := deck.Cards
		deck.Cards = nil
		if err := tx.Omit("Cards").Save(deck).Error; err != nil {
			return fmt.Errorf("failed to update deck %d: %w", deck.ID, err)
		}
		deck.Cards = lines

		if !replaceCards {
			return nil
		}
		return reconcileDeckCards(tx, deck.ID, lines)
	})
}

// deckLineKey identifies a deck line: one card in either the main board or
// the sideboard.
type deckLineKey struct {
	cardID    string
	sideboard bool
}

func reconcileDeckCards(tx *gorm.DB, deckID uint, want []models.DeckCard) error {
	var current []models.DeckCard
	if err := tx.Where("deck_id = ?", deckID).Find(&current).Error; err != nil {
		return fmt.Errorf("failed to load lines for deck %d: %w", deckID, err)
	}

	currentByKey := make(map[deckLineKey]models.DeckCard, len(current))
	for _, line := range current {
		currentByKey[deckLineKey{line.CardID, line.IsSideboard}] = line
	}

	wantKeys := make(map[deckLineKey]bool, len(want))
	for i := range want {
		key := deckLineKey{want[i].CardID, want[i].IsSideboard}
		wantKeys[key] = true

		existing, ok := currentByKey[key]
		if !ok {
			if err := checkCardExists(tx, want[i].CardID); err != nil {
				return err
			}
			line := models.DeckCard{
				DeckID:      deckID,
				CardID:      want[i].CardID,
				Quantity:    want[i].Quantity,
				IsSideboard: want[i].IsSideboard,
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("failed to add card %s to deck %d: %w", line.CardID, deckID, err)
			}
			continue
		}
		if existing.Quantity != want[i].Quantity {
			if err := tx.Model(&existing).Update("quantity", want[i].Quantity).Error; err != nil {
				return fmt.Errorf("failed to update quantity for card %s in deck %d: %w", existing.CardID, deckID, err)
			}
		}
	}

	for key, line := range currentByKey {
		if !wantKeys[key] {
			if err := tx.Delete(&models.DeckCard{}, "id = ?", line.ID).Error; err != nil {
				return fmt.Errorf("failed to remove card %s from deck %d: %w", line.CardID, deckID, err)
			}
		}
	}
	return nil
}

// Delete removes the deck and all of its card lines.
func (r *GORMDeckRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Deck{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete deck %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("deck with ID %d: %w", id, ErrNotFound)
		}
		// The FK cascade handles this on postgres; doing it explicitly keeps
		// sqlite-backed tests honest as well.
		if err := tx.Delete(&models.DeckCard{}, "deck_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete lines of deck %d: %w", id, err)
		}
		return nil
	})
}

// AddCard increments an existing line's quantity or inserts a new line.
func (r *GORMDeckRepository) AddCard(deckID uint, cardID string, quantity int, sideboard bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := checkCardExists(tx, cardID); err != nil {
			return err
		}

		var line models.DeckCard
		err := tx.Where("deck_id = ? AND card_id = ? AND is_sideboard = ?", deckID, cardID, sideboard).First(&line).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			line = models.DeckCard{
				DeckID:      deckID,
				CardID:      cardID,
				Quantity:    quantity,
				IsSideboard: sideboard,
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("failed to add card %s to deck %d: %w", cardID, deckID, err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up card %s in deck %d: %w", cardID, deckID, err)
		default:
			if err := tx.Model(&line).Update("quantity", line.Quantity+quantity).Error; err != nil {
				return fmt.Errorf("failed to increment card %s in deck %d: %w", cardID, deckID, err)
			}
		}
		return nil
	})
}

// RemoveCard deletes the (deck, card, sideboard) line.
func (r *GORMDeckRepository) RemoveCard(deckID uint, cardID string, sideboard bool) error {
	res := r.db.Where("deck_id = ? AND card_id = ? AND is_sideboard = ?", deckID, cardID, sideboard).Delete(&models.DeckCard{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove card %s from deck %d: %w", cardID, deckID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("card %s in deck %d: %w", cardID, deckID, ErrNotFound)
	}
	return nil
}

func checkCardExists(tx *gorm.DB, cardID string) error {
	var count int64
	if err := tx.Model(&models.Card{}).Where("id = ?", cardID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check card %s: %w", cardID, err)
	}
	if count == 0 {
		return fmt.Errorf("card with ID %s: %w", cardID, ErrNotFound)
	}
	return nil
}
