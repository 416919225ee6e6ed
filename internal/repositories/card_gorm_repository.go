package repositories

import (
	"fmt"

	"deckforge/internal/models"

	"gorm.io/gorm"
)

// GORMCardRepository is a GORM implementation of CardRepository.
type GORMCardRepository struct {
	db *gorm.DB
}

// NewGORMCardRepository creates a new instance of GORMCardRepository.
func NewGORMCardRepository(db *gorm.DB) *GORMCardRepository {
	return &GORMCardRepository{
		db: db,
	}
}

// List retrieves cards matching the filter, with skip/limit pagination.
func (r *GORMCardRepository) List(filter CardFilter) ([]models.Card, error) {
	query := r.db.Model(&models.Card{}).Preload("Colors")

	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Type != "" {
		query = query.Where("LOWER(type) LIKE LOWER(?)", "%"+filter.Type+"%")
	}
	if filter.Rarity != "" {
		query = query.Where("rarity = ?", filter.Rarity)
	}
	if filter.SetName != "" {
		query = query.Where("set_name = ?", filter.SetName)
	}
	if filter.ManaCost != nil {
		// Threshold semantics: 5 means "5 or more", below 5 is an exact match.
		if *filter.ManaCost >= 5 {
			query = query.Where("cmc >= ?", 5)
		} else {
			query = query.Where("cmc = ?", *filter.ManaCost)
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var cards []models.Card
	if err := query.Offset(filter.Skip).Limit(limit).Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// GetByID retrieves a single card by its ID, including its colors and set.
func (r *GORMCardRepository) GetByID(id string) (*models.Card, error) {
	var card models.Card
	if err := r.db.Preload("Colors").First(&card, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("card with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get card by ID %s: %w", id, err)
	}
	return &card, nil
}

// Upsert inserts or updates a single card in its own transaction.
func (r *GORMCardRepository) Upsert(card *models.Card) (bool, error) {
	var created bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = upsertCard(tx, card)
		return txErr
	})
	return created, err
}

// UpsertBatch upserts all cards inside one transaction so a batch is either
// fully applied or not at all.
func (r *GORMCardRepository) UpsertBatch(cards []models.Card) (int, int, error) {
	var added, updated int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i := range cards {
			created, txErr := upsertCard(tx, &cards[i])
			if txErr != nil {
				return txErr
			}
			if created {
				added++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to upsert card batch: %w", err)
	}
	return added, updated, nil
}

// upsertCard writes one card and reconciles its color associations within the
// given transaction.
func upsertCard(tx *gorm.DB, card *models.Card) (bool, error) {
	colors := card.Colors
	card.Colors = nil

	var existing models.Card
	err := tx.First(&existing, "id = ?", card.ID).Error

	created := false
	switch {
	case err == gorm.ErrRecordNotFound:
		if err := tx.Omit("Colors").Create(card).Error; err != nil {
			return false, fmt.Errorf("failed to create card %s: %w", card.ID, err)
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("failed to look up card %s: %w", card.ID, err)
	default:
		// Save overwrites every mutable field, zero values included.
		if err := tx.Omit("Colors").Save(card).Error; err != nil {
			return false, fmt.Errorf("failed to update card %s: %w", card.ID, err)
		}
	}

	if err := reconcileCardColors(tx, card.ID, colors); err != nil {
		return created, err
	}
	card.Colors = colors
	return created, nil
}

// reconcileCardColors diffs the card's stored color associations against the
// wanted list and applies only the additions and removals, rather than
// deleting and reinserting the whole set.
func reconcileCardColors(tx *gorm.DB, cardID string, want []models.Color) error {
	card := models.Card{ID: cardID}

	var current []models.Color
	if err := tx.Model(&card).Association("Colors").Find(&current); err != nil {
		return fmt.Errorf("failed to load colors for card %s: %w", cardID, err)
	}

	wantByCode := make(map[string]models.Color, len(want))
	for _, c := range want {
		wantByCode[c.Code] = c
	}
	currentByCode := make(map[string]models.Color, len(current))
	for _, c := range current {
		currentByCode[c.Code] = c
	}

	var toAdd, toRemove []models.Color
	for code, c := range wantByCode {
		if _, ok := currentByCode[code]; !ok {
			toAdd = append(toAdd, c)
		}
	}
	for code, c := range currentByCode {
		if _, ok := wantByCode[code]; !ok {
			toRemove = append(toRemove, c)
		}
	}

	if len(toAdd) > 0 {
		if err := tx.Model(&card).Association("Colors").Append(&toAdd); err != nil {
			return fmt.Errorf("failed to add colors for card %s: %w", cardID, err)
		}
	}
	if len(toRemove) > 0 {
		if err := tx.Model(&card).Association("Colors").Delete(&toRemove); err != nil {
			return fmt.Errorf("failed to remove colors for card %s: %w", cardID, err)
		}
	}
	return nil
}
