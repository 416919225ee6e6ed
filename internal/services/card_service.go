package services

import (
	"deckforge/internal/models"
	"deckforge/internal/repositories"
)

// CardService handles read access to the mirrored card catalog.
type CardService struct {
	repo repositories.CardRepository
}

// NewCardService creates a new CardService.
func NewCardService(repo repositories.CardRepository) *CardService {
	return &CardService{
		repo: repo,
	}
}

// ListCards retrieves cards matching the filter.
func (s *CardService) ListCards(filter repositories.CardFilter) ([]models.Card, error) {
	return s.repo.List(filter)
}

// GetCardByID retrieves a single card by its ID.
func (s *CardService) GetCardByID(id string) (*models.Card, error) {
	return s.repo.GetByID(id)
}
