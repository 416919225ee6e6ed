package services

import (
	"fmt"

	"deckforge/internal/models"
	"deckforge/internal/repositories"
)

// DeckService handles business logic for decks and their card lines.
type DeckService struct {
	deckRepo repositories.DeckRepository
}

// NewDeckService creates a new DeckService.
func NewDeckService(deckRepo repositories.DeckRepository) *DeckService {
	return &DeckService{
		deckRepo: deckRepo,
	}
}

// ListDecks retrieves the decks owned by a user.
func (s *DeckService) ListDecks(userID uint, skip, limit int) ([]models.Deck, error) {
	return s.deckRepo.ListByUser(userID, skip, limit)
}

// GetDeck retrieves a deck with its card lines.
func (s *DeckService) GetDeck(id uint) (*models.Deck, error) {
	return s.deckRepo.GetByID(id)
}

// CreateDeck inserts a deck plus its initial card lines atomically. If any
// referenced card does not exist, nothing is persisted.
func (s *DeckService) CreateDeck(deck *models.Deck) error {
	if err := s.deckRepo.CreateWithCards(deck); err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}
	return nil
}

// UpdateDeck persists changed deck fields; when replaceCards is set, the
// deck's lines are reconciled to exactly deck.Cards.
func (s *DeckService) UpdateDeck(deck *models.Deck, replaceCards bool) error {
	return s.deckRepo.Update(deck, replaceCards)
}

// DeleteDeck removes the deck and all of its card lines.
func (s *DeckService) DeleteDeck(id uint) error {
	return s.deckRepo.Delete(id)
}

// AddCard adds a card to a deck, incrementing the quantity if the same
// card/sideboard combination already exists, and returns the updated deck.
func (s *DeckService) AddCard(deckID uint, cardID string, quantity int, sideboard bool) (*models.Deck, error) {
	if quantity <= 0 {
		quantity = 1
	}
	if err := s.deckRepo.AddCard(deckID, cardID, quantity, sideboard); err != nil {
		return nil, err
	}
	return s.deckRepo.GetByID(deckID)
}

// RemoveCard removes the (card, sideboard) line from a deck and returns the
// updated deck.
func (s *DeckService) RemoveCard(deckID uint, cardID string, sideboard bool) (*models.Deck, error) {
	if err := s.deckRepo.RemoveCard(deckID, cardID, sideboard); err != nil {
		return nil, err
	}
	return s.deckRepo.GetByID(deckID)
}
