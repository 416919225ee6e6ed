package services

import (
	"deckforge/internal/models"
	"deckforge/internal/repositories"
)

// SetService handles read access to the mirrored set catalog.
type SetService struct {
	repo repositories.SetRepository
}

// NewSetService creates a new SetService.
func NewSetService(repo repositories.SetRepository) *SetService {
	return &SetService{
		repo: repo,
	}
}

// GetAllSets retrieves all sets.
func (s *SetService) GetAllSets() ([]models.Set, error) {
	return s.repo.GetAll()
}

// GetSetByCode retrieves a single set by its code.
func (s *SetService) GetSetByCode(code string) (*models.Set, error) {
	return s.repo.GetByCode(code)
}
