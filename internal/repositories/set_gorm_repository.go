package repositories

import (
	"fmt"

	"deckforge/internal/models"

	"gorm.io/gorm"
)

// GORMSetRepository is a GORM implementation of SetRepository.
type GORMSetRepository struct {
	db *gorm.DB
}

// NewGORMSetRepository creates a new instance of GORMSetRepository.
func NewGORMSetRepository(db *gorm.DB) *GORMSetRepository {
	return &GORMSetRepository{
		db: db,
	}
}

// GetAll retrieves all sets from the database.
func (r *GORMSetRepository) GetAll() ([]models.Set, error) {
	var sets []models.Set
	if err := r.db.Find(&sets).Error; err != nil {
		return nil, fmt.Errorf("failed to get all sets: %w", err)
	}
	return sets, nil
}

// GetByCode retrieves a single set by its code.
func (r *GORMSetRepository) GetByCode(code string) (*models.Set, error) {
	var set models.Set
	if err := r.db.First(&set, "code = ?", code).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("set with code %s: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get set by code %s: %w", code, err)
	}
	return &set, nil
}

// Upsert inserts or fully overwrites a set keyed by its code.
func (r *GORMSetRepository) Upsert(set *models.Set) error {
	var existing models.Set
	err := r.db.First(&existing, "code = ?", set.Code).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		if err := r.db.Create(set).Error; err != nil {
			return fmt.Errorf("failed to create set %s: %w", set.Code, err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up set %s: %w", set.Code, err)
	default:
		if err := r.db.Save(set).Error; err != nil {
			return fmt.Errorf("failed to update set %s: %w", set.Code, err)
		}
	}
	return nil
}

// GORMColorRepository is a GORM implementation of ColorRepository.
type GORMColorRepository struct {
	db *gorm.DB
}

// NewGORMColorRepository creates a new instance of GORMColorRepository.
func NewGORMColorRepository(db *gorm.DB) *GORMColorRepository {
	return &GORMColorRepository{
		db: db,
	}
}

// Seed inserts any of the five colors that do not exist yet.
func (r *GORMColorRepository) Seed() error {
	for _, color := range models.ColorEnum {
		c := color
		if err := r.db.FirstOrCreate(&c, models.Color{Code: c.Code}).Error; err != nil {
			return fmt.Errorf("failed to seed color %s: %w", c.Code, err)
		}
	}
	return nil
}

// GetAll retrieves the color enumeration from the database.
func (r *GORMColorRepository) GetAll() ([]models.Color, error) {
	var colors []models.Color
	if err := r.db.Find(&colors).Error; err != nil {
		return nil, fmt.Errorf("failed to get colors: %w", err)
	}
	return colors, nil
}
