package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"deckforge/internal/models"
	"deckforge/internal/repositories"
	"deckforge/pkg/scryfall"

	"github.com/google/uuid"
)

// ErrSyncInProgress is returned when a synchronization run is requested while
// another one is still in flight. Runs are single-flight.
var ErrSyncInProgress = errors.New("synchronization already in progress")

// Cards are written in batches of this size, one transaction per batch, to
// bound transaction size and memory.
const syncBatchSize = 500

// Card layouts that are not playable and therefore not mirrored.
var skippedLayouts = map[string]bool{
	"token":      true,
	"emblem":     true,
	"art_series": true,
}

// SyncStats reports how many cards a run inserted versus updated.
type SyncStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// CatalogClient is the part of the external catalog API the engine consumes.
type CatalogClient interface {
	FetchSets(ctx context.Context) ([]scryfall.SetData, error)
	FetchBulkCards(ctx context.Context) ([]scryfall.CardData, error)
	FetchCardsBySet(ctx context.Context, setCode string) ([]scryfall.CardData, error)
}

// SyncPublisher publishes sync completion events. May be backed by RabbitMQ
// or absent entirely.
type SyncPublisher interface {
	PublishSyncCompleted(event map[string]interface{}) error
}

// SyncService is the reconciliation engine: it mirrors sets, colors and cards
// from the external catalog into local storage.
type SyncService struct {
	catalog   CatalogClient
	setRepo   repositories.SetRepository
	colorRepo repositories.ColorRepository
	cardRepo  repositories.CardRepository
	publisher SyncPublisher // may be nil
	stateFile string
	batchSize int
	running   int32 // atomic single-flight guard
}

// NewSyncService creates a new SyncService. stateFile is where the timestamp
// of the last completed run is persisted; publisher may be nil to disable
// event publishing.
func NewSyncService(
	catalog CatalogClient,
	setRepo repositories.SetRepository,
	colorRepo repositories.ColorRepository,
	cardRepo repositories.CardRepository,
	publisher SyncPublisher,
	stateFile string,
) *SyncService {
	return &SyncService{
		catalog:   catalog,
		setRepo:   setRepo,
		colorRepo: colorRepo,
		cardRepo:  cardRepo,
		publisher: publisher,
		stateFile: stateFile,
		batchSize: syncBatchSize,
	}
}

// Run performs a full synchronization: seed colors, upsert all sets, then
// mirror all cards. The bulk export is preferred; only when fetching it fails
// does the engine fall back to per-set paginated search. On the fallback path
// a failure on one card or one set's card list is logged and skipped; any
// persistence failure aborts the run and propagates.
func (s *SyncService) Run(ctx context.Context) (*SyncStats, error) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil, ErrSyncInProgress
	}
	defer atomic.StoreInt32(&s.running, 0)
	return s.run(ctx)
}

// StartBackground reserves the single-flight slot and launches a run in a
// goroutine. A second trigger while a run is in flight is rejected
// immediately with ErrSyncInProgress; the run itself is fire-and-forget and
// logs its outcome.
func (s *SyncService) StartBackground(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrSyncInProgress
	}
	go func() {
		defer atomic.StoreInt32(&s.running, 0)
		if _, err := s.run(ctx); err != nil {
			log.Printf("Catalog synchronization failed: %v", err)
		}
	}()
	return nil
}

func (s *SyncService) run(ctx context.Context) (*SyncStats, error) {
	runID := uuid.New().String()
	start := time.Now()
	log.Printf("Starting catalog synchronization (run %s)", runID)

	if err := s.colorRepo.Seed(); err != nil {
		return nil, fmt.Errorf("failed to seed colors: %w", err)
	}
	colorIndex, err := s.loadColorIndex()
	if err != nil {
		return nil, err
	}

	sets, err := s.syncSets(ctx)
	if err != nil {
		return nil, err
	}

	// The fallback covers an unavailable bulk export only. A write failure is
	// not retried through the search path; it aborts the run.
	var stats *SyncStats
	cards, err := s.catalog.FetchBulkCards(ctx)
	if err != nil {
		log.Printf("Bulk card export unavailable (%v), falling back to per-set search", err)
		stats, err = s.syncCardsBySets(ctx, sets, colorIndex)
	} else {
		stats, err = s.writeCardsInBatches(cards, colorIndex)
	}
	if err != nil {
		return nil, err
	}

	completedAt := time.Now().UTC()
	if err := s.recordCompletion(completedAt); err != nil {
		return nil, err
	}
	s.publishCompletion(runID, completedAt, stats)

	log.Printf("Catalog synchronization finished in %s: %d added, %d updated (run %s)",
		time.Since(start).Round(time.Millisecond), stats.Added, stats.Updated, runID)
	return stats, nil
}

// LastSync returns the ISO-8601 timestamp of the last completed run, or an
// empty string if no run has completed yet.
func (s *SyncService) LastSync() (string, error) {
	data, err := os.ReadFile(s.stateFile)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read sync state: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// syncSets upserts the full set listing and returns it for the per-set
// fallback path.
func (s *SyncService) syncSets(ctx context.Context) ([]scryfall.SetData, error) {
	sets, err := s.catalog.FetchSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch set listing: %w", err)
	}
	log.Printf("Synchronizing %d sets", len(sets))

	for _, sd := range sets {
		set := mapSet(sd)
		if err := s.setRepo.Upsert(&set); err != nil {
			return nil, fmt.Errorf("failed to upsert set %s: %w", set.Code, err)
		}
	}
	return sets, nil
}

// writeCardsInBatches mirrors the given cards, writing in batches with one
// transaction per batch. A batch write failure aborts and propagates.
func (s *SyncService) writeCardsInBatches(cards []scryfall.CardData, colorIndex map[string]models.Color) (*SyncStats, error) {
	log.Printf("Processing %d cards from bulk export in batches of %d", len(cards), s.batchSize)

	stats := &SyncStats{}
	batch := make([]models.Card, 0, s.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		added, updated, err := s.cardRepo.UpsertBatch(batch)
		if err != nil {
			return fmt.Errorf("failed to write card batch: %w", err)
		}
		stats.Added += added
		stats.Updated += updated
		batch = batch[:0]
		return nil
	}

	for _, cd := range cards {
		if skipCard(cd) {
			continue
		}
		batch = append(batch, mapCard(cd, colorIndex))
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return stats, nil
}

// syncCardsBySets mirrors cards via paginated per-set search. A failure on
// one set's card list, or on one card, is logged and skipped so the run can
// continue with the next item.
func (s *SyncService) syncCardsBySets(ctx context.Context, sets []scryfall.SetData, colorIndex map[string]models.Color) (*SyncStats, error) {
	stats := &SyncStats{}
	for _, sd := range sets {
		setStats, err := s.SyncSet(ctx, sd.Code, colorIndex)
		if err != nil {
			log.Printf("Error fetching cards for set %s, skipping: %v", sd.Code, err)
			continue
		}
		stats.Added += setStats.Added
		stats.Updated += setStats.Updated
	}
	return stats, nil
}

// SyncSet mirrors a single set's cards via the paginated search endpoint.
func (s *SyncService) SyncSet(ctx context.Context, setCode string, colorIndex map[string]models.Color) (*SyncStats, error) {
	if colorIndex == nil {
		var err error
		colorIndex, err = s.loadColorIndex()
		if err != nil {
			return nil, err
		}
	}

	cards, err := s.catalog.FetchCardsBySet(ctx, setCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cards for set %s: %w", setCode, err)
	}

	stats := &SyncStats{}
	for _, cd := range cards {
		if skipCard(cd) {
			continue
		}
		card := mapCard(cd, colorIndex)
		created, err := s.cardRepo.Upsert(&card)
		if err != nil {
			log.Printf("Error processing card %s (%s), skipping: %v", cd.Name, cd.ID, err)
			continue
		}
		if created {
			stats.Added++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}

func (s *SyncService) loadColorIndex() (map[string]models.Color, error) {
	colors, err := s.colorRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load colors: %w", err)
	}
	index := make(map[string]models.Color, len(colors))
	for _, c := range colors {
		index[c.Code] = c
	}
	return index, nil
}

// recordCompletion persists the completion timestamp for status reporting.
func (s *SyncService) recordCompletion(completedAt time.Time) error {
	if err := os.WriteFile(s.stateFile, []byte(completedAt.Format(time.RFC3339)), 0o644); err != nil {
		return fmt.Errorf("failed to record sync completion: %w", err)
	}
	return nil
}

// publishCompletion emits a best-effort completion event. Publishing failures
// never fail the run.
func (s *SyncService) publishCompletion(runID string, completedAt time.Time, stats *SyncStats) {
	if s.publisher == nil {
		return
	}
	event := map[string]interface{}{
		"run_id":       runID,
		"completed_at": completedAt.Format(time.RFC3339),
		"added":        stats.Added,
		"updated":      stats.Updated,
	}
	if err := s.publisher.PublishSyncCompleted(event); err != nil {
		log.Printf("Warning: failed to publish sync completion event for run %s: %v", runID, err)
	}
}

// skipCard reports whether a catalog card should not be mirrored: non-playable
// layouts and cards without images are excluded.
func skipCard(cd scryfall.CardData) bool {
	return skippedLayouts[cd.Layout] || len(cd.ImageURIs) == 0
}

// mapCard converts a catalog card into the local schema. Color codes are
// resolved against the seeded enumeration; unknown codes are dropped silently.
func mapCard(cd scryfall.CardData, colorIndex map[string]models.Color) models.Card {
	card := models.Card{
		ID:            cd.ID,
		Name:          cd.Name,
		ManaCost:      cd.ManaCost,
		Cmc:           cd.Cmc,
		Type:          cd.TypeLine,
		Rarity:        capitalize(cd.Rarity),
		Text:          cd.OracleText,
		SetCode:       cd.Set,
		SetName:       cd.SetName,
		ImageURL:      cd.ImageURIs["normal"],
		ImageURLSmall: cd.ImageURIs["small"],
	}
	for _, code := range cd.Colors {
		if color, ok := colorIndex[code]; ok {
			card.Colors = append(card.Colors, color)
		}
	}
	return card
}

// mapSet converts a catalog set into the local schema.
func mapSet(sd scryfall.SetData) models.Set {
	return models.Set{
		Code:        sd.Code,
		Name:        sd.Name,
		ReleaseDate: sd.ReleasedAt,
		SetType:     sd.SetType,
		CardCount:   sd.CardCount,
		IconURL:     sd.IconSvgURI,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
