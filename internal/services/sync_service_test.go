package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"deckforge/internal/models"
	"deckforge/internal/repositories"
	"deckforge/internal/services"
	"deckforge/pkg/scryfall"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeCatalog is an in-memory CatalogClient.
type fakeCatalog struct {
	sets    []scryfall.SetData
	bulk    []scryfall.CardData
	bulkErr error
	bySet   map[string][]scryfall.CardData
	started chan struct{}
	release chan struct{}
}

func (f *fakeCatalog) FetchSets(ctx context.Context) ([]scryfall.SetData, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return f.sets, nil
}

func (f *fakeCatalog) FetchBulkCards(ctx context.Context) ([]scryfall.CardData, error) {
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	return f.bulk, nil
}

func (f *fakeCatalog) FetchCardsBySet(ctx context.Context, setCode string) ([]scryfall.CardData, error) {
	return f.bySet[setCode], nil
}

func setupSyncTest(t *testing.T, catalog *fakeCatalog) (*services.SyncService, *repositories.GORMCardRepository, *repositories.GORMSetRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Color{}, &models.Set{}, &models.Card{}))

	cardRepo := repositories.NewGORMCardRepository(db)
	setRepo := repositories.NewGORMSetRepository(db)
	colorRepo := repositories.NewGORMColorRepository(db)

	stateFile := filepath.Join(t.TempDir(), "last_sync.txt")
	svc := services.NewSyncService(catalog, setRepo, colorRepo, cardRepo, nil, stateFile)
	return svc, cardRepo, setRepo
}

func testCardData(id, name string, colors []string) scryfall.CardData {
	return scryfall.CardData{
		ID:         id,
		Name:       name,
		Layout:     "normal",
		ManaCost:   "{1}{R}",
		Cmc:        2,
		TypeLine:   "Creature — Goblin",
		Rarity:     "rare",
		OracleText: "Haste",
		Set:        "tst",
		SetName:    "Test Set",
		Colors:     colors,
		ImageURIs: map[string]string{
			"normal": "https://cards.example/" + id + ".jpg",
			"small":  "https://cards.example/" + id + "_s.jpg",
		},
	}
}

func TestSyncService_Run(t *testing.T) {
	catalog := &fakeCatalog{
		sets: []scryfall.SetData{
			{Code: "tst", Name: "Test Set", ReleasedAt: "2024-01-01", SetType: "expansion", CardCount: 3, IconSvgURI: "https://icons.example/tst.svg"},
		},
		bulk: []scryfall.CardData{
			testCardData("card-1", "Goblin Raider", []string{"R"}),
			testCardData("card-2", "Nessian Colossus", []string{"G", "X"}), // X is unknown, dropped silently
			{ID: "token-1", Name: "Goblin Token", Layout: "token", ImageURIs: map[string]string{"normal": "x"}},
			{ID: "no-img", Name: "Unscanned Card", Layout: "normal"},
		},
	}
	svc, cardRepo, setRepo := setupSyncTest(t, catalog)

	stats, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 0, stats.Updated)

	// Sets are mirrored
	set, err := setRepo.GetByCode("tst")
	assert.NoError(t, err)
	assert.Equal(t, "Test Set", set.Name)
	assert.Equal(t, 3, set.CardCount)

	// Tokens and imageless cards are not mirrored
	_, err = cardRepo.GetByID("token-1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = cardRepo.GetByID("no-img")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// Mapped fields, capitalized rarity, known colors only
	card, err := cardRepo.GetByID("card-2")
	assert.NoError(t, err)
	assert.Equal(t, "Nessian Colossus", card.Name)
	assert.Equal(t, "Rare", card.Rarity)
	assert.Len(t, card.Colors, 1)
	assert.Equal(t, "G", card.Colors[0].Code)

	// Completion timestamp was recorded
	lastSync, err := svc.LastSync()
	assert.NoError(t, err)
	assert.NotEmpty(t, lastSync)
}

func TestSyncService_RunIsIdempotent(t *testing.T) {
	catalog := &fakeCatalog{
		sets: []scryfall.SetData{{Code: "tst", Name: "Test Set"}},
		bulk: []scryfall.CardData{
			testCardData("card-1", "Goblin Raider", []string{"R", "G"}),
		},
	}
	svc, cardRepo, _ := setupSyncTest(t, catalog)

	stats, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Added)

	// Upstream renamed the card and dropped green from its colors.
	catalog.bulk = []scryfall.CardData{
		testCardData("card-1", "Goblin Veteran", []string{"R"}),
	}

	stats, err = svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 1, stats.Updated)

	// Same row, new fields, stale color removed
	card, err := cardRepo.GetByID("card-1")
	assert.NoError(t, err)
	assert.Equal(t, "Goblin Veteran", card.Name)
	assert.Len(t, card.Colors, 1)
	assert.Equal(t, "R", card.Colors[0].Code)

	cards, err := cardRepo.List(repositories.CardFilter{})
	assert.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestSyncService_FallsBackToPerSetSearch(t *testing.T) {
	catalog := &fakeCatalog{
		sets:    []scryfall.SetData{{Code: "tst", Name: "Test Set"}},
		bulkErr: fmt.Errorf("bulk export unavailable"),
		bySet: map[string][]scryfall.CardData{
			"tst": {testCardData("card-1", "Goblin Raider", []string{"R"})},
		},
	}
	svc, cardRepo, _ := setupSyncTest(t, catalog)

	stats, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Added)

	card, err := cardRepo.GetByID("card-1")
	assert.NoError(t, err)
	assert.Equal(t, "Goblin Raider", card.Name)
}

// failingCardRepository rejects every write, simulating a dead database.
type failingCardRepository struct{}

func (failingCardRepository) List(filter repositories.CardFilter) ([]models.Card, error) {
	return nil, nil
}

func (failingCardRepository) GetByID(id string) (*models.Card, error) {
	return nil, repositories.ErrNotFound
}

func (failingCardRepository) Upsert(card *models.Card) (bool, error) {
	return false, fmt.Errorf("database gone away")
}

func (failingCardRepository) UpsertBatch(cards []models.Card) (int, int, error) {
	return 0, 0, fmt.Errorf("database gone away")
}

func TestSyncService_WriteFailureAbortsRun(t *testing.T) {
	catalog := &fakeCatalog{
		sets: []scryfall.SetData{{Code: "tst", Name: "Test Set"}},
		bulk: []scryfall.CardData{
			testCardData("card-1", "Goblin Raider", []string{"R"}),
		},
		bySet: map[string][]scryfall.CardData{
			"tst": {testCardData("card-1", "Goblin Raider", []string{"R"})},
		},
	}

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Color{}, &models.Set{}))

	stateFile := filepath.Join(t.TempDir(), "last_sync.txt")
	svc := services.NewSyncService(
		catalog,
		repositories.NewGORMSetRepository(db),
		repositories.NewGORMColorRepository(db),
		failingCardRepository{},
		nil,
		stateFile,
	)

	// A batch write failure must not be retried via the per-set search path;
	// the run aborts and reports the failure.
	_, err = svc.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database gone away")

	// No completion must be recorded for a failed run.
	lastSync, err := svc.LastSync()
	assert.NoError(t, err)
	assert.Empty(t, lastSync)
}

func TestSyncService_SingleFlight(t *testing.T) {
	catalog := &fakeCatalog{
		sets:    []scryfall.SetData{},
		bulk:    []scryfall.CardData{},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, _, _ := setupSyncTest(t, catalog)

	err := svc.StartBackground(context.Background())
	assert.NoError(t, err)

	// Wait until the background run is inside the catalog call, then try to
	// start a second run.
	<-catalog.started
	err = svc.StartBackground(context.Background())
	assert.ErrorIs(t, err, services.ErrSyncInProgress)

	close(catalog.release)
}
