package scryfall_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"deckforge/pkg/scryfall"

	"github.com/stretchr/testify/assert"
)

func TestClient_FetchSets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sets", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"code": "tst", "name": "Test Set", "released_at": "2024-01-01", "set_type": "expansion", "card_count": 2, "icon_svg_uri": "https://icons.example/tst.svg"},
			},
		})
	}))
	defer server.Close()

	client := scryfall.NewClient(server.URL)
	sets, err := client.FetchSets(context.Background())
	assert.NoError(t, err)
	assert.Len(t, sets, 1)
	assert.Equal(t, "tst", sets[0].Code)
	assert.Equal(t, "Test Set", sets[0].Name)
	assert.Equal(t, 2, sets[0].CardCount)
}

func TestClient_FetchCardsBySetFollowsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards/search", r.URL.Path)
		if r.URL.Query().Get("page") == "2" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data":     []map[string]interface{}{{"id": "card-2", "name": "Second"}},
				"has_more": false,
			})
			return
		}
		assert.Equal(t, "set:tst", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data":      []map[string]interface{}{{"id": "card-1", "name": "First"}},
			"has_more":  true,
			"next_page": server.URL + "/cards/search?page=2",
		})
	}))
	defer server.Close()

	client := scryfall.NewClient(server.URL)
	cards, err := client.FetchCardsBySet(context.Background(), "tst")
	assert.NoError(t, err)
	assert.Len(t, cards, 2)
	assert.Equal(t, "card-1", cards[0].ID)
	assert.Equal(t, "card-2", cards[1].ID)
}

func TestClient_FetchCardsBySetEmptySet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The search endpoint answers 404 when the query matches nothing.
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := scryfall.NewClient(server.URL)
	cards, err := client.FetchCardsBySet(context.Background(), "void")
	assert.NoError(t, err)
	assert.Empty(t, cards)
}

func TestClient_FetchBulkCards(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bulk-data":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"type": "oracle_cards", "download_uri": server.URL + "/exports/oracle.json"},
					{"type": "default_cards", "download_uri": server.URL + "/exports/default.json"},
				},
			})
		case "/exports/default.json":
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"id": "card-1", "name": "Goblin Raider", "layout": "normal", "cmc": 2.0, "colors": []string{"R"}},
			})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := scryfall.NewClient(server.URL)
	cards, err := client.FetchBulkCards(context.Background())
	assert.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.Equal(t, "card-1", cards[0].ID)
	assert.Equal(t, []string{"R"}, cards[0].Colors)
}

func TestClient_FetchBulkCardsWithoutDefaultExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"type": "oracle_cards", "download_uri": "https://exports.example/oracle.json"},
			},
		})
	}))
	defer server.Close()

	client := scryfall.NewClient(server.URL)
	_, err := client.FetchBulkCards(context.Background())
	assert.Error(t, err)
}
