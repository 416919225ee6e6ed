package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public catalog API endpoint.
const DefaultBaseURL = "https://api.scryfall.com"

// The catalog allows at most 10 requests per second, so the client sleeps
// between requests to stay under that ceiling.
const requestDelay = 100 * time.Millisecond

// Client is a minimal HTTP client for the Scryfall catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
}

// NewClient creates a client for the given base URL. An empty baseURL falls
// back to the public API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		delay:      requestDelay,
	}
}

// SetData is a set record as delivered by the catalog.
type SetData struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ReleasedAt string `json:"released_at"`
	SetType    string `json:"set_type"`
	CardCount  int    `json:"card_count"`
	IconSvgURI string `json:"icon_svg_uri"`
}

// CardData is a card record as delivered by the catalog.
type CardData struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Layout     string            `json:"layout"`
	ManaCost   string            `json:"mana_cost"`
	Cmc        float64           `json:"cmc"`
	TypeLine   string            `json:"type_line"`
	Rarity     string            `json:"rarity"`
	OracleText string            `json:"oracle_text"`
	Set        string            `json:"set"`
	SetName    string            `json:"set_name"`
	Colors     []string          `json:"colors"`
	ImageURIs  map[string]string `json:"image_uris"`
}

type setListResponse struct {
	Data []SetData `json:"data"`
}

type cardListResponse struct {
	Data     []CardData `json:"data"`
	HasMore  bool       `json:"has_more"`
	NextPage string     `json:"next_page"`
}

type bulkDataResponse struct {
	Data []struct {
		Type        string `json:"type"`
		DownloadURI string `json:"download_uri"`
	} `json:"data"`
}

// FetchSets retrieves the full set listing.
func (c *Client) FetchSets(ctx context.Context) ([]SetData, error) {
	var resp setListResponse
	if err := c.getJSON(ctx, c.baseURL+"/sets", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch sets: %w", err)
	}
	return resp.Data, nil
}

// FetchBulkCards downloads the "default cards" bulk export: a single snapshot
// of every card in the catalog.
func (c *Client) FetchBulkCards(ctx context.Context) ([]CardData, error) {
	var bulk bulkDataResponse
	if err := c.getJSON(ctx, c.baseURL+"/bulk-data", &bulk); err != nil {
		return nil, fmt.Errorf("failed to fetch bulk data listing: %w", err)
	}

	downloadURI := ""
	for _, entry := range bulk.Data {
		if entry.Type == "default_cards" {
			downloadURI = entry.DownloadURI
			break
		}
	}
	if downloadURI == "" {
		return nil, fmt.Errorf("no default_cards bulk export offered by the catalog")
	}

	var cards []CardData
	if err := c.getJSON(ctx, downloadURI, &cards); err != nil {
		return nil, fmt.Errorf("failed to download bulk card export: %w", err)
	}
	return cards, nil
}

// FetchCardsBySet retrieves every printing in a set, following the catalog's
// pagination cursor until exhausted. An empty set yields an empty slice, not
// an error.
func (c *Client) FetchCardsBySet(ctx context.Context, setCode string) ([]CardData, error) {
	var cards []CardData
	next := c.baseURL + "/cards/search?q=" + url.QueryEscape("set:"+setCode) + "&unique=prints"

	for next != "" {
		var page cardListResponse
		err := c.getJSON(ctx, next, &page)
		if err != nil {
			// The search endpoint answers 404 for a set with no cards.
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to fetch cards for set %s: %w", setCode, err)
		}
		cards = append(cards, page.Data...)
		if !page.HasMore {
			break
		}
		next = page.NextPage
	}
	return cards, nil
}

// StatusError reports a non-success HTTP status from the catalog.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog returned status %d for %s", e.Code, e.URL)
}

// getJSON performs a rate-limited GET and decodes the JSON response body.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	time.Sleep(c.delay)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, URL: rawURL}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}
	return nil
}
