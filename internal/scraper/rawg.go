package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"commenttogame/pkg/models"
	"commenttogame/pkg/utils"
)

const rawgPageSize = 40

// RAWGClient talks to the RAWG REST API (catalog B). Every request carries
// the API key as the "key" query parameter.
type RAWGClient struct {
	BaseURL string
	APIKey  string

	caller *catalogCaller
}

func NewRAWGClient(cfg utils.RAWGConfig) *RAWGClient {
	return &RAWGClient{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		caller:  newCatalogCaller("rawg", cfg.RequestsPerSecond, cfg.Timeout),
	}
}

type rawgPage[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// Search returns up to five games matching title, best match first.
func (c *RAWGClient) Search(ctx context.Context, title string) ([]SearchHit, error) {
	params := url.Values{}
	params.Set("search", title)
	params.Set("page_size", "5")

	var page rawgPage[SearchHit]
	if err := c.get(ctx, "/games", params, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("rawg: search %q: %w", title, ErrNotFound)
	}
	return page.Results, nil
}

// Game fetches the detail record. RAWG's JSON maps straight onto RawgGame.
func (c *RAWGClient) Game(ctx context.Context, id int64) (*models.RawgGame, error) {
	var g models.RawgGame
	if err := c.get(ctx, "/games/"+strconv.FormatInt(id, 10), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Screenshots returns screenshot image URLs in catalog order.
func (c *RAWGClient) Screenshots(ctx context.Context, id int64) ([]string, error) {
	var page rawgPage[struct {
		Image string `json:"image"`
	}]
	if err := c.get(ctx, c.subPath(id, "screenshots"), pageParams(), &page); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(page.Results))
	for _, s := range page.Results {
		if s.Image != "" {
			out = append(out, s.Image)
		}
	}
	return out, nil
}

// Stores returns the per-game store URLs. Only the store id is set on each
// entry; names and domains come from the game record.
func (c *RAWGClient) Stores(ctx context.Context, id int64) ([]models.RawgStoreEntry, error) {
	var page rawgPage[struct {
		ID      int    `json:"id"`
		StoreID int    `json:"store_id"`
		URL     string `json:"url"`
	}]
	if err := c.get(ctx, c.subPath(id, "stores"), pageParams(), &page); err != nil {
		return nil, err
	}
	out := make([]models.RawgStoreEntry, 0, len(page.Results))
	for _, s := range page.Results {
		out = append(out, models.RawgStoreEntry{ID: s.ID, URL: s.URL, Store: models.RawgStore{ID: s.StoreID}})
	}
	return out, nil
}

// Movies returns trailers, preferring the highest quality file.
func (c *RAWGClient) Movies(ctx context.Context, id int64) ([]models.Trailer, error) {
	var page rawgPage[struct {
		Name string            `json:"name"`
		Data map[string]string `json:"data"`
	}]
	if err := c.get(ctx, c.subPath(id, "movies"), pageParams(), &page); err != nil {
		return nil, err
	}
	out := make([]models.Trailer, 0, len(page.Results))
	for _, m := range page.Results {
		u := m.Data["max"]
		if u == "" {
			u = m.Data["480"]
		}
		if u == "" {
			continue
		}
		out = append(out, models.Trailer{Platform: "rawg", URL: u})
	}
	return out, nil
}

// DevelopmentTeam returns credited people with their positions.
func (c *RAWGClient) DevelopmentTeam(ctx context.Context, id int64) ([]models.RawgPerson, error) {
	var page rawgPage[models.RawgPerson]
	if err := c.get(ctx, c.subPath(id, "development-team"), pageParams(), &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c *RAWGClient) subPath(id int64, resource string) string {
	return "/games/" + strconv.FormatInt(id, 10) + "/" + resource
}

func pageParams() url.Values {
	return url.Values{"page_size": {strconv.Itoa(rawgPageSize)}}
}

func (c *RAWGClient) get(ctx context.Context, path string, params url.Values, dst any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.APIKey)
	u := c.BaseURL + path + "?" + params.Encode()

	raw, err := c.caller.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("rawg: decode %s: %w", path, err)
	}
	return nil
}
