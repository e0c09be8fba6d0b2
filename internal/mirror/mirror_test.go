package mirror

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"commenttogame/internal/gamemerge"
	"commenttogame/internal/scraper"
	"commenttogame/pkg/utils"
)

const mirrorJSON = `[
	{
		"game": {
			"id": 3499,
			"name": "Hades",
			"released": "2020-09-17",
			"description_raw": "Defy the god of the dead.",
			"stores": [{"id": 9, "url": "https://store.steampowered.com/app/1145360/", "store": {"id": 1, "name": "Steam", "slug": "steam"}}]
		},
		"screenshots": ["https://media.example/s1.jpg"],
		"movies": ["https://media.example/trailer.mp4"],
		"development_team": [{"name": "Darren Korb", "positions": [{"name": "voice actor"}]}]
	},
	{"game": {"name": "Hades II"}},
	{"game": {"name": "Celeste"}}
]`

func newMirror(t *testing.T) *scraper.RAWGClient {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mirror.json")
	if err := os.WriteFile(path, []byte(mirrorJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if entries[1].Game.ID != 2 {
		t.Fatalf("assigned id = %d, want 2", entries[1].Game.ID)
	}

	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(NewServer(entries).Handler())
	t.Cleanup(srv.Close)
	return scraper.NewRAWGClient(utils.RAWGConfig{
		APIKey:            "offline",
		BaseURL:           srv.URL + "/api",
		RequestsPerSecond: 1000,
		Timeout:           5 * time.Second,
	})
}

func TestSearchPutsExactMatchFirst(t *testing.T) {
	c := newMirror(t)
	hits, err := c.Search(context.Background(), "hades")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].Name != "Hades" {
		t.Errorf("hits = %+v", hits)
	}

	_, err = c.Search(context.Background(), "portal")
	if !errors.Is(err, scraper.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubResources(t *testing.T) {
	c := newMirror(t)
	ctx := context.Background()

	shots, err := c.Screenshots(ctx, 3499)
	if err != nil || len(shots) != 1 {
		t.Errorf("screenshots = %v, %v", shots, err)
	}
	stores, err := c.Stores(ctx, 3499)
	if err != nil || len(stores) != 1 || stores[0].Store.ID != 1 {
		t.Errorf("stores = %+v, %v", stores, err)
	}
	movies, err := c.Movies(ctx, 3499)
	if err != nil || len(movies) != 1 {
		t.Errorf("movies = %+v, %v", movies, err)
	}
	team, err := c.DevelopmentTeam(ctx, 2)
	if err != nil || len(team) != 0 {
		t.Errorf("team = %+v, %v", team, err)
	}
	if _, err := c.Game(ctx, 404); !errors.Is(err, scraper.ErrNotFound) {
		t.Errorf("missing game err = %v", err)
	}
}

func TestOfflineFetchAndMerge(t *testing.T) {
	agg := scraper.NewAggregator(nil, newMirror(t))
	in, err := agg.Fetch(context.Background(), "Hades")
	if err != nil {
		t.Fatal(err)
	}
	g := gamemerge.Merge(in)
	if g.Name != "Hades" || g.About != "Defy the god of the dead." {
		t.Errorf("merged = %q / %q", g.Name, g.About)
	}
	if len(g.StoreLinks) != 1 || len(g.Cast) != 1 || len(g.Videos) != 1 || len(g.Images) != 1 {
		t.Errorf("links = %d, cast = %v, videos = %d, images = %d", len(g.StoreLinks), g.Cast, len(g.Videos), len(g.Images))
	}
}
