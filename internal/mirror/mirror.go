// Package mirror serves a RAWG-compatible subset of the catalog API from a
// local file, so imports can run offline or against fixed demo data.
//
//	CTG_RAWG_BASE_URL=http://localhost:9000/api CTG_RAWG_API_KEY=any scraper -titles Hades
package mirror

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"commenttogame/internal/textnorm"
	"commenttogame/pkg/models"
)

// Entry is one mirrored game with the data RAWG serves from sub-resources.
type Entry struct {
	Game            models.RawgGame     `json:"game"`
	Screenshots     []string            `json:"screenshots,omitempty"`
	Movies          []string            `json:"movies,omitempty"` // video file URLs
	DevelopmentTeam []models.RawgPerson `json:"development_team,omitempty"`
}

// Load reads a JSON array of entries. Entries without an id get one from
// their position.
func Load(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("mirror: decode %s: %w", path, err)
	}
	for i := range entries {
		if entries[i].Game.ID == 0 {
			entries[i].Game.ID = i + 1
		}
	}
	return entries, nil
}

type Server struct {
	entries []Entry
	byID    map[int]int
}

func NewServer(entries []Entry) *Server {
	s := &Server{entries: entries, byID: make(map[int]int, len(entries))}
	for i, e := range entries {
		s.byID[e.Game.ID] = i
	}
	return s
}

// Handler mounts the RAWG routes under /api.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	api := r.Group("/api")
	api.GET("/games", s.search)
	api.GET("/games/:id", s.game)
	api.GET("/games/:id/screenshots", s.screenshots)
	api.GET("/games/:id/stores", s.stores)
	api.GET("/games/:id/movies", s.movies)
	api.GET("/games/:id/development-team", s.team)
	return r
}

type hit struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func page[T any](c *gin.Context, results []T) {
	if results == nil {
		results = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
}

// search matches names containing the query, exact matches first.
func (s *Server) search(c *gin.Context) {
	q := textnorm.FoldKey(c.Query("search"))
	limit := 20
	if n, err := strconv.Atoi(c.Query("page_size")); err == nil && n > 0 {
		limit = n
	}

	var hits []hit
	for _, e := range s.entries {
		name := textnorm.FoldKey(e.Game.Name)
		if q == "" || strings.Contains(name, q) {
			hits = append(hits, hit{ID: e.Game.ID, Name: e.Game.Name})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return textnorm.FoldKey(hits[i].Name) == q && textnorm.FoldKey(hits[j].Name) != q
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	page(c, hits)
}

func (s *Server) entry(c *gin.Context) (Entry, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err == nil {
		if i, ok := s.byID[id]; ok {
			return s.entries[i], true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	return Entry{}, false
}

func (s *Server) game(c *gin.Context) {
	if e, ok := s.entry(c); ok {
		c.JSON(http.StatusOK, e.Game)
	}
}

func (s *Server) screenshots(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	type shot struct {
		ID    int    `json:"id"`
		Image string `json:"image"`
	}
	out := make([]shot, 0, len(e.Screenshots))
	for i, u := range e.Screenshots {
		out = append(out, shot{ID: i + 1, Image: u})
	}
	page(c, out)
}

func (s *Server) stores(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	type store struct {
		ID      int    `json:"id"`
		GameID  int    `json:"game_id"`
		StoreID int    `json:"store_id"`
		URL     string `json:"url"`
	}
	var out []store
	for _, st := range e.Game.Stores {
		if st.URL == "" {
			continue
		}
		out = append(out, store{ID: st.ID, GameID: e.Game.ID, StoreID: st.Store.ID, URL: st.URL})
	}
	page(c, out)
}

func (s *Server) movies(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	type movie struct {
		ID   int               `json:"id"`
		Name string            `json:"name"`
		Data map[string]string `json:"data"`
	}
	out := make([]movie, 0, len(e.Movies))
	for i, u := range e.Movies {
		out = append(out, movie{ID: i + 1, Name: "Trailer", Data: map[string]string{"max": u}})
	}
	page(c, out)
}

func (s *Server) team(c *gin.Context) {
	if e, ok := s.entry(c); ok {
		page(c, e.DevelopmentTeam)
	}
}
