// Package scraper fetches game records from the IGDB and RAWG catalogs and
// turns them into merge inputs.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"commenttogame/internal/gamemerge"
	"commenttogame/internal/logging"
	"commenttogame/internal/metrics"
	"commenttogame/internal/textnorm"
	"commenttogame/pkg/models"
	"commenttogame/pkg/utils"
)

// ErrNoCatalogs is returned when neither catalog client is configured.
var ErrNoCatalogs = errors.New("scraper: no catalog configured")

// Aggregator resolves a title in both catalogs and collects everything the
// merge engine needs. Either client may be nil.
type Aggregator struct {
	IGDB *IGDBClient
	RAWG *RAWGClient
}

func NewAggregator(igdb *IGDBClient, rawg *RAWGClient) *Aggregator {
	return &Aggregator{IGDB: igdb, RAWG: rawg}
}

// FromConfig builds clients for the catalogs that have credentials. It
// returns nil when neither has.
func FromConfig(igdbCfg utils.IGDBConfig, rawgCfg utils.RAWGConfig) *Aggregator {
	agg := &Aggregator{}
	if igdbCfg.Enabled() {
		tokens := NewTwitchTokenProvider(igdbCfg.ClientID, igdbCfg.ClientSecret, igdbCfg.TokenURL, igdbCfg.Timeout)
		agg.IGDB = NewIGDBClient(igdbCfg, tokens)
	}
	if rawgCfg.Enabled() {
		agg.RAWG = NewRAWGClient(rawgCfg)
	}
	if agg.IGDB == nil && agg.RAWG == nil {
		return nil
	}
	return agg
}

// FetchFailure records a title that could not be fetched from any catalog.
type FetchFailure struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Fetch looks title up in both catalogs concurrently. One catalog failing
// is logged and tolerated; both failing is an error.
func (a *Aggregator) Fetch(ctx context.Context, title string) (gamemerge.Input, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return gamemerge.Input{}, fmt.Errorf("scraper: %w: empty title", ErrNotFound)
	}
	if a.IGDB == nil && a.RAWG == nil {
		return gamemerge.Input{}, ErrNoCatalogs
	}

	var (
		in       gamemerge.Input
		wg       sync.WaitGroup
		igdbErr  error
		rawgErr  error
		igdbSide igdbExtras
		rawgSide rawgExtras
	)
	if a.IGDB != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.IGDB, igdbSide, igdbErr = a.fetchIGDB(ctx, title)
		}()
	}
	if a.RAWG != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.RAWG, rawgSide, rawgErr = a.fetchRAWG(ctx, title)
		}()
	}
	wg.Wait()

	log := logging.With("scraper")
	if igdbErr != nil && in.RAWG != nil {
		log.Warn().Err(igdbErr).Str("title", title).Msg("igdb lookup failed, using rawg only")
	}
	if rawgErr != nil && in.IGDB != nil {
		log.Warn().Err(rawgErr).Str("title", title).Msg("rawg lookup failed, using igdb only")
	}
	if in.IGDB == nil && in.RAWG == nil {
		return gamemerge.Input{}, errors.Join(igdbErr, rawgErr)
	}

	in.TimeToBeat = igdbSide.timeToBeat
	in.Screenshots = rawgSide.screenshots
	in.Trailers = append(igdbSide.trailers, rawgSide.trailers...)
	return in, nil
}

type igdbExtras struct {
	timeToBeat *models.TimeToBeatSeconds
	trailers   []models.Trailer
}

func (a *Aggregator) fetchIGDB(ctx context.Context, title string) (*models.IgdbGame, igdbExtras, error) {
	var extras igdbExtras
	hits, err := a.IGDB.Search(ctx, title)
	if err != nil {
		return nil, extras, err
	}
	hit := pickHit(hits, title)
	game, err := a.IGDB.Game(ctx, hit.ID)
	if err != nil {
		return nil, extras, err
	}

	// side data is optional; a miss only loses that field
	log := logging.With("scraper")
	if ttb, err := a.IGDB.TimeToBeat(ctx, hit.ID); err == nil {
		extras.timeToBeat = ttb
	} else if !errors.Is(err, ErrNotFound) {
		log.Debug().Err(err).Int64("igdb_id", hit.ID).Msg("time to beat unavailable")
	}
	if trailers, err := a.IGDB.Trailers(ctx, hit.ID); err == nil {
		extras.trailers = trailers
	} else {
		log.Debug().Err(err).Int64("igdb_id", hit.ID).Msg("igdb trailers unavailable")
	}
	return game, extras, nil
}

type rawgExtras struct {
	screenshots []string
	trailers    []models.Trailer
}

func (a *Aggregator) fetchRAWG(ctx context.Context, title string) (*models.RawgGame, rawgExtras, error) {
	var extras rawgExtras
	hits, err := a.RAWG.Search(ctx, title)
	if err != nil {
		return nil, extras, err
	}
	hit := pickHit(hits, title)
	game, err := a.RAWG.Game(ctx, hit.ID)
	if err != nil {
		return nil, extras, err
	}

	log := logging.With("scraper")
	if stores, err := a.RAWG.Stores(ctx, hit.ID); err == nil {
		game.Stores = attachStoreURLs(game.Stores, stores)
	} else {
		log.Debug().Err(err).Int64("rawg_id", hit.ID).Msg("rawg stores unavailable")
	}
	if team, err := a.RAWG.DevelopmentTeam(ctx, hit.ID); err == nil {
		game.Credits = team
	} else {
		log.Debug().Err(err).Int64("rawg_id", hit.ID).Msg("rawg credits unavailable")
	}
	if shots, err := a.RAWG.Screenshots(ctx, hit.ID); err == nil {
		extras.screenshots = shots
	} else {
		log.Debug().Err(err).Int64("rawg_id", hit.ID).Msg("rawg screenshots unavailable")
	}
	if movies, err := a.RAWG.Movies(ctx, hit.ID); err == nil {
		extras.trailers = movies
	} else {
		log.Debug().Err(err).Int64("rawg_id", hit.ID).Msg("rawg movies unavailable")
	}
	return game, extras, nil
}

// attachStoreURLs fills in URLs from the stores endpoint. The game record
// names the stores but usually has no URLs; the endpoint has URLs keyed by
// store id only.
func attachStoreURLs(entries, withURLs []models.RawgStoreEntry) []models.RawgStoreEntry {
	urls := make(map[int]string, len(withURLs))
	for _, s := range withURLs {
		if s.URL != "" {
			urls[s.Store.ID] = s.URL
		}
	}
	out := make([]models.RawgStoreEntry, 0, len(entries))
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			e.URL = urls[e.Store.ID]
		}
		seen[e.Store.ID] = true
		out = append(out, e)
	}
	for _, s := range withURLs {
		if !seen[s.Store.ID] && s.URL != "" {
			out = append(out, s)
		}
	}
	return out
}

// pickHit prefers an exact case-insensitive name match, else the first hit.
func pickHit(hits []SearchHit, title string) SearchHit {
	key := textnorm.FoldKey(title)
	for _, h := range hits {
		if textnorm.FoldKey(h.Name) == key {
			return h
		}
	}
	return hits[0]
}

// FetchAndMerge fetches and merges each title in order. Titles that fail in
// both catalogs are reported, not fatal. Cancellation stops between titles
// and returns what was merged so far together with ctx.Err().
func (a *Aggregator) FetchAndMerge(ctx context.Context, titles []string) ([]models.CanonicalGame, []FetchFailure, error) {
	log := logging.With("scraper")
	games := make([]models.CanonicalGame, 0, len(titles))
	failures := []FetchFailure{}

	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return games, failures, err
		}
		in, err := a.Fetch(ctx, title)
		if err != nil {
			if ctx.Err() != nil {
				return games, failures, ctx.Err()
			}
			log.Warn().Err(err).Str("title", title).Msg("fetch failed")
			failures = append(failures, FetchFailure{Title: title, Reason: err.Error()})
			continue
		}

		start := time.Now()
		g := gamemerge.Merge(in)
		metrics.ObserveMerge(start)
		games = append(games, g)
		log.Info().Str("title", title).Str("name", g.Name).Msg("merged")
	}
	return games, failures, nil
}
