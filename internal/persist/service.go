// Package persist writes canonical games across the games, game_details,
// reference, requirement and gallery tables.
//
// Writes are idempotent: repeating UpsertOne with the same game converges
// on the same rows. Lists and nullable scalars never overwrite stored data
// with empty values; store links and gallery media are replaced wholesale
// when supplied.
package persist

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"commenttogame/internal/refs"
	"commenttogame/pkg/models"
)

const (
	dateLayout       = "2006-01-02"
	defaultWorkers   = 4
	timestampLayout  = time.RFC3339Nano
	galleryKindImage = "image"
	galleryKindVideo = "video"
)

type Service struct {
	DB *sql.DB

	// Concurrency bounds the per-item fallback of UpsertMany.
	Concurrency int

	now func() time.Time
}

func NewService(db *sql.DB, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = defaultWorkers
	}
	return &Service{DB: db, Concurrency: concurrency, now: time.Now}
}

// UpsertOne writes g in one transaction and returns the game id. The game
// is matched by its trimmed name.
func (s *Service) UpsertOne(ctx context.Context, g models.CanonicalGame) (string, error) {
	if strings.TrimSpace(g.Name) == "" {
		return "", ErrBlankName
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id, err := s.upsertTx(ctx, tx, g)
	if err != nil {
		return "", ClassifyError(err)
	}
	if err := tx.Commit(); err != nil {
		return "", ClassifyError(fmt.Errorf("commit tx: %w", err))
	}
	return id, nil
}

// upsertTx runs the write steps in order: references, game root,
// requirements, details, gallery. Later steps need ids from earlier ones.
func (s *Service) upsertTx(ctx context.Context, tx *sql.Tx, g models.CanonicalGame) (string, error) {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return "", ErrBlankName
	}
	now := s.clock().UTC().Format(timestampLayout)

	resolver := refs.New(tx)
	genreIDs, err := resolver.ResolveAll(ctx, refs.KindGenre, g.Genres)
	if err != nil {
		return "", fmt.Errorf("resolve genres for %s: %w", name, err)
	}
	platformIDs, err := resolver.ResolveAll(ctx, refs.KindPlatform, g.Platforms)
	if err != nil {
		return "", fmt.Errorf("resolve platforms for %s: %w", name, err)
	}

	gameID, err := upsertGame(ctx, tx, name, g, now)
	if err != nil {
		return "", err
	}

	minID, err := upsertRequirement(ctx, tx, tableMinRequirements, g.MinRequirement)
	if err != nil {
		return "", fmt.Errorf("min requirement for %s: %w", name, err)
	}
	recID, err := upsertRequirement(ctx, tx, tableRecRequirements, g.RecRequirement)
	if err != nil {
		return "", fmt.Errorf("rec requirement for %s: %w", name, err)
	}

	if err := upsertDetails(ctx, tx, gameID, g, genreIDs, platformIDs, minID, recID, now); err != nil {
		return "", fmt.Errorf("details for %s: %w", name, err)
	}

	if len(g.Images) > 0 {
		if err := replaceGallery(ctx, tx, gameID, galleryKindImage, g.Images); err != nil {
			return "", fmt.Errorf("images for %s: %w", name, err)
		}
	}
	if len(g.Videos) > 0 {
		if err := replaceGallery(ctx, tx, gameID, galleryKindVideo, g.Videos); err != nil {
			return "", fmt.Errorf("videos for %s: %w", name, err)
		}
	}
	return gameID, nil
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func upsertGame(ctx context.Context, tx *sql.Tx, name string, g models.CanonicalGame, now string) (string, error) {
	castJSON, err := jsonList(g.Cast)
	if err != nil {
		return "", fmt.Errorf("marshal cast for %s: %w", name, err)
	}
	crewJSON, err := jsonList(g.Crew)
	if err != nil {
		return "", fmt.Errorf("marshal crew for %s: %w", name, err)
	}

	var release any
	if g.ReleaseDate != nil {
		release = g.ReleaseDate.UTC().Format(dateLayout)
	}

	q, args := buildUpsert("games", "name", []field{
		{"id", insertOnly, uuid.NewString()},
		{"name", insertOnly, name},
		{"release_date", keepIfNull, release},
		{"metacritic", keepIfNull, g.Metacritic},
		{"internal_rating", keepIfNull, g.InternalRating},
		{"main_image", keepIfNull, nullString(g.MainImage)},
		{"popularity", keepIfNull, g.Popularity},
		{"cast_json", keepIfEmpty, castJSON},
		{"crew_json", keepIfEmpty, crewJSON},
		{"created_at", insertOnly, now},
		{"updated_at", overwrite, now},
	}, "id")

	var id string
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("exec upsert for %s: %w", name, err)
	}
	return id, nil
}

func upsertDetails(ctx context.Context, tx *sql.Tx, gameID string, g models.CanonicalGame,
	genreIDs, platformIDs []string, minID, recID *string, now string) error {
	fields := []field{
		{"game_id", insertOnly, gameID},
		{"developer", keepIfNull, nullString(g.Developer)},
		{"publisher", keepIfNull, nullString(g.Publisher)},
		{"about", keepIfNull, nullString(g.About)},
		{"game_director", keepIfNull, nullString(g.GameDirector)},
		{"art_director", keepIfNull, nullString(g.ArtDirector)},
		{"music_composer", keepIfNull, nullString(g.MusicComposer)},
		{"min_requirement_id", keepIfNull, minID},
		{"rec_requirement_id", keepIfNull, recID},
		{"time_to_beat_hastily", keepIfNull, g.TimeToBeat.Hastily},
		{"time_to_beat_normally", keepIfNull, g.TimeToBeat.Normally},
		{"time_to_beat_completely", keepIfNull, g.TimeToBeat.Completely},
		{"legacy_requirements", overwrite, nil},
		{"updated_at", overwrite, now},
	}

	lists := []struct {
		col  string
		list []string
	}{
		{"age_ratings", g.AgeRatings},
		{"tags", g.Tags},
		{"engines", g.Engines},
		{"audio_languages", g.AudioLanguages},
		{"subtitle_languages", g.SubtitleLanguages},
		{"interface_languages", g.InterfaceLanguages},
		{"content_warnings", g.ContentWarnings},
		{"dlcs", g.DLCs},
		{"awards", g.Awards},
		{"genre_ids", genreIDs},
		{"platform_ids", platformIDs},
		{"writers", g.Writers},
		{"lead_actors", g.LeadActors},
		{"voice_actors", g.VoiceActors},
		{"cinematics_vfx_team", g.CinematicsVfxTeam},
	}
	for _, l := range lists {
		v, err := jsonList(l.list)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", l.col, err)
		}
		fields = append(fields, field{l.col, keepIfEmpty, v})
	}

	links, err := jsonList(g.StoreLinks)
	if err != nil {
		return fmt.Errorf("marshal store links: %w", err)
	}
	fields = append(fields, field{"store_links", keepIfEmpty, links})

	for _, m := range []struct {
		col  string
		item *models.MediaItem
	}{
		{"poster_image", g.PosterImage},
		{"featured_image", g.FeaturedImage},
		{"poster_video", g.PosterVideo},
	} {
		v, err := jsonValue(m.item)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", m.col, err)
		}
		fields = append(fields, field{m.col, keepIfNull, v})
	}

	q, args := buildUpsert("game_details", "game_id", fields, "")
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}
	return nil
}

// replaceGallery deletes the game's media of one kind and inserts items in
// order.
func replaceGallery(ctx context.Context, tx *sql.Tx, gameID, kind string, items []models.MediaItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM gallery WHERE game_id = ? AND kind = ?`, gameID, kind); err != nil {
		return fmt.Errorf("clear gallery: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gallery (id, game_id, kind, url, title, position, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	pos := 0
	for _, it := range items {
		url := strings.TrimSpace(it.URL)
		if url == "" {
			continue
		}
		var meta any
		if len(it.Meta) > 0 {
			if meta, err = jsonValue(&it.Meta); err != nil {
				return fmt.Errorf("marshal meta: %w", err)
			}
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), gameID, kind, url, it.Title, pos, meta); err != nil {
			return fmt.Errorf("insert gallery row %d: %w", pos, err)
		}
		pos++
	}
	return nil
}
