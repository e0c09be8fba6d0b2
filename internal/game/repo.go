// Package game serves stored games. Reads join in application code: games
// first, then details by id set, then reference and requirement rows by id
// set, assembled in memory.
package game

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"commenttogame/internal/textnorm"
	"commenttogame/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	Q        string // substring match on name
	Genre    string // genre name, case-insensitive
	Platform string // platform name, case-insensitive
	Sort     string // name (default), popularity, release, metacritic
	Limit    int
	Offset   int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const gameColumns = `id, name, release_date, metacritic, internal_rating, main_image, popularity, cast_json, crew_json, created_at, updated_at`

var sortOrders = map[string]string{
	"name":       "name ASC",
	"popularity": "popularity IS NULL, popularity DESC, name ASC",
	"release":    "release_date IS NULL, release_date DESC, name ASC",
	"metacritic": "metacritic IS NULL, metacritic DESC, name ASC",
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.GameView, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	views, err := scanGames(rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	if err := r.attach(ctx, views); err != nil {
		return nil, err
	}

	v := &views[0]
	if v.Images, v.Videos, err = r.gallery(ctx, v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	where, args := buildFilter(q)
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.GameView, error) {
	where, args := buildFilter(q)

	order, ok := sortOrders[q.Sort]
	if !ok {
		order = sortOrders["name"]
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games`+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	views, err := scanGames(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attach(ctx, views); err != nil {
		return nil, err
	}
	return views, nil
}

// buildFilter returns a WHERE clause (with leading space) and its args.
func buildFilter(q ListQuery) (string, []any) {
	var where []string
	var args []any

	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}
	refFilter := func(column, table, name string) {
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM game_details d, json_each(d.%s) j
			JOIN %s ref ON ref.id = j.value
			WHERE d.game_id = games.id AND ref.name_key = ?)`, column, table))
		args = append(args, textnorm.FoldKey(name))
	}
	if g := strings.TrimSpace(q.Genre); g != "" {
		refFilter("genre_ids", "genres", g)
	}
	if p := strings.TrimSpace(q.Platform); p != "" {
		refFilter("platform_ids", "platforms", p)
	}

	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func scanGames(rows *sql.Rows) ([]models.GameView, error) {
	defer rows.Close()

	out := []models.GameView{}
	for rows.Next() {
		var (
			v                  models.GameView
			release, mainImage sql.NullString
			metacritic, rating sql.NullInt64
			popularity         sql.NullInt64
			castJSON, crewJSON string
		)
		if err := rows.Scan(&v.ID, &v.Name, &release, &metacritic, &rating, &mainImage, &popularity,
			&castJSON, &crewJSON, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		v.ReleaseDate = release.String
		v.MainImage = mainImage.String
		v.Metacritic = nullInt(metacritic)
		v.InternalRating = nullInt(rating)
		v.Popularity = nullInt(popularity)
		v.Cast = decodeList(castJSON)
		v.Crew = decodeList(crewJSON)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// attach loads details, reference names and requirement text for views.
func (r *Repo) attach(ctx context.Context, views []models.GameView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}

	details, err := r.details(ctx, ids)
	if err != nil {
		return err
	}

	var genreIDs, platformIDs, minIDs, recIDs []string
	for _, d := range details {
		genreIDs = append(genreIDs, d.genreIDs...)
		platformIDs = append(platformIDs, d.platformIDs...)
		if d.minID != "" {
			minIDs = append(minIDs, d.minID)
		}
		if d.recID != "" {
			recIDs = append(recIDs, d.recID)
		}
	}

	genres, err := r.lookup(ctx, `SELECT id, name FROM genres WHERE id IN `, genreIDs)
	if err != nil {
		return err
	}
	platforms, err := r.lookup(ctx, `SELECT id, name FROM platforms WHERE id IN `, platformIDs)
	if err != nil {
		return err
	}
	minText, err := r.lookup(ctx, `SELECT id, text FROM min_requirements WHERE id IN `, minIDs)
	if err != nil {
		return err
	}
	recText, err := r.lookup(ctx, `SELECT id, text FROM rec_requirements WHERE id IN `, recIDs)
	if err != nil {
		return err
	}

	for i := range views {
		v := &views[i]
		d, ok := details[v.ID]
		if !ok {
			d = &detailRow{}
		}
		v.Developer, v.Publisher, v.About = d.developer, d.publisher, d.about
		v.Tags, v.AgeRatings, v.Engines, v.Awards, v.DLCs = d.tags, d.ageRatings, d.engines, d.awards, d.dlcs
		v.AudioLanguages, v.SubtitleLanguages, v.InterfaceLanguages = d.audio, d.subtitles, d.interfaceLangs
		v.ContentWarnings = d.contentWarnings
		v.StoreLinks = d.storeLinks
		v.TimeToBeat = d.timeToBeat
		v.PosterImage, v.FeaturedImage, v.PosterVideo = d.poster, d.featured, d.posterVideo
		v.Genres = names(d.genreIDs, genres)
		v.Platforms = names(d.platformIDs, platforms)
		v.MinRequirement = minText[d.minID]
		v.RecRequirement = recText[d.recID]
		fillLists(v)
	}
	return nil
}

type detailRow struct {
	developer, publisher, about string
	tags, ageRatings, engines   []string
	awards, dlcs                []string
	audio, subtitles            []string
	interfaceLangs              []string
	contentWarnings             []string
	genreIDs, platformIDs       []string
	minID, recID                string
	storeLinks                  []models.StoreLink
	timeToBeat                  models.TimeToBeat
	poster, featured            *models.MediaItem
	posterVideo                 *models.MediaItem
}

func (r *Repo) details(ctx context.Context, ids []string) (map[string]*detailRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT game_id, developer, publisher, about, tags, age_ratings, engines, awards, dlcs,
		       audio_languages, subtitle_languages, interface_languages, content_warnings,
		       genre_ids, platform_ids, min_requirement_id, rec_requirement_id, store_links,
		       time_to_beat_hastily, time_to_beat_normally, time_to_beat_completely,
		       poster_image, featured_image, poster_video
		FROM game_details WHERE game_id IN `+placeholders(len(ids)), toArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("details query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*detailRow, len(ids))
	for rows.Next() {
		var (
			gameID                            string
			developer, publisher, about       sql.NullString
			tags, ages, engines, awards, dlcs string
			audio, subs, iface, warnings      string
			genreIDs, platformIDs, links      string
			minID, recID                      sql.NullString
			hastily, normally, completely     sql.NullInt64
			poster, featured, posterVideo     sql.NullString
		)
		if err := rows.Scan(&gameID, &developer, &publisher, &about, &tags, &ages, &engines, &awards, &dlcs,
			&audio, &subs, &iface, &warnings, &genreIDs, &platformIDs, &minID, &recID, &links,
			&hastily, &normally, &completely, &poster, &featured, &posterVideo); err != nil {
			return nil, fmt.Errorf("details scan: %w", err)
		}

		d := &detailRow{
			developer:       developer.String,
			publisher:       publisher.String,
			about:           about.String,
			tags:            decodeList(tags),
			ageRatings:      decodeList(ages),
			engines:         decodeList(engines),
			awards:          decodeList(awards),
			dlcs:            decodeList(dlcs),
			audio:           decodeList(audio),
			subtitles:       decodeList(subs),
			interfaceLangs:  decodeList(iface),
			contentWarnings: decodeList(warnings),
			genreIDs:        decodeList(genreIDs),
			platformIDs:     decodeList(platformIDs),
			minID:           minID.String,
			recID:           recID.String,
			timeToBeat: models.TimeToBeat{
				Hastily:    nullInt(hastily),
				Normally:   nullInt(normally),
				Completely: nullInt(completely),
			},
			poster:      decodeMedia(poster),
			featured:    decodeMedia(featured),
			posterVideo: decodeMedia(posterVideo),
		}
		_ = json.Unmarshal([]byte(links), &d.storeLinks)
		out[gameID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// lookup runs an "id, value" query over an id set.
func (r *Repo) lookup(ctx context.Context, prefix string, ids []string) (map[string]string, error) {
	out := map[string]string{}
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.QueryContext(ctx, prefix+placeholders(len(ids)), toArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("lookup query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, val string
		if err := rows.Scan(&id, &val); err != nil {
			return nil, fmt.Errorf("lookup scan: %w", err)
		}
		out[id] = val
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) gallery(ctx context.Context, gameID string) (images, videos []models.MediaItem, err error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT kind, url, title, meta FROM gallery
		WHERE game_id = ?
		ORDER BY kind, position
	`, gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("gallery query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind string
			item models.MediaItem
			meta sql.NullString
		)
		if err := rows.Scan(&kind, &item.URL, &item.Title, &meta); err != nil {
			return nil, nil, fmt.Errorf("gallery scan: %w", err)
		}
		if meta.Valid {
			_ = json.Unmarshal([]byte(meta.String), &item.Meta)
		}
		if kind == "video" {
			videos = append(videos, item)
		} else {
			images = append(images, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows err: %w", err)
	}
	return images, videos, nil
}

// placeholders renders "(?,?,...)"; n == 0 gives "(NULL)", which matches nothing.
func placeholders(n int) string {
	if n <= 0 {
		return "(NULL)"
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func names(ids []string, byID map[string]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

func decodeList(raw string) []string {
	var out []string
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func decodeMedia(raw sql.NullString) *models.MediaItem {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var m models.MediaItem
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil
	}
	return &m
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func fillLists(v *models.GameView) {
	for _, l := range []*[]string{
		&v.Genres, &v.Platforms, &v.Tags, &v.AgeRatings, &v.AudioLanguages, &v.SubtitleLanguages,
		&v.InterfaceLanguages, &v.ContentWarnings, &v.Engines, &v.Awards, &v.Cast, &v.Crew, &v.DLCs,
	} {
		if *l == nil {
			*l = []string{}
		}
	}
	if v.StoreLinks == nil {
		v.StoreLinks = []models.StoreLink{}
	}
}
