package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"commenttogame/pkg/models"
	"commenttogame/pkg/utils"
)

const igdbImageBase = "https://images.igdb.com/igdb/image/upload/t_cover_big/"

const igdbGameFields = `fields name,summary,first_release_date,aggregated_rating,cover.image_id,
	genres.name,platforms.name,themes.name,keywords.name,
	involved_companies.company.name,involved_companies.developer,involved_companies.publisher,
	age_ratings.organization.name,age_ratings.rating_category.rating,
	age_ratings.rating_content_descriptions.description,
	language_supports.language.name,language_supports.language_support_type.name,
	game_engines.name,dlcs.name,expansions.name;`

// SearchHit is one candidate returned by a catalog search.
type SearchHit struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IGDBClient talks to the IGDB v4 API (catalog A). Queries are Apicalypse
// bodies POSTed to one endpoint per resource.
type IGDBClient struct {
	BaseURL  string
	ClientID string
	Tokens   TokenProvider

	caller *catalogCaller
}

func NewIGDBClient(cfg utils.IGDBConfig, tokens TokenProvider) *IGDBClient {
	return &IGDBClient{
		BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		ClientID: cfg.ClientID,
		Tokens:   tokens,
		caller:   newCatalogCaller("igdb", cfg.RequestsPerSecond, cfg.Timeout),
	}
}

// Search returns up to five games matching title, best match first.
func (c *IGDBClient) Search(ctx context.Context, title string) ([]SearchHit, error) {
	q := fmt.Sprintf("search \"%s\";\nfields id,name;\nlimit 5;", escapeApicalypse(title))
	var hits []SearchHit
	if err := c.query(ctx, "/games", q, &hits); err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("igdb: search %q: %w", title, ErrNotFound)
	}
	return hits, nil
}

type igdbNamed struct {
	Name string `json:"name"`
}

type igdbGame struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Summary          string   `json:"summary"`
	FirstReleaseDate *int64   `json:"first_release_date"`
	AggregatedRating *float64 `json:"aggregated_rating"`
	Cover            *struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
	Genres            []igdbNamed `json:"genres"`
	Platforms         []igdbNamed `json:"platforms"`
	Themes            []igdbNamed `json:"themes"`
	Keywords          []igdbNamed `json:"keywords"`
	InvolvedCompanies []struct {
		Company   igdbNamed `json:"company"`
		Developer bool      `json:"developer"`
		Publisher bool      `json:"publisher"`
	} `json:"involved_companies"`
	AgeRatings []struct {
		Organization   igdbNamed `json:"organization"`
		RatingCategory struct {
			Rating string `json:"rating"`
		} `json:"rating_category"`
		Descriptions []struct {
			Description string `json:"description"`
		} `json:"rating_content_descriptions"`
	} `json:"age_ratings"`
	LanguageSupports []struct {
		Language igdbNamed `json:"language"`
		Type     igdbNamed `json:"language_support_type"`
	} `json:"language_supports"`
	GameEngines []igdbNamed `json:"game_engines"`
	DLCs        []igdbNamed `json:"dlcs"`
	Expansions  []igdbNamed `json:"expansions"`
}

// Game fetches one game with its references expanded and flattened into
// name lists.
func (c *IGDBClient) Game(ctx context.Context, id int64) (*models.IgdbGame, error) {
	q := fmt.Sprintf("%s\nwhere id = %d;\nlimit 1;", igdbGameFields, id)
	var games []igdbGame
	if err := c.query(ctx, "/games", q, &games); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("igdb: game %d: %w", id, ErrNotFound)
	}
	return flattenIGDB(games[0]), nil
}

func flattenIGDB(g igdbGame) *models.IgdbGame {
	out := &models.IgdbGame{
		ID:               g.ID,
		Name:             g.Name,
		Summary:          g.Summary,
		FirstReleaseDate: g.FirstReleaseDate,
		AggregatedRating: g.AggregatedRating,
		Genres:           igdbNames(g.Genres),
		Platforms:        igdbNames(g.Platforms),
		Tags:             append(igdbNames(g.Themes), igdbNames(g.Keywords)...),
		Engines:          igdbNames(g.GameEngines),
		DLCs:             append(igdbNames(g.DLCs), igdbNames(g.Expansions)...),
	}
	if g.Cover != nil && g.Cover.ImageID != "" {
		out.CoverURL = igdbImageBase + g.Cover.ImageID + ".jpg"
	}
	for _, ic := range g.InvolvedCompanies {
		if ic.Company.Name == "" {
			continue
		}
		if ic.Developer {
			out.Developers = append(out.Developers, ic.Company.Name)
		}
		if ic.Publisher {
			out.Publishers = append(out.Publishers, ic.Company.Name)
		}
	}
	for _, ar := range g.AgeRatings {
		rating := strings.TrimSpace(ar.RatingCategory.Rating)
		if rating == "" {
			continue
		}
		if org := strings.TrimSpace(ar.Organization.Name); org != "" && !strings.HasPrefix(strings.ToUpper(rating), strings.ToUpper(org)) {
			rating = org + " " + rating
		}
		out.AgeRatings = append(out.AgeRatings, rating)
		for _, d := range ar.Descriptions {
			if d.Description != "" {
				out.ContentWarnings = append(out.ContentWarnings, d.Description)
			}
		}
	}
	for _, ls := range g.LanguageSupports {
		lang := ls.Language.Name
		if lang == "" {
			continue
		}
		switch strings.ToLower(ls.Type.Name) {
		case "audio":
			out.AudioLanguages = append(out.AudioLanguages, lang)
		case "subtitles":
			out.SubtitleLanguages = append(out.SubtitleLanguages, lang)
		case "interface":
			out.InterfaceLanguages = append(out.InterfaceLanguages, lang)
		}
	}
	return out
}

// TimeToBeat returns completion times in seconds. IGDB has no entry for
// most games; that is ErrNotFound.
func (c *IGDBClient) TimeToBeat(ctx context.Context, id int64) (*models.TimeToBeatSeconds, error) {
	q := fmt.Sprintf("fields hastily,normally,completely;\nwhere game_id = %d;\nlimit 1;", id)
	var rows []models.TimeToBeatSeconds
	if err := c.query(ctx, "/game_time_to_beats", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("igdb: time to beat %d: %w", id, ErrNotFound)
	}
	return &rows[0], nil
}

// Trailers lists the YouTube videos attached to a game.
func (c *IGDBClient) Trailers(ctx context.Context, id int64) ([]models.Trailer, error) {
	q := fmt.Sprintf("fields name,video_id;\nwhere game = %d;\nlimit 20;", id)
	var rows []struct {
		Name    string `json:"name"`
		VideoID string `json:"video_id"`
	}
	if err := c.query(ctx, "/game_videos", q, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Trailer, 0, len(rows))
	for _, r := range rows {
		if r.VideoID == "" {
			continue
		}
		out = append(out, models.Trailer{Platform: "youtube", YouTubeID: r.VideoID})
	}
	return out, nil
}

func (c *IGDBClient) query(ctx context.Context, endpoint, body string, dst any) error {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return err
	}
	raw, err := c.caller.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Client-ID", c.ClientID)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "text/plain")
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("igdb: decode %s: %w", endpoint, err)
	}
	return nil
}

func igdbNames(list []igdbNamed) []string {
	var out []string
	for _, n := range list {
		if s := strings.TrimSpace(n.Name); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// escapeApicalypse escapes a user string for a double-quoted Apicalypse literal.
func escapeApicalypse(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
