package models

// IgdbGame is the detail record produced from the IGDB catalog
// (catalog A). Every field is optional; the IGDB client flattens the
// expanded Apicalypse response into plain name lists.
type IgdbGame struct {
	ID                 int64    `json:"id,omitempty"`
	Name               string   `json:"name,omitempty"`
	Summary            string   `json:"summary,omitempty"`
	FirstReleaseDate   *int64   `json:"first_release_date,omitempty"` // unix seconds
	AggregatedRating   *float64 `json:"aggregated_rating,omitempty"`  // critic score 0-100
	CoverURL           string   `json:"cover_url,omitempty"`
	Genres             []string `json:"genres,omitempty"`
	Platforms          []string `json:"platforms,omitempty"`
	Developers         []string `json:"developers,omitempty"`
	Publishers         []string `json:"publishers,omitempty"`
	AgeRatings         []string `json:"age_ratings,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	AudioLanguages     []string `json:"audio_languages,omitempty"`
	SubtitleLanguages  []string `json:"subtitle_languages,omitempty"`
	InterfaceLanguages []string `json:"interface_languages,omitempty"`
	ContentWarnings    []string `json:"content_warnings,omitempty"`
	Engines            []string `json:"engines,omitempty"`
	Awards             []string `json:"awards,omitempty"`
	Cast               []string `json:"cast,omitempty"`
	Crew               []string `json:"crew,omitempty"`
	DLCs               []string `json:"dlcs,omitempty"`
}

// RawgGame is the detail record returned by the RAWG catalog (catalog B).
// Field names follow the RAWG JSON so payloads decode directly.
type RawgGame struct {
	ID              int            `json:"id,omitempty"`
	Slug            string         `json:"slug,omitempty"`
	Name            string         `json:"name,omitempty"`
	Description     string         `json:"description,omitempty"` // HTML
	DescriptionRaw  string         `json:"description_raw,omitempty"`
	Released        string         `json:"released,omitempty"` // YYYY-MM-DD
	Rating          *float64       `json:"rating,omitempty"`   // 0-5
	Metacritic      *int           `json:"metacritic,omitempty"`
	BackgroundImage string         `json:"background_image,omitempty"`
	Added           *int           `json:"added,omitempty"`
	Genres          []RawgNamed    `json:"genres,omitempty"`
	Platforms       []RawgPlatform `json:"platforms,omitempty"`
	Developers      []RawgNamed    `json:"developers,omitempty"`
	Publishers      []RawgNamed    `json:"publishers,omitempty"`
	EsrbRating      *RawgNamed     `json:"esrb_rating,omitempty"`
	AgeRatings      []string       `json:"age_ratings,omitempty"`
	Tags            []RawgNamed    `json:"tags,omitempty"`

	AudioLanguages     []string `json:"audio_languages,omitempty"`
	SubtitleLanguages  []string `json:"subtitle_languages,omitempty"`
	InterfaceLanguages []string `json:"interface_languages,omitempty"`
	ContentWarnings    []string `json:"content_warnings,omitempty"`

	// RAWG payloads have used both names for engine lists.
	Engines     []string `json:"engines,omitempty"`
	GameEngines []string `json:"game_engines,omitempty"`

	Stores  []RawgStoreEntry `json:"stores,omitempty"`
	Credits []RawgPerson     `json:"credits,omitempty"`
}

// RawgNamed is the {id, name, slug} shape RAWG uses for most references.
type RawgNamed struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// RawgPlatform is one entry of RAWG's per-platform list.
type RawgPlatform struct {
	Platform     RawgNamed         `json:"platform"`
	Requirements *RawgRequirements `json:"requirements,omitempty"`
}

// RawgRequirements carries free-text system requirements.
type RawgRequirements struct {
	Minimum     string `json:"minimum,omitempty"`
	Recommended string `json:"recommended,omitempty"`
}

// RawgStoreEntry links a game to a storefront.
type RawgStoreEntry struct {
	ID    int       `json:"id,omitempty"`
	URL   string    `json:"url,omitempty"`
	Store RawgStore `json:"store"`
}

// RawgStore describes a storefront.
type RawgStore struct {
	ID     int    `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Slug   string `json:"slug,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// RawgPerson is a credited person with free-text roles.
type RawgPerson struct {
	Name      string      `json:"name"`
	Positions []RawgNamed `json:"positions,omitempty"`
}

// TimeToBeatSeconds is the raw completion-time side input, in seconds.
type TimeToBeatSeconds struct {
	Hastily    *int64 `json:"hastily,omitempty"`
	Normally   *int64 `json:"normally,omitempty"`
	Completely *int64 `json:"completely,omitempty"`
}

// Trailer is a raw trailer reference from either catalog.
type Trailer struct {
	Platform  string `json:"platform,omitempty"`
	URL       string `json:"url,omitempty"`
	YouTubeID string `json:"youtube_id,omitempty"`
}

// Person is a credited person with the roles they held.
type Person struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
}
