package models

// GameView is a stored game joined with its details, reference names and
// requirement text, as served by the read API.
type GameView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ReleaseDate    string `json:"release_date,omitempty"` // YYYY-MM-DD
	Metacritic     *int   `json:"metacritic,omitempty"`
	InternalRating *int   `json:"internal_rating,omitempty"`
	MainImage      string `json:"main_image,omitempty"`
	Popularity     *int   `json:"popularity,omitempty"`

	Developer string `json:"developer,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	About     string `json:"about,omitempty"`

	Genres             []string `json:"genres"`
	Platforms          []string `json:"platforms"`
	Tags               []string `json:"tags"`
	AgeRatings         []string `json:"age_ratings"`
	AudioLanguages     []string `json:"audio_languages"`
	SubtitleLanguages  []string `json:"subtitle_languages"`
	InterfaceLanguages []string `json:"interface_languages"`
	ContentWarnings    []string `json:"content_warnings"`
	Engines            []string `json:"engines"`
	Awards             []string `json:"awards"`
	Cast               []string `json:"cast"`
	Crew               []string `json:"crew"`
	DLCs               []string `json:"dlcs"`

	StoreLinks     []StoreLink `json:"store_links"`
	TimeToBeat     TimeToBeat  `json:"time_to_beat"`
	MinRequirement string      `json:"min_requirement,omitempty"`
	RecRequirement string      `json:"rec_requirement,omitempty"`

	PosterImage   *MediaItem `json:"poster_image,omitempty"`
	FeaturedImage *MediaItem `json:"featured_image,omitempty"`
	PosterVideo   *MediaItem `json:"poster_video,omitempty"`

	// Only filled for single-game reads.
	Images []MediaItem `json:"images,omitempty"`
	Videos []MediaItem `json:"videos,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
