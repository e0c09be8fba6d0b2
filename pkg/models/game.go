package models

import "time"

// CanonicalGame is the normalized, internal form of a game after both
// external catalogs have been reconciled.
//
// The merge engine builds it in memory; the persistence layer writes it
// across the games / game_details / reference / gallery tables.
type CanonicalGame struct {
	Name           string     `json:"name"`
	ReleaseDate    *time.Time `json:"release_date,omitempty"`
	Metacritic     *int       `json:"metacritic,omitempty"`      // critic score 0-100
	InternalRating *int       `json:"internal_rating,omitempty"` // 0-100, derived from a 0-5 source
	MainImage      string     `json:"main_image,omitempty"`
	Popularity     *int       `json:"popularity,omitempty"`
	Developer      string     `json:"developer,omitempty"`
	Publisher      string     `json:"publisher,omitempty"`
	About          string     `json:"about,omitempty"`

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

	TimeToBeat TimeToBeat  `json:"time_to_beat"`
	StoreLinks []StoreLink `json:"store_links"`

	Images        []MediaItem `json:"images"`
	Videos        []MediaItem `json:"videos"`
	PosterImage   *MediaItem  `json:"poster_image,omitempty"`
	FeaturedImage *MediaItem  `json:"featured_image,omitempty"`
	PosterVideo   *MediaItem  `json:"poster_video,omitempty"`

	MinRequirement *RequirementInput `json:"min_requirement,omitempty"`
	RecRequirement *RequirementInput `json:"rec_requirement,omitempty"`

	// Not sourced from either catalog yet; always empty after a merge.
	GameDirector      string   `json:"game_director"`
	ArtDirector       string   `json:"art_director"`
	MusicComposer     string   `json:"music_composer"`
	Writers           []string `json:"writers"`
	LeadActors        []string `json:"lead_actors"`
	VoiceActors       []string `json:"voice_actors"`
	CinematicsVfxTeam []string `json:"cinematics_vfx_team"`
}

// TimeToBeat holds completion estimates in whole hours.
type TimeToBeat struct {
	Hastily    *int `json:"hastily,omitempty"`
	Normally   *int `json:"normally,omitempty"`
	Completely *int `json:"completely,omitempty"`
}

// RequirementInput references a requirement text block either by an
// existing row id, by its normalized text, or both.
type RequirementInput struct {
	ID   *string `json:"id,omitempty"`
	Text *string `json:"text,omitempty"`
}

// StoreLink is one storefront a game can be bought from.
type StoreLink struct {
	StoreID    *int    `json:"store_id,omitempty"`
	Store      string  `json:"store"` // display name
	Slug       string  `json:"slug"`
	Domain     string  `json:"domain,omitempty"`
	URL        string  `json:"url"`
	ExternalID *string `json:"external_id,omitempty"`
}

// MediaItem is a gallery image or video.
type MediaItem struct {
	URL   string            `json:"url"`
	Title string            `json:"title"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// Media titles used by the merge engine.
const (
	TitleMainImage   = "Main Image"
	TitleScreenshot1 = "Screenshot 1"
	TitleTrailer1    = "Trailer 1"
)
