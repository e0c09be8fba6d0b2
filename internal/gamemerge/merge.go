// Package gamemerge reconciles the IGDB and RAWG views of a game into one
// canonical record.
//
// Merge is a pure function. Catalog data is unreliable, so every missing or
// malformed field degrades to nil/empty instead of producing an error.
//
// Precedence: IGDB (catalog A) wins for every scalar. For list fields the
// IGDB list is used whole when non-empty, otherwise the RAWG list; lists
// from the two catalogs are never mixed element by element.
package gamemerge

import (
	"math"
	"strings"
	"time"

	"commenttogame/internal/credits"
	"commenttogame/internal/storelink"
	"commenttogame/internal/textnorm"
	"commenttogame/pkg/models"
)

// Input bundles both optional catalog records with the side-channel data
// fetched separately. Callers must supply at least one of IGDB or RAWG.
type Input struct {
	IGDB        *models.IgdbGame          `json:"igdb,omitempty"`
	RAWG        *models.RawgGame          `json:"rawg,omitempty"`
	TimeToBeat  *models.TimeToBeatSeconds `json:"time_to_beat,omitempty"`
	StoreLinks  []models.StoreLink        `json:"store_links,omitempty"`
	Cast        []string                  `json:"cast,omitempty"`
	Crew        []string                  `json:"crew,omitempty"`
	DLCs        []string                  `json:"dlcs,omitempty"`
	Screenshots []string                  `json:"screenshots,omitempty"`
	Trailers    []models.Trailer          `json:"trailers,omitempty"`
}

const rawgDateLayout = "2006-01-02"

// Merge builds the canonical record for one game.
func Merge(in Input) models.CanonicalGame {
	a := in.IGDB
	if a == nil {
		a = &models.IgdbGame{}
	}
	b := in.RAWG
	if b == nil {
		b = &models.RawgGame{}
	}

	g := models.CanonicalGame{
		Name:           firstNonBlank(a.Name, b.Name),
		ReleaseDate:    releaseDate(a, b),
		Metacritic:     criticScore(a, b),
		InternalRating: scaleRating(b.Rating),
		MainImage:      firstNonBlank(a.CoverURL, b.BackgroundImage),
		Popularity:     nonNegative(b.Added),
		Developer:      firstNonBlank(firstOf(a.Developers), firstOf(names(b.Developers))),
		Publisher:      firstNonBlank(firstOf(a.Publishers), firstOf(names(b.Publishers))),
		About:          firstNonBlank(a.Summary, b.DescriptionRaw, textnorm.StripHTML(b.Description)),

		Genres:             preferA(a.Genres, names(b.Genres)),
		Platforms:          preferA(a.Platforms, platformNames(b.Platforms)),
		Tags:               preferA(a.Tags, names(b.Tags)),
		AgeRatings:         ageRatings(a, b),
		AudioLanguages:     preferA(a.AudioLanguages, b.AudioLanguages),
		SubtitleLanguages:  preferA(a.SubtitleLanguages, b.SubtitleLanguages),
		InterfaceLanguages: preferA(a.InterfaceLanguages, b.InterfaceLanguages),
		ContentWarnings:    preferA(a.ContentWarnings, b.ContentWarnings),
		Engines:            preferA(a.Engines, append(append([]string(nil), b.Engines...), b.GameEngines...)),
		Awards:             textnorm.DedupeFold(a.Awards),
		DLCs:               preferA(in.DLCs, a.DLCs),

		TimeToBeat: timeToBeat(in.TimeToBeat),
		StoreLinks: storeLinks(in.StoreLinks, b.Stores),
	}

	g.Cast, g.Crew = castAndCrew(in, a, b)
	g.MinRequirement, g.RecRequirement = pcRequirements(b.Platforms)

	g.Images = buildImages(g.MainImage, in.Screenshots)
	g.Videos = buildVideos(in.Trailers)
	g.PosterImage = posterImage(g.Images)
	g.FeaturedImage = featuredImage(g.Images)
	g.PosterVideo = posterVideo(g.Videos)

	fillEmpty(&g)
	return g
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstOf(list []string) string {
	return firstNonBlank(list...)
}

func names(list []models.RawgNamed) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Name)
	}
	return out
}

func platformNames(list []models.RawgPlatform) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Platform.Name)
	}
	return out
}

// preferA returns the deduplicated a list if it has anything, else b's.
func preferA(a, b []string) []string {
	if d := textnorm.DedupeFold(a); len(d) > 0 {
		return d
	}
	return textnorm.DedupeFold(b)
}

func releaseDate(a *models.IgdbGame, b *models.RawgGame) *time.Time {
	if a.FirstReleaseDate != nil {
		t := time.Unix(*a.FirstReleaseDate, 0).UTC()
		return &t
	}
	if s := strings.TrimSpace(b.Released); s != "" {
		if t, err := time.Parse(rawgDateLayout, s); err == nil {
			return &t
		}
	}
	return nil
}

func criticScore(a *models.IgdbGame, b *models.RawgGame) *int {
	if a.AggregatedRating != nil && !math.IsNaN(*a.AggregatedRating) && *a.AggregatedRating >= 0 {
		v := clampInt(int(math.Round(*a.AggregatedRating)), 0, 100)
		return &v
	}
	if b.Metacritic != nil && *b.Metacritic >= 0 {
		v := clampInt(*b.Metacritic, 0, 100)
		return &v
	}
	return nil
}

// scaleRating converts a 0-5 rating to 0-100. Values above 5 are clamped;
// negative or NaN ratings count as missing.
func scaleRating(r *float64) *int {
	if r == nil || math.IsNaN(*r) || *r < 0 {
		return nil
	}
	v := int(math.Round(math.Min(*r, 5) * 20))
	return &v
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	out := *v
	return &out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ageRatings(a *models.IgdbGame, b *models.RawgGame) []string {
	if d := textnorm.DedupeFold(a.AgeRatings); len(d) > 0 {
		return d
	}
	var synth []string
	if b.EsrbRating != nil {
		if name := strings.TrimSpace(b.EsrbRating.Name); name != "" {
			if !strings.HasPrefix(strings.ToUpper(name), "ESRB") {
				name = "ESRB " + name
			}
			synth = append(synth, name)
		}
	}
	synth = append(synth, b.AgeRatings...)
	return textnorm.DedupeFold(synth)
}

func castAndCrew(in Input, a *models.IgdbGame, b *models.RawgGame) (cast, crew []string) {
	if len(in.Cast) > 0 || len(in.Crew) > 0 {
		return textnorm.SortFold(in.Cast), textnorm.SortFold(in.Crew)
	}
	if len(a.Cast) > 0 || len(a.Crew) > 0 {
		return textnorm.SortFold(a.Cast), textnorm.SortFold(a.Crew)
	}
	return credits.Split(credits.FromRawg(b.Credits))
}

func storeLinks(explicit []models.StoreLink, entries []models.RawgStoreEntry) []models.StoreLink {
	if len(explicit) > 0 {
		return storelink.Dedupe(explicit)
	}
	sources := make([]storelink.Source, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, storelink.Source{
			URL: e.URL,
			Hint: storelink.Hint{
				StoreID: e.Store.ID,
				Name:    e.Store.Name,
				Slug:    e.Store.Slug,
				Domain:  e.Store.Domain,
			},
		})
	}
	return storelink.MapAll(sources)
}

func timeToBeat(in *models.TimeToBeatSeconds) models.TimeToBeat {
	if in == nil {
		return models.TimeToBeat{}
	}
	return models.TimeToBeat{
		Hastily:    secondsToHours(in.Hastily),
		Normally:   secondsToHours(in.Normally),
		Completely: secondsToHours(in.Completely),
	}
}

func secondsToHours(s *int64) *int {
	if s == nil || *s < 0 {
		return nil
	}
	h := int(math.Round(float64(*s) / 3600.0))
	return &h
}

// pcRequirements finds the PC platform entry and normalizes its minimum and
// recommended text. An exact "pc" slug wins over a name containing "PC".
func pcRequirements(platforms []models.RawgPlatform) (minReq, recReq *models.RequirementInput) {
	var pc *models.RawgPlatform
	for i := range platforms {
		if strings.EqualFold(strings.TrimSpace(platforms[i].Platform.Slug), "pc") {
			pc = &platforms[i]
			break
		}
	}
	if pc == nil {
		for i := range platforms {
			p := platforms[i].Platform
			if strings.Contains(strings.ToLower(p.Name), "pc") || strings.Contains(strings.ToLower(p.Slug), "pc") {
				pc = &platforms[i]
				break
			}
		}
	}
	if pc == nil || pc.Requirements == nil {
		return nil, nil
	}
	return requirementText(pc.Requirements.Minimum), requirementText(pc.Requirements.Recommended)
}

func requirementText(raw string) *models.RequirementInput {
	text := textnorm.Normalize(raw)
	if text == "" {
		return nil
	}
	return &models.RequirementInput{Text: &text}
}

func fillEmpty(g *models.CanonicalGame) {
	for _, list := range []*[]string{
		&g.Genres, &g.Platforms, &g.Tags, &g.AgeRatings,
		&g.AudioLanguages, &g.SubtitleLanguages, &g.InterfaceLanguages,
		&g.ContentWarnings, &g.Engines, &g.Awards, &g.Cast, &g.Crew, &g.DLCs,
		&g.Writers, &g.LeadActors, &g.VoiceActors, &g.CinematicsVfxTeam,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
	if g.StoreLinks == nil {
		g.StoreLinks = []models.StoreLink{}
	}
	if g.Images == nil {
		g.Images = []models.MediaItem{}
	}
	if g.Videos == nil {
		g.Videos = []models.MediaItem{}
	}
}
