package gamemerge

import (
	"math"
	"reflect"
	"testing"
	"time"

	"commenttogame/internal/textnorm"
	"commenttogame/pkg/models"
)

func ptrInt(v int) *int           { return &v }
func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }

func TestMergeNamePrecedence(t *testing.T) {
	g := Merge(Input{
		IGDB: &models.IgdbGame{Name: "X"},
		RAWG: &models.RawgGame{Name: "Y"},
	})
	if g.Name != "X" {
		t.Fatalf("name = %q, want X", g.Name)
	}

	g = Merge(Input{
		IGDB: &models.IgdbGame{Name: "  "},
		RAWG: &models.RawgGame{Name: "Y"},
	})
	if g.Name != "Y" {
		t.Fatalf("name = %q, want Y when IGDB name is blank", g.Name)
	}

	g = Merge(Input{RAWG: &models.RawgGame{Name: "Only RAWG"}})
	if g.Name != "Only RAWG" {
		t.Fatalf("name = %q", g.Name)
	}
}

func TestMergeScalars(t *testing.T) {
	release := time.Date(2013, 9, 17, 0, 0, 0, 0, time.UTC)
	g := Merge(Input{
		IGDB: &models.IgdbGame{
			Name:             "Grand Theft Auto V",
			Summary:          "  Los Santos.  ",
			FirstReleaseDate: ptrInt64(release.Unix()),
			AggregatedRating: ptrFloat(96.6),
			Developers:       []string{"", "Rockstar North"},
		},
		RAWG: &models.RawgGame{
			Released:        "2014-11-18",
			Rating:          ptrFloat(4.47),
			Metacritic:      ptrInt(92),
			BackgroundImage: "https://media.rawg.io/gta5.jpg",
			Added:           ptrInt(20000),
			Publishers:      []models.RawgNamed{{Name: "Rockstar Games"}},
			Developers:      []models.RawgNamed{{Name: "Rockstar Games"}},
		},
	})

	if g.ReleaseDate == nil || !g.ReleaseDate.Equal(release) {
		t.Errorf("release date = %v, want %v", g.ReleaseDate, release)
	}
	if g.Metacritic == nil || *g.Metacritic != 97 {
		t.Errorf("metacritic = %v, want 97", g.Metacritic)
	}
	if g.InternalRating == nil || *g.InternalRating != 89 {
		t.Errorf("internal rating = %v, want 89", g.InternalRating)
	}
	if g.MainImage != "https://media.rawg.io/gta5.jpg" {
		t.Errorf("main image = %q", g.MainImage)
	}
	if g.Popularity == nil || *g.Popularity != 20000 {
		t.Errorf("popularity = %v", g.Popularity)
	}
	if g.Developer != "Rockstar North" {
		t.Errorf("developer = %q", g.Developer)
	}
	if g.Publisher != "Rockstar Games" {
		t.Errorf("publisher = %q", g.Publisher)
	}
	if g.About != "Los Santos." {
		t.Errorf("about = %q", g.About)
	}
}

func TestMergeRawgFallbacks(t *testing.T) {
	g := Merge(Input{
		RAWG: &models.RawgGame{
			Name:        "Hades",
			Released:    "2020-09-17",
			Metacritic:  ptrInt(93),
			Description: "<p>Defy the god<br/>of the dead.</p>",
		},
	})
	want := time.Date(2020, 9, 17, 0, 0, 0, 0, time.UTC)
	if g.ReleaseDate == nil || !g.ReleaseDate.Equal(want) {
		t.Errorf("release date = %v", g.ReleaseDate)
	}
	if g.Metacritic == nil || *g.Metacritic != 93 {
		t.Errorf("metacritic = %v", g.Metacritic)
	}
	if g.About != "Defy the god\nof the dead." {
		t.Errorf("about = %q", g.About)
	}
	if g.InternalRating != nil {
		t.Errorf("internal rating = %v, want nil", *g.InternalRating)
	}
}

func TestMergeBadReleaseDateIsAbsent(t *testing.T) {
	g := Merge(Input{RAWG: &models.RawgGame{Name: "N", Released: "TBA"}})
	if g.ReleaseDate != nil {
		t.Fatalf("release date = %v, want nil", g.ReleaseDate)
	}
}

func TestScaleRating(t *testing.T) {
	tests := []struct {
		in   *float64
		want *int
	}{
		{nil, nil},
		{ptrFloat(0), ptrInt(0)},
		{ptrFloat(4.47), ptrInt(89)},
		{ptrFloat(5), ptrInt(100)},
		{ptrFloat(7.5), ptrInt(100)},
		{ptrFloat(-1), nil},
		{ptrFloat(math.NaN()), nil},
	}
	for _, tt := range tests {
		got := scaleRating(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("scaleRating(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMergeListsAreNotMixed(t *testing.T) {
	g := Merge(Input{
		IGDB: &models.IgdbGame{
			Name:   "Hades",
			Genres: []string{"Rogue-like", "rogue-like", "Action"},
		},
		RAWG: &models.RawgGame{
			Genres:    []models.RawgNamed{{Name: "Indie"}, {Name: "Action"}},
			Platforms: []models.RawgPlatform{{Platform: models.RawgNamed{Name: "PC"}}, {Platform: models.RawgNamed{Name: "Nintendo Switch"}}},
			Tags:      []models.RawgNamed{{Name: "Singleplayer"}},
		},
	})

	if want := []string{"Rogue-like", "Action"}; !reflect.DeepEqual(g.Genres, want) {
		t.Errorf("genres = %v, want %v", g.Genres, want)
	}
	if want := []string{"PC", "Nintendo Switch"}; !reflect.DeepEqual(g.Platforms, want) {
		t.Errorf("platforms = %v, want %v", g.Platforms, want)
	}
	if want := []string{"Singleplayer"}; !reflect.DeepEqual(g.Tags, want) {
		t.Errorf("tags = %v, want %v", g.Tags, want)
	}
}

func TestMergeAgeRatings(t *testing.T) {
	g := Merge(Input{
		RAWG: &models.RawgGame{
			Name:       "Hades",
			EsrbRating: &models.RawgNamed{Name: "Teen"},
			AgeRatings: []string{"PEGI 12", "esrb teen"},
		},
	})
	if want := []string{"ESRB Teen", "PEGI 12"}; !reflect.DeepEqual(g.AgeRatings, want) {
		t.Errorf("age ratings = %v, want %v", g.AgeRatings, want)
	}

	g = Merge(Input{
		IGDB: &models.IgdbGame{Name: "Hades", AgeRatings: []string{"PEGI 12"}},
		RAWG: &models.RawgGame{EsrbRating: &models.RawgNamed{Name: "Teen"}},
	})
	if want := []string{"PEGI 12"}; !reflect.DeepEqual(g.AgeRatings, want) {
		t.Errorf("age ratings = %v, want %v", g.AgeRatings, want)
	}
}

func TestMergeEnginesFromEitherRawgField(t *testing.T) {
	g := Merge(Input{RAWG: &models.RawgGame{Name: "N", GameEngines: []string{"Unity"}}})
	if want := []string{"Unity"}; !reflect.DeepEqual(g.Engines, want) {
		t.Errorf("engines = %v, want %v", g.Engines, want)
	}
}

func TestMergeTimeToBeat(t *testing.T) {
	g := Merge(Input{
		IGDB: &models.IgdbGame{Name: "N"},
		TimeToBeat: &models.TimeToBeatSeconds{
			Hastily:    ptrInt64(5400),  // 1.5h rounds up
			Normally:   ptrInt64(36000), // 10h
			Completely: nil,
		},
	})
	if g.TimeToBeat.Hastily == nil || *g.TimeToBeat.Hastily != 2 {
		t.Errorf("hastily = %v, want 2", g.TimeToBeat.Hastily)
	}
	if g.TimeToBeat.Normally == nil || *g.TimeToBeat.Normally != 10 {
		t.Errorf("normally = %v, want 10", g.TimeToBeat.Normally)
	}
	if g.TimeToBeat.Completely != nil {
		t.Errorf("completely = %v, want nil", *g.TimeToBeat.Completely)
	}
}

func TestMergeCastCrewSources(t *testing.T) {
	rawg := &models.RawgGame{
		Name: "N",
		Credits: []models.RawgPerson{
			{Name: "Troy Baker", Positions: []models.RawgNamed{{Name: "voice actor"}}},
			{Name: "Neil Druckmann", Positions: []models.RawgNamed{{Name: "writer"}}},
		},
	}

	g := Merge(Input{RAWG: rawg})
	if want := []string{"Troy Baker"}; !reflect.DeepEqual(g.Cast, want) {
		t.Errorf("cast from credits = %v, want %v", g.Cast, want)
	}
	if want := []string{"Neil Druckmann"}; !reflect.DeepEqual(g.Crew, want) {
		t.Errorf("crew from credits = %v, want %v", g.Crew, want)
	}

	g = Merge(Input{RAWG: rawg, Cast: []string{"Zed", "amy", "Amy"}})
	if want := []string{"amy", "Zed"}; !reflect.DeepEqual(g.Cast, want) {
		t.Errorf("side-channel cast = %v, want %v", g.Cast, want)
	}
	if len(g.Crew) != 0 {
		t.Errorf("side-channel crew = %v, want empty", g.Crew)
	}
}

func TestMergeStoreLinks(t *testing.T) {
	rawg := &models.RawgGame{
		Name: "N",
		Stores: []models.RawgStoreEntry{
			{URL: "https://store.steampowered.com/app/1145360/Hades/", Store: models.RawgStore{ID: 1, Name: "Steam", Slug: "steam"}},
			{URL: "https://store.steampowered.com/app/1145360/"},
		},
	}
	g := Merge(Input{RAWG: rawg})
	if len(g.StoreLinks) != 1 {
		t.Fatalf("store links = %+v, want 1", g.StoreLinks)
	}
	if g.StoreLinks[0].ExternalID == nil || *g.StoreLinks[0].ExternalID != "1145360" {
		t.Errorf("external id = %v", g.StoreLinks[0].ExternalID)
	}

	explicit := []models.StoreLink{{Store: "GOG", Slug: "gog", URL: "https://www.gog.com/game/hades"}}
	g = Merge(Input{RAWG: rawg, StoreLinks: explicit})
	if len(g.StoreLinks) != 1 || g.StoreLinks[0].Slug != "gog" {
		t.Errorf("explicit links not preferred: %+v", g.StoreLinks)
	}
}

func TestMergePCRequirements(t *testing.T) {
	minimum := "<strong>Minimum:</strong><br><ul><li><strong>OS:</strong> Windows 10</li><li><strong>Memory:</strong> 8 GB RAM</li></ul>"
	g := Merge(Input{
		RAWG: &models.RawgGame{
			Name: "N",
			Platforms: []models.RawgPlatform{
				{Platform: models.RawgNamed{Name: "PlayStation 4", Slug: "playstation4"}, Requirements: &models.RawgRequirements{Minimum: "ignored"}},
				{Platform: models.RawgNamed{Name: "PC", Slug: "pc"}, Requirements: &models.RawgRequirements{Minimum: minimum}},
			},
		},
	})
	if g.MinRequirement == nil || g.MinRequirement.Text == nil {
		t.Fatal("expected a minimum requirement")
	}
	if got, want := *g.MinRequirement.Text, textnorm.Normalize(minimum); got != want {
		t.Errorf("min requirement = %q, want %q", got, want)
	}
	if g.RecRequirement != nil {
		t.Errorf("rec requirement = %+v, want nil", g.RecRequirement)
	}
}

func TestMergeMainImagePromotion(t *testing.T) {
	g := Merge(Input{
		IGDB:        &models.IgdbGame{Name: "N", CoverURL: "b.png"},
		Screenshots: []string{"a.png", "b.png"},
	})
	want := []models.MediaItem{
		{URL: "b.png", Title: models.TitleMainImage},
		{URL: "a.png", Title: models.TitleScreenshot1},
	}
	if !reflect.DeepEqual(g.Images, want) {
		t.Fatalf("images = %+v, want %+v", g.Images, want)
	}
	if g.PosterImage == nil || g.PosterImage.URL != "b.png" {
		t.Errorf("poster = %+v", g.PosterImage)
	}
	if g.FeaturedImage == nil || g.FeaturedImage.URL != "a.png" {
		t.Errorf("featured = %+v", g.FeaturedImage)
	}
}

func TestMergeImagesWithoutMain(t *testing.T) {
	g := Merge(Input{
		RAWG:        &models.RawgGame{Name: "N"},
		Screenshots: []string{"a.png", "A.PNG", "", "c.png"},
	})
	want := []models.MediaItem{
		{URL: "a.png", Title: "Screenshot 1"},
		{URL: "c.png", Title: "Screenshot 2"},
	}
	if !reflect.DeepEqual(g.Images, want) {
		t.Fatalf("images = %+v, want %+v", g.Images, want)
	}
	if g.PosterImage == nil || g.PosterImage.URL != "a.png" {
		t.Errorf("poster fallback = %+v", g.PosterImage)
	}
}

func TestMergeMainImageOnly(t *testing.T) {
	g := Merge(Input{IGDB: &models.IgdbGame{Name: "N", CoverURL: "cover.png"}})
	if len(g.Images) != 1 || g.Images[0].Title != models.TitleMainImage {
		t.Fatalf("images = %+v", g.Images)
	}
	if g.FeaturedImage == nil || g.FeaturedImage.URL != "cover.png" {
		t.Errorf("featured should fall back to main image, got %+v", g.FeaturedImage)
	}
}

func TestMergeTrailers(t *testing.T) {
	g := Merge(Input{
		IGDB: &models.IgdbGame{Name: "N"},
		Trailers: []models.Trailer{
			{YouTubeID: "abc123", Platform: "youtube"},
			{URL: "https://www.youtube.com/watch?v=abc123", YouTubeID: "abc123"},
			{URL: "https://cdn.example.com/t.mp4"},
			{URL: "https://cdn.example.com/t.mp4"},
			{},
		},
	})
	if len(g.Videos) != 2 {
		t.Fatalf("videos = %+v, want 2", g.Videos)
	}
	if g.Videos[0].URL != "https://youtu.be/abc123" || g.Videos[0].Title != "Trailer 1" {
		t.Errorf("first video = %+v", g.Videos[0])
	}
	if g.Videos[0].Meta["youtube_id"] != "abc123" {
		t.Errorf("meta = %v", g.Videos[0].Meta)
	}
	if g.Videos[1].Title != "Trailer 2" || g.Videos[1].Meta != nil {
		t.Errorf("second video = %+v", g.Videos[1])
	}
	if g.PosterVideo == nil || g.PosterVideo.URL != "https://youtu.be/abc123" {
		t.Errorf("poster video = %+v", g.PosterVideo)
	}
}

func TestMergeTrailersMatchYouTubeURLsByID(t *testing.T) {
	g := Merge(Input{
		IGDB: &models.IgdbGame{Name: "N"},
		Trailers: []models.Trailer{
			{YouTubeID: "abc123", Platform: "youtube"},
			{URL: "https://youtu.be/abc123", Platform: "rawg"},
			{URL: "https://www.youtube.com/embed/abc123?rel=0"},
			{URL: "https://m.youtube.com/watch?v=xyz789"},
		},
	})
	if len(g.Videos) != 2 {
		t.Fatalf("videos = %+v, want 2", g.Videos)
	}
	if g.Videos[1].URL != "https://m.youtube.com/watch?v=xyz789" || g.Videos[1].Meta["youtube_id"] != "xyz789" {
		t.Errorf("second video = %+v", g.Videos[1])
	}
}

func TestYouTubeID(t *testing.T) {
	tests := map[string]string{
		"https://youtu.be/abc123":                      "abc123",
		"https://www.youtube.com/watch?v=abc123&t=10s": "abc123",
		"https://youtube.com/shorts/abc123":            "abc123",
		"https://cdn.example.com/abc123.mp4":           "",
		"":                                             "",
	}
	for in, want := range tests {
		if got := youtubeID(in); got != want {
			t.Errorf("youtubeID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeEmptyListsAreNotNil(t *testing.T) {
	g := Merge(Input{IGDB: &models.IgdbGame{Name: "N"}})
	if g.Genres == nil || g.Writers == nil || g.StoreLinks == nil || g.Images == nil {
		t.Fatal("expected empty, non-nil lists")
	}
	if g.GameDirector != "" || len(g.VoiceActors) != 0 {
		t.Fatal("reserved credit fields should be empty")
	}
	if g.PosterImage != nil || g.FeaturedImage != nil || g.PosterVideo != nil {
		t.Fatal("expected no poster/featured media")
	}
}
