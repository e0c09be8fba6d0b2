package storelink

import (
	"testing"

	"commenttogame/pkg/models"
)

func TestMapLink(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		hint     Hint
		wantSlug string
		wantName string
		wantID   string // "" means nil
	}{
		{
			name:     "steam app",
			url:      "https://store.steampowered.com/app/271590/Grand_Theft_Auto_V/",
			wantSlug: "steam",
			wantName: "Steam",
			wantID:   "271590",
		},
		{
			name:     "steam sub",
			url:      "https://store.steampowered.com/sub/54029/",
			wantSlug: "steam",
			wantName: "Steam",
			wantID:   "54029",
		},
		{
			name:     "gog",
			url:      "https://www.gog.com/en/game/the_witcher_3_wild_hunt",
			wantSlug: "gog",
			wantName: "GOG",
			wantID:   "the_witcher_3_wild_hunt",
		},
		{
			name:     "epic p",
			url:      "https://store.epicgames.com/en-US/p/grand-theft-auto-v",
			wantSlug: "epic-games",
			wantName: "Epic Games",
			wantID:   "grand-theft-auto-v",
		},
		{
			name:     "epic product",
			url:      "https://www.epicgames.com/store/product/hades/home",
			wantSlug: "epic-games",
			wantName: "Epic Games",
			wantID:   "hades",
		},
		{
			name:     "playstation concept",
			url:      "https://store.playstation.com/en-us/concept/10002694",
			wantSlug: "playstation-store",
			wantName: "PlayStation Store",
			wantID:   "10002694",
		},
		{
			name:     "playstation product",
			url:      "https://store.playstation.com/en-us/product/UP1004-CUSA00419_00-GTAVDIGITALDOWNL",
			wantSlug: "playstation-store",
			wantName: "PlayStation Store",
			wantID:   "UP1004-CUSA00419_00-GTAVDIGITALDOWNL",
		},
		{
			name:     "xbox store code",
			url:      "https://www.xbox.com/en-US/games/store/halo-infinite/9PP5G1F0C2B6",
			wantSlug: "xbox-store",
			wantName: "Xbox Store",
			wantID:   "9PP5G1F0C2B6",
		},
		{
			name:     "microsoft uuid",
			url:      "https://marketplace.xbox.com/en-US/Product/GTA-V/66acd000-77fe-1000-9115-d802545408a7",
			wantSlug: "xbox-store",
			wantName: "Xbox Store",
			wantID:   "66acd000-77fe-1000-9115-d802545408a7",
		},
		{
			name:     "nintendo last segment",
			url:      "https://www.nintendo.com/us/store/products/hades-switch/",
			wantSlug: "nintendo",
			wantName: "Nintendo Store",
			wantID:   "hades-switch",
		},
		{
			name:     "unknown host",
			url:      "https://shop.example.org/games/hades",
			wantSlug: "shop.example.org",
			wantName: "Store",
			wantID:   "hades",
		},
		{
			name:     "hint wins for name and slug",
			url:      "https://store.steampowered.com/app/1145360/Hades/",
			hint:     Hint{StoreID: 1, Name: "Steam Store", Slug: "Steam", Domain: "store.steampowered.com"},
			wantSlug: "steam",
			wantName: "Steam Store",
			wantID:   "1145360",
		},
		{
			name:     "steam without app id",
			url:      "https://store.steampowered.com/",
			wantSlug: "steam",
			wantName: "Steam",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapLink(tt.url, tt.hint)
			if got.Slug != tt.wantSlug {
				t.Errorf("slug = %q, want %q", got.Slug, tt.wantSlug)
			}
			if got.Store != tt.wantName {
				t.Errorf("store = %q, want %q", got.Store, tt.wantName)
			}
			switch {
			case tt.wantID == "" && got.ExternalID != nil:
				t.Errorf("external id = %q, want nil", *got.ExternalID)
			case tt.wantID != "" && (got.ExternalID == nil || *got.ExternalID != tt.wantID):
				t.Errorf("external id = %v, want %q", got.ExternalID, tt.wantID)
			}
			if got.URL != tt.url {
				t.Errorf("url = %q, want %q", got.URL, tt.url)
			}
		})
	}
}

func TestMapLinkKeepsStoreIDHint(t *testing.T) {
	got := MapLink("https://www.gog.com/game/hades", Hint{StoreID: 5})
	if got.StoreID == nil || *got.StoreID != 5 {
		t.Fatalf("store id = %v, want 5", got.StoreID)
	}
	if got.Domain != "gog.com" {
		t.Fatalf("domain = %q, want gog.com", got.Domain)
	}
}

func TestMapAllDedupes(t *testing.T) {
	links := MapAll([]Source{
		{URL: "https://store.steampowered.com/app/271590/Grand_Theft_Auto_V/"},
		{URL: "https://store.steampowered.com/app/271590/?l=german"},
		{URL: ""},
		{URL: "https://shop.example.org/"},
		{URL: "https://shop.example.org/"},
		{URL: "https://www.gog.com/game/gta"},
	})

	if len(links) != 3 {
		t.Fatalf("got %d links, want 3: %+v", len(links), links)
	}
	if links[0].URL != "https://store.steampowered.com/app/271590/Grand_Theft_Auto_V/" {
		t.Errorf("first occurrence not kept: %q", links[0].URL)
	}
	if links[1].Store != GenericStoreName || links[1].ExternalID != nil {
		t.Errorf("generic store link = %+v", links[1])
	}
	if links[2].Slug != SlugGOG {
		t.Errorf("third link slug = %q", links[2].Slug)
	}
}

func TestDedupeEmpty(t *testing.T) {
	if got := Dedupe(nil); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	if got := Dedupe([]models.StoreLink{}); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}
