// Package storelink identifies storefronts from arbitrary store URLs and
// extracts each storefront's product identifier.
package storelink

import (
	"net/url"
	"regexp"
	"strings"

	"commenttogame/internal/textnorm"
	"commenttogame/pkg/models"
)

// Storefront slugs.
const (
	SlugSteam       = "steam"
	SlugGOG         = "gog"
	SlugEpic        = "epic-games"
	SlugPlayStation = "playstation-store"
	SlugXbox        = "xbox-store"
	SlugNintendo    = "nintendo"
)

// GenericStoreName is used when the host matches no known storefront.
const GenericStoreName = "Store"

type storefront struct {
	slug  string
	name  string
	hosts []string // matched as host suffixes
}

var storefronts = []storefront{
	{SlugSteam, "Steam", []string{"steampowered.com", "steamcommunity.com"}},
	{SlugGOG, "GOG", []string{"gog.com"}},
	{SlugEpic, "Epic Games", []string{"epicgames.com"}},
	{SlugPlayStation, "PlayStation Store", []string{"playstation.com"}},
	{SlugXbox, "Xbox Store", []string{"xbox.com", "microsoft.com"}},
	{SlugNintendo, "Nintendo Store", []string{"nintendo.com", "nintendo.co.uk", "nintendo.co.jp"}},
}

// slugAliases folds the slugs catalogs send in hints onto ours.
var slugAliases = map[string]string{
	"steam":             SlugSteam,
	"gog":               SlugGOG,
	"epic-games":        SlugEpic,
	"epic":              SlugEpic,
	"playstation-store": SlugPlayStation,
	"playstation":       SlugPlayStation,
	"xbox-store":        SlugXbox,
	"xbox360":           SlugXbox,
	"xbox":              SlugXbox,
	"microsoft":         SlugXbox,
	"nintendo":          SlugNintendo,
}

var (
	steamID       = regexp.MustCompile(`/(?:app|sub)/(\d+)`)
	gogID         = regexp.MustCompile(`/game/([^/?#]+)`)
	epicID        = regexp.MustCompile(`/(?:p|product)/([^/?#]+)`)
	psConcept     = regexp.MustCompile(`/concept/(\d+)`)
	psProduct     = regexp.MustCompile(`/product/([A-Za-z0-9_-]+)`)
	xboxStoreCode = regexp.MustCompile(`/store/[^/]+/([A-Za-z0-9]{6,})`)
	uuidPattern   = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// Hint carries whatever the catalog already knows about the storefront.
// Zero values mean "unknown".
type Hint struct {
	StoreID int
	Name    string
	Slug    string
	Domain  string
}

// MapLink identifies the storefront behind rawURL and extracts its product
// id. Hints win over host detection for name and slug. A failed id
// extraction leaves ExternalID nil.
func MapLink(rawURL string, hint Hint) models.StoreLink {
	rawURL = strings.TrimSpace(rawURL)
	link := models.StoreLink{URL: rawURL}
	if hint.StoreID != 0 {
		id := hint.StoreID
		link.StoreID = &id
	}

	host := ""
	path := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
		path = u.EscapedPath()
	}

	sf, known := lookupHost(host)
	if !known {
		sf, known = lookupSlug(hint.Slug)
	}

	switch {
	case strings.TrimSpace(hint.Name) != "":
		link.Store = strings.TrimSpace(hint.Name)
	case known:
		link.Store = sf.name
	default:
		link.Store = GenericStoreName
	}

	switch {
	case strings.TrimSpace(hint.Slug) != "":
		link.Slug = strings.ToLower(strings.TrimSpace(hint.Slug))
	case known:
		link.Slug = sf.slug
	default:
		link.Slug = host
	}

	link.Domain = strings.TrimSpace(hint.Domain)
	if link.Domain == "" {
		link.Domain = host
	}

	if id := extractID(sf.slug, rawURL, path); id != "" {
		link.ExternalID = &id
	}
	return link
}

func lookupHost(host string) (storefront, bool) {
	if host == "" {
		return storefront{}, false
	}
	for _, sf := range storefronts {
		for _, h := range sf.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return sf, true
			}
		}
	}
	return storefront{}, false
}

func lookupSlug(slug string) (storefront, bool) {
	canon, ok := slugAliases[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return storefront{}, false
	}
	for _, sf := range storefronts {
		if sf.slug == canon {
			return sf, true
		}
	}
	return storefront{}, false
}

func extractID(slug, rawURL, path string) string {
	switch slug {
	case SlugSteam:
		return firstGroup(steamID, path)
	case SlugGOG:
		return firstGroup(gogID, path)
	case SlugEpic:
		return firstGroup(epicID, path)
	case SlugPlayStation:
		if id := firstGroup(psConcept, path); id != "" {
			return id
		}
		return firstGroup(psProduct, path)
	case SlugXbox:
		if id := firstGroup(xboxStoreCode, path); id != "" {
			return id
		}
		if id := uuidPattern.FindString(rawURL); id != "" {
			return id
		}
		return lastSegment(path)
	default:
		return lastSegment(path)
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func lastSegment(path string) string {
	parts := strings.Split(path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" {
			return p
		}
	}
	return ""
}

// Dedupe collapses links that share a display name and external id (or URL
// when the id is missing), keeping the first occurrence.
func Dedupe(links []models.StoreLink) []models.StoreLink {
	if len(links) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(links))
	out := make([]models.StoreLink, 0, len(links))
	for _, l := range links {
		ident := l.URL
		if l.ExternalID != nil && *l.ExternalID != "" {
			ident = *l.ExternalID
		}
		key := textnorm.FoldKey(l.Store) + "\x00" + textnorm.FoldKey(ident)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Source is one raw store reference to map.
type Source struct {
	URL  string
	Hint Hint
}

// MapAll maps a batch of store references and dedupes the result. Entries
// without a URL are skipped.
func MapAll(sources []Source) []models.StoreLink {
	links := make([]models.StoreLink, 0, len(sources))
	for _, s := range sources {
		if strings.TrimSpace(s.URL) == "" {
			continue
		}
		links = append(links, MapLink(s.URL, s.Hint))
	}
	return Dedupe(links)
}
