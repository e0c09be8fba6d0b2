// Package credits splits credited people into cast and crew.
package credits

import (
	"strings"

	"commenttogame/internal/textnorm"
	"commenttogame/pkg/models"
)

// castKeywords mark a role as on-screen or voice work.
var castKeywords = []string{
	"voice",
	"actor",
	"cast",
	"narrator",
	"motion capture",
	"mocap",
	"performer",
	"stunt",
}

// IsCastRole reports whether a single role string describes cast work.
func IsCastRole(role string) bool {
	r := strings.ToLower(role)
	for _, kw := range castKeywords {
		if strings.Contains(r, kw) {
			return true
		}
	}
	return false
}

// Split partitions people into cast and crew names. Anyone with at least one
// cast role is cast; everyone else, including people with no roles, is crew.
// Both lists are deduplicated and sorted case-insensitively.
func Split(people []models.Person) (cast, crew []string) {
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		isCast := false
		for _, role := range p.Roles {
			if IsCastRole(role) {
				isCast = true
				break
			}
		}
		if isCast {
			cast = append(cast, name)
		} else {
			crew = append(crew, name)
		}
	}
	return textnorm.SortFold(cast), textnorm.SortFold(crew)
}

// FromRawg converts RAWG credits into people with plain role names.
func FromRawg(credits []models.RawgPerson) []models.Person {
	if len(credits) == 0 {
		return nil
	}
	out := make([]models.Person, 0, len(credits))
	for _, c := range credits {
		p := models.Person{Name: c.Name}
		for _, pos := range c.Positions {
			if pos.Name != "" {
				p.Roles = append(p.Roles, pos.Name)
			}
		}
		out = append(out, p)
	}
	return out
}
