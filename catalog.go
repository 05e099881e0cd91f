package geogrid

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// City is one consumed row of the Geonames cities15000 dump. The dump
// carries 19 columns; only these six reach the grid pipeline.
type City struct {
	GeonameID  int
	Name       string
	Country    string // ISO 3166-1 alpha-2 code
	Lat        float64
	Lon        float64
	Population int
}

// Catalog is a list of cities, ordered by descending population once loaded.
type Catalog []City

// sortByPopulation orders the catalog by descending population. GeonameID
// breaks ties so repeated runs over the same dump produce identical output.
func (c Catalog) sortByPopulation() {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Population != c[j].Population {
			return c[i].Population > c[j].Population
		}
		return c[i].GeonameID < c[j].GeonameID
	})
}

// maxFuzzyDistance caps FilterByName's edit distance to keep the scan over
// city names cheap. Distances beyond 3 match essentially unrelated names.
const maxFuzzyDistance = 3

// fuzzyMatch compares two names with optional Levenshtein distance
// tolerance. With maxDist 0 it is an exact case-insensitive match.
func fuzzyMatch(query, candidate string, maxDist int) bool {
	if maxDist == 0 {
		return strings.EqualFold(query, candidate)
	}
	dist := levenshtein.ComputeDistance(
		strings.ToLower(query),
		strings.ToLower(candidate),
	)
	return dist <= maxDist
}

// FilterByName returns the cities whose name matches query, preserving
// catalog order. fuzzyDistance enables typo tolerance (0 = exact match,
// 1-2 recommended, capped at maxFuzzyDistance). An empty query returns the
// catalog unchanged.
func (c Catalog) FilterByName(query string, fuzzyDistance int) Catalog {
	query = strings.TrimSpace(query)
	if query == "" {
		return c
	}
	if fuzzyDistance > maxFuzzyDistance {
		fuzzyDistance = maxFuzzyDistance
	}

	out := make(Catalog, 0)
	for _, city := range c {
		if fuzzyMatch(query, city.Name, fuzzyDistance) {
			out = append(out, city)
		}
	}
	return out
}
