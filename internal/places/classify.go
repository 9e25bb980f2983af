package places

import (
	"strings"

	"wisata-bali-recommender/internal/models"
)

var (
	relaxedKeywords  = []string{"temple", "monument", "museum", "park", "cultural", "heritage", "memorial"}
	moderateKeywords = []string{"forest", "zoo", "garden", "hiking", "recreation", "nature", "walk", "reserve", "jungle", "trail", "track"}
	extremeKeywords  = []string{"mountain", "peak", "climbing", "trekking", "diving", "extreme"}
)

// countyToKabupaten maps Geoapify county names onto the nine kabupaten.
var countyToKabupaten = map[string]string{
	"badung":             "Badung",
	"badung regency":     "Badung",
	"bangli":             "Bangli",
	"bangli regency":     "Bangli",
	"buleleng":           "Buleleng",
	"buleleng regency":   "Buleleng",
	"gianyar":            "Gianyar",
	"gianyar regency":    "Gianyar",
	"jembrana":           "Jembrana",
	"jembrana regency":   "Jembrana",
	"karangasem":         "Karangasem",
	"karangasem regency": "Karangasem",
	"klungkung":          "Klungkung",
	"klungkung regency":  "Klungkung",
	"tabanan":            "Tabanan",
	"tabanan regency":    "Tabanan",
	"denpasar":           "Denpasar",
	"denpasar city":      "Denpasar",
}

// ClassifyTerrain derives the terrain from Geoapify categories. Mountains
// are highland, forests and parks lowland, lakes and rivers water; anything
// else defaults to lowland.
func ClassifyTerrain(categories []string) models.Terrain {
	has := func(keys ...string) bool {
		for _, c := range categories {
			c = strings.ToLower(c)
			for _, k := range keys {
				if c == k || strings.HasPrefix(c, k+".") || strings.HasSuffix(c, "."+k) {
					return true
				}
			}
		}
		return false
	}
	switch {
	case has("natural.mountain", "peak"):
		return models.TerrainHighland
	case has("natural.forest", "park", "garden"):
		return models.TerrainLowland
	case has("natural.water", "lake", "river"):
		return models.TerrainWater
	}
	return models.TerrainLowland
}

// ClassifyActivity derives the activity level from category keywords. The
// relaxed keywords win over moderate, and moderate over extreme.
func ClassifyActivity(categories []string) models.ActivityLevel {
	joined := strings.ToLower(strings.Join(categories, ","))
	contains := func(keys []string) bool {
		for _, k := range keys {
			if strings.Contains(joined, k) {
				return true
			}
		}
		return false
	}
	switch {
	case contains(relaxedKeywords):
		return models.ActivityRelaxed
	case contains(moderateKeywords):
		return models.ActivityModerate
	case contains(extremeKeywords):
		return models.ActivityExtreme
	}
	return models.ActivityRelaxed
}

// Kabupaten returns the kabupaten for a Geoapify county name, or false when
// the county is not on Bali.
func Kabupaten(county string) (string, bool) {
	k, ok := countyToKabupaten[strings.ToLower(strings.TrimSpace(county))]
	return k, ok
}
