package weather

import (
	"strings"
	"time"

	"github.com/cuacakota/weather-sampler/internal/region"
)

// ConditionUnavailable is the explicit sentinel used whenever upstream gives
// no condition text. Downstream text generation always receives a non-empty
// condition, never a blank field.
const ConditionUnavailable = "data tidak tersedia"

// conditionMapping turns upstream condition descriptions into the lowercase
// phrasing used in generated text.
var conditionMapping = map[string]string{
	"Cerah":         "cerah",
	"Cerah Berawan": "cerah berawan",
	"Berawan":       "berawan",
	"Berawan Tebal": "berawan tebal",
	"Udara Kabur":   "udara kabur",
	"Asap":          "berasap",
	"Hujan Ringan":  "hujan ringan",
	"Hujan Sedang":  "hujan sedang",
	"Hujan Lebat":   "hujan lebat",
	"Hujan Lokal":   "hujan lokal",
	"Hujan Petir":   "hujan petir",
	"Kabut":         "berkabut",
}

// NormalizeCondition maps an upstream description to its normalized form.
// Unknown but non-empty descriptions pass through lowercased; empty input
// yields the unavailable sentinel.
func NormalizeCondition(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ConditionUnavailable
	}
	if mapped, ok := conditionMapping[desc]; ok {
		return mapped
	}
	return strings.ToLower(desc)
}

// Observation is the uniform per-region weather view handed to consumers.
// One observation exists for every selected region, in selection order,
// whether or not the fetch succeeded.
type Observation struct {
	RegionCode string          `json:"regionCode"`
	RegionName string          `json:"regionName"`
	Timezone   region.Timezone `json:"timezone"`
	ObservedAt time.Time       `json:"observedAt"`

	Temperature   float64 `json:"temperatureC"`
	Condition     string  `json:"condition"`
	Humidity      float64 `json:"humidityPercent"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection string  `json:"windDirection,omitempty"`
	CloudCover    float64 `json:"cloudCoverPercent,omitempty"`
	Visibility    string  `json:"visibility,omitempty"`

	// Available is false when the region's forecast could not be retrieved.
	Available bool `json:"available"`
}
