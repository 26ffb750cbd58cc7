package region

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Timezone is one of Indonesia's three standard time zones.
type Timezone string

const (
	WIB  Timezone = "WIB"  // Western Indonesian Time, UTC+7
	WITA Timezone = "WITA" // Central Indonesian Time, UTC+8
	WIT  Timezone = "WIT"  // Eastern Indonesian Time, UTC+9
)

// Timezones lists all zones in the canonical output order used by the sampler.
var Timezones = []Timezone{WIB, WITA, WIT}

// UTCOffset returns the zone's offset from UTC in hours.
func (tz Timezone) UTCOffset() int {
	switch tz {
	case WITA:
		return 8
	case WIT:
		return 9
	default:
		return 7
	}
}

// Level is the administrative level of a region, derived from code depth.
type Level int

const (
	LevelProvince Level = iota + 1
	LevelRegency
	LevelDistrict
	LevelVillage
)

func (l Level) String() string {
	switch l {
	case LevelProvince:
		return "province"
	case LevelRegency:
		return "regency"
	case LevelDistrict:
		return "district"
	case LevelVillage:
		return "village"
	default:
		return "unknown"
	}
}

// Region is one row of the wilayah reference dataset. Codes are dot-separated
// and hierarchical, e.g. "31" (province), "31.71" (city), "31.71.01.1001"
// (village). Records are immutable once loaded.
type Region struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Level    Level    `json:"level"`
	Parent   string   `json:"parentCode,omitempty"`
	Timezone Timezone `json:"timezone"`
}

// ErrUnknownRegion is returned when a code's province prefix falls outside
// every defined timezone range.
var ErrUnknownRegion = errors.New("region code outside known timezone ranges")

// tzRange maps a contiguous band of province codes to a timezone. The bands
// are the fixed government-assigned province groupings; they never change at
// runtime and must stay disjoint.
type tzRange struct {
	min, max int
	tz       Timezone
}

var tzRanges = []tzRange{
	{11, 19, WIB},  // Sumatera
	{21, 21, WIB},  // Kepulauan Riau
	{31, 36, WIB},  // Jawa, Banten
	{51, 53, WITA}, // Bali, Nusa Tenggara
	{61, 61, WIB},  // Kalimantan Barat
	{62, 65, WITA}, // rest of Kalimantan
	{71, 76, WITA}, // Sulawesi
	{81, 82, WIT},  // Maluku
	{91, 96, WIT},  // Papua
}

// ClassifyTimezone maps a region code to its timezone by the numeric province
// prefix. It is a pure function of the code; the same input always yields the
// same zone.
func ClassifyTimezone(code string) (Timezone, error) {
	prefix, _, _ := strings.Cut(code, ".")
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}
	for _, r := range tzRanges {
		if n >= r.min && n <= r.max {
			return r.tz, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, code)
}

// LevelOf derives the administrative level from the code's segment depth.
func LevelOf(code string) Level {
	return Level(strings.Count(code, ".") + 1)
}

// ParentOf returns the containing region's code, or "" for a province.
func ParentOf(code string) string {
	i := strings.LastIndex(code, ".")
	if i < 0 {
		return ""
	}
	return code[:i]
}

// CleanName strips the dataset's "KOTA "/"KAB. " prefixes and title-cases the
// remainder, so "KOTA BANDA ACEH" becomes "Banda Aceh".
func CleanName(name string) string {
	name = strings.TrimPrefix(name, "KOTA ")
	name = strings.TrimPrefix(name, "KAB. ")
	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
