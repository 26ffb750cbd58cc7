package weather

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cuacakota/weather-sampler/internal/bmkg"
	"github.com/cuacakota/weather-sampler/internal/region"
)

// localDatetimeLayout is the upstream local_datetime format.
const localDatetimeLayout = "2006-01-02 15:04:05"

// Normalizer reconciles raw forecast payloads into Observations. Upstream
// payloads vary in field presence across regions and slots; the normalizer
// picks the slot nearest the target local hour and substitutes documented
// defaults for anything missing.
type Normalizer struct {
	targetHour int
	clock      clockwork.Clock
}

// NewNormalizer creates a Normalizer targeting the given local hour (the
// forecast slot closest to it is selected). The clock stamps observations
// when upstream gives no usable timestamp; pass nil for the real clock.
func NewNormalizer(targetHour int, clock clockwork.Clock) *Normalizer {
	if targetHour < 0 || targetHour > 23 {
		targetHour = 6
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Normalizer{targetHour: targetHour, clock: clock}
}

// Normalize converts a fetched forecast into an Observation for the region.
func (n *Normalizer) Normalize(f bmkg.Forecast, r region.Region) Observation {
	slot, observedAt := n.pickSlot(f.Slots, r.Timezone)

	obs := Observation{
		RegionCode: r.Code,
		RegionName: r.Name,
		Timezone:   r.Timezone,
		ObservedAt: observedAt,
		Available:  true,
	}
	if slot != nil {
		if slot.Temperature != nil {
			obs.Temperature = *slot.Temperature
		}
		if slot.Humidity != nil {
			obs.Humidity = *slot.Humidity
		}
		if slot.WindSpeed != nil {
			obs.WindSpeed = *slot.WindSpeed
		}
		if slot.CloudCover != nil {
			obs.CloudCover = *slot.CloudCover
		}
		obs.Condition = slot.WeatherDesc
		obs.WindDirection = slot.WindDirection
		obs.Visibility = slot.Visibility
	}
	return ApplyDefaults(obs)
}

// Unavailable builds the observation emitted for a region whose forecast
// could not be retrieved at all. The region still appears exactly once in
// the output set, marked unavailable.
func (n *Normalizer) Unavailable(r region.Region) Observation {
	return ApplyDefaults(Observation{
		RegionCode: r.Code,
		RegionName: r.Name,
		Timezone:   r.Timezone,
		ObservedAt: n.clock.Now().UTC(),
		Available:  false,
	})
}

// ApplyDefaults substitutes documented fallbacks for missing fields. It is
// idempotent: applying it to its own output changes nothing.
func ApplyDefaults(obs Observation) Observation {
	obs.Condition = NormalizeCondition(obs.Condition)
	return obs
}

// pickSlot selects the forecast entry whose local time is nearest the target
// hour. Slots with unparseable timestamps are skipped; if none parse, the
// first slot wins with a clock-stamped time.
func (n *Normalizer) pickSlot(slots []bmkg.ForecastSlot, tz region.Timezone) (*bmkg.ForecastSlot, time.Time) {
	if len(slots) == 0 {
		return nil, n.clock.Now().UTC()
	}

	loc := time.FixedZone(string(tz), tz.UTCOffset()*3600)

	var best *bmkg.ForecastSlot
	var bestAt time.Time
	minDiff := 24

	for i := range slots {
		at, err := time.ParseInLocation(localDatetimeLayout, slots[i].LocalDateTime, loc)
		if err != nil {
			continue
		}
		diff := at.Hour() - n.targetHour
		if diff < 0 {
			diff = -diff
		}
		if diff < minDiff {
			minDiff = diff
			best = &slots[i]
			bestAt = at
		}
		if diff == 0 {
			break
		}
	}

	if best == nil {
		return &slots[0], n.clock.Now().UTC()
	}
	return best, bestAt
}
