package region

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrInsufficientPool means a timezone's requested quota exceeds the number
// of cities available in that zone. The selection fails as a whole; it is
// never silently under-filled or padded with duplicates.
var ErrInsufficientPool = errors.New("not enough cities in timezone pool")

// SelectionRequest describes a timezone-balanced sample: a total count split
// into per-timezone quotas, plus optional pinned city names that must appear
// in the result. Pinned cities count against their own timezone's quota.
type SelectionRequest struct {
	Total  int
	Quotas map[Timezone]int
	Pins   []string
}

// NewSelectionRequest starts a request for total cities with no quotas set.
func NewSelectionRequest(total int) SelectionRequest {
	return SelectionRequest{Total: total, Quotas: make(map[Timezone]int)}
}

// WithQuota sets the required count for a timezone.
func (r SelectionRequest) WithQuota(tz Timezone, n int) SelectionRequest {
	r.Quotas[tz] = n
	return r
}

// Pin requires a specific city, resolved by name, to occupy one slot of its
// timezone's quota.
func (r SelectionRequest) Pin(names ...string) SelectionRequest {
	r.Pins = append(r.Pins, names...)
	return r
}

// Validate checks the quota-sum invariant.
func (r SelectionRequest) Validate() error {
	if r.Total <= 0 {
		return fmt.Errorf("total must be positive, got %d", r.Total)
	}
	sum := 0
	for _, n := range r.Quotas {
		if n < 0 {
			return fmt.Errorf("quotas must be non-negative")
		}
		sum += n
	}
	if sum != r.Total {
		return fmt.Errorf("timezone quotas sum to %d, want total %d", sum, r.Total)
	}
	return nil
}

// Sampler draws timezone-balanced, non-duplicating random city selections
// from a Store. The random source is injected so a fixed seed reproduces the
// exact selection.
type Sampler struct {
	store *Store
	rng   *rand.Rand
}

// NewSampler creates a Sampler. A nil rng gets a time-seeded source.
func NewSampler(store *Store, rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{store: store, rng: rng}
}

// Select draws exactly the requested number of distinct cities per timezone,
// without replacement, and concatenates the groups in WIB, WITA, WIT order.
// Pinned cities come first within their group. All structural errors surface
// here, before any network work happens downstream.
func (s *Sampler) Select(req SelectionRequest) ([]Region, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pinned := make(map[Timezone][]Region)
	taken := make(map[string]bool)
	for _, name := range req.Pins {
		city, err := s.store.FindCityByName(name)
		if err != nil {
			return nil, err
		}
		if taken[city.Code] {
			continue
		}
		taken[city.Code] = true
		pinned[city.Timezone] = append(pinned[city.Timezone], city)
	}

	result := make([]Region, 0, req.Total)
	for _, tz := range Timezones {
		quota := req.Quotas[tz]
		pins := pinned[tz]
		if len(pins) > quota {
			return nil, fmt.Errorf("%d cities pinned in %s but quota is %d", len(pins), tz, quota)
		}

		pool := s.store.CitiesInTimezone(tz)
		avail := pool[:0]
		for _, c := range pool {
			if !taken[c.Code] {
				avail = append(avail, c)
			}
		}

		need := quota - len(pins)
		if need > len(avail) {
			return nil, fmt.Errorf("%w: %s needs %d more cities, %d available",
				ErrInsufficientPool, tz, need, len(avail))
		}

		result = append(result, pins...)
		for _, i := range s.rng.Perm(len(avail))[:need] {
			result = append(result, avail[i])
			taken[avail[i].Code] = true
		}
	}
	return result, nil
}
