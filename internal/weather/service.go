package weather

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/cuacakota/weather-sampler/internal/bmkg"
	"github.com/cuacakota/weather-sampler/internal/observability"
	"github.com/cuacakota/weather-sampler/internal/region"
)

// Fetcher abstracts the upstream forecast client.
type Fetcher interface {
	Fetch(ctx context.Context, r region.Region) (bmkg.Forecast, error)
}

// CityPool supplies replacement candidates when a region's fetch fails.
type CityPool interface {
	CitiesInTimezone(tz region.Timezone) []region.Region
}

// BatchConfig tunes the concurrent fetch batch.
type BatchConfig struct {
	Concurrency     int           // max parallel outbound fetches
	FetchTimeout    time.Duration // per-region fetch timeout
	AutoReplace     bool          // replace failed regions from the same timezone
	MaxReplacements int           // candidates tried per failed region
}

func (c BatchConfig) withDefaults() BatchConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MaxReplacements <= 0 {
		c.MaxReplacements = 5
	}
	return c
}

// Service orchestrates fetching and normalizing forecasts for a selection of
// regions. Fetches run concurrently under a bounded worker limit; a region
// whose fetch fails still produces an observation, so the output always has
// one entry per input region, in input order.
type Service struct {
	fetcher    Fetcher
	normalizer *Normalizer
	pool       CityPool
	metrics    *observability.Metrics
	cfg        BatchConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a batch Service. pool may be nil to disable
// auto-replacement; metrics may be nil.
func NewService(fetcher Fetcher, normalizer *Normalizer, pool CityPool, metrics *observability.Metrics, cfg BatchConfig) *Service {
	return &Service{
		fetcher:    fetcher,
		normalizer: normalizer,
		pool:       pool,
		metrics:    metrics,
		cfg:        cfg.withDefaults(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchAll retrieves and normalizes forecasts for all regions. Partial
// completion is a valid terminal state: transport failures are downgraded to
// unavailable observations and never abort sibling fetches. Cancelling ctx
// abandons in-flight fetches; slots already normalized are kept and the rest
// come back marked unavailable.
func (s *Service) FetchAll(ctx context.Context, regions []region.Region) []Observation {
	results := make([]Observation, len(regions))

	used := make(map[string]bool, len(regions))
	for _, r := range regions {
		used[r.Code] = true
	}

	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, r := range regions {
		i, r := i, r
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = s.normalizer.Unavailable(r)
				return
			}

			results[i] = s.fetchRegion(ctx, r, used)
		}()
	}

	wg.Wait()
	return results
}

// fetchRegion fetches one region, falling back to same-timezone replacements
// when enabled.
func (s *Service) fetchRegion(ctx context.Context, r region.Region, used map[string]bool) Observation {
	obs, err := s.fetchOnce(ctx, r)
	if err == nil {
		return obs
	}
	log.Printf("weather: fetch failed for %s (%s): %v", r.Name, r.Code, err)

	if s.cfg.AutoReplace && s.pool != nil && ctx.Err() == nil {
		for attempt := 0; attempt < s.cfg.MaxReplacements; attempt++ {
			candidate, ok := s.reserveReplacement(r.Timezone, used)
			if !ok {
				break
			}
			obs, err := s.fetchOnce(ctx, candidate)
			if err == nil {
				log.Printf("weather: replaced %s with %s", r.Name, candidate.Name)
				if s.metrics != nil {
					s.metrics.Replacements.Inc()
				}
				return obs
			}
			log.Printf("weather: replacement %s also failed: %v", candidate.Name, err)
			if ctx.Err() != nil {
				break
			}
		}
	}

	return s.normalizer.Unavailable(r)
}

func (s *Service) fetchOnce(ctx context.Context, r region.Region) (Observation, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	forecast, err := s.fetcher.Fetch(fetchCtx, r)
	if s.metrics != nil {
		s.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			if errors.Is(err, bmkg.ErrNoData) {
				s.metrics.FetchNoData.Inc()
			} else {
				s.metrics.FetchFailures.Inc()
			}
		}
		return Observation{}, err
	}
	if s.metrics != nil {
		s.metrics.FetchSuccess.Inc()
	}
	return s.normalizer.Normalize(forecast, r), nil
}

// reserveReplacement picks an unused city from the timezone's pool and marks
// it used. Safe for concurrent workers.
func (s *Service) reserveReplacement(tz region.Timezone, used map[string]bool) (region.Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.pool.CitiesInTimezone(tz)
	candidates := pool[:0]
	for _, c := range pool {
		if !used[c.Code] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return region.Region{}, false
	}
	pick := candidates[s.rng.Intn(len(candidates))]
	used[pick.Code] = true
	return pick, true
}
