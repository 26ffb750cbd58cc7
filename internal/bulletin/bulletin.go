package bulletin

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuacakota/weather-sampler/internal/observability"
	"github.com/cuacakota/weather-sampler/internal/region"
	"github.com/cuacakota/weather-sampler/internal/weather"
)

// Bulletin is one complete sampling run: the selected regions and their
// normalized observations, in selection order, plus an optional enhanced
// narrative. It is plain structured data; rendering belongs to consumers.
type Bulletin struct {
	ID           string                `json:"id"`
	GeneratedAt  time.Time             `json:"generatedAt"`
	Headline     string                `json:"headline"`
	Narrative    string                `json:"narrative,omitempty"`
	Regions      []region.Region       `json:"regions"`
	Observations []weather.Observation `json:"observations"`
}

// Sampler draws a timezone-balanced region selection.
type Sampler interface {
	Select(req region.SelectionRequest) ([]region.Region, error)
}

// BatchFetcher turns a selection into observations, one per region.
type BatchFetcher interface {
	FetchAll(ctx context.Context, regions []region.Region) []weather.Observation
}

// Enhancer is the external text-transform collaborator. A nil Enhancer
// disables narrative enhancement.
type Enhancer interface {
	Enhance(ctx context.Context, text string) (string, error)
}

// Store persists generated bulletins.
type Store interface {
	Save(b Bulletin)
}

// Generator runs the sample-fetch-normalize pipeline.
type Generator struct {
	sampler  Sampler
	batch    BatchFetcher
	enhancer Enhancer
	store    Store
	metrics  *observability.Metrics
}

// NewGenerator wires the pipeline. enhancer and metrics may be nil; store may
// be nil to skip persistence.
func NewGenerator(sampler Sampler, batch BatchFetcher, enhancer Enhancer, store Store, metrics *observability.Metrics) *Generator {
	return &Generator{
		sampler:  sampler,
		batch:    batch,
		enhancer: enhancer,
		store:    store,
		metrics:  metrics,
	}
}

// Generate produces one bulletin for the request. Selection errors (bad
// quotas, unknown pinned names, exhausted pools) surface here before any
// network call is made. Fetch failures do not fail the bulletin; affected
// regions appear marked unavailable.
func (g *Generator) Generate(ctx context.Context, req region.SelectionRequest) (Bulletin, error) {
	start := time.Now()

	selection, err := g.sampler.Select(req)
	if err != nil {
		return Bulletin{}, err
	}

	observations := g.batch.FetchAll(ctx, selection)

	b := Bulletin{
		ID:           uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Headline:     Headline(observations),
		Regions:      selection,
		Observations: observations,
	}

	if g.enhancer != nil {
		narrative, err := g.enhancer.Enhance(ctx, summaryText(observations))
		if err != nil {
			// Enhancement is best-effort; the bulletin stands without it.
			log.Printf("bulletin: narrative enhancement failed: %v", err)
		} else {
			b.Narrative = narrative
		}
	}

	if g.store != nil {
		g.store.Save(b)
	}
	if g.metrics != nil {
		g.metrics.BulletinsGenerated.Inc()
		g.metrics.BulletinDuration.Observe(time.Since(start).Seconds())
		g.metrics.LastBatchSize.Set(float64(len(observations)))
		unavailable := 0
		for _, o := range observations {
			if !o.Available {
				unavailable++
			}
		}
		g.metrics.UnavailableRegions.Set(float64(unavailable))
	}
	return b, nil
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

func formatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// Headline builds a compact title from the first available observations.
func Headline(observations []weather.Observation) string {
	var parts []string
	var date string
	for _, o := range observations {
		if !o.Available {
			continue
		}
		if date == "" {
			date = formatDate(o.ObservedAt)
		}
		parts = append(parts, fmt.Sprintf("%s %s", o.RegionName, o.Condition))
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return "Prakiraan Cuaca BMKG: data tidak tersedia"
	}
	return fmt.Sprintf("Prakiraan Cuaca BMKG %s: %s", date, strings.Join(parts, ", "))
}

// summaryText is the plain per-city rundown handed to the enhancer.
func summaryText(observations []weather.Observation) string {
	var sb strings.Builder
	for _, o := range observations {
		fmt.Fprintf(&sb, "%s (%s): %s, suhu %.0f°C, kelembapan %.0f%%, angin %.1f km/jam\n",
			o.RegionName, o.Timezone, o.Condition, o.Temperature, o.Humidity, o.WindSpeed)
	}
	return sb.String()
}
