package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/cuacakota/weather-sampler/internal/bulletin"
	"github.com/cuacakota/weather-sampler/internal/region"
)

// Scheduler produces one bulletin per day at a fixed local time, mirroring
// the morning publication cycle.
type Scheduler struct {
	scheduler *gocron.Scheduler
	generator *bulletin.Generator
	request   region.SelectionRequest
	at        string // "HH:MM"
	timeout   time.Duration
}

// New creates a Scheduler that generates with the given request daily at the
// given local time.
func New(generator *bulletin.Generator, request region.SelectionRequest, at string) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	return &Scheduler{
		scheduler: s,
		generator: generator,
		request:   request,
		at:        at,
		timeout:   5 * time.Minute,
	}
}

// Start schedules the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		log.Printf("scheduler: generating daily bulletin")

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		b, err := s.generator.Generate(ctx, s.request)
		if err != nil {
			log.Printf("scheduler: bulletin generation failed: %v", err)
			return
		}
		log.Printf("scheduler: bulletin %s generated with %d regions", b.ID, len(b.Observations))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
