package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"plex_harvester/config"
	"plex_harvester/scraper"
)

// Scheduler drives recurring harvesting passes. A cron expression takes
// precedence over a fixed interval; with neither configured the daemon only
// serves the viewer API.
type Scheduler struct {
	cfg          *config.Config
	orchestrator *scraper.Orchestrator
	cron         *cron.Cron
	ticker       *time.Ticker
	stopCh       chan struct{}
	runningCh    chan struct{}
}

func New(cfg *config.Config, orchestrator *scraper.Orchestrator) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		cron:         cron.New(),
		stopCh:       make(chan struct{}),
		runningCh:    make(chan struct{}, 1),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.runOnce(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runOnce(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon will only serve the viewer API")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

// TriggerNow runs one pass immediately, outside the schedule.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	run, err := s.orchestrator.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("Manual run %s finished: %d new, %d skipped", run.UID, run.ListingsNew, run.ListingsSkipped)
	return nil
}

// runOnce guards against overlapping passes: a browser session that outlives
// its slot must not race a second one.
func (s *Scheduler) runOnce(ctx context.Context) {
	select {
	case s.runningCh <- struct{}{}:
	default:
		log.Println("Previous run still in progress, skipping this slot")
		return
	}
	defer func() { <-s.runningCh }()

	run, err := s.orchestrator.Run(ctx)
	if err != nil {
		log.Printf("Scheduled run error: %v", err)
		return
	}
	log.Printf("Scheduled run %s finished: %d new, %d skipped, %d errors",
		run.UID, run.ListingsNew, run.ListingsSkipped, run.ErrorsCount)
}
