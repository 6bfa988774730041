package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"plex_harvester/centris"
	"plex_harvester/config"
	"plex_harvester/identity"
	"plex_harvester/models"
	"plex_harvester/storage"
)

// ListingStore is the persistence collaborator. It owns the duplicate
// policy; the orchestrator only consults the identifier set up front.
type ListingStore interface {
	ExistingIDs(ctx context.Context) (map[int]struct{}, error)
	SaveListing(ctx context.Context, rec *models.PlexListing) (bool, error)
}

// PageFetcher retrieves one listing page as raw HTML.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// URLSource produces the ordered sequence of candidate listing URLs.
type URLSource interface {
	CollectURLs(ctx context.Context) ([]string, error)
}

// PageArchiver stores raw page snapshots, best-effort.
type PageArchiver interface {
	Archive(ctx context.Context, centrisID int, scrapeDate string, html []byte) error
}

// Orchestrator runs one harvesting pass: navigate, then process listings one
// at a time. Every per-listing failure is caught here so one bad page never
// aborts the batch.
type Orchestrator struct {
	cfg       *config.Config
	store     ListingStore
	fetcher   PageFetcher
	navigator URLSource
	archive   PageArchiver
	ops       *storage.SQLiteStore
}

func NewOrchestrator(cfg *config.Config, store ListingStore, fetcher PageFetcher, navigator URLSource) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		fetcher:   fetcher,
		navigator: navigator,
	}
}

// SetArchive enables best-effort raw page archiving.
func (o *Orchestrator) SetArchive(archive PageArchiver) {
	o.archive = archive
}

// SetOpsStore enables operational run/log records.
func (o *Orchestrator) SetOpsStore(ops *storage.SQLiteStore) {
	o.ops = ops
}

// Run executes one full harvesting pass and returns its run record.
func (o *Orchestrator) Run(ctx context.Context) (*models.ScrapeRun, error) {
	run := &models.ScrapeRun{
		UID:       uuid.New(),
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if o.ops != nil {
		id, err := o.ops.CreateRun(run)
		if err != nil {
			log.Printf("Warning: failed to create run record: %v", err)
		} else {
			run.ID = id
		}
	}

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if run.Status == models.RunStatusRunning {
			run.Status = models.RunStatusCompleted
		}
		if o.ops != nil {
			if err := o.ops.UpdateRun(run); err != nil {
				log.Printf("Warning: failed to update run record: %v", err)
			}
		}
	}()

	o.log(run, models.LogLevelInfo, fmt.Sprintf("Starting run %s", run.UID), 0)

	urls, err := o.navigator.CollectURLs(ctx)
	if err != nil {
		run.Status = models.RunStatusFailed
		o.log(run, models.LogLevelError, fmt.Sprintf("Navigation failed: %v", err), 0)
		return run, fmt.Errorf("collect urls: %w", err)
	}
	run.URLsFound = len(urls)
	o.log(run, models.LogLevelInfo, fmt.Sprintf("Collected %d candidate URLs", len(urls)), 0)

	existing, err := o.store.ExistingIDs(ctx)
	if err != nil {
		run.Status = models.RunStatusFailed
		return run, fmt.Errorf("load existing ids: %w", err)
	}

	scrapeDate := time.Now().Format("2006-01-02")
	consecutiveKnown := 0

	for _, url := range urls {
		select {
		case <-ctx.Done():
			run.Status = models.RunStatusFailed
			return run, ctx.Err()
		default:
		}

		known, err := o.processURL(ctx, run, url, existing, scrapeDate)
		if err != nil {
			run.ErrorsCount++
			o.log(run, models.LogLevelError, fmt.Sprintf("Skipping %s: %v", url, err), 0)
			continue
		}

		if known {
			consecutiveKnown++
			if o.cfg.Scraper.StopAfterKnown > 0 && consecutiveKnown >= o.cfg.Scraper.StopAfterKnown {
				// Listings are sorted newest first; a long run of known
				// identifiers means the rest of the feed is old news.
				o.log(run, models.LogLevelInfo,
					fmt.Sprintf("Stopping early after %d consecutive known listings", consecutiveKnown), 0)
				break
			}
		} else {
			consecutiveKnown = 0
		}
	}

	o.log(run, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d found, %d new, %d skipped, %d errors",
			run.URLsFound, run.ListingsNew, run.ListingsSkipped, run.ErrorsCount), 0)

	return run, nil
}

// processURL handles a single listing end to end. The returned bool reports
// whether the identifier was already known.
func (o *Orchestrator) processURL(ctx context.Context, run *models.ScrapeRun, url string, existing map[int]struct{}, scrapeDate string) (bool, error) {
	ident, err := identity.Resolve(url)
	if err != nil {
		return false, err
	}

	if _, ok := existing[ident.CentrisID]; ok && !o.cfg.Postgres.UpdateExisting {
		run.ListingsSkipped++
		o.log(run, models.LogLevelInfo, "Already known, skipping", ident.CentrisID)
		return true, nil
	}

	html, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return false, err
	}

	rec, err := centris.ParseListing(url, html, time.Now())
	if err != nil {
		return false, err
	}

	if o.archive != nil {
		if err := o.archive.Archive(ctx, rec.CentrisID, scrapeDate, html); err != nil {
			o.log(run, models.LogLevelWarn, fmt.Sprintf("Page archive failed: %v", err), rec.CentrisID)
		}
	}

	inserted, err := o.store.SaveListing(ctx, rec)
	if err != nil {
		return false, fmt.Errorf("save listing: %w", err)
	}
	if inserted {
		run.ListingsNew++
		existing[rec.CentrisID] = struct{}{}
		o.log(run, models.LogLevelInfo, fmt.Sprintf("Saved listing, price %d", rec.Price), rec.CentrisID)
	} else {
		run.ListingsSkipped++
	}

	pageDelay(o.cfg.Scraper.ListingDelayMS)
	return false, nil
}

func (o *Orchestrator) log(run *models.ScrapeRun, level models.LogLevel, message string, centrisID int) {
	if centrisID > 0 {
		log.Printf("[%s] listing %d: %s", level, centrisID, message)
	} else {
		log.Printf("[%s] %s", level, message)
	}
	if o.ops != nil {
		if err := o.ops.Log(&run.ID, level, message, centrisID); err != nil {
			log.Printf("Warning: failed to write run log: %v", err)
		}
	}
}
