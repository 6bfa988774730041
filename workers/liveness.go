package workers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"plex_harvester/models"
	"plex_harvester/storage"
)

// LivenessWorker periodically re-checks stored listings against the source
// site and flags the ones that were taken off the market. Rows are never
// deleted, only marked inactive.
type LivenessWorker struct {
	store     *storage.PostgresStore
	client    *http.Client
	triggerCh chan struct{}
}

// NewLivenessWorker derives its own client from base: the delisting signal is
// the redirect itself, so redirects must not be followed here.
func NewLivenessWorker(store *storage.PostgresStore, base *http.Client) *LivenessWorker {
	client := &http.Client{
		Transport: base.Transport,
		Timeout:   base.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &LivenessWorker{
		store:     store,
		client:    client,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger causes the worker to run a batch immediately.
func (w *LivenessWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run processes a batch every interval until the context is cancelled.
func (w *LivenessWorker) Run(ctx context.Context, staleAfter time.Duration, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Liveness worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, staleAfter, batchSize)
		case <-w.triggerCh:
			log.Println("Liveness worker triggered manually")
			w.processBatch(ctx, staleAfter, batchSize)
		}
	}
}

func (w *LivenessWorker) processBatch(ctx context.Context, staleAfter time.Duration, batchSize int) {
	refs, err := w.store.StaleActiveListings(ctx, staleAfter, batchSize)
	if err != nil {
		log.Printf("Liveness: query error: %v", err)
		return
	}
	if len(refs) == 0 {
		return
	}

	log.Printf("Liveness: checking %d stale listings", len(refs))

	var checked, delisted int
	for _, ref := range refs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		live, err := w.check(ctx, ref)
		checked++
		if err != nil {
			// Network trouble says nothing about the listing; bump the
			// timestamp so the batch cycles on.
			log.Printf("Liveness: error checking %d: %v", ref.CentrisID, err)
			w.store.TouchListing(ctx, ref.CentrisID)
			continue
		}

		if live {
			w.store.TouchListing(ctx, ref.CentrisID)
		} else {
			log.Printf("Liveness: listing %d delisted", ref.CentrisID)
			if err := w.store.MarkDelisted(ctx, ref.CentrisID); err != nil {
				log.Printf("Liveness: failed to mark %d delisted: %v", ref.CentrisID, err)
			} else {
				delisted++
			}
		}

		time.Sleep(500 * time.Millisecond)
	}

	if delisted > 0 {
		log.Printf("Liveness: checked %d, delisted %d", checked, delisted)
	}
}

// check does a HEAD request. Centris answers 200 for live listings and
// redirects delisted ones back to the search page.
func (w *LivenessWorker) check(ctx context.Context, ref models.ListingRef) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ref.URL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9")

	resp, err := w.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound, http.StatusGone:
		return false, nil
	case http.StatusMovedPermanently, http.StatusFound:
		return !isDelistRedirect(resp.Header.Get("Location")), nil
	default:
		return true, nil
	}
}

// isDelistRedirect reports whether a redirect target points away from the
// listing detail page.
func isDelistRedirect(location string) bool {
	lower := strings.ToLower(location)
	for _, marker := range []string{"/recherche", "/search", "propertysearchtypeid", "notfound", "error"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
