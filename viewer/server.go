package viewer

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"plex_harvester/models"
	"plex_harvester/storage"
)

// ListingReader is the store surface the viewer needs.
type ListingReader interface {
	ListListings(ctx context.Context) ([]models.PlexListing, error)
}

// Server exposes the harvested data as a small JSON API.
type Server struct {
	store  ListingReader
	ops    *storage.SQLiteStore
	router *mux.Router
}

func NewServer(store ListingReader, ops *storage.SQLiteStore) *Server {
	s := &Server{
		store:  store,
		ops:    ops,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/listings", s.handleListings).Methods(http.MethodGet)
	api.HandleFunc("/stats/neighborhoods", s.handleNeighborhoods).Methods(http.MethodGet)
	api.HandleFunc("/quality", s.handleQuality).Methods(http.MethodGet)
	api.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the context is cancelled, then shuts the
// server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Viewer API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.ListListings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	city := r.URL.Query().Get("city")
	neighborhood := r.URL.Query().Get("neighborhood")

	views := make([]ListingView, 0, len(listings))
	for i := range listings {
		l := listings[i]
		if city != "" && l.City != city {
			continue
		}
		if neighborhood != "" && l.Neighborhood != neighborhood {
			continue
		}
		views = append(views, ListingView{PlexListing: l, Metrics: ComputeMetrics(&l)})
	}

	writeJSON(w, views)
}

func (s *Server) handleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.ListListings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, AggregateByNeighborhood(listings))
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.ListListings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"total_listings": len(listings),
		"fields":         QualityReport(listings),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.ops == nil {
		writeJSON(w, []models.ScrapeRun{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	runs, err := s.ops.RecentRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	log.Printf("Viewer request failed: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
