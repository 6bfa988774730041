package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plex_harvester/models"
)

type stubReader struct {
	listings []models.PlexListing
	err      error
}

func (s *stubReader) ListListings(ctx context.Context) ([]models.PlexListing, error) {
	return s.listings, s.err
}

func newTestServer(listings []models.PlexListing) *Server {
	return NewServer(&stubReader{listings: listings}, nil)
}

func TestHandleListings_FilterByCity(t *testing.T) {
	srv := newTestServer([]models.PlexListing{
		{CentrisID: 1, Price: 500000, City: "Montreal", Neighborhood: "Rosemont"},
		{CentrisID: 2, Price: 450000, City: "Laval"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/listings?city=Laval", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []ListingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].CentrisID)
}

func TestHandleListings_IncludesMetrics(t *testing.T) {
	area := 2000
	srv := newTestServer([]models.PlexListing{
		{CentrisID: 1, Price: 500000, City: "Montreal", LivingArea: &area},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []ListingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Metrics.PricePerSqftLiving)
	assert.InDelta(t, 250.0, *views[0].Metrics.PricePerSqftLiving, 0.01)
}

func TestHandleNeighborhoods(t *testing.T) {
	srv := newTestServer([]models.PlexListing{
		{CentrisID: 1, Price: 500000, City: "Montreal", Neighborhood: "Rosemont"},
		{CentrisID: 2, Price: 700000, City: "Montreal", Neighborhood: "Rosemont"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stats/neighborhoods", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats []NeighborhoodStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Count)
}

func TestHandleQuality(t *testing.T) {
	srv := newTestServer([]models.PlexListing{{CentrisID: 1, Price: 500000}})

	req := httptest.NewRequest(http.MethodGet, "/api/quality", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		TotalListings int            `json:"total_listings"`
		Fields        []FieldQuality `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TotalListings)
	assert.NotEmpty(t, body.Fields)
}

func TestHandleRuns_NoOpsStore(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
