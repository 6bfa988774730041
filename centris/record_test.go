package centris

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"plex_harvester/models"
)

const validURL = "https://www.centris.ca/fr/triplex~a-vendre~montreal-ahuntsic-cartierville/19418151?view=Summary"

func validFields() *Fields {
	price := 899000
	return &Fields{Price: &price}
}

func testIdentity() models.ListingIdentity {
	return models.ListingIdentity{CentrisID: 19418151, City: "Montreal", Neighborhood: "Ahuntsic Cartierville"}
}

func TestBuildRecord_Valid(t *testing.T) {
	rec, err := BuildRecord(testIdentity(), validFields(), validURL, "2025-01-04")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if rec.CentrisID != 19418151 {
		t.Fatalf("unexpected id %d", rec.CentrisID)
	}
	if rec.Price != 899000 {
		t.Fatalf("unexpected price %d", rec.Price)
	}
	if rec.ScrapeDate != "2025-01-04" {
		t.Fatalf("unexpected scrape date %s", rec.ScrapeDate)
	}
}

func TestBuildRecord_URLShape(t *testing.T) {
	bad := []struct {
		name string
		url  string
	}{
		{"http scheme", "http://www.centris.ca/fr/triplex~a-vendre~montreal/19418151?view=Summary"},
		{"wrong host", "https://centris.ca/fr/triplex~a-vendre~montreal/19418151?view=Summary"},
		{"english locale", "https://www.centris.ca/en/triplex~for-sale~montreal/19418151?view=Summary"},
		{"missing view marker", "https://www.centris.ca/fr/triplex~a-vendre~montreal/19418151"},
		{"wrong view value", "https://www.centris.ca/fr/triplex~a-vendre~montreal/19418151?view=Thumbnail"},
	}

	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildRecord(testIdentity(), validFields(), tc.url, "2025-01-04")
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.url)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if verr.Field != "url" {
				t.Fatalf("expected url field, got %s", verr.Field)
			}
		})
	}
}

func TestBuildRecord_ScrapeDateFormat(t *testing.T) {
	if _, err := BuildRecord(testIdentity(), validFields(), validURL, "2025-1-4"); err == nil {
		t.Fatal("expected rejection of unpadded date")
	}
	if _, err := BuildRecord(testIdentity(), validFields(), validURL, "2025-01-04"); err != nil {
		t.Fatalf("expected padded date accepted, got %v", err)
	}
}

func TestBuildRecord_PriceRequired(t *testing.T) {
	_, err := BuildRecord(testIdentity(), &Fields{}, validURL, "2025-01-04")
	if err == nil {
		t.Fatal("expected error for absent price")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "price" {
		t.Fatalf("expected price ValidationError, got %v", err)
	}
}

func TestBuildRecord_UnitCountMismatch(t *testing.T) {
	fields := validFields()
	fields.Units = []string{"5 1/2", "3 1/2"}
	three := 3
	fields.UnitCount = &three

	_, err := BuildRecord(testIdentity(), fields, validURL, "2025-01-04")
	if err == nil {
		t.Fatal("expected error for unit count mismatch")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "unit_count" {
		t.Fatalf("expected unit_count ValidationError, got %v", err)
	}
}

func TestParseListing_EndToEnd(t *testing.T) {
	html, err := os.ReadFile(filepath.Join("testdata", "listing_full.html"))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}

	scrapedAt := time.Date(2025, 1, 4, 15, 30, 0, 0, time.UTC)
	rec, err := ParseListing(validURL, html, scrapedAt)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if rec.CentrisID != 19418151 {
		t.Fatalf("unexpected id %d", rec.CentrisID)
	}
	if rec.City != "Montreal" || rec.Neighborhood != "Ahuntsic Cartierville" {
		t.Fatalf("unexpected identity %s / %s", rec.City, rec.Neighborhood)
	}
	if rec.Price != 899000 {
		t.Fatalf("unexpected price %d", rec.Price)
	}
	if rec.ScrapeDate != "2025-01-04" {
		t.Fatalf("unexpected scrape date %s", rec.ScrapeDate)
	}
	if rec.UnitCount == nil || *rec.UnitCount != 3 {
		t.Fatalf("unexpected unit count %v", rec.UnitCount)
	}
}

func TestParseListing_MissingPriceFails(t *testing.T) {
	html, err := os.ReadFile(filepath.Join("testdata", "listing_no_price.html"))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}

	_, err = ParseListing(validURL, html, time.Now())
	var missing *RequiredFieldMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected RequiredFieldMissingError, got %v", err)
	}
}
