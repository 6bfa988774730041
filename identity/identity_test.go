package identity

import (
	"errors"
	"testing"
)

func TestResolve_CityAndNeighborhood(t *testing.T) {
	ident, err := Resolve("https://www.centris.ca/fr/triplex~a-vendre~montreal-ahuntsic-cartierville/19418151?view=Summary")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ident.CentrisID != 19418151 {
		t.Fatalf("expected id 19418151, got %d", ident.CentrisID)
	}
	if ident.City != "Montreal" {
		t.Fatalf("expected city Montreal, got %q", ident.City)
	}
	if ident.Neighborhood != "Ahuntsic Cartierville" {
		t.Fatalf("expected neighborhood Ahuntsic Cartierville, got %q", ident.Neighborhood)
	}
}

func TestResolve_CityOnly(t *testing.T) {
	ident, err := Resolve("https://www.centris.ca/fr/duplex~a-vendre~laval/12345678?view=Summary")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ident.CentrisID != 12345678 {
		t.Fatalf("expected id 12345678, got %d", ident.CentrisID)
	}
	if ident.City != "Laval" {
		t.Fatalf("expected city Laval, got %q", ident.City)
	}
	if ident.Neighborhood != "" {
		t.Fatalf("expected empty neighborhood, got %q", ident.Neighborhood)
	}
}

func TestResolve_HyphenatedCityIsAmbiguous(t *testing.T) {
	// Multi-word cities are split like city+neighborhood; documented
	// limitation of the slug format.
	ident, err := Resolve("https://www.centris.ca/fr/duplex~a-vendre~trois-rivieres/87654321")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ident.City != "Trois" {
		t.Fatalf("expected city Trois, got %q", ident.City)
	}
	if ident.Neighborhood != "Rivieres" {
		t.Fatalf("expected neighborhood Rivieres, got %q", ident.Neighborhood)
	}
}

func TestResolve_Malformed(t *testing.T) {
	urls := []string{
		"https://www.centris.ca/fr/a-propos",
		"https://www.centris.ca/en/triplex~for-sale~montreal/19418151",
		"https://www.centris.ca/fr/triplex~a-vendre~montreal/notanumber",
		"not a url at all ://",
	}
	for _, u := range urls {
		_, err := Resolve(u)
		if err == nil {
			t.Fatalf("expected error for %q", u)
		}
		var malformed *MalformedURLError
		if !errors.As(err, &malformed) {
			t.Fatalf("expected MalformedURLError for %q, got %T", u, err)
		}
	}
}
