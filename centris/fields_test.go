package centris

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadFixture(t *testing.T, name string) *Page {
	t.Helper()
	path := filepath.Join("testdata", name)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	defer f.Close()

	page, err := NewPage(f)
	if err != nil {
		t.Fatalf("failed to parse fixture %s: %v", name, err)
	}
	return page
}

func TestExtractFields_FullPage(t *testing.T) {
	page := loadFixture(t, "listing_full.html")

	fields, err := ExtractFields(page)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if fields.Price == nil || *fields.Price != 899000 {
		t.Fatalf("expected price 899000, got %v", fields.Price)
	}
	if fields.Title == nil || !strings.Contains(*fields.Title, "Triplex") {
		t.Fatalf("unexpected title: %v", fields.Title)
	}
	if fields.Address == nil || !strings.Contains(*fields.Address, "Rue Fleury") {
		t.Fatalf("unexpected address: %v", fields.Address)
	}
	if fields.Description == nil || !strings.Contains(*fields.Description, "triplex") {
		t.Fatalf("unexpected description: %v", fields.Description)
	}
	if fields.ConstructionYear == nil || *fields.ConstructionYear != 1912 {
		t.Fatalf("expected year 1912, got %v", fields.ConstructionYear)
	}
	if fields.LivingArea == nil || *fields.LivingArea != 2400 {
		t.Fatalf("expected living area 2400, got %v", fields.LivingArea)
	}
	if fields.BuildingArea == nil || *fields.BuildingArea != 1200 {
		t.Fatalf("expected building area 1200 via alias label, got %v", fields.BuildingArea)
	}
	if fields.LotArea == nil || *fields.LotArea != 3000 {
		t.Fatalf("expected lot area 3000, got %v", fields.LotArea)
	}
	if fields.Usage == nil || *fields.Usage != "Résidentielle" {
		t.Fatalf("unexpected usage: %v", fields.Usage)
	}
	if fields.BuildingStyle == nil || *fields.BuildingStyle != "Jumelé" {
		t.Fatalf("unexpected building style: %v", fields.BuildingStyle)
	}
	if len(fields.Units) != 3 {
		t.Fatalf("expected 3 units, got %v", fields.Units)
	}
	if fields.Units[0] != "5 1/2" || fields.Units[1] != "5 1/2" || fields.Units[2] != "3 1/2" {
		t.Fatalf("unexpected units: %v", fields.Units)
	}
	if fields.UnitCount == nil || *fields.UnitCount != 3 {
		t.Fatalf("expected unit count 3, got %v", fields.UnitCount)
	}
	// 2 comma-separated spots + 1 garage
	if fields.Parking != 3 {
		t.Fatalf("expected parking 3, got %d", fields.Parking)
	}
	if fields.GrossRevenue == nil || *fields.GrossRevenue != 43200 {
		t.Fatalf("expected revenue 43200, got %v", fields.GrossRevenue)
	}
	if fields.TaxesYearly == nil || *fields.TaxesYearly != 5542 {
		t.Fatalf("expected taxes 5542, got %v", fields.TaxesYearly)
	}
	if fields.MunicipalAssessment == nil || *fields.MunicipalAssessment != 738000 {
		t.Fatalf("expected assessment 738000, got %v", fields.MunicipalAssessment)
	}
}

func TestExtractFields_MinimalPage(t *testing.T) {
	page := loadFixture(t, "listing_minimal.html")

	fields, err := ExtractFields(page)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if fields.Price == nil || *fields.Price != 425000 {
		t.Fatalf("expected price 425000, got %v", fields.Price)
	}
	if fields.Title != nil || fields.Address != nil || fields.Description != nil {
		t.Fatalf("expected absent structured fields")
	}
	if fields.ConstructionYear != nil || fields.LivingArea != nil || fields.LotArea != nil {
		t.Fatalf("expected absent label fields")
	}
	// Free-form unit text is a true negative, not an error.
	if len(fields.Units) != 0 {
		t.Fatalf("expected no units, got %v", fields.Units)
	}
	if fields.UnitCount != nil {
		t.Fatalf("expected absent unit count, got %v", *fields.UnitCount)
	}
	if fields.Parking != 0 {
		t.Fatalf("expected parking 0, got %d", fields.Parking)
	}
}

func TestExtractFields_MissingPrice(t *testing.T) {
	page := loadFixture(t, "listing_no_price.html")

	_, err := ExtractFields(page)
	if err == nil {
		t.Fatal("expected error for missing price node")
	}
	var missing *RequiredFieldMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected RequiredFieldMissingError, got %T: %v", err, err)
	}
	if missing.Field != "price" {
		t.Fatalf("expected field price, got %s", missing.Field)
	}
}

func TestExtractFields_NonNumericPrice(t *testing.T) {
	page, err := NewPage(strings.NewReader(`<html><body><span id="BuyPrice">Prix sur demande</span></body></html>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	_, err = ExtractFields(page)
	if err == nil {
		t.Fatal("expected error for non-numeric price text")
	}
	var missing *RequiredFieldMissingError
	if errors.As(err, &missing) {
		t.Fatal("non-numeric price is an extraction error, not a missing field")
	}
}

func TestExtractParking_BothLabelsAbsent(t *testing.T) {
	page, err := NewPage(strings.NewReader(`<html><body></body></html>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := extractParking(page); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestExtractParking_TokensPlusGarage(t *testing.T) {
	html := `<html><body>
		<div class="carac-container">
			<div class="carac-title">Stationnement total</div>
			<div class="carac-value"><span>A,B</span></div>
		</div>
		<div class="carac-container">
			<div class="carac-title">Garage</div>
			<div class="carac-value"><span>Garage (1)</span></div>
		</div>
	</body></html>`
	page, err := NewPage(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := extractParking(page); got != 3 {
		t.Fatalf("expected 2+1=3, got %d", got)
	}
}

func TestExtractUnitCount_FallbackParenthetical(t *testing.T) {
	html := `<html><body>
		<span id="BuyPrice">500 000 $</span>
		<div class="carac-container">
			<div class="carac-title">Nombre d’unités</div>
			<div class="carac-value"><span>Résidentiel (4)</span></div>
		</div>
	</body></html>`
	page, err := NewPage(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	fields, err := ExtractFields(page)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(fields.Units) != 0 {
		t.Fatalf("expected no unit list, got %v", fields.Units)
	}
	if fields.UnitCount == nil || *fields.UnitCount != 4 {
		t.Fatalf("expected fallback unit count 4, got %v", fields.UnitCount)
	}
}

func TestPolicyFor(t *testing.T) {
	if PolicyFor("price") != PolicyRequired {
		t.Fatal("price must be required")
	}
	if PolicyFor("parking") != PolicyBestEffort {
		t.Fatal("parking must be best-effort")
	}
	if PolicyFor("lot_area") != PolicyOptional {
		t.Fatal("lot_area must be optional")
	}
}
