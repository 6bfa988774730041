package centris

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"time"

	"plex_harvester/identity"
	"plex_harvester/models"
)

const (
	sourceHost       = "www.centris.ca"
	localizedPrefix  = "/fr/"
	detailViewMarker = "Summary"
	scrapeDateLayout = "2006-01-02"
)

var scrapeDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// BuildRecord assembles identity and extracted fields into one validated,
// immutable record. This is the seam between lossy scraping and
// guaranteed-shape data: nothing past this point touches HTML.
func BuildRecord(ident models.ListingIdentity, fields *Fields, sourceURL, scrapeDate string) (*models.PlexListing, error) {
	if err := validateSourceURL(sourceURL); err != nil {
		return nil, err
	}

	if !scrapeDateRegex.MatchString(scrapeDate) {
		return nil, &ValidationError{Field: "scrape_date", Reason: "must match YYYY-MM-DD"}
	}

	// Last-resort invariant; a missing price should already have failed
	// extraction.
	if fields.Price == nil {
		return nil, &ValidationError{Field: "price", Reason: "required field absent"}
	}
	if *fields.Price < 0 {
		return nil, &ValidationError{Field: "price", Reason: "must be non-negative"}
	}

	if fields.UnitCount != nil && len(fields.Units) > 0 && *fields.UnitCount != len(fields.Units) {
		return nil, &ValidationError{Field: "unit_count", Reason: "does not match unit list length"}
	}

	return &models.PlexListing{
		CentrisID:    ident.CentrisID,
		URL:          sourceURL,
		Price:        *fields.Price,
		ScrapeDate:   scrapeDate,
		City:         ident.City,
		Neighborhood: ident.Neighborhood,

		Title:               fields.Title,
		Description:         fields.Description,
		Address:             fields.Address,
		ConstructionYear:    fields.ConstructionYear,
		Units:               fields.Units,
		UnitCount:           fields.UnitCount,
		LivingArea:          fields.LivingArea,
		BuildingArea:        fields.BuildingArea,
		CommercialArea:      fields.CommercialArea,
		LotArea:             fields.LotArea,
		Parking:             fields.Parking,
		Usage:               fields.Usage,
		BuildingStyle:       fields.BuildingStyle,
		GrossRevenue:        fields.GrossRevenue,
		TaxesYearly:         fields.TaxesYearly,
		MunicipalAssessment: fields.MunicipalAssessment,
	}, nil
}

// validateSourceURL enforces the canonical listing URL shape: https, exact
// source host, localized path with at least the dynamic segments, and the
// detail-view query marker.
func validateSourceURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Reason: "unparseable: " + err.Error()}
	}
	if parsed.Scheme != "https" {
		return &ValidationError{Field: "url", Reason: "scheme must be https"}
	}
	if parsed.Host != sourceHost {
		return &ValidationError{Field: "url", Reason: "host must be " + sourceHost}
	}
	if !strings.HasPrefix(parsed.Path, localizedPrefix) {
		return &ValidationError{Field: "url", Reason: "path must use the French locale"}
	}
	if len(strings.Split(parsed.Path, "/")) < 3 {
		return &ValidationError{Field: "url", Reason: "path missing dynamic segments"}
	}
	if parsed.Query().Get("view") != detailViewMarker {
		return &ValidationError{Field: "url", Reason: "query parameter view must be " + detailViewMarker}
	}
	return nil
}

// ParseListing is the single-listing pipeline: resolve identity, extract
// fields, and build the validated record from raw page bytes.
func ParseListing(sourceURL string, pageHTML []byte, scrapedAt time.Time) (*models.PlexListing, error) {
	ident, err := identity.Resolve(sourceURL)
	if err != nil {
		return nil, err
	}

	page, err := NewPage(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	fields, err := ExtractFields(page)
	if err != nil {
		return nil, err
	}

	return BuildRecord(ident, fields, sourceURL, scrapedAt.Format(scrapeDateLayout))
}
