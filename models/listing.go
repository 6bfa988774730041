package models

// ListingIdentity is the stable identity of a listing, derived once from its
// canonical URL. Page content does not reliably carry it, so it is never
// recomputed from the document.
type ListingIdentity struct {
	CentrisID    int    `json:"centris_id" db:"centris_id"`
	City         string `json:"city" db:"city"`
	Neighborhood string `json:"neighborhood" db:"neighborhood"`
}

// ListingRef is the minimal handle the liveness monitor works with.
type ListingRef struct {
	CentrisID int    `json:"centris_id" db:"centris_id"`
	URL       string `json:"url" db:"url"`
	Price     int    `json:"price" db:"price"`
}

// PlexListing is one validated, persisted listing record. Price is the only
// required field beyond identity; everything else may be absent because page
// layouts vary. Built once per scrape, never mutated.
type PlexListing struct {
	CentrisID    int    `json:"centris_id" db:"centris_id"`
	URL          string `json:"url" db:"url"`
	Price        int    `json:"price" db:"price"`
	ScrapeDate   string `json:"scrape_date" db:"scrape_date"`
	City         string `json:"city" db:"city"`
	Neighborhood string `json:"neighborhood" db:"neighborhood"`

	Title               *string  `json:"title" db:"title"`
	Description         *string  `json:"description" db:"description"`
	Address             *string  `json:"address" db:"address"`
	ConstructionYear    *int     `json:"construction_year" db:"construction_year"`
	Units               []string `json:"units" db:"units"`
	UnitCount           *int     `json:"unit_count" db:"unit_count"`
	LivingArea          *int     `json:"living_area" db:"living_area"`
	BuildingArea        *int     `json:"building_area" db:"building_area"`
	CommercialArea      *int     `json:"commercial_area" db:"commercial_area"`
	LotArea             *int     `json:"lot_area" db:"lot_area"`
	Parking             int      `json:"parking" db:"parking"`
	Usage               *string  `json:"usage" db:"usage"`
	BuildingStyle       *string  `json:"building_style" db:"building_style"`
	GrossRevenue        *int     `json:"gross_revenue" db:"gross_revenue"`
	TaxesYearly         *int     `json:"taxes_yearly" db:"taxes_yearly"`
	MunicipalAssessment *int     `json:"municipal_assessment" db:"municipal_assessment"`
}
