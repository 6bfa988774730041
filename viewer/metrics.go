package viewer

import (
	"math"
	"sort"

	"plex_harvester/models"
)

// holdingCostYears approximates how many years of taxes to fold into the
// revenue multiplier when comparing income properties.
const holdingCostYears = 25

// DerivedMetrics are the per-listing investment ratios. A nil metric means
// one of its inputs was absent or zero on the listing.
type DerivedMetrics struct {
	PricePerSqftLot      *float64 `json:"price_per_sqft_lot"`
	PricePerSqftBuilding *float64 `json:"price_per_sqft_building"`
	PricePerSqftLiving   *float64 `json:"price_per_sqft_living"`
	RevenueMultiplier    *float64 `json:"revenue_multiplier"`
	AssessmentDiffPct    *float64 `json:"assessment_diff_pct"`
}

// ListingView is a listing joined with its derived metrics.
type ListingView struct {
	models.PlexListing
	Metrics DerivedMetrics `json:"metrics"`
}

// ComputeMetrics derives the investment ratios for one listing.
func ComputeMetrics(l *models.PlexListing) DerivedMetrics {
	m := DerivedMetrics{
		PricePerSqftLot:      ratio(l.Price, l.LotArea),
		PricePerSqftBuilding: ratio(l.Price, l.BuildingArea),
		PricePerSqftLiving:   ratio(l.Price, l.LivingArea),
	}

	if l.GrossRevenue != nil && *l.GrossRevenue > 0 {
		cost := float64(l.Price)
		if l.TaxesYearly != nil {
			cost += holdingCostYears * float64(*l.TaxesYearly)
		}
		v := round2(cost / float64(*l.GrossRevenue))
		m.RevenueMultiplier = &v
	}

	if l.MunicipalAssessment != nil && *l.MunicipalAssessment > 0 {
		v := round2(100 * (float64(l.Price) - float64(*l.MunicipalAssessment)) / float64(*l.MunicipalAssessment))
		m.AssessmentDiffPct = &v
	}

	return m
}

func ratio(price int, area *int) *float64 {
	if area == nil || *area <= 0 {
		return nil
	}
	v := round2(float64(price) / float64(*area))
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NeighborhoodStats aggregates listings sharing a city and neighborhood.
type NeighborhoodStats struct {
	City             string   `json:"city"`
	Neighborhood     string   `json:"neighborhood"`
	Count            int      `json:"count"`
	MeanPrice        float64  `json:"mean_price"`
	MedianPrice      float64  `json:"median_price"`
	MinPrice         int      `json:"min_price"`
	MaxPrice         int      `json:"max_price"`
	MeanRevenueMult  *float64 `json:"mean_revenue_multiplier"`
	MeanPricePerSqft *float64 `json:"mean_price_per_sqft_building"`
}

// AggregateByNeighborhood groups listings and computes per-group price and
// ratio statistics, sorted by descending listing count.
func AggregateByNeighborhood(listings []models.PlexListing) []NeighborhoodStats {
	type group struct {
		prices  []int
		mults   []float64
		persqft []float64
	}
	type key struct{ city, hood string }

	groups := make(map[key]*group)
	for i := range listings {
		l := &listings[i]
		k := key{l.City, l.Neighborhood}
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
		}
		g.prices = append(g.prices, l.Price)
		m := ComputeMetrics(l)
		if m.RevenueMultiplier != nil {
			g.mults = append(g.mults, *m.RevenueMultiplier)
		}
		if m.PricePerSqftBuilding != nil {
			g.persqft = append(g.persqft, *m.PricePerSqftBuilding)
		}
	}

	stats := make([]NeighborhoodStats, 0, len(groups))
	for k, g := range groups {
		sort.Ints(g.prices)
		s := NeighborhoodStats{
			City:         k.city,
			Neighborhood: k.hood,
			Count:        len(g.prices),
			MeanPrice:    round2(meanInt(g.prices)),
			MedianPrice:  medianInt(g.prices),
			MinPrice:     g.prices[0],
			MaxPrice:     g.prices[len(g.prices)-1],
		}
		if len(g.mults) > 0 {
			v := round2(mean(g.mults))
			s.MeanRevenueMult = &v
		}
		if len(g.persqft) > 0 {
			v := round2(mean(g.persqft))
			s.MeanPricePerSqft = &v
		}
		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		if stats[i].City != stats[j].City {
			return stats[i].City < stats[j].City
		}
		return stats[i].Neighborhood < stats[j].Neighborhood
	})
	return stats
}

func meanInt(vals []int) float64 {
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// medianInt expects vals to be sorted.
func medianInt(vals []int) float64 {
	n := len(vals)
	if n%2 == 1 {
		return float64(vals[n/2])
	}
	return float64(vals[n/2-1]+vals[n/2]) / 2
}

// FieldQuality reports how completely one optional field is populated.
type FieldQuality struct {
	Field      string  `json:"field"`
	MissingPct float64 `json:"missing_pct"`
	ZeroPct    float64 `json:"zero_pct"`
	Distinct   int     `json:"distinct"`
}

// QualityReport measures extraction completeness per optional field, the
// first place a selector drift on the source site shows up.
func QualityReport(listings []models.PlexListing) []FieldQuality {
	n := len(listings)
	if n == 0 {
		return []FieldQuality{}
	}

	intFields := []struct {
		name string
		get  func(*models.PlexListing) *int
	}{
		{"construction_year", func(l *models.PlexListing) *int { return l.ConstructionYear }},
		{"unit_count", func(l *models.PlexListing) *int { return l.UnitCount }},
		{"living_area", func(l *models.PlexListing) *int { return l.LivingArea }},
		{"building_area", func(l *models.PlexListing) *int { return l.BuildingArea }},
		{"lot_area", func(l *models.PlexListing) *int { return l.LotArea }},
		{"gross_revenue", func(l *models.PlexListing) *int { return l.GrossRevenue }},
		{"taxes_yearly", func(l *models.PlexListing) *int { return l.TaxesYearly }},
		{"municipal_assessment", func(l *models.PlexListing) *int { return l.MunicipalAssessment }},
	}

	report := make([]FieldQuality, 0, len(intFields)+2)
	for _, f := range intFields {
		missing, zero := 0, 0
		distinct := make(map[int]struct{})
		for i := range listings {
			v := f.get(&listings[i])
			if v == nil {
				missing++
				continue
			}
			if *v == 0 {
				zero++
			}
			distinct[*v] = struct{}{}
		}
		report = append(report, FieldQuality{
			Field:      f.name,
			MissingPct: round2(100 * float64(missing) / float64(n)),
			ZeroPct:    round2(100 * float64(zero) / float64(n)),
			Distinct:   len(distinct),
		})
	}

	missing, zero := 0, 0
	distinctParking := make(map[int]struct{})
	for i := range listings {
		if listings[i].Parking == 0 {
			zero++
		}
		distinctParking[listings[i].Parking] = struct{}{}
	}
	report = append(report, FieldQuality{
		Field:      "parking",
		MissingPct: 0,
		ZeroPct:    round2(100 * float64(zero) / float64(n)),
		Distinct:   len(distinctParking),
	})

	missing = 0
	distinctUnits := make(map[string]struct{})
	for i := range listings {
		if len(listings[i].Units) == 0 {
			missing++
			continue
		}
		for _, u := range listings[i].Units {
			distinctUnits[u] = struct{}{}
		}
	}
	report = append(report, FieldQuality{
		Field:      "units",
		MissingPct: round2(100 * float64(missing) / float64(n)),
		ZeroPct:    0,
		Distinct:   len(distinctUnits),
	})

	return report
}
