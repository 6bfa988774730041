package centris

// Label aliases, in priority order. Centris renamed several characteristic
// labels over time; extraction takes the first alias present on the page.
var (
	labelsConstructionYear = []string{"Année de construction"}
	labelsGrossRevenue     = []string{"Revenus bruts potentiels"}
	labelsLivingArea       = []string{"Superficie habitable"}
	labelsBuildingArea     = []string{"Superficie du batiment", "Superficie du bâtiment (au sol)"}
	labelsCommercialArea   = []string{"Superficie commerciale"}
	labelsLotArea          = []string{"Superficie du terrain"}
	labelsUsage            = []string{"Utilisation", "Utilisation de la propriété"}
	labelsBuildingStyle    = []string{"Style de bâtiment"}
	labelsUnits            = []string{"Unité résidentielle", "Unités résidentielles"}
	// U+2019 apostrophe, as rendered on the page.
	labelsUnitCount    = []string{"Nombre d’unités"}
	labelsParkingTotal = []string{"Stationnement total"}
	labelsGarage       = []string{"Garage"}
)

// FieldPolicy states how extraction failures for one field are handled.
type FieldPolicy int

const (
	// PolicyRequired: absence or garbage fails the whole listing.
	PolicyRequired FieldPolicy = iota
	// PolicyOptional: absence leaves the field unset, garbage fails the listing.
	PolicyOptional
	// PolicyBestEffort: never fails; degrades to zero/absent with a logged warning.
	PolicyBestEffort
)

// fieldPolicies is the auditable resilience contract: which fields hard-fail
// a listing and which silently degrade.
var fieldPolicies = map[string]FieldPolicy{
	"price":                PolicyRequired,
	"title":                PolicyOptional,
	"description":          PolicyOptional,
	"address":              PolicyOptional,
	"construction_year":    PolicyOptional,
	"gross_revenue":        PolicyOptional,
	"living_area":          PolicyOptional,
	"building_area":        PolicyOptional,
	"commercial_area":      PolicyOptional,
	"lot_area":             PolicyOptional,
	"usage":                PolicyOptional,
	"building_style":       PolicyOptional,
	"units":                PolicyOptional,
	"unit_count":           PolicyOptional,
	"parking":              PolicyBestEffort,
	"taxes_yearly":         PolicyOptional,
	"municipal_assessment": PolicyOptional,
}

// PolicyFor returns the failure policy for a logical field name.
func PolicyFor(field string) FieldPolicy {
	if p, ok := fieldPolicies[field]; ok {
		return p
	}
	return PolicyOptional
}
