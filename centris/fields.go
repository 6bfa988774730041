package centris

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fields holds everything extracted from one listing page, before
// normalization. Pointers mark fields that may legitimately be absent.
type Fields struct {
	Price               *int
	Title               *string
	Description         *string
	Address             *string
	ConstructionYear    *int
	Units               []string
	UnitCount           *int
	LivingArea          *int
	BuildingArea        *int
	CommercialArea      *int
	LotArea             *int
	Parking             int
	Usage               *string
	BuildingStyle       *string
	GrossRevenue        *int
	TaxesYearly         *int
	MunicipalAssessment *int
}

var (
	nonDigitRegex    = regexp.MustCompile(`[^0-9]`)
	yearRegex        = regexp.MustCompile(`\b(18|19|20)\d{2}\b`)
	parentheticalNum = regexp.MustCompile(`\((\d+)\)`)
	garageRegex      = regexp.MustCompile(`Garage \((\d+)\)`)
)

// ExtractFields runs every field extractor over an already-built page.
// Only the price can fail the call: every other field follows its policy
// and degrades to absent or zero.
func ExtractFields(page *Page) (*Fields, error) {
	f := &Fields{}

	price, err := extractPrice(page)
	if err != nil {
		return nil, err
	}
	f.Price = price

	f.Title = extractNodeText(page, `span[data-id="PageTitle"]`)
	f.Description = extractNodeText(page, `div[itemprop="description"]`)
	f.Address = extractNodeText(page, `h2[itemprop="address"]`)

	f.ConstructionYear = extractConstructionYear(page)
	f.GrossRevenue = extractLabelInt(page, labelsGrossRevenue)
	f.LivingArea = extractLabelInt(page, labelsLivingArea)
	f.BuildingArea = extractLabelInt(page, labelsBuildingArea)
	f.CommercialArea = extractLabelInt(page, labelsCommercialArea)
	f.LotArea = extractLabelInt(page, labelsLotArea)
	f.Usage = extractLabelString(page, labelsUsage)
	f.BuildingStyle = extractLabelString(page, labelsBuildingStyle)

	f.Units = extractUnits(page)
	f.UnitCount = extractUnitCount(page, f.Units)
	f.Parking = extractParking(page)

	f.TaxesYearly = extractTaxesYearly(page)
	f.MunicipalAssessment = extractMunicipalAssessment(page)

	return f, nil
}

// extractPrice reads the buy-price node. An absent node means the required
// field is missing; a present node whose text carries no digits is corrupt
// markup, never a silent zero.
func extractPrice(page *Page) (*int, error) {
	node := page.doc.Find("span#BuyPrice").First()
	if node.Length() == 0 {
		return nil, &RequiredFieldMissingError{Field: "price"}
	}
	price, ok := digitsToInt(node.Text())
	if !ok {
		return nil, fmt.Errorf("price: no digits in node text %q", strings.TrimSpace(node.Text()))
	}
	return &price, nil
}

func extractNodeText(page *Page, selector string) *string {
	node := page.doc.Find(selector).First()
	if node.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(node.Text())
	if text == "" {
		return nil
	}
	return &text
}

func extractConstructionYear(page *Page) *int {
	text, ok := page.LabelAlias(labelsConstructionYear...)
	if !ok {
		return nil
	}
	m := yearRegex.FindString(text)
	if m == "" {
		return nil
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &year
}

func extractLabelInt(page *Page, aliases []string) *int {
	text, ok := page.LabelAlias(aliases...)
	if !ok {
		return nil
	}
	v, ok := digitsToInt(text)
	if !ok {
		return nil
	}
	return &v
}

func extractLabelString(page *Page, aliases []string) *string {
	text, ok := page.LabelAlias(aliases...)
	if !ok {
		return nil
	}
	return &text
}

func extractUnits(page *Page) []string {
	text, ok := page.LabelAlias(labelsUnits...)
	if !ok {
		return []string{}
	}
	return ParseUnits(text)
}

// extractUnitCount prefers the expanded unit list; when the list is empty it
// falls back to the parenthetical count in the unit-count label.
func extractUnitCount(page *Page, units []string) *int {
	if len(units) > 0 {
		n := len(units)
		return &n
	}
	text, ok := page.LabelAlias(labelsUnitCount...)
	if !ok {
		return nil
	}
	m := parentheticalNum.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// extractParking is best-effort by contract: the total is the number of
// comma-separated outdoor spots plus the parenthetical garage count, each
// part defaulting to 0 when its label is absent. Whether garage spots also
// appear in the total label is unresolved in the source data; the two parts
// are summed as-is.
func extractParking(page *Page) int {
	total := 0

	if text, ok := page.LabelAlias(labelsParkingTotal...); ok {
		count := 0
		for _, token := range strings.Split(text, ",") {
			if strings.TrimSpace(token) != "" {
				count++
			}
		}
		if count == 0 {
			log.Printf("Warning: parking label present but empty: %q", text)
		}
		total += count
	}

	if text, ok := page.LabelAlias(labelsGarage...); ok {
		if m := garageRegex.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				total += n
			}
		} else {
			log.Printf("Warning: garage label without count: %q", text)
		}
	}

	return total
}

// extractTaxesYearly reads the total row of the yearly taxes table.
func extractTaxesYearly(page *Page) *int {
	row := page.doc.Find("div.financial-details-table-yearly tfoot tr.financial-details-table-total").First()
	return totalCellInt(row)
}

// extractMunicipalAssessment reads the first financial total row, which on
// Centris pages is the municipal evaluation table.
func extractMunicipalAssessment(page *Page) *int {
	row := page.doc.Find("tr.financial-details-table-total").First()
	return totalCellInt(row)
}

func totalCellInt(row *goquery.Selection) *int {
	if row.Length() == 0 {
		return nil
	}
	cell := row.Find("td.font-weight-bold.text-right").First()
	if cell.Length() == 0 {
		return nil
	}
	v, ok := digitsToInt(cell.Text())
	if !ok {
		return nil
	}
	return &v
}

// digitsToInt strips every non-digit rune and parses the remainder.
func digitsToInt(s string) (int, bool) {
	digits := nonDigitRegex.ReplaceAllString(s, "")
	if digits == "" {
		return 0, false
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return v, true
}
