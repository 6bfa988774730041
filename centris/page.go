package centris

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is the immutable per-listing bundle every extractor reads: the parsed
// document plus the characteristics label table, both built exactly once.
// Nothing here touches the network; fetching is the Fetcher's job.
type Page struct {
	doc    *goquery.Document
	labels map[string]string
}

// NewPage parses one listing page and builds its label table.
func NewPage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{doc: doc, labels: buildLabelTable(doc)}, nil
}

// Label returns the raw value text for a rendered characteristic label.
func (p *Page) Label(name string) (string, bool) {
	v, ok := p.labels[name]
	return v, ok
}

// LabelAlias probes candidate labels in priority order and returns the first
// present value. Historical page layouts renamed several labels, so most
// logical fields carry a short alias list.
func (p *Page) LabelAlias(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := p.labels[name]; ok {
			return v, true
		}
	}
	return "", false
}

// buildLabelTable scrapes the repeated carac-container layout into a
// label -> value lookup.
func buildLabelTable(doc *goquery.Document) map[string]string {
	labels := make(map[string]string)
	doc.Find(".carac-container").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(".carac-title").First().Text())
		value := strings.TrimSpace(s.Find(".carac-value span").First().Text())
		if title != "" && value != "" {
			labels[title] = value
		}
	})
	return labels
}
