package identity

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"plex_harvester/models"
)

// Centris detail URLs look like:
//
//	/fr/triplex~a-vendre~montreal-ahuntsic-cartierville/19418151
//
// The trailing digit run is the Centris ID, the slug before it encodes
// city and neighborhood.
var pathRegex = regexp.MustCompile(`/fr/[^/]+~[^/]+~([^/]+)/(\d+)`)

var titleCaser = cases.Title(language.French)

// MalformedURLError means no identity can be derived from the URL. The
// listing is unprocessable: the identity is the record's primary key.
type MalformedURLError struct {
	URL    string
	Reason string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed listing URL %q: %s", e.URL, e.Reason)
}

// Resolve derives the stable listing identity from a canonical Centris URL.
//
// The location slug is split on hyphens: the first segment is the city, the
// rest form the neighborhood. Hyphens inside multi-word city names are
// indistinguishable from the city/neighborhood boundary, so a city like
// Trois-Rivieres resolves as city "Trois" with the remainder demoted to
// neighborhood. Known lossy heuristic, kept as-is.
func Resolve(rawURL string) (models.ListingIdentity, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return models.ListingIdentity{}, &MalformedURLError{URL: rawURL, Reason: err.Error()}
	}

	m := pathRegex.FindStringSubmatch(parsed.Path)
	if m == nil {
		return models.ListingIdentity{}, &MalformedURLError{URL: rawURL, Reason: "path does not match listing pattern"}
	}

	id, err := strconv.Atoi(m[2])
	if err != nil || id <= 0 {
		return models.ListingIdentity{}, &MalformedURLError{URL: rawURL, Reason: "invalid listing id"}
	}

	segments := strings.Split(m[1], "-")
	ident := models.ListingIdentity{
		CentrisID: id,
		City:      titleCaser.String(strings.ToLower(segments[0])),
	}
	if len(segments) > 1 {
		ident.Neighborhood = titleCaser.String(strings.ToLower(strings.Join(segments[1:], " ")))
	}

	if ident.City == "" {
		return models.ListingIdentity{}, &MalformedURLError{URL: rawURL, Reason: "empty location slug"}
	}

	return ident, nil
}
