package centris

import "fmt"

// FetchError reports a non-200 response for a listing page.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// RequiredFieldMissingError means a required field (price) could not be
// extracted. The listing is skipped, never persisted partially.
type RequiredFieldMissingError struct {
	Field string
}

func (e *RequiredFieldMissingError) Error() string {
	return fmt.Sprintf("required field %q missing from page", e.Field)
}

// ValidationError means an assembled record violates an invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
