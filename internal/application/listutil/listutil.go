package listutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPerPage is the page size when none is requested.
const DefaultPerPage = 20

// MaxPerPage caps the requested page size.
const MaxPerPage = 200

// MaxSearchLength caps free-text search input.
const MaxSearchLength = 100

// Page is a parsed page request.
type Page struct {
	Number  int // 1-indexed
	PerPage int
}

// ParsePage extracts page and per_page from query values.
// PRE: none
// POST: Number >= 1; 1 <= PerPage <= MaxPerPage
func ParsePage(q url.Values) Page {
	number, _ := strconv.Atoi(q.Get("page"))
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = DefaultPerPage
	}
	return Page{Number: max(number, 1), PerPage: min(perPage, MaxPerPage)}
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// ParseSearch returns the trimmed q parameter, cut to MaxSearchLength bytes.
func ParseSearch(q url.Values) string {
	s := strings.TrimSpace(q.Get("q"))
	if len(s) > MaxSearchLength {
		s = s[:MaxSearchLength]
	}
	return s
}

// ParseBoundedInt reads key as an integer in [lo, hi], using def when absent.
// PRE: lo <= def <= hi
// POST: returns an error naming key when the value is malformed or out of range
func ParseBoundedInt(q url.Values, key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", key)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", key, lo, hi)
	}
	return n, nil
}
