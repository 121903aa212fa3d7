// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"strconv"
	"strings"
)

// DefaultLimit is the page size used when a request leaves limit unset.
const DefaultLimit = 10

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// MaxPage caps the page number a caller may request. Pages past the data
// come back empty, so the cap only bounds the skip arithmetic.
const MaxPage = math.MaxInt32

// Page is a 1-based offset page.
type Page struct {
	Page  int
	Limit int
}

// Parse reads page and limit from raw query values. Missing, malformed, or
// non-positive values fall back to page 1 and DefaultLimit; page is capped at
// MaxPage and limit at MaxLimit.
func Parse(page, limit string) Page {
	p := Page{Page: ParsePositive(page, 1), Limit: ParsePositive(limit, DefaultLimit)}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// ParsePositive parses s as an integer ≥ 1, returning def otherwise.
func ParsePositive(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Skip returns the number of rows before this page, as Mongo's SetSkip wants it.
// It saturates at math.MaxInt64 instead of overflowing.
func (p Page) Skip() int64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	before, limit := int64(p.Page-1), int64(p.Limit)
	if before > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return before * limit
}

// Pages returns ceil(total/limit), or 0 when there is nothing to page.
func Pages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
