package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 12
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
	// FirstPage is the 1-based index of the first page.
	FirstPage = 1
)

// Info is the page envelope the catalog and admin listings return.
type Info struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// HasNext reports whether a page after Page exists.
func (i Info) HasNext() bool {
	return i.Page < i.Pages
}

// Next returns the following page index, or 0 when Page is the last one.
func (i Info) Next() int {
	if !i.HasNext() {
		return 0
	}
	return NormalizePage(i.Page) + 1
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps page to the first page.
func NormalizePage(page int) int {
	if page < FirstPage {
		return FirstPage
	}
	return page
}

// ParsePage reads a page from a query-string value; anything that is not a positive integer is the first page.
func ParsePage(value string) int {
	page, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return FirstPage
	}
	return NormalizePage(page)
}

// PagesFor returns how many pages of limit hold total rows.
func PagesFor(total, limit int) int {
	if total <= 0 {
		return 0
	}
	limit = NormalizeLimit(limit)
	return (total + limit - 1) / limit
}
