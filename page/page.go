// Package page splits result lists into numbered pages.
//
// Page numbers are 1-based. A page number that is not an integer selects the
// first page. A number out of range (below 1 or past the end) selects the last
// page, so a client always gets a usable page back.
package page

import (
	"strconv"
	"strings"
)

// DefaultSize is the number of items per page when none is configured.
const DefaultSize = 10

// Page is one page of a result list.
type Page[T any] struct {
	Items    []T  `json:"results"`
	Number   int  `json:"page"`
	NumPages int  `json:"num_pages"`
	Total    int  `json:"count"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_previous"`
}

// Paginate returns page number of items, size items per page. size <= 0
// uses DefaultSize. number is parsed as a decimal integer.
func Paginate[T any](items []T, number string, size int) Page[T] {
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		n = 1
	}
	return At(items, n, size)
}

// At returns page n of items. An n outside [1, NumPages] selects the last
// page.
func At[T any](items []T, n, size int) Page[T] {
	if size <= 0 {
		size = DefaultSize
	}

	numPages := (len(items) + size - 1) / size
	if numPages == 0 {
		numPages = 1
	}
	if n < 1 || n > numPages {
		n = numPages
	}

	lo := (n - 1) * size
	hi := min(lo+size, len(items))

	return Page[T]{
		Items:    items[lo:hi:hi],
		Number:   n,
		NumPages: numPages,
		Total:    len(items),
		HasNext:  n < numPages,
		HasPrev:  n > 1,
	}
}
