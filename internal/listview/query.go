// Package listview implements the list screen pipeline shared by every table in
// the dashboard: parse the query, fetch rows, filter, clamp the page, slice, and
// describe the result for rendering.
package listview

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Query parameter names.
const (
	ParamPage         = "page"
	ParamPageSize     = "page_size"
	ParamPrevPageSize = "prev_page_size"
	ParamSearch       = "q"
)

// DefaultPageSizes are the selectable page sizes when none are configured.
var DefaultPageSizes = []int{10, 20, 50}

// Query is the page, page size and search text driving one list screen.
type Query struct {
	Page     int
	PageSize int
	Search   string
}

// ParseQuery reads page, page_size and q from v. An invalid page becomes 1 and a
// page size outside sizes becomes the first allowed size. When prev_page_size is
// present and differs from page_size the page resets to 1.
func ParseQuery(v url.Values, sizes []int) Query {
	if len(sizes) == 0 {
		sizes = DefaultPageSizes
	}
	q := Query{Page: 1, PageSize: sizes[0], Search: strings.TrimSpace(v.Get(ParamSearch))}

	if n, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamPage))); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamPageSize))); err == nil && slices.Contains(sizes, n) {
		q.PageSize = n
	}
	if prev := strings.TrimSpace(v.Get(ParamPrevPageSize)); prev != "" {
		if n, err := strconv.Atoi(prev); err != nil || n != q.PageSize {
			q.Page = 1
		}
	}
	return q
}

// WithPageSize returns a copy using size; a changed size resets the page.
func (q Query) WithPageSize(size int) Query {
	if size != q.PageSize {
		q.Page = 1
	}
	q.PageSize = size
	return q
}

// WithSearch returns a copy filtering by text, starting again at page 1.
func (q Query) WithSearch(text string) Query {
	text = strings.TrimSpace(text)
	if text != q.Search {
		q.Page = 1
	}
	q.Search = text
	return q
}

// Reset returns the first page with no search text, keeping the page size.
func (q Query) Reset() Query {
	return Query{Page: 1, PageSize: q.PageSize}
}

// Offset is the zero-based index of the first row on the page.
func (q Query) Offset() int {
	if q.Page < 1 || q.PageSize < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Values encodes the query for links.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(q.Page))
	v.Set(ParamPageSize, strconv.Itoa(q.PageSize))
	if q.Search != "" {
		v.Set(ParamSearch, q.Search)
	}
	return v
}

// URL returns basePath with the query for the given page.
func (q Query) URL(basePath string, page int) string {
	q.Page = page
	return basePath + "?" + q.Values().Encode()
}
