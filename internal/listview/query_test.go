package listview

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		in   url.Values
		want Query
	}{
		{name: "defaults", in: url.Values{}, want: Query{Page: 1, PageSize: 10}},
		{name: "valid", in: url.Values{"page": {"3"}, "page_size": {"20"}, "q": {" acme "}}, want: Query{Page: 3, PageSize: 20, Search: "acme"}},
		{name: "zero page", in: url.Values{"page": {"0"}}, want: Query{Page: 1, PageSize: 10}},
		{name: "garbage page", in: url.Values{"page": {"two"}}, want: Query{Page: 1, PageSize: 10}},
		{name: "size not allowed", in: url.Values{"page": {"2"}, "page_size": {"25"}}, want: Query{Page: 2, PageSize: 10}},
		{
			name: "page size change resets page",
			in:   url.Values{"page": {"4"}, "page_size": {"50"}, "prev_page_size": {"10"}},
			want: Query{Page: 1, PageSize: 50},
		},
		{
			name: "unchanged page size keeps page",
			in:   url.Values{"page": {"4"}, "page_size": {"20"}, "prev_page_size": {"20"}},
			want: Query{Page: 4, PageSize: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuery(tt.in, []int{10, 20, 50}))
		})
	}
}

func TestQuery_WithPageSizeAlwaysResetsPage(t *testing.T) {
	for _, size := range []int{10, 20, 50} {
		for page := 1; page <= 5; page++ {
			q := Query{Page: page, PageSize: 10}
			got := q.WithPageSize(size)
			if size != 10 {
				assert.Equal(t, 1, got.Page, "page=%d size=%d", page, size)
			} else {
				assert.Equal(t, page, got.Page)
			}
			assert.Equal(t, size, got.PageSize)
		}
	}
}

func TestQuery_WithSearchAndReset(t *testing.T) {
	q := Query{Page: 3, PageSize: 20, Search: "a"}
	assert.Equal(t, Query{Page: 1, PageSize: 20, Search: "b"}, q.WithSearch(" b "))
	assert.Equal(t, q, q.WithSearch("a"))
	assert.Equal(t, Query{Page: 1, PageSize: 20}, q.Reset())
}

func TestQuery_URL(t *testing.T) {
	q := Query{Page: 1, PageSize: 20, Search: "north east"}
	assert.Equal(t, "/admin/users?page=2&page_size=20&q=north+east", q.URL("/admin/users", 2))
	assert.Equal(t, 20, Query{Page: 2, PageSize: 20}.Offset())
}
