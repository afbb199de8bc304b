package viewmodel

// Pagination contains the pager state rendered under every list screen.
type Pagination struct {
	BasePath   string
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
	RangeLabel string
	Search     string
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
	Pages      []PageLink
	PageSizes  []PageSizeOption
}

// PageLink is a numbered page button.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// PageSizeOption is an entry of the page-size selector.
type PageSizeOption struct {
	Size     int
	Selected bool
}
