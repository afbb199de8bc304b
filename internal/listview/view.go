package listview

import apperrors "github.com/target/recon-console/internal/errors"

// View is everything a list template needs for one page.
type View[T any] struct {
	Items      []T
	Query      Query
	TotalCount int
	TotalPages int
	RangeLabel string
	HasPrev    bool
	HasNext    bool
	PageSizes  []int

	// Degraded is set when Items come from the fallback dataset; Err holds the fetch failure.
	Degraded bool
	Err      error
}

func newView[T any](page []T, q Query, total int, sizes []int) View[T] {
	if page == nil {
		page = []T{}
	}
	pages := TotalPages(total, q.PageSize)
	return View[T]{
		Items:      page,
		Query:      q,
		TotalCount: total,
		TotalPages: pages,
		RangeLabel: RangeLabel(q.Page, q.PageSize, len(page), total),
		HasPrev:    q.Page > 1,
		HasNext:    q.Page < pages,
		PageSizes:  sizes,
	}
}

// Empty reports whether the page has no rows.
func (v View[T]) Empty() bool { return len(v.Items) == 0 }

// ErrorMessage returns the user-facing fetch error text, or "".
func (v View[T]) ErrorMessage() string {
	if v.Err == nil {
		return ""
	}
	return apperrors.UserMessage(v.Err)
}

// PageWindow returns up to width page numbers centred on the current page.
func (v View[T]) PageWindow(width int) []int {
	if width < 1 || v.TotalPages < 1 {
		return nil
	}
	start := max(v.Query.Page-width/2, 1)
	end := min(start+width-1, v.TotalPages)
	start = max(end-width+1, 1)

	out := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}
