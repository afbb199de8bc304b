package listview

import "fmt"

// Paginate returns items[(page-1)*pageSize : min(page*pageSize, len)], or an empty
// slice when the page starts past the end.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

// TotalPages is the number of pages needed for total rows, at least 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage keeps page within [1, TotalPages] so that
// (page-1)*pageSize < max(total, 1).
func ClampPage(page, pageSize, total int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total, pageSize); page > last {
		return last
	}
	return page
}

// RangeLabel renders "{first}-{last} of {total}" for the rows shown on page.
// An empty page renders "0-0 of {total}".
func RangeLabel(page, pageSize, shown, total int) string {
	if shown <= 0 || page < 1 || pageSize < 1 {
		return fmt.Sprintf("0-0 of %d", max(total, 0))
	}
	start := (page - 1) * pageSize
	return fmt.Sprintf("%d-%d of %d", start+1, start+shown, total)
}
