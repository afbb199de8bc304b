package listview

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fields selects the values of a row that participate in search.
type Fields[T any] []func(T) any

// Filter keeps rows where any selected field contains search, ignoring case.
// An empty search returns items unchanged.
func Filter[T any](items []T, search string, fields Fields[T]) []T {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if matches(it, needle, fields) {
			out = append(out, it)
		}
	}
	return out
}

func matches[T any](it T, needle string, fields Fields[T]) bool {
	for _, f := range fields {
		if f == nil {
			continue
		}
		if strings.Contains(strings.ToLower(stringify(f(it))), needle) {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.DateOnly)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.Format(time.DateOnly)
	case []string:
		return strings.Join(x, " ")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
