// Package core holds the template helpers shared by every screen.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/target/recon-console/internal/http/uiutil"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"friendlyTime": timeFunc(uiutil.FormatFriendlyDateTime),
		"relativeTime": timeFunc(uiutil.FriendlyRelativeTime),
		"dateOnly":     timeFunc(uiutil.FormatDate),
		"timeTag":      TimeTag,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"contains":     strings.Contains,
		"join":         strings.Join,
		"formatNumber": FormatNumber,
		"formatAmount": FormatAmount,
		"statusClass":  StatusClass,
		"percentOf":    PercentOf,
		"truncateText": TruncateText,
		"dict":         Dict,
	}

	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped during execution.
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return funcs
}

// asTime accepts time.Time and *time.Time; anything else is the zero time.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

func timeFunc(format func(time.Time) string) func(any) string {
	return func(v any) string {
		t := asTime(v)
		if t.IsZero() {
			return ""
		}
		return format(t)
	}
}

// TimeTag renders a <time> element with the friendly value and an RFC 3339 datetime.
func TimeTag(v any) template.HTML {
	t := asTime(v)
	if t.IsZero() {
		return ""
	}
	// #nosec G203 - built from escaped values only.
	return template.HTML(fmt.Sprintf(`<time datetime="%s" title="%s">%s</time>`,
		t.UTC().Format(time.RFC3339),
		template.HTMLEscapeString(t.Local().Format(time.RFC1123)),
		template.HTMLEscapeString(uiutil.FormatFriendlyDateTime(t)),
	))
}

// FormatNumber formats integers with thousands separators.
func FormatNumber(v any) string {
	switch x := v.(type) {
	case int:
		return groupDigits(strconv.FormatInt(int64(x), 10))
	case int32:
		return groupDigits(strconv.FormatInt(int64(x), 10))
	case int64:
		return groupDigits(strconv.FormatInt(x, 10))
	case uint:
		return groupDigits(strconv.FormatUint(uint64(x), 10))
	case uint64:
		return groupDigits(strconv.FormatUint(x, 10))
	default:
		return fmt.Sprint(v)
	}
}

// FormatAmount renders a balance with two decimals and thousands separators.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	return groupDigits(whole) + "." + frac
}

// groupDigits inserts commas into a decimal integer string, keeping its sign.
func groupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 1)
	b.WriteString(sign)
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// StatusClass maps reconciliation, upload, import and period statuses to badge classes.
func StatusClass(status any) string {
	switch strings.ToLower(fmt.Sprint(status)) {
	case "approved", "completed", "closed", "imported", "success":
		return "badge-success"
	case "reviewed", "prepared", "processing", "uploading":
		return "badge-info"
	case "open", "pending":
		return "badge-secondary"
	case "exception", "overdue", "warning":
		return "badge-warning"
	case "rejected", "failed", "error":
		return "badge-danger"
	default:
		return "badge-light"
	}
}

// PercentOf returns part/total as a whole percentage for bar widths.
func PercentOf(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	return min(part*100/total, 100)
}

// Dict builds a map from alternating key/value arguments so a sub-template can
// receive more than one value.
func Dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict expects an even number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// TruncateText truncates a string to a maximum number of runes.
// The limit may be any integer or float for template convenience.
func TruncateText(s string, maxLen any) string {
	var n int
	switch v := maxLen.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return s
	}
	return uiutil.TruncateWithEllipsis(s, n)
}
