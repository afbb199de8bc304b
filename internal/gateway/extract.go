package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// maxTextMessage caps a non-JSON body that may be shown to the user as-is.
const maxTextMessage = 200

// Extractor pulls well-known values out of backend JSON bodies using JMESPath
// expressions, so that differing envelopes map onto one shape.
type Extractor struct {
	messagePath string
	itemsPath   string
	totalPath   string
}

// NewExtractor validates the expressions and returns an Extractor.
func NewExtractor(messagePath, itemsPath, totalPath string) (*Extractor, error) {
	for _, expr := range []string{messagePath, itemsPath, totalPath} {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("invalid jmespath expression %q: %w", expr, err)
		}
	}
	return &Extractor{messagePath: messagePath, itemsPath: itemsPath, totalPath: totalPath}, nil
}

// Message returns the human-readable message from a decoded error body, or "".
// A non-JSON body counts only when it is a short line of text without markup.
func (x *Extractor) Message(body any) string {
	if x == nil || x.messagePath == "" || body == nil {
		return ""
	}
	if s, ok := body.(string); ok {
		return TextMessage(s)
	}
	v, err := jmespath.Search(x.messagePath, body)
	if err != nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// TextMessage returns s trimmed when it reads as a plain message, or "" for
// markup such as a proxy error page and for anything longer than a sentence.
func TextMessage(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxTextMessage || strings.ContainsAny(s, "<>") {
		return ""
	}
	return s
}

// Page is a decoded list envelope.
type Page struct {
	Items json.RawMessage
	Total int
}

// Page decodes a list response. A bare JSON array is its own item list; otherwise
// items and total are located through the configured expressions. When no total is
// present the item count is used.
func (x *Extractor) Page(raw []byte) (Page, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Page{}, fmt.Errorf("decode list body: %w", err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		found, err := jmespath.Search(x.itemsPath, v)
		if err != nil {
			return Page{}, fmt.Errorf("extract list items: %w", err)
		}
		if found != nil {
			arr, ok := found.([]any)
			if !ok {
				return Page{}, fmt.Errorf("extract list items: expected array, got %T", found)
			}
			items = arr
		}
	case nil:
	default:
		return Page{}, fmt.Errorf("decode list body: unexpected %T", doc)
	}

	total := len(items)
	if obj, ok := doc.(map[string]any); ok && x.totalPath != "" {
		if t, err := jmespath.Search(x.totalPath, obj); err == nil {
			if n, ok := t.(float64); ok && n >= 0 {
				total = int(n)
			}
		}
	}

	if items == nil {
		items = []any{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return Page{}, fmt.Errorf("re-encode list items: %w", err)
	}
	return Page{Items: encoded, Total: total}, nil
}

// DecodePage decodes a list response into typed items and a total count.
func DecodePage[T any](x *Extractor, raw []byte) ([]T, int, error) {
	p, err := x.Page(raw)
	if err != nil {
		return nil, 0, err
	}
	var items []T
	if err := json.Unmarshal(p.Items, &items); err != nil {
		return nil, 0, fmt.Errorf("decode list items: %w", err)
	}
	return items, p.Total, nil
}
