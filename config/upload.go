package config

import (
	"slices"
	"strings"
	"time"
)

// UploadConfig controls the bulk upload flow.
type UploadConfig struct {
	// MaxBytes is the largest accepted upload.
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"20971520"`

	// AllowedExtensions lists accepted file extensions (lowercase, with dot).
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" envDefault:".csv,.xls,.xlsx" envSeparator:","`

	// SettleDelay is how long to wait after submission before polling the status listing.
	SettleDelay time.Duration `env:"UPLOAD_SETTLE_DELAY" envDefault:"2s"`

	// Timeout bounds the whole background submission (upload + settle + status query).
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"2m"`

	// ProgressTTL is how long progress records are kept for polling.
	ProgressTTL time.Duration `env:"UPLOAD_PROGRESS_TTL" envDefault:"15m"`
}

// Sanitize applies guardrails to upload configuration values.
func (u *UploadConfig) Sanitize() {
	if u.MaxBytes <= 0 {
		u.MaxBytes = 20 << 20
	}
	exts := make([]string, 0, len(u.AllowedExtensions))
	for _, e := range u.AllowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !slices.Contains(exts, e) {
			exts = append(exts, e)
		}
	}
	if len(exts) == 0 {
		exts = []string{".csv", ".xls", ".xlsx"}
	}
	u.AllowedExtensions = exts
	if u.SettleDelay < 0 {
		u.SettleDelay = 0
	}
	if u.Timeout <= 0 {
		u.Timeout = 2 * time.Minute
	}
	if u.ProgressTTL <= 0 {
		u.ProgressTTL = 15 * time.Minute
	}
}

// NoticeConfig controls how long toast notices stay visible.
type NoticeConfig struct {
	InfoDuration  time.Duration `env:"NOTICE_INFO_DURATION"  envDefault:"3s"`
	AlertDuration time.Duration `env:"NOTICE_ALERT_DURATION" envDefault:"5s"`
}

// Sanitize restores defaults for non-positive durations.
func (n *NoticeConfig) Sanitize() {
	if n.InfoDuration <= 0 {
		n.InfoDuration = 3 * time.Second
	}
	if n.AlertDuration <= 0 {
		n.AlertDuration = 5 * time.Second
	}
}

// ListConfig controls list screen paging.
type ListConfig struct {
	// PageSizes are the selectable page sizes; the first is the default.
	PageSizes []int `env:"LIST_PAGE_SIZES" envDefault:"10,20,50" envSeparator:","`
}

// Sanitize drops non-positive sizes and restores the default set when empty.
func (l *ListConfig) Sanitize() {
	sizes := make([]int, 0, len(l.PageSizes))
	for _, s := range l.PageSizes {
		if s > 0 && !slices.Contains(sizes, s) {
			sizes = append(sizes, s)
		}
	}
	if len(sizes) == 0 {
		sizes = []int{10, 20, 50}
	}
	l.PageSizes = sizes
}
