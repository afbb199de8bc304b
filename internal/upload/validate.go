// Package upload validates and previews bulk upload spreadsheets before they are
// sent to the backend.
package upload

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/target/recon-console/config"
	apperrors "github.com/target/recon-console/internal/errors"
)

// Form field names reported on validation errors.
const (
	FieldFile   = "file"
	FieldUserID = "user_id"
)

// Validator checks an upload against the configured limits.
type Validator struct {
	maxBytes   int64
	extensions []string
}

// NewValidator builds a Validator from sanitized upload configuration.
func NewValidator(cfg config.UploadConfig) *Validator {
	cfg.Sanitize()
	return &Validator{maxBytes: cfg.MaxBytes, extensions: cfg.AllowedExtensions}
}

// Extensions returns the accepted extensions.
func (v *Validator) Extensions() []string { return v.extensions }

// MaxBytes returns the size limit.
func (v *Validator) MaxBytes() int64 { return v.maxBytes }

// Validate rejects a missing file, a disallowed extension, an oversized or empty
// file, and a missing user id.
func (v *Validator) Validate(name string, size int64, userID string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.ValidationField(FieldFile, "Please choose a file to upload.")
	}
	ext := Extension(name)
	if !slices.Contains(v.extensions, ext) {
		return apperrors.ValidationField(FieldFile,
			fmt.Sprintf("%q is not a supported file type. Allowed: %s.", filepath.Base(name), strings.Join(v.extensions, ", ")))
	}
	if size <= 0 {
		return apperrors.ValidationField(FieldFile, "The selected file is empty.")
	}
	if size > v.maxBytes {
		return apperrors.ValidationField(FieldFile,
			fmt.Sprintf("The file is too large (%s). The limit is %s.", humanBytes(size), humanBytes(v.maxBytes)))
	}
	if strings.TrimSpace(userID) == "" {
		return apperrors.ValidationField(FieldUserID, "A user id is required to upload.")
	}
	return nil
}

// Extension returns the lowercase extension of name, including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
