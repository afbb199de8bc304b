// Package validation holds the field checks shared by the admin forms.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Validator checks one value and returns a user-facing message, or "" when valid.
type Validator func(v string) string

// Required rejects blank values and values longer than maxLen runes.
func Required(fieldName string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// Optional only limits length; blank is fine.
func Optional(fieldName string, maxLen int) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(strings.TrimSpace(v)) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// Email accepts a single bare address. Blank values pass so it composes
// with Required.
func Email(fieldName string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v {
			return "Enter a valid " + strings.ToLower(fieldName) + " address."
		}
		return ""
	}
}

// Date requires the value to parse with layout. Blank values pass.
func Date(fieldName, layout string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		if _, err := time.Parse(layout, v); err != nil {
			return fieldName + " must be a date (" + layoutHint(layout) + ")."
		}
		return ""
	}
}

// After requires a date strictly later than start. Unparseable inputs are
// left for Date to report.
func After(fieldName, otherName, layout, start string) Validator {
	return func(v string) string {
		s, err1 := time.Parse(layout, strings.TrimSpace(start))
		e, err2 := time.Parse(layout, strings.TrimSpace(v))
		if err1 != nil || err2 != nil {
			return ""
		}
		if !e.After(s) {
			return fmt.Sprintf("%s must be after the %s.", fieldName, strings.ToLower(otherName))
		}
		return ""
	}
}

func layoutHint(layout string) string {
	if layout == time.DateOnly {
		return "YYYY-MM-DD"
	}
	return layout
}

// FieldValidator collects the first failure per field.
type FieldValidator struct {
	errors map[string]string
}

// New returns an empty FieldValidator.
func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate runs validators in order and keeps the first message.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	if _, failed := fv.errors[field]; failed {
		return fv
	}
	for _, v := range validators {
		if msg := v(value); msg != "" {
			fv.errors[field] = msg
			break
		}
	}
	return fv
}

// Require records msg for field when ok is false.
func (fv *FieldValidator) Require(field string, ok bool, msg string) *FieldValidator {
	if _, failed := fv.errors[field]; !failed && !ok {
		fv.errors[field] = msg
	}
	return fv
}

// Errors returns the accumulated messages, or nil when everything passed.
func (fv *FieldValidator) Errors() map[string]string {
	if len(fv.errors) == 0 {
		return nil
	}
	return fv.errors
}
