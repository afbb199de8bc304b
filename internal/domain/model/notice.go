//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// NoticeKind is the severity of a transient user notice.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
	// NoticeAlert is an error the user must acknowledge in a modal.
	NoticeAlert NoticeKind = "alert"
)

// Valid reports whether the kind is supported.
func (k NoticeKind) Valid() bool {
	switch k {
	case NoticeInfo, NoticeSuccess, NoticeWarning, NoticeError, NoticeAlert:
		return true
	default:
		return false
	}
}

// Alert reports whether the kind uses the longer dismiss delay.
func (k NoticeKind) Alert() bool {
	return k == NoticeWarning || k == NoticeError || k == NoticeAlert
}

// Blocking reports whether the notice opens a modal instead of a toast.
func (k NoticeKind) Blocking() bool {
	return k == NoticeAlert
}

// Notice is a transient message shown to one session.
type Notice struct {
	Kind         NoticeKind    `json:"kind"`
	Text         string        `json:"text"`
	DismissAfter time.Duration `json:"dismiss_after"`
}
