//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"
)

// ReconciliationStatus is the workflow state of a reconciliation.
type ReconciliationStatus string

const (
	ReconciliationStatusOpen      ReconciliationStatus = "open"
	ReconciliationStatusPrepared  ReconciliationStatus = "prepared"
	ReconciliationStatusReviewed  ReconciliationStatus = "reviewed"
	ReconciliationStatusApproved  ReconciliationStatus = "approved"
	ReconciliationStatusRejected  ReconciliationStatus = "rejected"
	ReconciliationStatusException ReconciliationStatus = "exception"
)

// Valid reports whether the status is one the dashboard knows how to render.
func (s ReconciliationStatus) Valid() bool {
	switch s {
	case ReconciliationStatusOpen, ReconciliationStatusPrepared, ReconciliationStatusReviewed,
		ReconciliationStatusApproved, ReconciliationStatusRejected, ReconciliationStatusException:
		return true
	default:
		return false
	}
}

// ParseReconciliationStatus normalizes a status string and reports whether it is supported.
func ParseReconciliationStatus(value string) (ReconciliationStatus, bool) {
	s := ReconciliationStatus(strings.ToLower(strings.TrimSpace(value)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// Reconciliation is one account reconciliation row as returned by the recon API.
type Reconciliation struct {
	ID        string               `json:"id"`
	Account   string               `json:"accountNumber"`
	Entity    string               `json:"entity"`
	Period    string               `json:"period"`
	Status    ReconciliationStatus `json:"status"`
	Preparer  string               `json:"preparer"`
	Reviewer  string               `json:"reviewer"`
	Balance   float64              `json:"balance"`
	DueDate   *time.Time           `json:"dueDate,omitempty"`
	UpdatedAt *time.Time           `json:"updatedAt,omitempty"`
}

// Overdue reports whether the reconciliation is past its due date and not yet approved.
func (r Reconciliation) Overdue(now time.Time) bool {
	if r.DueDate == nil || r.Status == ReconciliationStatusApproved {
		return false
	}
	return now.After(*r.DueDate)
}

// ReconciliationListOptions are the server-side paging and search parameters.
type ReconciliationListOptions struct {
	Page   int
	Size   int
	Search string
	UserID string
}
