//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// PeriodStatus is the lifecycle state of an accounting period.
type PeriodStatus string

const (
	PeriodStatusOpen    PeriodStatus = "open"
	PeriodStatusClosed  PeriodStatus = "closed"
	PeriodStatusOverdue PeriodStatus = "overdue"
)

// Period is an accounting period under reconciliation control.
type Period struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Start   time.Time    `json:"startDate"`
	End     time.Time    `json:"endDate"`
	Status  PeriodStatus `json:"status"`
	Overdue bool         `json:"overdue"`
}

// PeriodDateLayout is the form and API date format for periods.
const PeriodDateLayout = "2006-01-02"

// PeriodRequest is the payload for editing a period or starting a new one.
type PeriodRequest struct {
	Name  string `json:"name"`
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

// Validate checks the name and that both dates parse with End after Start.
func (r *PeriodRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required and cannot be empty")
	}
	start, err := time.Parse(PeriodDateLayout, strings.TrimSpace(r.Start))
	if err != nil {
		return errors.New("start date must be YYYY-MM-DD")
	}
	end, err := time.Parse(PeriodDateLayout, strings.TrimSpace(r.End))
	if err != nil {
		return errors.New("end date must be YYYY-MM-DD")
	}
	if !end.After(start) {
		return errors.New("end date must be after start date")
	}
	r.Start, r.End = start.Format(PeriodDateLayout), end.Format(PeriodDateLayout)
	return nil
}
