package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/http/validation"
	"github.com/target/recon-console/internal/service"
)

const periodsPath = "/admin/periods"

func (h *UIHandlers) periodScreen() listScreen[model.Period] {
	s := listScreen[model.Period]{
		Screen:   screenPeriods,
		BasePath: periodsPath,
		Meta: PageMeta{
			Title:       titled("Period control"),
			PageTitle:   "Period control",
			CurrentPage: PagePeriods,
		},
		ItemsKey: "Periods",
	}
	if h.PeriodsSvc != nil {
		s.Pipeline = h.PeriodsSvc.Pipeline
	}
	return s
}

// Periods lists accounting periods.
func (h *UIHandlers) Periods(w http.ResponseWriter, r *http.Request) {
	handleList(h, w, r, h.periodScreen())
}

// PeriodsRefresh refetches the period list.
func (h *UIHandlers) PeriodsRefresh(w http.ResponseWriter, r *http.Request) {
	handleRefresh(h, w, r, h.periodScreen())
}

const maxPeriodNameLen = 80

// periodFormData keeps the raw date strings so a bad date is echoed back.
type periodFormData struct {
	ID    string
	Name  string
	Start string
	End   string
}

func (d periodFormData) request() model.PeriodRequest {
	return model.PeriodRequest{Name: d.Name, Start: d.Start, End: d.End}
}

func periodFormMeta(mode FormMode) PageMeta {
	title := "Start period"
	if mode == FormModeEdit {
		title = "Edit period"
	}
	return PageMeta{Title: titled(title), PageTitle: title, CurrentPage: PagePeriodForm}
}

func parsePeriodForm(r *http.Request) (periodFormData, map[string]string) {
	if err := r.ParseForm(); err != nil {
		return periodFormData{}, map[string]string{"_form": "The form could not be read."}
	}
	d := periodFormData{
		ID:    r.PathValue("id"),
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Start: strings.TrimSpace(r.PostFormValue("start")),
		End:   strings.TrimSpace(r.PostFormValue("end")),
	}
	errs := validation.New().
		Validate("name", d.Name, validation.Required("Name", maxPeriodNameLen)).
		Validate("start", d.Start, validation.Required("Start date", len(model.PeriodDateLayout)),
			validation.Date("Start date", model.PeriodDateLayout)).
		Validate("end", d.End, validation.Required("End date", len(model.PeriodDateLayout)),
			validation.Date("End date", model.PeriodDateLayout),
			validation.After("End date", "Start date", model.PeriodDateLayout, d.Start)).
		Errors()
	return d, errs
}

// PeriodNew renders the start-period form.
func (h *UIHandlers) PeriodNew(w http.ResponseWriter, r *http.Request) {
	h.renderDashboardPage(w, r, NewTemplateData(r, periodFormMeta(FormModeCreate)).
		With("Mode", FormModeCreate).
		With("FormData", periodFormData{}).
		Build())
}

// PeriodEdit renders the form for an existing period.
func (h *UIHandlers) PeriodEdit(w http.ResponseWriter, r *http.Request) {
	if h.PeriodsSvc == nil {
		h.NotFound(w, r)
		return
	}
	periods, err := h.PeriodsSvc.List(r.Context(), callerFromRequest(r))
	if err != nil {
		h.logger().ErrorContext(r.Context(), "period lookup failed", "error", err)
		h.failAction(w, r, periodsPath, err)
		return
	}
	id := r.PathValue("id")
	for _, p := range periods {
		if p.ID != id {
			continue
		}
		h.renderDashboardPage(w, r, NewTemplateData(r, periodFormMeta(FormModeEdit)).
			With("Mode", FormModeEdit).
			With("FormData", periodFormData{
				ID:    p.ID,
				Name:  p.Name,
				Start: p.Start.Format(model.PeriodDateLayout),
				End:   p.End.Format(model.PeriodDateLayout),
			}).
			Build())
		return
	}
	h.NotFound(w, r)
}

// PeriodStart opens a new period.
func (h *UIHandlers) PeriodStart(w http.ResponseWriter, r *http.Request) {
	h.savePeriod(w, r, FormModeCreate)
}

// PeriodUpdate changes a period's name and dates.
func (h *UIHandlers) PeriodUpdate(w http.ResponseWriter, r *http.Request) {
	h.savePeriod(w, r, FormModeEdit)
}

func (h *UIHandlers) savePeriod(w http.ResponseWriter, r *http.Request, mode FormMode) {
	if h.PeriodsSvc == nil {
		h.NotFound(w, r)
		return
	}
	notice := "Period started."
	if mode == FormModeEdit {
		notice = "Period updated."
	}
	handleForm(h, FormHandlerOpts[periodFormData]{
		W:      w,
		R:      r,
		Mode:   mode,
		Parser: parsePeriodForm,
		Save: func(ctx context.Context, caller service.Caller, id string, d periodFormData) error {
			if mode == FormModeEdit {
				_, err := h.PeriodsSvc.Edit(ctx, caller, id, d.request())
				return err
			}
			_, err := h.PeriodsSvc.Start(ctx, caller, d.request())
			return err
		},
		Renderer:      h.renderDashboardPage,
		SuccessURL:    periodsPath,
		SuccessNotice: notice,
		PageMeta:      periodFormMeta(mode),
	})
}

// PeriodOverdue flags a period as overdue.
func (h *UIHandlers) PeriodOverdue(w http.ResponseWriter, r *http.Request) {
	if h.PeriodsSvc == nil {
		h.NotFound(w, r)
		return
	}
	id := r.PathValue("id")
	if err := h.PeriodsSvc.MarkOverdue(r.Context(), callerFromRequest(r), id); err != nil {
		h.logger().ErrorContext(r.Context(), "mark overdue failed", "period_id", id, "error", err)
		h.failAction(w, r, periodsPath, err)
		return
	}
	h.notify(r, model.NoticeWarning, "Period marked overdue.")
	redirectBrowser(w, r, periodsPath)
}
