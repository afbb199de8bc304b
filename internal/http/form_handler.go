package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/service"
)

// FormParser parses form data from an HTTP request and returns the parsed data
// along with any field-level validation errors.
type FormParser[T any] func(r *http.Request) (T, map[string]string)

// FormSaver performs the create or update call. id is empty in create mode.
type FormSaver[T any] func(ctx context.Context, caller service.Caller, id string, req T) error

// FormRenderer is a function that renders the form template with the given data.
type FormRenderer func(w http.ResponseWriter, r *http.Request, data map[string]any)

// FormHandlerOpts contains all options needed to handle a form submission.
type FormHandlerOpts[T any] struct {
	W        http.ResponseWriter
	R        *http.Request
	Mode     FormMode
	Parser   FormParser[T]
	Save     FormSaver[T]
	Renderer FormRenderer
	// SuccessURL is where the browser goes after a successful save.
	SuccessURL string
	// SuccessNotice is shown as a toast on the next page. Optional.
	SuccessNotice string
	PageMeta      PageMeta
	// Optional: additional data to pass to template on error
	ExtraData map[string]any
	// Optional: function to extract ID from request (defaults to r.PathValue("id"))
	GetID func(r *http.Request) string
	// Optional: HTTP status code to set on validation errors (defaults to 200 for HTMX compatibility)
	ErrorStatus int
}

// handleForm processes a create or edit submission: parse, save, then either
// redirect with a success notice or re-render the form with its errors.
func handleForm[T any](h *UIHandlers, opts FormHandlerOpts[T]) {
	if !validateFormOptions(opts) {
		return
	}

	id, ok := checkFormID(opts)
	if !ok {
		return
	}

	data, errs := opts.Parser(opts.R)
	if len(errs) > 0 {
		opts.renderFormError(errs, "", data)
		return
	}

	if err := opts.Save(opts.R.Context(), callerFromRequest(opts.R), id, data); err != nil {
		handleFormServiceError(h, opts, err, data)
		return
	}

	if opts.SuccessNotice != "" {
		h.notify(opts.R, model.NoticeSuccess, opts.SuccessNotice)
	}
	redirectBrowser(opts.W, opts.R, opts.SuccessURL)
}

func validateFormOptions[T any](opts FormHandlerOpts[T]) bool {
	if opts.Parser == nil || opts.Save == nil || opts.Renderer == nil {
		http.Error(opts.W, "misconfigured form handler", http.StatusInternalServerError)
		return false
	}

	switch opts.Mode {
	case FormModeEdit, FormModeCreate:
		return true
	default:
		http.Error(opts.W, "invalid form mode", http.StatusBadRequest)
		return false
	}
}

// checkFormID returns the ID for edit mode. Create mode yields "" and true.
func checkFormID[T any](opts FormHandlerOpts[T]) (string, bool) {
	if opts.Mode != FormModeEdit {
		return "", true
	}

	id := getFormID(opts)
	if id == "" {
		http.NotFound(opts.W, opts.R)
		return "", false
	}
	return id, true
}

func getFormID[T any](opts FormHandlerOpts[T]) string {
	if opts.GetID != nil {
		return opts.GetID(opts.R)
	}
	return opts.R.PathValue("id")
}

func handleFormServiceError[T any](h *UIHandlers, opts FormHandlerOpts[T], err error, data T) {
	if errors.Is(err, context.Canceled) {
		http.Error(opts.W, "request canceled", http.StatusRequestTimeout)
		return
	}

	if errs, ok := fieldErrors(err); ok {
		opts.renderFormError(errs, "", data)
		return
	}

	h.logger().ErrorContext(opts.R.Context(), "form save failed",
		"mode", opts.Mode,
		"path", opts.R.URL.Path,
		"error", err,
	)
	opts.renderFormError(nil, apperrors.UserMessage(err), data)
}

// renderFormError renders the form with errors and preserves form data.
func (fh FormHandlerOpts[T]) renderFormError(errs map[string]string, generalError string, data T) {
	if fh.ErrorStatus != 0 && len(errs) > 0 {
		fh.W.WriteHeader(fh.ErrorStatus)
	}

	b := NewTemplateData(fh.R, fh.PageMeta).WithFieldErrors(errs)
	switch {
	case generalError != "":
		b.WithError(generalError)
	case len(errs) > 0:
		b.WithError(errMsgFixBelow)
	}
	b.With("Mode", fh.Mode)
	for k, v := range fh.ExtraData {
		b.With(k, v)
	}
	// FormData last so extras cannot shadow the submitted values.
	b.With("FormData", data)

	fh.Renderer(fh.W, fh.R, b.Build())
}
