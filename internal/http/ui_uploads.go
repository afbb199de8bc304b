package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/service"
	"github.com/target/recon-console/internal/upload"
)

// multipartSlack covers the multipart framing around the file part.
const multipartSlack = 64 << 10

const uploadsPath = "/preparer/uploads"

func (h *UIHandlers) uploadScreen() listScreen[model.UploadStatus] {
	s := listScreen[model.UploadStatus]{
		Screen:   screenUploads,
		BasePath: uploadsPath,
		Meta: PageMeta{
			Title:       titled("Bulk upload"),
			PageTitle:   "Bulk upload",
			CurrentPage: PageUploads,
		},
		ItemsKey: "Uploads",
		Enrich: func(_ *http.Request, b *TemplateDataBuilder, _ listview.View[model.UploadStatus]) {
			h.withUploadLimits(b)
		},
	}
	if h.UploadsSvc != nil {
		s.Pipeline = h.UploadsSvc.Pipeline
	}
	return s
}

func (h *UIHandlers) withUploadLimits(b *TemplateDataBuilder) {
	if h.UploadsSvc == nil || h.UploadsSvc.Validator() == nil {
		return
	}
	v := h.UploadsSvc.Validator()
	b.With("Accept", strings.Join(v.Extensions(), ",")).
		With("MaxBytes", v.MaxBytes())
}

// Uploads renders the upload form above the bulk-upload status listing.
func (h *UIHandlers) Uploads(w http.ResponseWriter, r *http.Request) {
	handleList(h, w, r, h.uploadScreen())
}

// UploadsRefresh reloads the status listing from page 1.
func (h *UIHandlers) UploadsRefresh(w http.ResponseWriter, r *http.Request) {
	handleRefresh(h, w, r, h.uploadScreen())
}

// UploadPreview parses the chosen file locally and renders its header and row count.
func (h *UIHandlers) UploadPreview(w http.ResponseWriter, r *http.Request) {
	if h.UploadsSvc == nil {
		h.NotFound(w, r)
		return
	}
	name, data, err := h.readUploadFile(w, r)
	if err == nil {
		var preview model.UploadPreview
		preview, err = h.UploadsSvc.Preview(callerFromRequest(r), name, data)
		if err == nil {
			h.renderUploadFragment(w, r, http.StatusOK, "upload-preview", map[string]any{"Preview": preview})
			return
		}
	}
	h.renderUploadError(w, r, err)
}

// UploadSubmit validates the file and starts the background submission. The
// response is the progress fragment, which polls until the upload settles.
func (h *UIHandlers) UploadSubmit(w http.ResponseWriter, r *http.Request) {
	if h.UploadsSvc == nil {
		h.NotFound(w, r)
		return
	}
	name, data, err := h.readUploadFile(w, r)
	if err != nil {
		h.renderUploadError(w, r, err)
		return
	}

	p, err := h.UploadsSvc.Submit(r.Context(), callerFromRequest(r), service.SubmitInput{
		SessionID: sessionIDFromRequest(r),
		FileName:  name,
		Data:      data,
	})
	if err != nil {
		h.renderUploadError(w, r, err)
		return
	}
	h.logger().InfoContext(r.Context(), "upload submitted", "upload_id", p.ID, "file", p.FileName)

	if !IsHTMX(r) {
		h.notify(r, model.NoticeInfo, fmt.Sprintf("Uploading %s.", p.FileName))
		http.Redirect(w, r, uploadsPath, http.StatusSeeOther)
		return
	}
	h.renderUploadFragment(w, r, http.StatusAccepted, "upload-progress", progressData(p))
}

// UploadProgress renders the progress fragment for one of the caller's uploads.
// Once the upload is terminal the fragment stops polling and the listing is
// asked to reload.
func (h *UIHandlers) UploadProgress(w http.ResponseWriter, r *http.Request) {
	if h.UploadsSvc == nil {
		h.NotFound(w, r)
		return
	}
	session := GetSessionFromContext(r.Context())
	if session == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	p, err := h.UploadsSvc.Progress(r.Context(), r.PathValue("id"), session.UserID)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeNotFound {
			http.Error(w, "upload not found", http.StatusNotFound)
			return
		}
		h.logger().ErrorContext(r.Context(), "upload progress lookup failed", "error", err)
		http.Error(w, apperrors.UserMessage(err), http.StatusBadGateway)
		return
	}

	if p.State.Terminal() {
		SetHXTrigger(w, "uploads:refresh", map[string]string{"id": p.ID, "state": string(p.State)})
		triggerToast(w, h.takeNotice(r))
	}
	h.renderUploadFragment(w, r, http.StatusOK, "upload-progress", progressData(p))
}

func progressData(p model.UploadProgress) map[string]any {
	return map[string]any{
		"Progress":    p,
		"PollURL":     uploadsPath + "/" + p.ID + "/progress",
		"Terminal":    p.State.Terminal(),
		"Failed":      p.State == model.UploadStateFailed,
		"PercentText": fmt.Sprintf("%d%%", p.Percent),
	}
}

// readUploadFile reads the "file" part, bounded by the configured size limit.
func (h *UIHandlers) readUploadFile(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := h.UploadsSvc.Validator().MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartSlack)

	if err := r.ParseMultipartForm(limit + multipartSlack); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, apperrors.ValidationField(upload.FieldFile, "The file exceeds the upload size limit.")
		}
		return "", nil, apperrors.ValidationField(upload.FieldFile, "Choose a file to upload.")
	}

	f, header, err := r.FormFile(upload.FieldFile)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil, apperrors.ValidationField(upload.FieldFile, "Choose a file to upload.")
	}
	if err != nil {
		return "", nil, apperrors.ValidationField(upload.FieldFile, "The file could not be read.")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return "", nil, apperrors.ValidationField(upload.FieldFile, "The file could not be read.")
	}
	return header.Filename, data, nil
}

// renderUploadError shows validation failures inline next to the form and
// anything else as a blocking alert.
func (h *UIHandlers) renderUploadError(w http.ResponseWriter, r *http.Request, err error) {
	errs, ok := fieldErrors(err)
	if !ok {
		h.logger().ErrorContext(r.Context(), "upload failed", "error", err)
		msg := apperrors.UserMessage(err)
		if IsHTMX(r) {
			triggerAlert(w, msg)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.notify(r, model.NoticeError, msg)
		http.Redirect(w, r, uploadsPath, http.StatusSeeOther)
		return
	}

	if !IsHTMX(r) {
		b := NewTemplateData(r, h.uploadScreen().Meta).
			WithError(errMsgFixBelow).
			WithFieldErrors(errs)
		h.withUploadLimits(b)
		h.renderDashboardPage(w, r, b.Build())
		return
	}
	h.renderUploadFragment(w, r, http.StatusUnprocessableEntity, "upload-errors", map[string]any{"Errors": errs})
}

func (h *UIHandlers) renderUploadFragment(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	name string,
	data map[string]any,
) {
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := h.T.RenderNamed(w, name, data); err != nil {
		h.logAndRenderTemplateError(w, r, err, name)
	}
}
