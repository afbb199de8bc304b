package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/target/recon-console/internal/errors"
)

// WriteJSON encodes v before writing headers so an encoding failure still
// produces a clean 500.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError answers non-page requests (JSON clients, /auth/status polling)
// with {"error", "message"} and, for validation failures, "field". An
// AppError contributes its user-facing message; other errors their text.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := http.StatusText(p.Code)
	if p.Err != nil {
		msg = p.Err.Error()
		if apperrors.GetCode(p.Err) != "" {
			msg = apperrors.UserMessage(p.Err)
		}
	}
	body := map[string]string{"error": p.ErrCode, "message": msg}
	if field := apperrors.GetField(p.Err); field != "" {
		body["field"] = field
	}
	WriteJSON(w, p.Code, body)
}
