package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/recon-console/internal/errors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_state", Err: errors.New("invalid state")})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, map[string]string{"error": "invalid_state", "message": "invalid state"}, decodeBody(t, w))
	})

	t.Run("validation error keeps its field", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := apperrors.ValidationField("email", "Email is not valid.")
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		body := decodeBody(t, w)
		assert.Equal(t, "Email is not valid.", body["message"])
		assert.Equal(t, "email", body["field"])
	})

	t.Run("nil error falls back to status text", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "forbidden"})
		assert.Equal(t, "Forbidden", decodeBody(t, w)["message"])
	})
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]any{"bad": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEqual(t, "application/json", w.Header().Get("Content-Type"))
}
