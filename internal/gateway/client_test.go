package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/recon-console/config"
)

func newTestClient(t *testing.T, baseURL string, mutate ...func(*config.GatewayConfig)) *Client {
	t.Helper()
	cfg := config.GatewayConfig{
		ReconAPIURL:   baseURL,
		UsersAPIURL:   baseURL + "/",
		APIPathPrefix: "api/v1/",
		Timeout:       2 * time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewClient(Options{Config: cfg})
	require.NoError(t, err)
	return c
}

func TestClient_URL(t *testing.T) {
	c := newTestClient(t, "https://recon.example.com")

	got, err := c.URL(APIRecon, "reconciliations", url.Values{"page": {"2"}, "size": {"10"}})
	require.NoError(t, err)
	assert.Equal(t, "https://recon.example.com/api/v1/reconciliations?page=2&size=10", got)

	got, err = c.URL(APIUsers, "/users/42", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://recon.example.com/api/v1/users/42", got)

	_, err = c.URL(APILedger, "ledger-imports", nil)
	require.ErrorIs(t, err, ErrUnknownAPI)
}

func TestClient_Do_SetsHeadersAndEncodesBody(t *testing.T) {
	var (
		gotHeader http.Header
		gotBody   map[string]any
		gotPath   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"g1"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := WithRequestID(context.Background(), "req-123")

	resp, err := c.Do(ctx, Request{
		API:      APIUsers,
		Endpoint: "groups",
		Method:   http.MethodPost,
		Body:     map[string]string{"name": "Treasury"},
		UserID:   "u-7",
		Token:    "tok",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/groups", gotPath)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "Bearer tok", gotHeader.Get("Authorization"))
	assert.Equal(t, "u-7", gotHeader.Get("user-id"))
	assert.Equal(t, "req-123", gotHeader.Get("X-Request-ID"))
	assert.Equal(t, map[string]any{"name": "Treasury"}, gotBody)

	var out struct{ ID string }
	require.NoError(t, resp.DecodeJSON(&out))
	assert.Equal(t, "g1", out.ID)
}

func TestClient_Do_StringBodySentVerbatim(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Do(context.Background(), Request{API: APIRecon, Endpoint: "x", Method: "put", Body: `"raw"`})
	require.NoError(t, err)
	assert.Equal(t, `"raw"`, got)
}

func TestClient_Do_OmitsUserIDWhenEmpty(t *testing.T) {
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Do(context.Background(), Request{API: APIRecon, Endpoint: "periods"})
	require.NoError(t, err)
	assert.Empty(t, header.Get("user-id"))
	assert.Empty(t, header.Get("Authorization"))
}

func TestClient_Do_StatusErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Period already started"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Do(context.Background(), Request{API: APIRecon, Endpoint: "periods/start", Method: http.MethodPost})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Status)
	assert.Equal(t, "Period already started", se.Message)
	assert.Equal(t, http.MethodPost, se.Method)
	assert.Contains(t, se.URL, "/api/v1/periods/start")
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))
}

func TestClient_Do_StatusErrorPlainTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Do(context.Background(), Request{API: APIRecon, Endpoint: "reconciliations"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upstream exploded", se.Body)
	assert.Equal(t, "upstream exploded", se.Message)
}

func TestClient_Do_StatusErrorMarkupBody(t *testing.T) {
	tests := map[string]struct {
		contentType string
		body        string
	}{
		"proxy html page": {"text/html; charset=utf-8", "<html><body><h1>502 Bad Gateway</h1><hr>nginx</body></html>"},
		"unlabelled html": {"", "<html><body>Service Unavailable</body></html>"},
		"non-text type":   {"application/octet-stream", "upstream exploded"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tc.contentType != "" {
					w.Header().Set("Content-Type", tc.contentType)
				} else {
					w.Header()["Content-Type"] = nil
				}
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			_, err := c.Do(context.Background(), Request{API: APIRecon, Endpoint: "reconciliations"})

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.body, se.Body)
			assert.Empty(t, se.Message)
		})
	}
}

func TestClient_Do_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := newTestClient(t, base)
	_, err := c.Do(context.Background(), Request{API: APIRecon, Endpoint: "reconciliations", Method: http.MethodGet})

	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.MethodGet, re.Method)
	assert.Equal(t, base+"/api/v1/reconciliations", re.URL)
}

func TestClient_Do_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv.URL, func(g *config.GatewayConfig) { g.Timeout = 50 * time.Millisecond })
	_, err := c.Do(context.Background(), Request{API: APIRecon, Endpoint: "slow"})

	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_Do_BlobKeepsBytesAndFileName(t *testing.T) {
	payload := []byte{0x50, 0x4b, 0x03, 0x04}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="recons.xlsx"`)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.Do(context.Background(), Request{
		API:          APIRecon,
		Endpoint:     "reconciliations/export",
		ResponseType: ResponseBlob,
	})
	require.NoError(t, err)
	assert.Equal(t, payload, resp.Body)
	assert.Equal(t, "recons.xlsx", resp.FileName)
	assert.Equal(t, "application/octet-stream", resp.ContentType)
}

func TestClient_Do_ReportsUploadProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	var (
		mu   sync.Mutex
		seen []int
	)
	c := newTestClient(t, srv.URL)
	_, err := c.Do(context.Background(), Request{
		API:         APIRecon,
		Endpoint:    "bulk-upload",
		Method:      http.MethodPost,
		Body:        strings.Repeat("x", 64<<10),
		ContentType: "multipart/form-data; boundary=abc",
		Progress: func(p int) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}
