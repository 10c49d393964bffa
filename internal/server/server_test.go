package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"sales-forecast-client/internal/bootstrap"
	"sales-forecast-client/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type snapshotBody struct {
	Status *struct {
		DataLoaded   bool `json:"data_loaded"`
		ModelTrained bool `json:"model_trained"`
	} `json:"status"`
	Stats *struct {
		Source       string `json:"source"`
		Origin       string `json:"origin"`
		TotalRecords *int   `json:"total_records"`
	} `json:"stats"`
	ActiveStep string `json:"active_step"`
	Tab        string `json:"tab"`
}

// fakeBackend serves the pipeline endpoints. Statistics are always broken
// so that fallbacks are visible.
type fakeBackend struct {
	loaded       atomic.Bool
	unauthorized atomic.Bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{
			"access_token": "opaque-token",
			"token_type":   "bearer",
			"user":         map[string]interface{}{"id": 1, "email": "owner@example.com", "username": "owner"},
		})
	})
	mux.HandleFunc("/api/model-status", func(w http.ResponseWriter, r *http.Request) {
		if b.unauthorized.Load() {
			writeJSON(w, 401, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		writeJSON(w, 200, map[string]interface{}{"data_loaded": b.loaded.Load(), "model_trained": false})
	})
	mux.HandleFunc("/api/data-stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, map[string]string{"detail": "stats unavailable"})
	})
	mux.HandleFunc("/api/upload-data", func(w http.ResponseWriter, r *http.Request) {
		b.loaded.Store(true)
		writeJSON(w, 200, map[string]interface{}{
			"message":       "uploaded",
			"records_count": 42,
			"date_range":    map[string]string{"start": "2024-01-01", "end": "2024-01-31"},
		})
	})
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"message": "ok"})
	})
	return mux
}

func newTestServer(t *testing.T) (*Server, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		App: config.AppConfig{
			Environment:        "test",
			LogFilePath:        filepath.Join(t.TempDir(), "bridge.log"),
			CorsAllowedOrigins: "http://localhost:3000",
		},
		Backend:    config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
		Credential: config.CredentialConfig{Store: "memory", Profile: "test"},
		Workflow: config.WorkflowConfig{
			ResetReassertDelay:    10 * time.Millisecond,
			PredictionHorizonDays: 7,
			HistoryLimit:          10,
		},
	}
	container := bootstrap.NewContainer(cfg, bootstrap.Options{FileOnlyLogs: true})
	t.Cleanup(container.Close)

	return New(cfg, container), backend
}

func call(t *testing.T, s *Server, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeSnapshot(t *testing.T, raw json.RawMessage) snapshotBody {
	t.Helper()
	var snap snapshotBody
	require.NoError(t, json.Unmarshal(raw, &snap))
	return snap
}

func TestBridgeWorkflow(t *testing.T) {
	s, backend := newTestServer(t)

	status, env := call(t, s, jsonRequest(http.MethodGet, "/api/workflow", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dashboard", decodeSnapshot(t, env.Data).ActiveStep)

	status, env = call(t, s, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "owner@example.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusOK, status, env.Message)
	snap := decodeSnapshot(t, mustGet(t, s, "/api/workflow"))
	require.NotNil(t, snap.Status)
	assert.False(t, snap.Status.DataLoaded)
	assert.Equal(t, "upload", snap.ActiveStep)

	// Locked tab.
	status, env = call(t, s, jsonRequest(http.MethodPut, "/api/workflow/tab", map[string]string{"tab": "predict"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	// Local prediction checks never reach the backend.
	status, env = call(t, s, jsonRequest(http.MethodPost, "/api/workflow/predict", map[string]string{
		"date": time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "postal_code": "100-0001",
	}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "postal_code")

	// Upload with statistics failing falls back to the upload response.
	status, env = call(t, s, uploadRequest(t, "sales.csv", "date,sales\n2024-01-01,50000\n"))
	require.Equal(t, http.StatusOK, status, env.Message)
	snap = decodeSnapshot(t, mustGet(t, s, "/api/workflow"))
	assert.Equal(t, "train", snap.ActiveStep)
	assert.Equal(t, "statistics", snap.Tab)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, "fallback", snap.Stats.Source)
	assert.Equal(t, "upload-response", snap.Stats.Origin)
	require.NotNil(t, snap.Stats.TotalRecords)
	assert.Equal(t, 42, *snap.Stats.TotalRecords)

	status, _ = call(t, s, uploadRequest(t, "sales.xlsx", "x"))
	assert.Equal(t, http.StatusBadRequest, status)

	// A 401 anywhere ends the session.
	backend.unauthorized.Store(true)
	status, _ = call(t, s, jsonRequest(http.MethodPost, "/api/workflow/refresh", nil))
	assert.Equal(t, http.StatusOK, status)
	snap = decodeSnapshot(t, mustGet(t, s, "/api/workflow"))
	assert.Nil(t, snap.Status)
	assert.Equal(t, "dashboard", snap.ActiveStep)
}

func TestBridgeHealthReportsBackend(t *testing.T) {
	s, _ := newTestServer(t)

	status, env := call(t, s, jsonRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, status)

	var health struct {
		Bridge  string `json:"bridge"`
		Backend string `json:"backend"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "ok", health.Bridge)
	assert.Equal(t, "ok", health.Backend)
}

func TestBridgeKeepsUpstreamClientErrorStatus(t *testing.T) {
	s, _ := newTestServer(t)

	// The fake backend has no delete route: net/http answers 404.
	status, env := call(t, s, jsonRequest(http.MethodDelete, "/api/workflow/data", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func mustGet(t *testing.T, s *Server, path string) json.RawMessage {
	t.Helper()
	status, env := call(t, s, jsonRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, status)
	return env.Data
}

func uploadRequest(t *testing.T, name, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workflow/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
