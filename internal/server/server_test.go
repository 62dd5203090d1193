package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	mid "github.com/zabal/bonfires/internal/server/middleware"
	"github.com/zabal/bonfires/pkg/api"
	"github.com/zabal/bonfires/pkg/bonfires"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type testBackend struct {
	bonfireCalls atomic.Int32
}

func newTestServer(t *testing.T, masterKey string) (*echo.Echo, *testBackend) {
	t.Helper()
	tb := &testBackend{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /bonfires", func(w http.ResponseWriter, r *http.Request) {
		tb.bonfireCalls.Add(1)
		w.Write([]byte(`[{"id":"bf1","name":"Boulder"}]`))
	})
	mux.HandleFunc("GET /bonfires/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"BONFIRE_NOT_FOUND","message":"no such bonfire","details":{"id":"` + r.PathValue("id") + `"}}`))
	})
	mux.HandleFunc("GET /bonfires/{id}/graph", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entities":[{"uuid":"n:a","name":"Alice"}],"edges":[]}`))
	})
	mux.HandleFunc("POST /agents/{id}/chat", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reply":"hi there"}`))
	})
	mux.HandleFunc("POST /bonfires/{id}/hyperblogs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"job_id":"job-9"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	client := api.NewClient(api.NewClientParams{BaseURL: srv.URL, Registerer: reg})
	app := &mid.App{Bonfires: bonfires.NewClient(client), MasterAPIKey: masterKey}

	return New(app, reg), tb
}

func do(e *echo.Echo, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, "")

	rec := do(e, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestProxyCachesBonfires(t *testing.T) {
	e, tb := newTestServer(t, "")

	for range 2 {
		rec := do(e, http.MethodGet, "/api/bonfires", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var out []bonfires.Bonfire
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || len(out) != 1 {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	}
	if got := tb.bonfireCalls.Load(); got != 1 {
		t.Fatalf("expected 1 backend call, got %d", got)
	}

	rec := do(e, http.MethodGet, "/api/cache/stats", "", nil)
	var stats api.CacheStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("expected stats, got %s", rec.Body.String())
	}
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	rec = do(e, http.MethodDelete, "/api/cache", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	do(e, http.MethodGet, "/api/bonfires", "", nil)
	if got := tb.bonfireCalls.Load(); got != 2 {
		t.Fatalf("expected refetch after clear, got %d calls", got)
	}
}

func TestUpstreamErrorPassthrough(t *testing.T) {
	e, _ := newTestServer(t, "")

	rec := do(e, http.MethodGet, "/api/bonfires/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %s", rec.Body.String())
	}
	if body.Code != "BONFIRE_NOT_FOUND" || body.Details["id"] != "missing" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestGraphIsNormalized(t *testing.T) {
	e, _ := newTestServer(t, "")

	rec := do(e, http.MethodGet, "/api/bonfires/bf1/graph", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"uuid":"a"`) {
		t.Fatalf("expected prefix-free uuid, got %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/bonfires/bf1/graph/expand", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without node_uuid, got %d", rec.Code)
	}
}

func TestMutatingRoutesRequireAuth(t *testing.T) {
	e, _ := newTestServer(t, "master")
	body := `{"message":"hello"}`

	rec := do(e, http.MethodPost, "/api/agents/ag1/chat", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = do(e, http.MethodPost, "/api/agents/ag1/chat", body, map[string]string{"Authorization": "Bearer wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", rec.Code)
	}
	rec = do(e, http.MethodPost, "/api/agents/ag1/chat", body, map[string]string{"Authorization": "Bearer master"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "hi there") {
		t.Fatalf("expected 200 with reply, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/bonfires", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected reads to stay open, got %d", rec.Code)
	}
}

func TestChatValidation(t *testing.T) {
	e, _ := newTestServer(t, "")

	rec := do(e, http.MethodPost, "/api/agents/ag1/chat", `{"message":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = do(e, http.MethodPost, "/api/agents/ag1/chat", `{"message":"hi","graph_mode":"bogus"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown graph mode, got %d", rec.Code)
	}
}

func TestCreateHyperBlogReturnsJob(t *testing.T) {
	e, _ := newTestServer(t, "")

	rec := do(e, http.MethodPost, "/api/bonfires/bf1/hyperblogs", `{"dataroom_id":"dr1","user_query":"history"}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", rec.Code, rec.Body.String())
	}
	var ref bonfires.JobRef
	if err := json.Unmarshal(rec.Body.Bytes(), &ref); err != nil || ref.JobID != "job-9" {
		t.Fatalf("expected job-9, got %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e, _ := newTestServer(t, "")
	do(e, http.MethodGet, "/api/bonfires", "", nil)

	rec := do(e, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bonfires_api_cache_misses_total 1") {
		t.Fatalf("expected cache miss counter, got %s", rec.Body.String())
	}
}
