// File: backend/internal/api/api_test.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/urlstatus/checkflow/backend/internal/checker"
	"github.com/urlstatus/checkflow/backend/internal/config"
	"github.com/urlstatus/checkflow/backend/internal/memorystore"
)

const testAPIKey = "test-api-key-for-handlers"

func newTestConfig() *config.AppConfig {
	cfg := config.DefaultConfig()
	cfg.Server.APIKey = testAPIKey
	// No DNS lookups and no multi-second poll sleeps in tests.
	cfg.Resolver.Resolvers = nil
	cfg.RemoteCheck.PollInterval = time.Millisecond
	cfg.RemoteCheck.PollAttempts = 3
	return cfg
}

func newTestRouter(cfg *config.AppConfig) *mux.Router {
	return NewRouter(cfg, memorystore.NewInMemoryBatchStore())
}

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPingHandlerUnauthenticated(t *testing.T) {
	router := newTestRouter(newTestConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode ping response: %v", err)
	}
	if resp["message"] != "pong" {
		t.Errorf("expected message 'pong', got %q", resp["message"])
	}
	if resp["service"] != "checkflow" {
		t.Errorf("expected service 'checkflow', got %q", resp["service"])
	}
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	router := newTestRouter(newTestConfig())

	cases := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "test-api-key-for-handlers", http.StatusUnauthorized},
		{"wrong key", "Bearer wrong-key", http.StatusUnauthorized},
		{"correct key", "Bearer " + testAPIKey, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
		})
	}
}

func TestCheckHandlerActiveDirect(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	router := newTestRouter(newTestConfig())

	body, _ := json.Marshal(CheckRequest{URLs: []string{target.URL}})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/v1/check", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp CheckResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].Outcome != checker.OutcomeActiveDirect {
		t.Errorf("expected outcome %q, got %q", checker.OutcomeActiveDirect, resp.Results[0].Outcome)
	}
	if resp.Results[0].StatusLabel != "Active (Direct)" {
		t.Errorf("expected label 'Active (Direct)', got %q", resp.Results[0].StatusLabel)
	}
}

func TestCheckHandlerRemoteFlow(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer target.Close()

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/check-http":
			fmt.Fprint(w, `{"request_id": "ticket-1", "permanent_link": "x"}`)
		case strings.HasPrefix(r.URL.Path, "/check-result/"):
			fmt.Fprint(w, `{"us1.node": [[1, 0.1, "OK", 200, "1.2.3.4"]], "in2.node": [[1, 0.1, "OK", 200, "5.6.7.8"]]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer remote.Close()

	cfg := newTestConfig()
	cfg.RemoteCheck.BaseURL = remote.URL
	router := newTestRouter(cfg)

	body, _ := json.Marshal(CheckRequest{URLs: []string{target.URL}})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/v1/check", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp CheckResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	result := resp.Results[0]
	if result.Outcome != checker.OutcomeActiveOtherRegions {
		t.Fatalf("expected outcome %q, got %q (detail: %s)", checker.OutcomeActiveOtherRegions, result.Outcome, result.Detail)
	}
	if len(result.ActiveRegions) != 1 || result.ActiveRegions[0] != "USA" {
		t.Errorf("expected active regions [USA], got %v", result.ActiveRegions)
	}
}

func TestCheckHandlerRejectsEmptyURLList(t *testing.T) {
	router := newTestRouter(newTestConfig())

	body, _ := json.Marshal(CheckRequest{URLs: []string{"", "   "}})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/v1/check", body))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestCheckHandlerRejectsOversizedURLList(t *testing.T) {
	cfg := newTestConfig()
	cfg.RemoteCheck.MaxURLsPerRequest = 2
	router := newTestRouter(cfg)

	body, _ := json.Marshal(CheckRequest{URLs: []string{"a.test", "b.test", "c.test"}})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/v1/check", body))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestCheckStreamHandlerEmitsResultAndDone(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	router := newTestRouter(newTestConfig())

	rr := httptest.NewRecorder()
	req := authedRequest(http.MethodGet, "/api/v1/check/stream?url="+target.URL, nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	streamBody := rr.Body.String()
	if !strings.Contains(streamBody, "event: check_status") {
		t.Errorf("expected a check_status event in stream:\n%s", streamBody)
	}
	if !strings.Contains(streamBody, "event: check_result") {
		t.Errorf("expected a check_result event in stream:\n%s", streamBody)
	}
	if !strings.Contains(streamBody, "event: done") {
		t.Errorf("expected a done event in stream:\n%s", streamBody)
	}
	if !strings.Contains(streamBody, `"Active (Direct)"`) {
		t.Errorf("expected result payload with label in stream:\n%s", streamBody)
	}
}

func TestBatchLifecycle(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	router := newTestRouter(newTestConfig())

	// Create.
	createBody, _ := json.Marshal(CreateBatchRequest{BatchName: "nightly run"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/v1/batches", createBody))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		BatchID string `json:"batchId"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("create: failed to decode response: %v", err)
	}
	if created.BatchID == "" {
		t.Fatal("create: expected a batch ID")
	}
	if created.Status != "pending" {
		t.Errorf("create: expected status pending, got %q", created.Status)
	}

	// Upload URLs as a raw text body, one per line with a blank line mixed in.
	uploadBody := target.URL + "\n\n" + target.URL + "/second\n"
	uploadReq := httptest.NewRequest(http.MethodPost, "/api/v1/batches/"+created.BatchID+"/urls", strings.NewReader(uploadBody))
	uploadReq.Header.Set("Authorization", "Bearer "+testAPIKey)
	uploadReq.Header.Set("Content-Type", "text/plain")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, uploadReq)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var uploaded struct {
		Uploaded  int `json:"uploaded"`
		TotalURLs int `json:"totalUrls"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("upload: failed to decode response: %v", err)
	}
	if uploaded.Uploaded != 2 || uploaded.TotalURLs != 2 {
		t.Errorf("upload: expected 2 uploaded and 2 total, got %d and %d", uploaded.Uploaded, uploaded.TotalURLs)
	}

	// Run.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/v1/batches/"+created.BatchID+"/run", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("run: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var runResp struct {
		Status    string `json:"status"`
		Processed int    `json:"processed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &runResp); err != nil {
		t.Fatalf("run: failed to decode response: %v", err)
	}
	if runResp.Status != "completed" || runResp.Processed != 2 {
		t.Errorf("run: expected completed/2, got %s/%d", runResp.Status, runResp.Processed)
	}

	// Results come back in upload order with populated outcomes.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/v1/batches/"+created.BatchID+"/results", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("results: expected 200, got %d", rr.Code)
	}
	var resultsResp struct {
		Items []struct {
			URL    string               `json:"url"`
			Status string               `json:"status"`
			Result *checker.CheckResult `json:"result"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resultsResp); err != nil {
		t.Fatalf("results: failed to decode response: %v", err)
	}
	if len(resultsResp.Items) != 2 {
		t.Fatalf("results: expected 2 items, got %d", len(resultsResp.Items))
	}
	if resultsResp.Items[0].URL != target.URL {
		t.Errorf("results: expected first item %q, got %q", target.URL, resultsResp.Items[0].URL)
	}
	for _, item := range resultsResp.Items {
		if item.Result == nil {
			t.Errorf("results: item %q has no result", item.URL)
			continue
		}
		if item.Result.Outcome != checker.OutcomeActiveDirect {
			t.Errorf("results: item %q expected outcome %q, got %q", item.URL, checker.OutcomeActiveDirect, item.Result.Outcome)
		}
	}

	// Export: header plus one row per URL.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/v1/batches/"+created.BatchID+"/export", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("export: expected Content-Type text/csv, got %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "url_check_results.csv") {
		t.Errorf("export: expected filename in Content-Disposition, got %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("export: expected 3 CSV lines (header + 2 rows), got %d:\n%s", len(lines), rr.Body.String())
	}

	// Delete.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodDelete, "/api/v1/batches/"+created.BatchID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/v1/batches/"+created.BatchID, nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rr.Code)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	router := newTestRouter(newTestConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/v1/batches/no-such-batch", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestUpdateServerConfigPersistsAndEchoesNewValue(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	cfg, _ := config.Load(cfgPath)
	cfg.Server.APIKey = testAPIKey
	cfg.Resolver.Resolvers = nil
	router := newTestRouter(cfg)

	body := []byte(`{"streamChunkSize": 25}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPut, "/api/v1/config/server", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Port            string `json:"port"`
		StreamChunkSize int    `json:"streamChunkSize"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StreamChunkSize != 25 {
		t.Errorf("expected echoed streamChunkSize 25, got %d", resp.StreamChunkSize)
	}
	if resp.Port != cfg.Server.Port {
		t.Errorf("expected port %q in response, got %q", cfg.Server.Port, resp.Port)
	}

	reloaded, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if reloaded.Server.StreamChunkSize != 25 {
		t.Errorf("expected persisted streamChunkSize 25, got %d", reloaded.Server.StreamChunkSize)
	}
}

func TestGetRemoteCheckConfig(t *testing.T) {
	cfg := newTestConfig()
	cfg.RemoteCheck.PollAttempts = 10
	router := newTestRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/v1/config/remotecheck", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}
	var got config.RemoteCheckConfigJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("get: failed to decode response: %v", err)
	}
	if got.PollAttempts != 10 {
		t.Errorf("get: expected 10 poll attempts, got %d", got.PollAttempts)
	}
	if got.ExcludedRegion != "India" {
		t.Errorf("get: expected default excluded region India, got %q", got.ExcludedRegion)
	}
}
