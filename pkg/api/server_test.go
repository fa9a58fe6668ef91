package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/logging"
)

func newTestServer(t *testing.T, mutate func(*config.Settings)) *Server {
	t.Helper()
	settings := config.DefaultConfig()
	settings.Display.Width = 200
	settings.Display.Height = 100
	settings.Display.Particles = 10
	settings.Server.Addr = "127.0.0.1:0"
	if mutate != nil {
		mutate(settings)
	}

	s, err := NewServer(settings, Options{Seed: 1})
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()
	var state StateResponse
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return state
}

func TestNewServer_RejectsInvalidSettings(t *testing.T) {
	if _, err := NewServer(nil, Options{}); err == nil {
		t.Error("expected error for nil settings")
	}

	settings := config.DefaultConfig()
	settings.Display.Width = 0
	if _, err := NewServer(settings, Options{}); err == nil {
		t.Error("expected error for zero-width display")
	}
}

func TestStartStateCancel(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/simulation/start", `{"launchSpeed": 20, "launchAngleDeg": 60}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start: expected 202, got %d: %s", rec.Code, rec.Body)
	}
	var started startResponse
	if err := json.NewDecoder(rec.Body).Decode(&started); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}
	if started.RunID != 1 {
		t.Errorf("expected run id 1, got %d", started.RunID)
	}

	for i := 0; i < 3; i++ {
		s.Loop().Frame(started.RunID, 16*time.Millisecond)
	}

	state := decodeState(t, do(t, s, http.MethodGet, "/simulation/state?trail=true", ""))
	if state.Status != "running" || state.Steps != 3 {
		t.Errorf("unexpected state after 3 frames: %+v", state)
	}
	if state.Config.LaunchSpeed != 20 || state.Config.LaunchAngleDeg != 60 {
		t.Errorf("launch parameters not applied: %+v", state.Config)
	}
	if len(state.Trail) != 3 {
		t.Errorf("expected 3 trail points, got %d", len(state.Trail))
	}
	if !strings.HasPrefix(state.Readout, "Current speed: ") {
		t.Errorf("unexpected readout %q", state.Readout)
	}

	rec = do(t, s, http.MethodPost, "/simulation/cancel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", rec.Code)
	}
	if state := decodeState(t, rec); state.Status != "cancelled" || state.Trail != nil {
		t.Errorf("unexpected state after cancel: %+v", state)
	}

	if rec := do(t, s, http.MethodPost, "/simulation/cancel", ""); rec.Code != http.StatusConflict {
		t.Errorf("second cancel: expected 409, got %d", rec.Code)
	}
}

func TestStart_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"launchSpeed": `},
		{"unknown field", `{"mass": 3}`},
		{"bad wind direction", `{"windDirection": 2}`},
		{"angle out of range", `{"launchAngleDeg": 720}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := do(t, s, http.MethodPost, "/simulation/start", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body)
			}
			if s.Loop().RunID() != 0 {
				t.Error("rejected launch should not start a run")
			}
		})
	}
}

func TestStart_RateLimited(t *testing.T) {
	s := newTestServer(t, func(c *config.Settings) { c.Server.StartsPerMinute = 1 })

	if rec := do(t, s, http.MethodPost, "/simulation/start", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("first start: expected 202, got %d", rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/simulation/start", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second start: expected 429, got %d", rec.Code)
	}
	if s.Loop().RunID() != 1 {
		t.Errorf("rate limited start should keep run 1, got %d", s.Loop().RunID())
	}
}

func TestStart_RestartSupersedesRun(t *testing.T) {
	s := newTestServer(t, nil)

	do(t, s, http.MethodPost, "/simulation/start", "")
	first := s.Loop().RunID()
	do(t, s, http.MethodPost, "/simulation/start", `{"launchAngleDeg": 30}`)

	if _, ok := s.Loop().Frame(first, 16*time.Millisecond); ok {
		t.Error("frame for the superseded run should be a no-op")
	}
	state := decodeState(t, do(t, s, http.MethodGet, "/simulation/state", ""))
	if state.RunID != first+1 || state.Config.LaunchAngleDeg != 30 {
		t.Errorf("unexpected state after restart: %+v", state)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodOptions, "/simulation/start", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if s.Loop().RunID() != 0 {
		t.Error("preflight should not start a run")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := do(t, s, http.MethodGet, "/simulation/start", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestFramePNG(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/simulation/start", "")
	s.Loop().Frame(s.Loop().RunID(), 16*time.Millisecond)

	rec := do(t, s, http.MethodGet, "/simulation/frame.png", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestPlot(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/simulation/plot.svg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("expected svg content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("body is not an SVG document")
	}

	if rec := do(t, s, http.MethodGet, "/simulation/plot.gif", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unsupported format: expected 404, got %d", rec.Code)
	}
}

func TestPlot_BreakerOpensAfterFailures(t *testing.T) {
	s := newTestServer(t, nil)

	for i := 0; i < plotMaxFailures; i++ {
		s.plots.Execute(func() (interface{}, error) {
			return nil, errors.New("render failed")
		})
	}

	rec := do(t, s, http.MethodGet, "/simulation/plot.svg", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 while the breaker is open, got %d", rec.Code)
	}
}

// brokenClient accepts headers but fails every body write.
type brokenClient struct {
	*httptest.ResponseRecorder
}

func (brokenClient) Write([]byte) (int, error) {
	return 0, errors.New("client went away")
}

// syncBuffer guards a log buffer shared with the server's goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestResponseWriteFailuresAreLogged(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"json", "/simulation/state"},
		{"png", "/simulation/frame.png"},
		{"plot", "/simulation/plot.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(logging.LevelEnvVar, "DEBUG")
			var logs syncBuffer

			settings := config.DefaultConfig()
			settings.Display.Width = 200
			settings.Display.Height = 100
			settings.Display.Particles = 10
			s, err := NewServer(settings, Options{Logger: logging.NewLoggerWithWriter(&logs), Seed: 1})
			if err != nil {
				t.Fatalf("NewServer() failed: %v", err)
			}
			t.Cleanup(func() { s.Shutdown(context.Background()) })

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			s.Handler().ServeHTTP(brokenClient{httptest.NewRecorder()}, req)

			out := logs.String()
			if !strings.Contains(out, "response write failed") {
				t.Fatalf("write failure not logged, got %s", out)
			}
			if !strings.Contains(out, "client went away") || !strings.Contains(out, tt.path) {
				t.Errorf("log line lacks error or path: %s", out)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/simulation/start", "")
	s.Loop().Frame(s.Loop().RunID(), 16*time.Millisecond)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"trajectory_runs_started_total 1", "trajectory_frames_total 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestHealthEndpointsBeforeStart(t *testing.T) {
	s := newTestServer(t, nil)

	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness before Start: expected 503, got %d", rec.Code)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := newTestServer(t, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
	addr := s.Addr()
	if addr == "" {
		t.Fatal("Addr() empty after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	var code int
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://" + addr + "/readyz")
		if err == nil {
			code = resp.StatusCode
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if code == http.StatusOK {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	if code != http.StatusOK {
		t.Errorf("server never became ready, last status %d", code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
	if s.Addr() != "" {
		t.Error("Addr() should be empty after Shutdown")
	}
}
