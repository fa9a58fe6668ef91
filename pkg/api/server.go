// Package api serves the animation loop over HTTP: launch and cancel
// runs, poll their state and fetch the rendered canvas as a PNG.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-trajectory/pkg/canvas"
	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/health"
	"github.com/opd-ai/go-trajectory/pkg/logging"
	"github.com/opd-ai/go-trajectory/pkg/metrics"
	"github.com/opd-ai/go-trajectory/pkg/resource"
	"github.com/opd-ai/go-trajectory/pkg/sim"
	"github.com/opd-ai/go-trajectory/pkg/validation"
	"github.com/opd-ai/go-trajectory/pkg/wind"
)

const (
	// MaxMemoryMB is the heap size above which the server reports not ready.
	MaxMemoryMB = 500
	// MaxWorkers bounds the server's background goroutines.
	MaxWorkers = 8
)

// Options configures a Server. Zero fields take defaults.
type Options struct {
	Logger   *logging.Logger
	Registry *prometheus.Registry
	// Seed seeds the wind particle placement.
	Seed uint64
}

// Server owns one animation loop drawing onto an in-memory raster and
// the HTTP surface around it.
type Server struct {
	settings  *config.Settings
	logger    *logging.Logger
	raster    *canvas.Raster
	loop      *sim.Loop
	ticker    *sim.Ticker
	collector *metrics.Collector
	validator *validation.LaunchValidator
	health    *health.HealthChecker
	workers   *resource.Supervisor
	plots     *gobreaker.CircuitBreaker
	router    *mux.Router

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	cancel     context.CancelFunc
}

// NewServer builds the loop, metrics and routes described by settings.
func NewServer(settings *config.Settings, opts Options) (*Server, error) {
	if settings == nil {
		return nil, errors.New("settings cannot be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	collector, err := metrics.NewCollector(opts.Registry)
	if err != nil {
		return nil, logging.WrapError(err, "register metrics")
	}

	display := settings.Display
	raster := canvas.NewRaster(display.Width, display.Height)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	field := wind.NewField(display.Particles, float64(display.Width), float64(display.Height), rng)

	loop := sim.NewLoop(raster, field, sim.Options{
		Stepping: settings.Stepping,
		Logger:   opts.Logger,
		Observer: collector,
	})
	collector.Attach(loop.EventBus())

	s := &Server{
		settings:  settings,
		logger:    opts.Logger,
		raster:    raster,
		loop:      loop,
		ticker:    sim.NewTicker(loop, display.FPS),
		collector: collector,
		validator: validation.NewLaunchValidator(settings.Server.StartsPerMinute),
		health:    health.NewHealthChecker(),
		workers:   resource.NewSupervisor(MaxWorkers, opts.Logger),
		plots:     newPlotBreaker(opts.Logger),
	}

	maxAge := 10 * s.ticker.Interval()
	if maxAge < time.Second {
		maxAge = time.Second
	}
	s.health.AddCheck(health.NewLoopHealthCheck(s.ticker.LastTick, maxAge))
	s.health.AddCheck(health.NewListenerHealthCheck(s.Addr))
	s.health.AddCheck(health.NewMemoryHealthCheck(MaxMemoryMB, nil))
	s.health.AddCheck(resource.NewHealthCheck(s.workers))

	s.router = s.routes(opts.Registry)
	return s, nil
}

func (s *Server) routes(gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests, corsHeaders)

	sr := r.PathPrefix("/simulation").Subrouter()
	sr.HandleFunc("/start", s.handleStart).Methods(http.MethodPost, http.MethodOptions)
	sr.HandleFunc("/cancel", s.handleCancel).Methods(http.MethodPost, http.MethodOptions)
	sr.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	sr.HandleFunc("/frame.png", s.handleFrame).Methods(http.MethodGet)
	sr.HandleFunc("/plot.{format:png|svg|pdf}", s.handlePlot).Methods(http.MethodGet)

	r.Handle("/metrics", metrics.Handler(gatherer)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.health.LivenessHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.health.ReadinessHandler).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Loop returns the animation loop behind the server.
func (s *Server) Loop() *sim.Loop {
	return s.loop
}

// Addr returns the bound listener address, empty when not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the configured address and begins serving and ticking in
// the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("server already started")
	}

	ln, err := net.Listen("tcp", s.settings.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.settings.Server.Addr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	httpServer := &http.Server{
		Handler:     s.router,
		ReadTimeout: time.Duration(s.settings.Server.ReadTimeoutSeconds) * time.Second,
	}

	err = s.workers.Go(runCtx, "ticker", func(ctx context.Context) {
		s.ticker.Run(ctx)
	})
	if err == nil {
		err = s.workers.Go(runCtx, "http", func(ctx context.Context) {
			if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error(ctx, "HTTP server failed", err)
			}
		})
	}
	if err != nil {
		cancel()
		ln.Close()
		return err
	}

	s.listener = ln
	s.cancel = cancel
	s.httpServer = httpServer

	s.logger.Info(ctx, "Server started",
		"address", ln.Addr().String(),
		"fps", s.settings.Display.FPS,
		"step_mode", string(s.settings.Stepping.Mode),
	)
	return nil
}

// Shutdown stops the ticker, drains the HTTP server and waits for both
// goroutines to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer, cancel := s.httpServer, s.cancel
	s.listener = nil
	s.httpServer = nil
	s.mu.Unlock()

	defer s.validator.Close()
	defer s.collector.Detach()

	if httpServer == nil {
		return nil
	}
	cancel()
	err := httpServer.Shutdown(ctx)
	return errors.Join(err, s.workers.Wait(ctx))
}

// startResponse answers a successful launch.
type startResponse struct {
	RunID uint64 `json:"runId"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.validator.ValidateLaunch(r.Body, s.settings.Simulation, clientID(r))
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, validation.ErrRateLimited) {
			code = http.StatusTooManyRequests
		}
		s.logger.Warn(r.Context(), "launch rejected", "client", clientID(r), "error", err.Error())
		s.writeError(w, r, code, err)
		return
	}

	id, err := s.loop.Start(cfg)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, r, http.StatusAccepted, startResponse{RunID: id})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.loop.Cancel(); err != nil {
		s.writeError(w, r, http.StatusConflict, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, NewStateResponse(s.loop.Snapshot(), false))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	withTrail := r.URL.Query().Get("trail") == "true"
	s.writeJSON(w, r, http.StatusOK, NewStateResponse(s.loop.Snapshot(), withTrail))
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var (
		buf bytes.Buffer
		err error
	)
	s.loop.View(func(canvas.Surface) {
		err = s.raster.WritePNG(&buf)
	})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	s.writeBody(w, r, buf.Bytes())
}

// handlePlot renders the whole flight of the current run's launch
// parameters, or the configured ones before any run.
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	cfg := s.settings.Simulation
	if snap := s.loop.Snapshot(); snap.RunID != 0 {
		cfg = snap.Config
	}
	format := mux.Vars(r)["format"]

	var buf bytes.Buffer
	_, err := s.plots.Execute(func() (interface{}, error) {
		buf.Reset()
		return nil, writeTrajectoryPlot(&buf, cfg, s.settings, format)
	})
	if err != nil {
		code := http.StatusInternalServerError
		if breakerOpen(err) {
			code = http.StatusServiceUnavailable
		}
		s.writeError(w, r, code, err)
		return
	}
	w.Header().Set("Content-Type", plotContentTypes[format])
	s.writeBody(w, r, buf.Bytes())
}

// clientID identifies the caller by remote host for rate limiting.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	s.writeJSON(w, r, code, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logWriteFailure(r, err)
	}
}

func (s *Server) writeBody(w http.ResponseWriter, r *http.Request, body []byte) {
	if _, err := w.Write(body); err != nil {
		s.logWriteFailure(r, err)
	}
}

// logWriteFailure records a response the client did not receive, usually
// because it hung up.
func (s *Server) logWriteFailure(r *http.Request, err error) {
	s.logger.Debug(r.Context(), "response write failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)
}
