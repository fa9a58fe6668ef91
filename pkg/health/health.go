// Package health provides liveness and readiness endpoints for the trajectory
// server.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"
)

// Status values reported by checks and endpoints.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// DefaultCheckTimeout bounds a readiness request.
const DefaultCheckTimeout = 5 * time.Second

// HealthCheck is one component's readiness test.
type HealthCheck interface {
	Name() string
	// Check returns an error when the component is not ready. It should
	// give up when ctx is done.
	Check(ctx context.Context) error
}

// HealthStatus is the aggregated readiness of the server.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of one check.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker runs the registered checks.
type HealthChecker struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	mu      sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:  make(map[string]HealthCheck),
		timeout: DefaultCheckTimeout,
	}
}

// SetTimeout changes how long ReadinessHandler waits for the checks.
func (hc *HealthChecker) SetTimeout(d time.Duration) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.timeout = d
}

// AddCheck registers check, replacing any check of the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth runs every check concurrently. The overall status is healthy
// only if all of them pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	checks := make(map[string]HealthCheck, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
	}
	hc.mu.RUnlock()

	status := HealthStatus{
		Status: StatusHealthy,
		Checks: make(map[string]ComponentHealth, len(checks)),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheck) {
			defer wg.Done()
			result := ComponentHealth{Status: StatusHealthy}
			if err := check.Check(ctx); err != nil {
				result = ComponentHealth{Status: StatusUnhealthy, Message: err.Error()}
			}

			mu.Lock()
			defer mu.Unlock()
			status.Checks[name] = result
			if result.Status == StatusUnhealthy {
				status.Status = StatusUnhealthy
			}
		}(name, check)
	}
	wg.Wait()

	return status
}

// LivenessHandler answers 200 while the process can serve requests.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler runs the checks and answers 200 when all pass, 503
// otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hc.mu.RLock()
	timeout := hc.timeout
	hc.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	health := hc.CheckHealth(ctx)

	code := http.StatusOK
	if health.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// LoopHealthCheck reports whether the frame ticker driving the animation
// loop is still ticking.
type LoopHealthCheck struct {
	lastTick func() time.Time
	maxAge   time.Duration
	now      func() time.Time
}

// NewLoopHealthCheck creates a check that fails when lastTick is older than
// maxAge.
func NewLoopHealthCheck(lastTick func() time.Time, maxAge time.Duration) *LoopHealthCheck {
	return &LoopHealthCheck{
		lastTick: lastTick,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Name returns the name of this health check.
func (l *LoopHealthCheck) Name() string {
	return "animation_loop"
}

// Check verifies that a frame was ticked recently.
func (l *LoopHealthCheck) Check(ctx context.Context) error {
	last := l.lastTick()
	if last.IsZero() {
		return fmt.Errorf("frame ticker has not started")
	}
	if age := l.now().Sub(last); age > l.maxAge {
		return fmt.Errorf("last frame %s ago exceeds %s", age.Round(time.Millisecond), l.maxAge)
	}
	return nil
}

// ListenerHealthCheck implements HealthCheck for the HTTP listener.
type ListenerHealthCheck struct {
	listenerAddr func() string
}

// NewListenerHealthCheck creates a health check for the HTTP listener.
func NewListenerHealthCheck(listenerAddr func() string) *ListenerHealthCheck {
	return &ListenerHealthCheck{
		listenerAddr: listenerAddr,
	}
}

// Name returns the name of this health check.
func (n *ListenerHealthCheck) Name() string {
	return "http_listener"
}

// Check verifies that the listener is bound.
func (n *ListenerHealthCheck) Check(ctx context.Context) error {
	if n.listenerAddr() == "" {
		return fmt.Errorf("http listener is not active")
	}
	return nil
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage. A nil
// getMemoryUsage reads the Go runtime's heap statistics.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	if getMemoryUsage == nil {
		getMemoryUsage = RuntimeMemoryMB
	}
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// RuntimeMemoryMB returns the heap memory currently allocated, in MB.
func RuntimeMemoryMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
