// Package resource tracks the background goroutines of a host so they can
// be bounded, survive panics and be drained on shutdown.
package resource

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-trajectory/pkg/logging"
)

// drainPoll is how often Wait rechecks the running count.
const drainPoll = 10 * time.Millisecond

// Supervisor starts named goroutines and keeps count of them.
type Supervisor struct {
	limit   int64
	running int64
	panics  int64
	logger  *logging.Logger

	mu        sync.Mutex
	lastPanic string
}

// NewSupervisor creates a supervisor allowing at most limit goroutines at
// once. A limit of zero or less means no limit.
func NewSupervisor(limit int, logger *logging.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Supervisor{
		limit:  int64(limit),
		logger: logger,
	}
}

// Go runs fn in a new goroutine. It fails without starting anything when
// the limit is reached. A panic in fn is logged and counted instead of
// crashing the process.
func (s *Supervisor) Go(ctx context.Context, name string, fn func(context.Context)) error {
	n := atomic.AddInt64(&s.running, 1)
	if s.limit > 0 && n > s.limit {
		atomic.AddInt64(&s.running, -1)
		s.logger.Warn(ctx, "Goroutine limit exceeded",
			"name", name,
			"limit", s.limit,
		)
		return fmt.Errorf("goroutine limit exceeded: %d/%d", n-1, s.limit)
	}

	go func() {
		defer atomic.AddInt64(&s.running, -1)
		defer func() {
			if r := recover(); r != nil {
				atomic.AddInt64(&s.panics, 1)
				s.mu.Lock()
				s.lastPanic = fmt.Sprintf("%s: %v", name, r)
				s.mu.Unlock()
				s.logger.Error(ctx, "Goroutine panic", fmt.Errorf("panic: %v", r),
					"name", name,
				)
			}
		}()

		fn(ctx)
	}()
	return nil
}

// Running returns the number of goroutines that have not returned yet.
func (s *Supervisor) Running() int64 {
	return atomic.LoadInt64(&s.running)
}

// Panics returns how many supervised goroutines have panicked.
func (s *Supervisor) Panics() int64 {
	return atomic.LoadInt64(&s.panics)
}

// Wait blocks until every goroutine has returned or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for {
		if s.Running() == 0 {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			remaining := s.Running()
			s.logger.Warn(ctx, "Shutdown timeout exceeded with goroutines still running",
				"remaining", remaining,
			)
			return fmt.Errorf("shutdown timeout: %d goroutines still running", remaining)
		}
	}
}

// HealthCheck reports a supervisor unhealthy once any goroutine panicked.
type HealthCheck struct {
	supervisor *Supervisor
}

// NewHealthCheck creates a health check over s.
func NewHealthCheck(s *Supervisor) *HealthCheck {
	return &HealthCheck{supervisor: s}
}

// Name returns the name of this health check.
func (h *HealthCheck) Name() string {
	return "workers"
}

// Check fails after a supervised goroutine has panicked.
func (h *HealthCheck) Check(ctx context.Context) error {
	if n := h.supervisor.Panics(); n > 0 {
		h.supervisor.mu.Lock()
		last := h.supervisor.lastPanic
		h.supervisor.mu.Unlock()
		return fmt.Errorf("%d worker goroutines panicked, last %s", n, last)
	}
	return nil
}
