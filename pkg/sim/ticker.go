package sim

import (
	"context"
	"sync"
	"time"
)

// DefaultFPS is the frame rate used when a Ticker is given none.
const DefaultFPS = 60

// Ticker calls Frame on a loop at a fixed frame rate, always for the run
// that is current when the tick fires. It stands in for a display's
// per-frame callback on hosts without one.
type Ticker struct {
	loop     *Loop
	interval time.Duration

	// OnFrame, when set, is called after every frame that ran.
	OnFrame func(s Snapshot)

	mu       sync.RWMutex
	lastTick time.Time
}

// NewTicker creates a ticker for loop firing fps times per second.
func NewTicker(loop *Loop, fps int) *Ticker {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Ticker{
		loop:     loop,
		interval: time.Second / time.Duration(fps),
	}
}

// Interval returns the time between frames.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// LastTick returns when the ticker last fired, zero before the first tick.
func (t *Ticker) LastTick() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastTick
}

// Run ticks until ctx is done and returns ctx.Err().
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	prev := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(prev)
			prev = now
			t.tick(now, elapsed)
		}
	}
}

func (t *Ticker) tick(now time.Time, elapsed time.Duration) {
	t.mu.Lock()
	t.lastTick = now
	t.mu.Unlock()

	snap, ok := t.loop.Frame(t.loop.RunID(), elapsed)
	if ok && t.OnFrame != nil {
		t.OnFrame(snap)
	}
}
