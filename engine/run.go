package engine

import (
	"context"
	"time"

	"go-hemisphere/debug"
	"go-hemisphere/tick"
)

// pollInterval is how often Run wakes to catch up on due ticks
const pollInterval = time.Millisecond

// maxCatchUp bounds the ticks run in one wake-up. Falling further behind
// than this drops time instead of spiralling.
const maxCatchUp = int64(tick.PerSecond / 10)

// Run steps the engine in real time until ctx is cancelled. The OS timer is
// far coarser than a tick, so each wake-up runs every tick due since start.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	start := time.Now()
	var done int64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due := int64(now.Sub(start) / tick.Period)
			n := due - done
			if n > maxCatchUp {
				debug.LogEvery(10, "engine", "behind by %d ticks, dropping", n-maxCatchUp)
				done += n - maxCatchUp
				n = maxCatchUp
			}
			e.RunTicks(int(n))
			done += n
		}
	}
}

// RunTicks runs n ticks back to back under one lock
func (e *Engine) RunTicks(n int) {
	if n <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < n; i++ {
		e.step()
	}
}
