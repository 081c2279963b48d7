package session

import (
	"context"
	"time"
)

// DefaultTickInterval is the wall-clock pace of the per-question countdown.
const DefaultTickInterval = time.Second

// RunTimer drives the controller's countdown at the given interval until
// the context is canceled or the session leaves InProgress. Cancellation is
// cooperative: the context is checked before each tick is applied, so a
// canceled session emits no further advances.
func RunTimer(ctx context.Context, c *Controller, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if c.State() != StateInProgress {
				return
			}
			c.Tick()
		}
	}
}
