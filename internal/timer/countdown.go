package timer

import (
	"context"
	"time"
)

// TickFunc handles one countdown tick. Returning false stops the countdown.
type TickFunc func(ctx context.Context) bool

// Countdown calls fn once per interval until fn returns false or ctx is
// done. It blocks; run it in its own goroutine.
func Countdown(ctx context.Context, interval time.Duration, fn TickFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !fn(ctx) {
				return
			}
		}
	}
}
