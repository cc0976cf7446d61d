package collector

import (
	"context"
	"time"
)

const bybitPageDelay = 100 * time.Millisecond

// pause waits d between paged requests, returning early when ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
