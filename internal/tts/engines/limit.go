package engines

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// newLimiter allows perMinute calls per minute with a burst of one. It
// returns nil when perMinute is not positive.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return tts.NewTTSError(tts.ErrorCodeCanceled, "waiting for rate limiter", err)
	}
	return nil
}
