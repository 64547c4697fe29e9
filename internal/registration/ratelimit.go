package registration

import (
	"log/slog"
	"time"
)

// RateLimiter gates verification attempts per source address. Only failed
// attempts are recorded, so the limiter penalizes guessing rather than
// legitimate use.
type RateLimiter struct {
	repo   RateLimitRepository
	limit  int
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewRateLimiter(repo RateLimitRepository, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimiter{
		repo:   repo,
		limit:  limit,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// Allow reports whether sourceAddr may attempt verification. A missing
// counter, an expired window, or a count below the limit all allow; the
// counter itself is only reset lazily by the next RecordAttempt.
func (rl *RateLimiter) Allow(sourceAddr string) (bool, error) {
	counter, err := rl.repo.Get(sourceAddr)
	if err != nil {
		return false, err
	}
	if counter == nil {
		return true, nil
	}

	if rl.now().Sub(counter.LastAttempt) >= rl.window {
		return true, nil
	}

	if counter.Attempts < rl.limit {
		return true, nil
	}

	rl.logger.Warn("verification attempts rate limited",
		"source_addr", sourceAddr,
		"attempts", counter.Attempts)
	return false, nil
}

// RecordAttempt counts one failed attempt against sourceAddr. The underlying
// upsert resets the counter to 1 when the prior window has expired, otherwise
// increments in place; either way the last-attempt time is refreshed.
func (rl *RateLimiter) RecordAttempt(sourceAddr string) {
	windowExpiredBefore := rl.now().Add(-rl.window)
	if err := rl.repo.RecordAttempt(sourceAddr, windowExpiredBefore); err != nil {
		// Counting must not block the caller's error path.
		rl.logger.Error("failed to record verification attempt",
			"source_addr", sourceAddr,
			"error", err)
	}
}
