package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Retry runs connect up to attempts times, sleeping delay between failures.
// It is meant for process startup only; request paths never retry.
func Retry[T any](ctx context.Context, logger zerolog.Logger, name string, attempts int, delay time.Duration, connect func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := connect(ctx)
		if err == nil {
			logger.Info().Str("backend", name).Int("attempt", attempt).Msg("connected")
			return value, nil
		}
		lastErr = err

		logger.Warn().
			Err(err).
			Str("backend", name).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("retry_in", delay).
			Msg("connection attempt failed")

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("%s: max retries reached: %w", name, lastErr)
}
