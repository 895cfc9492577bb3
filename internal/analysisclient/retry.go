package analysisclient

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Retrying wraps an Analyzer with exponential backoff. Credential failures
// are never retried.
type Retrying struct {
	next            Analyzer
	maxElapsed      time.Duration
	initialInterval time.Duration
	logger          zerolog.Logger
}

// NewRetrying retries next until maxElapsed has passed. A budget of zero or
// less makes a single attempt.
func NewRetrying(next Analyzer, maxElapsed time.Duration, logger zerolog.Logger) *Retrying {
	return &Retrying{
		next:            next,
		maxElapsed:      maxElapsed,
		initialInterval: backoff.DefaultInitialInterval,
		logger:          logger,
	}
}

// Analyze calls the wrapped analyzer until it succeeds, fails permanently or
// the retry budget runs out
func (r *Retrying) Analyze(ctx context.Context, req Request) (map[string]any, error) {
	// backoff treats a zero MaxElapsedTime as unbounded
	if r.maxElapsed <= 0 {
		return r.next.Analyze(ctx, req)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initialInterval
	bo.MaxElapsedTime = r.maxElapsed

	var (
		result  map[string]any
		attempt int
	)
	op := func() error {
		attempt++
		res, err := r.next.Analyze(ctx, req)
		if err == nil {
			result = res
			return nil
		}
		if errors.Is(err, ErrUnauthorized) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		r.logger.Warn().Err(err).Int("attempt", attempt).Msg("analysis attempt failed, retrying")
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}
