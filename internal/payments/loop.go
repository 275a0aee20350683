package payments

import (
	"context"
	"time"

	"creatorsupport/internal/infra"
)

// RunEvery calls fn immediately and then once per interval until ctx is
// done. Errors from fn are logged and do not stop the loop.
func RunEvery(ctx context.Context, name string, interval time.Duration, logger *infra.Logger, fn func(context.Context) error) error {
	log := loggerOrNop(logger).With().Str("loop", name).Logger()
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("loop started")
	for {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("loop iteration failed")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// SweepPending is the reaper iteration used by RunEvery.
func (r *Reaper) SweepPending(ctx context.Context) error {
	stats, err := r.Sweep(ctx)
	if stats.Scanned > 0 {
		r.logger.Info().
			Int("scanned", stats.Scanned).
			Int("succeeded", stats.Succeeded).
			Int("failed", stats.Failed).
			Int("skipped", stats.Skipped).
			Msg("reaper sweep")
	}
	return err
}

// RetryDueSetups is the setup retry iteration used by RunEvery.
func (s *SetupRunner) RetryDueSetups(ctx context.Context) error {
	n, err := s.RetryDue(ctx)
	if n > 0 {
		s.logger.Info().Int("attempted", n).Msg("subscription setups retried")
	}
	return err
}
