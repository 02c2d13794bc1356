package core

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const sweepConcurrency = 8

// RunHealthSweeper periodically health-checks every non-stopped instance
// until ctx is cancelled. Checks within one sweep run concurrently, bounded
// by sweepConcurrency; failures are logged, never fatal.
func (o *Orchestrator) RunHealthSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweep(ctx)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	instances, err := o.instances.ListActive(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("health sweep: listing instances failed")
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, inst := range instances {
		g.Go(func() error {
			healthy, err := o.HealthCheck(ctx, inst.ID)
			if err != nil {
				o.logger.Warn().Err(err).Str("instance_id", inst.ID).Msg("health check failed")
				return nil
			}
			o.logger.Debug().Str("instance_id", inst.ID).Bool("healthy", healthy).Msg("health check")
			return nil
		})
	}
	_ = g.Wait()
}
