package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/commands"

	"go.uber.org/fx"
)

var SweeperModule = fx.Module("sweeper",
	fx.Invoke(
		StartExpirySweeper,
	),
)

// StartExpirySweeper runs the background sweep that finalizes lapsed holds.
// Correctness does not depend on it; live reads already ignore lapsed holds.
// The sweep only keeps the holds table from accumulating stale active rows.
func StartExpirySweeper(lc fx.Lifecycle, holdCommands commands.HoldCommands, cfg config.Config, logger *slog.Logger) {
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			ticker := time.NewTicker(cfg.Booking.SweepInterval)
			go func() {
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						ctx, cancel := context.WithTimeout(context.Background(), cfg.Booking.SweepInterval)
						n, err := holdCommands.SweepExpiredHolds(ctx)
						cancel()
						if err != nil {
							logger.Error("expiry sweep failed", "error", err)
							continue
						}
						if n > 0 {
							logger.Info("expiry sweep finalized holds", "count", n)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			close(done)
			return nil
		},
	})
}
