package components

import (
	"booking-engine/internal/infra/cache"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/readstore"
	"booking-engine/internal/infra/writerepo"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		// Read side
		fx.Annotate(
			readstore.NewCatalogReadStore,
			fx.As(new(queries.CatalogReads)),
		),
		fx.Annotate(
			readstore.NewScheduleReadStore,
			fx.As(new(queries.ScheduleReads)),
		),
		fx.Annotate(
			readstore.NewOccupancyReadStore,
			fx.As(new(queries.OccupancyReads)),
		),
		fx.Annotate(
			readstore.NewPricingReadStore,
			fx.As(new(queries.PricingReads)),
		),
		// Write side
		fx.Annotate(
			writerepo.NewHoldRepository,
			fx.As(new(commands.HoldRepository)),
		),
		fx.Annotate(
			writerepo.NewBookingRepository,
			fx.As(new(commands.BookingRepository)),
		),
		fx.Annotate(
			db.NewPoolTxRunner,
			fx.As(new(commands.TxRunner)),
		),
		// Widget cache serves reads and is invalidated by writes
		fx.Annotate(
			NewWidgetCache,
			fx.As(new(queries.WidgetCache)),
			fx.As(new(commands.WidgetInvalidator)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

func NewWidgetCache(client *redis.Client, cfg config.Config) *cache.NextAvailableCache {
	return cache.NewNextAvailableCache(client, cfg.Booking.NextAvailableTTL)
}
