package deps

import (
	"context"

	"github.com/bwise1/civic_reports/config"
	"github.com/bwise1/civic_reports/internal/db"
	stadiamaps "github.com/bwise1/civic_reports/internal/http/stadia_maps"
	"github.com/bwise1/civic_reports/internal/observability"
	"github.com/bwise1/civic_reports/util/cache"
	"github.com/bwise1/civic_reports/util/ratelimit"
	"github.com/bwise1/civic_reports/util/storage"
	"github.com/bwise1/civic_reports/util/websockets"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Geocoder maps a coordinate to a city name.
type Geocoder interface {
	CityForPoint(ctx context.Context, lat, lon float64) (string, error)
}

type Dependencies struct {
	DB          *db.DB
	Cache       *cache.FeedCache
	Images      storage.ImageUploader
	Geocoder    Geocoder
	WebSocket   *websockets.WebSocketManager
	Metrics     *observability.Metrics
	VoteLimiter *ratelimit.UserLimiter
	Logger      *zap.Logger

	redis *redis.Client
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	database, err := db.New(cfg.Dsn, logger.Named("db"))
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}

	d := &Dependencies{
		DB:          database,
		Geocoder:    stadiamaps.NewClient(cfg.StadiaAPIKey),
		WebSocket:   websockets.NewWebSocketManager(logger.Named("ws")),
		Metrics:     observability.NewMetrics(),
		VoteLimiter: ratelimit.New(cfg.VoteRateLimit, cfg.VoteRateBurst),
		Logger:      logger,
	}

	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			d.Close()
			return nil, errors.Wrap(err, "connect to redis")
		}
		d.redis = client
		d.Cache = cache.NewFeedCache(client, cfg.FeedCacheTTL)
	} else {
		logger.Info("REDIS_ADDR not set, feed cache disabled")
	}

	if cfg.CloudinaryEnabled() {
		cld, err := storage.NewCloudinary(cfg)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Images = cld
	} else {
		logger.Info("cloudinary credentials not set, image uploads disabled")
	}

	if cfg.StadiaAPIKey == "" {
		logger.Warn("STADIA_API_KEY not set, reverse geocoding will fall back to " + stadiamaps.UnknownCity)
	}

	return d, nil
}

func (d *Dependencies) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.Logger.Warn("closing redis", zap.Error(err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
