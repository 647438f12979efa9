package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clubecard/api/billing"
	"github.com/clubecard/api/modules/membership"
	"github.com/clubecard/api/pkg/config"
	"github.com/clubecard/api/pkg/httpserver"
	"github.com/clubecard/api/pkg/logger"
	"github.com/clubecard/api/pkg/pg"
	"github.com/clubecard/api/pkg/redis"
)

type appConfig struct {
	Logger  logger.Config
	HTTP    httpserver.Config
	PG      pg.Config
	Redis   redis.Config
	Asaas   billing.AsaasConfig
	Webhook billing.WebhookConfig

	CardCacheTTL time.Duration `env:"CARD_CACHE_TTL" envDefault:"1m"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger, logger.WithService("clubecard-api"))
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("api exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	gateway, err := billing.NewAsaasClient(cfg.Asaas)
	if err != nil {
		return err
	}

	if cfg.Webhook.AccessToken == "" {
		log.Warn("payment webhook token not configured, webhook authentication is disabled")
	}

	svc := billing.NewService(
		billing.NewPostgresCatalog(pool),
		gateway,
		billing.NewPostgresStore(pool),
		billing.WithLogger(log),
		billing.WithWebhookConfig(cfg.Webhook),
		billing.WithCardCache(billing.NewRedisCardCache(redisClient, cfg.CardCacheTTL)),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Mount("/", membership.Router(membership.RouterOptions{
		Service: svc,
		Logger:  log,
		Healthchecks: map[string]membership.Healthcheck{
			"postgres": pg.Healthcheck(pool),
			"redis":    redis.Healthcheck(redisClient),
		},
	}))

	return httpserver.Run(ctx, cfg.HTTP, r, log)
}
