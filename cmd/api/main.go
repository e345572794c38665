package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/chatbill/modules/billing"
	"github.com/dmitrymomot/chatbill/pkg/config"
	"github.com/dmitrymomot/chatbill/pkg/httpserver"
	"github.com/dmitrymomot/chatbill/pkg/logger"
	"github.com/dmitrymomot/chatbill/pkg/pg"
	"github.com/dmitrymomot/chatbill/pkg/ratelimit"
	"github.com/dmitrymomot/chatbill/pkg/redis"
	"github.com/dmitrymomot/chatbill/pkg/requestid"
	"github.com/dmitrymomot/chatbill/pkg/subscription"
	"github.com/dmitrymomot/chatbill/pkg/webhook"
)

type appConfig struct {
	Logger     logger.Config
	HTTPServer httpserver.Config
	Postgres   pg.Config
	Redis      redis.Config
	Billing    billing.Config
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	config.MustLoad(&cfg.Logger)
	config.MustLoad(&cfg.HTTPServer)
	config.MustLoad(&cfg.Postgres)
	config.MustLoad(&cfg.Redis)
	config.MustLoad(&cfg.Billing)

	log := logger.NewFromConfig(cfg.Logger,
		logger.WithContextExtractors(requestid.LoggerExtractor()))

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	catalog, err := loadCatalog(cfg.Billing.PlansPath)
	if err != nil {
		return err
	}

	store := billing.NewPostgresStore(pool)
	gateway := billing.NewRazorpayClient(cfg.Billing)
	svc := billing.NewService(store, gateway, catalog, cfg.Billing, log)

	dispatcher := webhook.NewDispatcher(log)
	svc.RegisterHandlers(dispatcher)

	handler := billing.NewHandler(svc, dispatcher, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Get("/health", httpserver.HealthCheckHandler(log))
	r.Get("/ready", httpserver.HealthCheckHandler(log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient)))
	r.Mount("/", handler.Routes(billing.RouterDeps{
		SessionVerifier: billing.NewPostgresSessionVerifier(pool),
		LimitStore:      ratelimit.NewRedisStore(redisClient),
	}))

	return httpserver.New(cfg.HTTPServer, log).Run(ctx, r)
}

// loadCatalog reads the YAML plan catalog when a path is configured,
// falling back to the built-in plans.
func loadCatalog(path string) (subscription.Catalog, error) {
	if path == "" {
		return subscription.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return subscription.LoadCatalog(f)
}
