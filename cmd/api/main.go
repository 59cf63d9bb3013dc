package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/primefit/storefront/api/controllers"
	"github.com/primefit/storefront/api/routes"
	"github.com/primefit/storefront/internal/cart"
	"github.com/primefit/storefront/internal/catalog"
	"github.com/primefit/storefront/internal/checkout"
	"github.com/primefit/storefront/internal/media"
	"github.com/primefit/storefront/internal/orderrequests"
	"github.com/primefit/storefront/pkg/config"
	"github.com/primefit/storefront/pkg/db"
	"github.com/primefit/storefront/pkg/instance"
	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/metrics"
	"github.com/primefit/storefront/pkg/migrate"
	"github.com/primefit/storefront/pkg/pubsub"
	"github.com/primefit/storefront/pkg/redis"
	"github.com/primefit/storefront/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return err
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	readiness := map[string]controllers.Pinger{"db": dbClient}

	var (
		cache        redis.Cache
		adminCounter redis.Counter
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		cache, adminCounter = redisClient, redisClient
		readiness["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; catalog cache and admin throttling disabled")
	}

	var mediaService media.Service
	if cfg.GCS.Enabled() {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return err
		}
		closers = append(closers, gcsClient.Close)
		readiness["gcs"] = gcsClient
		mediaService, err = media.NewService(gcsClient, media.Options{
			MaxBytes: int64(cfg.GCS.MaxUploadMB) << 20,
			Logger:   logg,
		})
		if err != nil {
			return err
		}
	}

	var publisher pubsub.Publisher
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		closers = append(closers, psClient.Close)
		readiness["pubsub"] = psClient
		if raw := psClient.CheckoutPublisher(); raw != nil {
			closers = append(closers, func() error { raw.Stop(); return nil })
			publisher = pubsub.NewTopicPublisher(raw)
		}
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(promRegistry)
	jobMetrics := metrics.NewJobMetrics(promRegistry)

	sessions := cart.NewRegistry(
		cart.RegistryConfig{IdleTTL: cfg.Cart.SessionTTL, SweepInterval: cfg.Cart.SweepInterval},
		cart.WithSessionObserver(cartMetrics),
		cart.WithJobObserver(jobMetrics),
		cart.WithLogger(logg),
	)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), catalog.Options{
		Cache:    cache,
		CacheTTL: cfg.Catalog.CacheTTL,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(cfg.Checkout.WhatsAppPhone, checkout.Options{
		Publisher: publisher,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	orderRequestService, err := orderrequests.NewService(orderrequests.NewRepository(dbClient.DB()), nil)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			promRegistry,
			readiness,
			adminCounter,
			sessions,
			cartMetrics,
			catalogService,
			checkoutService,
			mediaService,
			orderRequestService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// open event streams would otherwise hold Shutdown until the timeout
	streamCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()
	server.BaseContext = func(net.Listener) context.Context { return streamCtx }
	server.RegisterOnShutdown(cancelStreams)

	go func() {
		if err := sessions.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "cart session sweeper stopped", err)
		}
	}()

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
