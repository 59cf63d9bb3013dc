package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/primefit/storefront/internal/orderrequests"
	"github.com/primefit/storefront/pkg/config"
	"github.com/primefit/storefront/pkg/db"
	"github.com/primefit/storefront/pkg/idempotency"
	"github.com/primefit/storefront/pkg/instance"
	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/metrics"
	"github.com/primefit/storefront/pkg/pubsub"
	"github.com/primefit/storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithField(ctx, "instance", instance.GetID())
	logg.Info(ctx, "starting worker")

	if !cfg.PubSub.Enabled() || cfg.PubSub.CheckoutSubscription == "" {
		return errors.New("worker requires a checkout topic and subscription")
	}

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

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return err
	}
	closers = append(closers, psClient.Close)

	deps := map[string]pinger{"db": dbClient, "pubsub": psClient}

	var dedupe orderrequests.Deduper
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		deps["redis"] = redisClient
		guard, err := idempotency.NewGuard(redisClient, cfg.Worker.IdempotencyTTL)
		if err != nil {
			return err
		}
		dedupe = guard
	} else {
		logg.Warn(ctx, "redis not configured; relying on the order_requests primary key for dedupe")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	jobMetrics := metrics.NewJobMetrics(promRegistry)

	orderService, err := orderrequests.NewService(orderrequests.NewRepository(dbClient.DB()), nil)
	if err != nil {
		return err
	}

	subscription := psClient.CheckoutSubscription()
	if subscription != nil && cfg.Worker.MaxOutstandingMessages > 0 {
		subscription.ReceiveSettings.MaxOutstandingMessages = cfg.Worker.MaxOutstandingMessages
	}
	consumer, err := orderrequests.NewConsumer(orderService, subscription, logg, orderrequests.ConsumerOptions{
		Dedupe: dedupe,
		Jobs:   jobMetrics,
	})
	if err != nil {
		return err
	}

	svc, err := NewService(ServiceParams{
		Logger:       logg,
		Consumer:     consumer,
		Dependencies: deps,
	})
	if err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	closers = append(closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	err = svc.Run(ctx)
	logg.Info(ctx, "worker shutting down gracefully")
	return err
}
