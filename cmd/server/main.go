package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"hirelog/internal/activity"
	"hirelog/internal/activity/cache"
	"hirelog/internal/activity/handler"
	"hirelog/internal/activity/publisher"
	"hirelog/internal/platform/config"
	"hirelog/internal/platform/httpserver"
	"hirelog/internal/platform/logger"
	"hirelog/internal/platform/metrics"
	"hirelog/internal/platform/postgres"
	"hirelog/internal/platform/redis"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/activity.
func main() {
	log := logger.New()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	var store activity.Store
	if cfg.DB.URL != "" {
		db, err := postgres.Open(cfg.DB)
		if err != nil {
			log.Error("open postgres failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = activity.NewPostgres(db)
		log.Info("using postgres activity store")
	} else {
		store = activity.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory activity store")
	}

	opts := []activity.Option{activity.WithMetrics(m)}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, activity.WithSummaryCache(cache.New(redisClient, cfg.Redis.SummaryTTL)))
		log.Info("summary cache enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var worker *publisher.Worker
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := publisher.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()

		inbox := make(chan activity.Event, cfg.Kafka.Inbox)
		worker = publisher.NewWorker(sink, inbox, log)
		opts = append(opts, activity.WithMirror(inbox))
		log.Info("kafka mirror enabled", "topic", cfg.Kafka.Topic)
	}

	service := activity.New(store, log, opts...)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.New(service, log, cfg.Server.JWTSigningKey, cfg.Server.AdminToken).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.Timeout)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting hirelog", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
