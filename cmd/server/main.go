package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"enroll/internal/platform/config"
	"enroll/internal/platform/httpserver"
	"enroll/internal/platform/kafka"
	"enroll/internal/platform/logger"
	"enroll/internal/platform/metrics"
	"enroll/internal/platform/postgres"
	platformredis "enroll/internal/platform/redis"
	"enroll/internal/ratelimit"
	"enroll/internal/registration"
	"enroll/internal/registration/events"
	"enroll/internal/registration/handler"
	"enroll/internal/registration/password"
	securitystore "enroll/internal/registration/store/security"
	userstore "enroll/internal/registration/store/user"
	"enroll/pkg/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Error("kafka unavailable", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	m := metrics.New()

	svc, err := registration.NewService(
		userstore.NewPostgres(db),
		securitystore.NewPostgres(db),
		password.New(),
		events.NewKafkaPublisher(producer),
		log,
		m,
	)
	if err != nil {
		log.Error("wiring registration service failed", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(db))

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiter := ratelimit.New(
			ratelimit.NewRedis(redisClient.Client),
			cfg.RegisterLimit, cfg.RegisterWindow, log, m,
		)
		router.Group(func(r chi.Router) {
			r.Use(limiter.Limit)
			handler.New(svc, log).Register(r)
		})
	} else {
		log.Info("redis not configured, registration rate limiting disabled")
		handler.New(svc, log).Register(router)
	}

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting enroll", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := postgres.Health(r.Context(), db); err != nil {
			httputil.WriteError(w, http.StatusServiceUnavailable, "unhealthy", "")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
