package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adminauth/internal/audit"
	authservice "adminauth/internal/auth/service"
	userstore "adminauth/internal/auth/store/user"
	"adminauth/internal/lockout"
	"adminauth/internal/platform/config"
	"adminauth/internal/platform/httpserver"
	"adminauth/internal/platform/logger"
	"adminauth/internal/platform/metrics"
	"adminauth/internal/platform/postgres"
	platformredis "adminauth/internal/platform/redis"
	"adminauth/internal/revocation"
	"adminauth/internal/token"
	httptransport "adminauth/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var checks []httptransport.HealthCheck

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			log.Error("postgres schema setup failed", "error", err)
			os.Exit(1)
		}
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	auditPublisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAuditTopic, log)
	if err != nil {
		log.Error("kafka audit publisher failed", "error", err)
		os.Exit(1)
	}
	if auditPublisher != nil {
		defer auditPublisher.Close()
	}

	hasher := authservice.NewBcryptHasher()

	// Postgres when configured, in-memory (with seeded dev accounts)
	// otherwise.
	var users userstore.Store
	var attempts lockout.Store
	if db != nil {
		users = userstore.NewPostgres(db)
		attempts = lockout.NewPostgres(db)
	} else {
		mem := userstore.New()
		if err := userstore.SeedDefaultAdmins(context.Background(), mem, hasher); err != nil {
			log.Error("seeding default admins failed", "error", err)
			os.Exit(1)
		}
		users = mem
		attempts = lockout.NewInMemoryStore()
		log.Warn("no DATABASE_URL configured, using in-memory user store with default admin accounts")
	}

	var trl revocation.TokenRevocationList
	if redisClient != nil {
		trl = revocation.NewRedisTRL(redisClient.Client)
	} else {
		trl = revocation.NewInMemoryTRL()
	}

	guardOpts := []lockout.Option{
		lockout.WithLogger(log),
		lockout.WithMetrics(m),
		lockout.WithConfig(lockout.Config{
			MaxAttempts:     cfg.MaxLoginAttempts,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
	if auditPublisher != nil {
		guardOpts = append(guardOpts, lockout.WithAuditPublisher(auditPublisher))
	}
	guard, err := lockout.NewGuard(attempts, guardOpts...)
	if err != nil {
		log.Error("lockout guard init failed", "error", err)
		os.Exit(1)
	}

	codec := token.NewCodec(cfg.JWTSigningKey, "adminauth", cfg.SessionTimeout)

	opts := []authservice.Option{
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithRevocationList(trl),
	}
	if auditPublisher != nil {
		opts = append(opts, authservice.WithAuditPublisher(auditPublisher))
	}
	auth, err := authservice.New(users, guard, codec, hasher, opts...)
	if err != nil {
		log.Error("auth service init failed", "error", err)
		os.Exit(1)
	}

	handler := httptransport.New(auth, log)
	router := httptransport.NewRouter(handler, log, m, checks...)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting admin auth service", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
