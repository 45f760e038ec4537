package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pocketpet/api/internal/auth"
	"github.com/pocketpet/api/internal/config"
	"github.com/pocketpet/api/internal/database"
	"github.com/pocketpet/api/internal/handlers"
	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/memstore"
	"github.com/pocketpet/api/internal/metrics"
	"github.com/pocketpet/api/internal/middleware"
	redisClient "github.com/pocketpet/api/internal/redis"
	"github.com/pocketpet/api/internal/repository"
	"github.com/pocketpet/api/internal/router"
	"github.com/pocketpet/api/internal/scheduler"
	"github.com/pocketpet/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.WithField("config", cfg.String()).Info("starting virtual pet api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server failed")
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	checks := map[string]handlers.Pinger{}

	var (
		users    repository.UserRepository
		pets     repository.PetRepository
		sessions service.SessionStore = memstore.NewSessionStore()
		board    service.Leaderboard  = memstore.NewLeaderboard()
	)

	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := database.NewConnection(ctx, cfg.Database, logging.Component(log, "db"))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return err
		}
		users = repository.NewUserStore(db.DB)
		pets = repository.NewPetStore(db.DB)
		checks["postgres"] = db
	default:
		log.Warn("using in-memory storage; data is lost on restart")
		users = memstore.NewUserRepo()
		pets = memstore.NewPetRepo()
	}

	m := metrics.New()

	if cfg.Redis.Addr != "" {
		rdb, err := redisClient.NewClient(ctx, cfg.Redis, logging.Component(log, "redis"))
		if err != nil {
			return err
		}
		defer rdb.Close()

		sessions = rdb
		board = rdb
		checks["redis"] = rdb
		m.TrackActiveUsers(activeUsers(rdb, logging.Component(log, "redis")))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	accounts := service.NewAccounts(users, auth.NewHasher(0), tokens, sessions, log)
	petSvc := service.NewPets(users, pets, board, m, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logging.Component(log, "ratelimit"))
	go cleanupLimiter(ctx, limiter)

	if cfg.Decay.Schedule != "" {
		job, err := scheduler.NewDecayJob(cfg.Decay.Schedule, petSvc, log)
		if err != nil {
			return err
		}
		job.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			job.Stop(stopCtx)
		}()
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(router.Deps{
			Accounts:    accounts,
			Pets:        petSvc,
			Metrics:     m,
			RateLimiter: limiter,
			Health:      checks,
			Log:         log,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "storage": cfg.Storage}).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func activeUsers(rdb *redisClient.Client, log logrus.FieldLogger) func() float64 {
	return func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		n, err := rdb.GetActiveUsersCount(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to count active users")
			return 0
		}
		return float64(n)
	}
}

func cleanupLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup(10 * time.Minute)
		}
	}
}
