package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/config"
	"github.com/iliyamo/theater-booking/internal/database"
	"github.com/iliyamo/theater-booking/internal/handler"
	"github.com/iliyamo/theater-booking/internal/logger"
	"github.com/iliyamo/theater-booking/internal/middleware"
	"github.com/iliyamo/theater-booking/internal/queue"
	"github.com/iliyamo/theater-booking/internal/repository"
	"github.com/iliyamo/theater-booking/internal/router"
	"github.com/iliyamo/theater-booking/internal/service"
	"github.com/iliyamo/theater-booking/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "production", os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.Env, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	users := repository.NewUserRepo(db, cfg.BcryptCost, cfg.Password.Policy())
	roles := repository.NewRoleRepo(db)
	theaters := repository.NewTheaterRepo(db)

	// Redis is optional: without it sessions live in MySQL and caching
	// and rate limiting are off.
	rdb := config.NewRedisClient(cfg.Redis)
	var sessions service.SessionStore = repository.NewSessionRepo(db)
	if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, "session")
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	} else {
		log.Warn().Str("addr", cfg.Redis.Addr).Msg("redis unavailable, using database sessions")
	}

	events, stopAudit := startAudit(ctx, cfg.Audit, log)
	defer stopAudit()

	identity, err := service.NewIdentityService(users, roles, sessions, events, cfg.SessionSecret, cfg.SessionTTL, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("identity service")
	}
	userSvc := service.NewUserService(users, roles, sessions, events)
	theaterSvc := service.NewTheaterService(theaters, events)

	if cfg.SeedEnabled {
		seed := &service.Bootstrap{Users: users, Roles: roles, Theaters: theaters, Log: log}
		if err := seed.Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("seed data")
		}
	}

	e := router.New(router.Deps{
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
		Resolver:       identity,
		CookieName:     cfg.CookieName,
		Cache:          middleware.NewResponseCache(cfg.Cache, rdb),
		RateLimit:      middleware.RateLimit(cfg.RateLimit, rdb),
		DB:             db,
		Auth: handler.NewAuthHandler(identity, userSvc, handler.CookieConfig{
			Name:   cfg.CookieName,
			Secure: !cfg.IsDevelopment(),
		}),
		Users:    handler.NewUserHandler(userSvc),
		Theaters: handler.NewTheaterHandler(theaterSvc),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("bye")
}

// startAudit publishes audit events through a bounded worker pool and
// starts the consumer that appends them to the audit log.
func startAudit(ctx context.Context, cfg config.AuditConfig, log zerolog.Logger) (queue.Publisher, func()) {
	if !cfg.Enabled {
		return queue.NopPublisher{}, func() {}
	}
	d := queue.NewDispatcher(queue.NewAMQPPublisher(cfg.URL, cfg.Queue), 2, 256, 5*time.Second, log)
	d.Start()

	c := &queue.Consumer{URL: cfg.URL, Queue: cfg.Queue, Dir: cfg.LogDir, Log: log}
	go func() {
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("audit consumer stopped")
		}
	}()
	log.Info().Str("queue", cfg.Queue).Msg("audit trail enabled")
	return d, d.Stop
}
