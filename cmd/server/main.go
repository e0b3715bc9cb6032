// Command server runs the engagement scoring backend: the HTTP API that
// ingests message events, maintains ratings, streaks, and ranks, and serves
// group leaderboards.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/grouprank/go-rank-backend/internal/cache"
	"github.com/grouprank/go-rank-backend/internal/config"
	httpapi "github.com/grouprank/go-rank-backend/internal/http"
	"github.com/grouprank/go-rank-backend/internal/notify"
	"github.com/grouprank/go-rank-backend/internal/observability"
	"github.com/grouprank/go-rank-backend/internal/repo"
	"github.com/grouprank/go-rank-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := repo.SeedDefaults(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("seeding reference tables failed")
	}

	loc, err := cfg.ReferenceLocation()
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.ReferenceTZ).Msg("reference timezone unavailable")
	}

	deps := httpapi.Deps{ReferenceLoc: loc}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; stats cache disabled")
		} else {
			deps.StatsCache = cache.NewStatsCache(rdb, cfg.StatsCacheTTL)
			defer rdb.Close()
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.StatsCacheTTL).Msg("stats cache enabled")
		}
	}

	if cfg.Notify.BotToken != "" {
		deps.Notifier = notify.NewTelegramNotifier(cfg.Notify)
		log.Info().Msg("rank notifications enabled")
	} else {
		deps.Notifier = notify.NopNotifier{}
		log.Info().Msg("no bot token configured; rank notifications disabled")
	}

	if cfg.IngestToken == "" {
		log.Warn().Msg("INGEST_TOKEN is empty; ingest and stats endpoints will reject all requests")
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
