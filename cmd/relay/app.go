package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/relay-service/internal/adapter/editor135"
	"github.com/user/relay-service/internal/adapter/httpfetch"
	"github.com/user/relay-service/internal/adapter/postgres"
	redis_adapter "github.com/user/relay-service/internal/adapter/redis"
	"github.com/user/relay-service/internal/adapter/weixin96"
	"github.com/user/relay-service/internal/repository"
	"github.com/user/relay-service/internal/usecase"
	"github.com/user/relay-service/pkg/config"
	"github.com/user/relay-service/pkg/logger"
	"github.com/user/relay-service/pkg/metrics"
	"go.uber.org/zap"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	rdb *redis.Client
	db  *pgxpool.Pool

	store      *usecase.SessionStore
	sessions   *usecase.SessionManager
	saver      usecase.Saver
	extractor  usecase.Extractor
	publishLog repository.PublishLogRepository
}

// newApp loads configuration and wires the service. Redis is required;
// Postgres only when POSTGRES_URL is set.
func newApp(ctx context.Context) (*app, error) {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("could not build logger: %w", err)
	}

	// --- Metrics ---
	metrics.Init()

	a := &app{cfg: cfg, logger: log}

	// --- Redis ---
	a.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		a.close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Info("redis connection established", zap.String("addr", cfg.RedisAddr))

	// --- PostgreSQL (optional) ---
	if cfg.PostgresURL != "" {
		a.db, err = postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			a.close()
			return nil, err
		}
		pgLog := postgres.NewPublishLogRepo(a.db)
		if err := pgLog.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("unable to create publish log schema: %w", err)
		}
		a.publishLog = pgLog
		log.Info("postgres publish log enabled")
	} else {
		log.Info("POSTGRES_URL not set, publish log disabled")
	}

	// --- Platform agents ---
	agents := httpfetch.NewUserAgents()
	e135, err := editor135.New(cfg.Editor135BaseURL, log,
		editor135.WithTimeout(cfg.PublishTimeout()),
		editor135.WithTransferTimeout(cfg.TransferTimeout()),
		editor135.WithUserAgents(agents),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	w96, err := weixin96.New(cfg.Weixin96BaseURL, log,
		weixin96.WithTimeout(cfg.PublishTimeout()),
		weixin96.WithUserAgents(agents),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	// --- Use Cases ---
	a.store = usecase.NewSessionStore(redis_adapter.NewSessionRepo(a.rdb), cfg.SessionTTL(), log)
	a.sessions = usecase.NewSessionManager(a.store, cfg, []repository.LoginAgent{e135, w96}, e135, e135, log)
	a.saver = usecase.NewSaveUseCase(a.store, a.sessions, []repository.PublishAgent{e135, w96}, a.publishLog,
		usecase.SavePolicy{ReloginOnStaleSession: cfg.ReloginOnStaleSession}, log)
	a.extractor = newExtractor(cfg, log, agents)

	return a, nil
}

func newExtractor(cfg *config.Config, log *zap.Logger, agents *httpfetch.UserAgents) usecase.Extractor {
	fetcher := httpfetch.NewFetcher(log,
		httpfetch.WithTimeout(cfg.FetchTimeout()),
		httpfetch.WithUserAgents(agents),
	)
	return usecase.NewExtractUseCase(fetcher, cfg.DefaultSelector, log)
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.logger.Sync()
}
