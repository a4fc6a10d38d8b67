// Package main - точка входа HTTP API школьного хаба.
//
// Процесс поднимает REST API (учётные записи, ученики, оценки, рейтинг,
// перевод в следующий класс) и, если включено, фоновую задачу
// автоматического перевода.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schoolhub/school-hub/config"
	"github.com/schoolhub/school-hub/internal/application/authz"
	"github.com/schoolhub/school-hub/internal/application/command"
	"github.com/schoolhub/school-hub/internal/application/query"
	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/student"
	"github.com/schoolhub/school-hub/internal/domain/user"
	"github.com/schoolhub/school-hub/internal/infrastructure/auth"
	"github.com/schoolhub/school-hub/internal/infrastructure/persistence/memory"
	"github.com/schoolhub/school-hub/internal/infrastructure/persistence/postgres"
	"github.com/schoolhub/school-hub/internal/infrastructure/persistence/redis"
	"github.com/schoolhub/school-hub/internal/infrastructure/scheduler"
	"github.com/schoolhub/school-hub/internal/infrastructure/scheduler/jobs"
	"github.com/schoolhub/school-hub/internal/infrastructure/service"
	httpapi "github.com/schoolhub/school-hub/internal/interface/http"
	"github.com/schoolhub/school-hub/internal/interface/http/handlers"
	"github.com/schoolhub/school-hub/pkg/logger"
	"github.com/schoolhub/school-hub/pkg/retry"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// storage - выбранные реализации репозиториев.
type storage struct {
	name     string
	students student.Repository
	results  result.Repository
	users    user.Repository
	locker   command.BatchLocker
	checks   map[string]handlers.Pinger
	closers  []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting school hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"storage", cfg.App.Storage,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	store, err := setupStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. СЕРВИСЫ И ОБРАБОТЧИКИ
	// ─────────────────────────────────────────────────────────────────────────
	clock := timeutil.SystemClock{}
	ids := service.NewIDGenerator()
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, clock)

	autoPromotion := command.NewRunAutoPromotionHandler(
		store.students,
		query.NewGetPerformanceHandler(store.results),
		store.locker,
		log,
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version, store.name)
	for name, p := range store.checks {
		health.AddCheck(name, handlers.NewPingCheck(p))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Promotion.Enabled {
		sched = scheduler.New(scheduler.Config{Logger: log, Clock: clock})
		job := jobs.NewAutoPromotionJob(autoPromotion, clock, log)
		if err := sched.Register(job, scheduler.NewIntervalSchedule(cfg.Promotion.Interval, cfg.Promotion.RunAtStart)); err != nil {
			return fmt.Errorf("failed to register promotion job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		health.SetJobSource(jobStatuses(sched))
	} else {
		log.Info("automatic promotion job disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP API
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.Version = cfg.App.Version

	server := httpapi.NewServer(httpCfg, httpapi.Dependencies{
		RegisterUser:        command.NewRegisterUserHandler(store.users, hasher, ids, clock),
		LoginUser:           command.NewLoginUserHandler(store.users, hasher, tokens),
		CreateStudent:       command.NewCreateStudentHandler(store.students, store.users, ids, clock),
		SubmitResult:        command.NewSubmitResultHandler(store.students, store.results, ids, clock),
		RunAutoPromotion:    autoPromotion,
		PromoteStudent:      command.NewPromoteStudentHandler(store.students, clock),
		ListStudents:        query.NewListStudentsHandler(store.students),
		ListResults:         query.NewListResultsHandler(store.students, store.results),
		GetClassLeaderboard: query.NewGetClassLeaderboardHandler(store.students, store.results),
		Authorizer:          authz.New(nil, store.users, store.students),
		Tokens:              tokens,
		Clock:               clock,
		Logger:              logger.FromSlog(log).With(logger.Component("http")),
		HealthChecker:       health,
	})

	serverErr := server.StartAsync()
	log.Info("http api listening", "address", httpCfg.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ОЖИДАНИЕ СИГНАЛА И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			log.Error("scheduler stop failed", "error", err)
		}
	}

	log.Info("school hub stopped")
	return runErr
}

// jobStatuses отдаёт состояние задач планировщика для /health.
func jobStatuses(sched *scheduler.Scheduler) func() []handlers.JobStatus {
	return func() []handlers.JobStatus {
		infos := sched.ListJobs()
		out := make([]handlers.JobStatus, 0, len(infos))
		for _, info := range infos {
			st := handlers.JobStatus{
				Name:      info.Name,
				Schedule:  info.Schedule,
				Running:   info.Running,
				NextRun:   info.NextRun,
				RunCount:  info.RunCount,
				FailCount: info.FailCount,
			}
			if !info.LastRun.IsZero() {
				lastRun := info.LastRun
				st.LastRun = &lastRun
			}
			if info.LastResult != nil && info.LastResult.Error != nil {
				st.LastError = info.LastResult.Error.Error()
			}
			out = append(out, st)
		}
		return out
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STORAGE
// ══════════════════════════════════════════════════════════════════════════════

func setupStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage, error) {
	store := &storage{name: string(cfg.App.Storage), checks: make(map[string]handlers.Pinger)}

	switch cfg.App.Storage {
	case config.StorageMemory:
		db := memory.NewDB()
		store.students = memory.NewStudentRepository(db)
		store.results = memory.NewResultRepository(db)
		store.users = memory.NewUserRepository(db)
		log.Warn("using in-memory storage, data is lost on restart")

	case config.StoragePostgres:
		conn, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, conn.Close)
		store.checks["postgres"] = conn
		store.students = postgres.NewStudentRepository(conn)
		store.results = postgres.NewResultRepository(conn)
		store.users = postgres.NewUserRepository(conn)

	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.App.Storage)
	}

	if cfg.Redis.Enabled {
		rcfg := redis.DefaultConfig()
		rcfg.Host = cfg.Redis.Host
		rcfg.Port = cfg.Redis.Port
		rcfg.Password = cfg.Redis.Password
		rcfg.DB = cfg.Redis.DB

		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			store.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store.closers = append(store.closers, func() { _ = client.Close() })
		store.checks["redis"] = client
		store.locker = redis.NewBatchLocker(client, cfg.Redis.LockTTL)
		log.Info("promotion batches locked through redis", "addr", rcfg.Addr())
	} else {
		store.locker = memory.NewBatchLocker()
	}

	return store, nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*postgres.Connection, error) {
	opts := postgres.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	retrier := retry.ConnectRetrier(cfg.Database.ConnectAttempts, func(attempt int, err error, delay time.Duration) {
		log.Warn("postgres not reachable, retrying",
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
	})

	var conn *postgres.Connection
	err := retrier.Do(ctx, func(ctx context.Context) error {
		c, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, opts)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	log.Info("connected to postgres")

	if cfg.Database.AutoMigrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		log.Info("database migrations applied")
	}

	return conn, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает общий slog-логгер. HTTP-слой пишет через тот же handler.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}

	// JSON для production, текст для локальной разработки
	opts.Format = cfg.Observability.LogFormat
	if cfg.App.Environment == config.EnvProduction {
		opts.Format = "json"
	}

	log := slog.New(logger.NewHandler(opts))
	slog.SetDefault(log)

	return log
}
