package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"

	"github.com/Derecoder4/Freelance-Fi/internal/config"
	"github.com/Derecoder4/Freelance-Fi/internal/db"
	domainRepo "github.com/Derecoder4/Freelance-Fi/internal/domain/repository"
	"github.com/Derecoder4/Freelance-Fi/internal/goroutine"
	httpHandlers "github.com/Derecoder4/Freelance-Fi/internal/http/handlers"
	httpRouter "github.com/Derecoder4/Freelance-Fi/internal/http/router"
	"github.com/Derecoder4/Freelance-Fi/internal/logger"
	"github.com/Derecoder4/Freelance-Fi/internal/metrics"
	"github.com/Derecoder4/Freelance-Fi/internal/repository"
	"github.com/Derecoder4/Freelance-Fi/internal/repository/memory"
	"github.com/Derecoder4/Freelance-Fi/internal/service"
	"github.com/Derecoder4/Freelance-Fi/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile, storage, migrations, port string

	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "путь к .env файлу")
	flagSet.StringVar(&storage, "storage", "", "хранилище: postgres или memory (переопределяет STORAGE_BACKEND)")
	flagSet.StringVar(&migrations, "migrations", "", "каталог SQL миграций (переопределяет MIGRATIONS_PATH)")
	flagSet.StringVar(&port, "port", "", "HTTP порт (переопределяет HTTP_PORT)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("main: ошибка загрузки конфигурации: %w", err)
	}
	if storage != "" {
		cfg.StorageBackend = storage
	}
	if migrations != "" {
		cfg.MigrationsPath = migrations
	}
	if port != "" {
		cfg.HTTPPort = port
	}

	logger.Setup(cfg.Env)
	log := logger.Log

	var (
		dbConn *sqlx.DB
		gigs   domainRepo.GigRepository
		ledger domainRepo.LedgerRepository
	)
	switch cfg.StorageBackend {
	case config.StorageBackendMemory:
		if cfg.IsProduction() {
			return errors.New("main: хранилище в памяти недоступно в production")
		}
		store := memory.NewStore()
		gigs, ledger = store, store
		log.Warn("main: используется хранилище в памяти, данные не переживут перезапуск")
	case config.StorageBackendPostgres:
		dbConn, err = db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("main: ошибка подключения к базе: %w", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("main: ошибка миграций: %w", err)
		}
		gigs = repository.NewGigRepository(dbConn)
		ledger = repository.NewLedgerRepository(dbConn)
	default:
		return fmt.Errorf("main: неизвестное хранилище %q", cfg.StorageBackend)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	appMetrics := metrics.New()

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	gigService := service.NewGigService(gigs, ledger, service.GigServiceConfig{
		Arbiter:      cfg.ArbiterAddress,
		WriteTimeout: cfg.WriteTimeout,
		AllowDeposit: !cfg.IsProduction(),
	}, appMetrics, hub)

	// HTTP хэндлеры.
	gigHandler := httpHandlers.NewGigHandler(gigService)
	accountHandler := httpHandlers.NewAccountHandler(gigService)
	authHandler := httpHandlers.NewAuthHandler(tokenManager, !cfg.IsProduction())
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, cfg.StorageBackend)

	engine := httpRouter.SetupRouter(cfg, gigHandler, accountHandler, authHandler, wsHandler, healthHandler, appMetrics.Handler(), tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	log.WithFields(map[string]interface{}{
		"port":    cfg.HTTPPort,
		"env":     cfg.Env,
		"storage": cfg.StorageBackend,
		"arbiter": cfg.ArbiterAddress.String(),
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("main: сервер завершился с ошибкой: %w", err)
	}
	return nil
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil && logger.Log != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
