package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/adapter/chromedp_driver"
	"github.com/user/steam-claimer/internal/adapter/feed"
	"github.com/user/steam-claimer/internal/adapter/jsonfile"
	"github.com/user/steam-claimer/internal/adapter/notify"
	"github.com/user/steam-claimer/internal/adapter/postgres"
	"github.com/user/steam-claimer/internal/adapter/prompt"
	redis_adapter "github.com/user/steam-claimer/internal/adapter/redis"
	"github.com/user/steam-claimer/internal/adapter/screenshot"
	"github.com/user/steam-claimer/internal/delivery/http/handler"
	"github.com/user/steam-claimer/internal/delivery/http/router"
	"github.com/user/steam-claimer/internal/repository"
	"github.com/user/steam-claimer/internal/usecase"
	"github.com/user/steam-claimer/pkg/config"
	"github.com/user/steam-claimer/pkg/metrics"
)

// runApp wires one claiming run and returns its completion code.
func runApp(ctx context.Context, cfg *config.Config, exit *usecase.ExitStatus, log *zap.Logger) int {
	// --- Metrics ---
	reg := newRegistry()
	m := metrics.New(reg)

	// --- Notifications ---
	var notifier repository.Notifier = notify.NewLog(log)
	if cfg.NotifyURL != "" {
		notifier = notify.NewWebhook(cfg.NotifyURL, cfg.NotifyTitle, log)
	}

	// --- Ledger ---
	store, closeStore, err := openLedgerStore(ctx, cfg, log)
	if err != nil {
		return usecase.ReportFailure(ctx, fmt.Errorf("failed to open ledger: %w", err), exit, notifier, 0, log)
	}
	defer closeStore()

	// --- Status server ---
	if cfg.StatusAddr != "" {
		server := newStatusServer(cfg.StatusAddr, store, m, reg, log)
		go func() {
			log.Info("status server started", zap.String("addr", cfg.StatusAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("status server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	// --- Browser ---
	log.Info("starting browser", zap.String("profile", cfg.BrowserDir), zap.Bool("headless", cfg.Headless()))
	driver, err := chromedp_driver.New(chromedp_driver.Options{
		Headless:          cfg.Headless(),
		UserDataDir:       cfg.BrowserDir,
		Width:             cfg.Width,
		Height:            cfg.Height,
		NavigationTimeout: cfg.Timeout(),
		Logger:            log.Named("browser"),
	})
	if err != nil {
		return usecase.ReportFailure(ctx, fmt.Errorf("failed to start browser: %w", err), exit, notifier, 0, log)
	}
	defer driver.Close()

	// --- Use cases ---
	timeouts := usecase.Timeouts{
		Short: cfg.ShortTimeout(),
		Page:  cfg.Timeout(),
		Login: cfg.LoginTimeout(),
	}

	var shots repository.ScreenshotStore
	if cfg.ScreenshotsDir != "0" {
		shots = screenshot.NewStore(cfg.ScreenshotsDir)
	}

	ageGate := usecase.NewAgeGateResolver(driver, log.Named("agegate"))
	claimer := usecase.NewClaimer(driver, ageGate, shots, timeouts, m, log.Named("claimer"), usecase.ClaimerOptions{DryRun: cfg.DryRun})
	feeds := feed.NewClient(cfg.FlatFeedURL, cfg.GiveawayFeedURL, &http.Client{Timeout: cfg.Timeout()})

	var sources []usecase.CatalogSource
	if cfg.FlatFeedEnabled {
		sources = append(sources, usecase.NewFlatListSource(feeds, claimer, time.Now, m, log))
	}
	if cfg.GiveawayFeedEnabled {
		sources = append(sources, usecase.NewRedirectSource(feeds, driver, claimer, ageGate, timeouts, m, log))
	}

	creds := prompt.NewCredentials(cfg.SteamUsername, cfg.SteamPassword)
	guard := usecase.NewLoginGuard(driver, creds, cfg.LoginAttempts, timeouts, log.Named("login"))

	controller := usecase.NewRunController(guard, sources, store, jsonfile.NewExporter(cfg.DataDir), notifier, exit, m, log)
	return controller.Run(ctx)
}

// openLedgerStore connects the backend selected by LEDGER_BACKEND.
func openLedgerStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.LedgerStore, func(), error) {
	switch cfg.LedgerBackend {
	case "", "file":
		log.Info("using file ledger", zap.String("path", cfg.LedgerPath()))
		return jsonfile.NewLedgerStore(cfg.LedgerPath()), func() {}, nil

	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, nil, errors.New("POSTGRES_URL is required for the postgres ledger")
		}
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		store := postgres.NewLedgerStore(dbpool)
		if err := store.EnsureSchema(ctx); err != nil {
			dbpool.Close()
			return nil, nil, fmt.Errorf("failed to create ledger table: %w", err)
		}
		log.Info("PostgreSQL connection pool established")
		return store, dbpool.Close, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("unable to connect to redis: %w", err)
		}
		log.Info("Redis connection established", zap.String("addr", cfg.RedisAddr))
		return redis_adapter.NewLedgerStore(rdb), func() { _ = rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newStatusServer(addr string, store repository.LedgerStore, m *metrics.Metrics, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      router.New(handler.NewHandler(store, log.Named("http")), m, reg, log.Named("http")),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
