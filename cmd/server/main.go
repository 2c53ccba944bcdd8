package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"poolside/internal/adapters/bookingapi"
	web "poolside/internal/adapters/http"
	"poolside/internal/adapters/http/perf"
	"poolside/internal/adapters/storage"
	auditStore "poolside/internal/adapters/storage/audit"
	"poolside/internal/adapters/view"
	"poolside/internal/config"
	"poolside/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "poolside:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, flush, err := logging.Init(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer flush()

	// WAL mode and busy timeout for the audit log
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(4)
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	client, err := bookingapi.New(cfg.UpstreamURL,
		// UPSTREAM_TIMEOUT is an operator opt-in; zero means no client timeout.
		bookingapi.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		bookingapi.WithCollector(collector),
	)
	if err != nil {
		return err
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	csrfKey, err := cfg.CSRFKey()
	if err != nil {
		return err
	}

	front := web.New(web.Deps{
		Client:    client,
		Audit:     auditStore.NewSQLiteStore(db),
		Collector: collector,
		Renderer:  renderer,
	}, web.Options{
		CSRFKey:        csrfKey,
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: cfg.TrustedOrigins,
		RatePerSecond:  cfg.RatePerSecond,
		RateBurst:      cfg.RateBurst,
		SlowRequestMs:  cfg.SlowRequestMs,
		SuccessTTL:     cfg.SuccessTTL,
		ViewerIdle:     cfg.ViewerIdle,
		TimetableDays:  cfg.TimetableDays,
		AdminToken:     cfg.AdminToken,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go front.RunJanitor(ctx, time.Minute)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           front.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_starting",
			zap.String("version", version),
			zap.String("addr", cfg.Addr),
			zap.String("env", cfg.Env),
			zap.String("upstream", client.BaseURL()),
			zap.Int("schema", storage.LatestSchemaVersion()),
			zap.Bool("admin", cfg.AdminToken != ""),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
