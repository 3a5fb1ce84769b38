package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"service-scheduler/internal/app"
	"service-scheduler/internal/config"
	servicemigrations "service-scheduler/migrations"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	debugf := func(format string, args ...any) {
		if cfg.DebugEnabled() {
			logger.Printf("[DEBUG] "+format, args...)
		}
	}

	debugf("config loaded: http_addr=%s db_max_open=%d db_max_idle=%d db_conn_max_lifetime=%s cache_enabled=%t rabbitmq_enabled=%t",
		cfg.HTTPAddr,
		cfg.DB.MaxOpenConns,
		cfg.DB.MaxIdleConns,
		cfg.DB.ConnMaxLifetime,
		cfg.Cache.Enabled,
		cfg.RabbitMQ.Enabled,
	)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	debugf("database connection successful")

	if err := servicemigrations.Up(db); err != nil {
		logger.Fatalf("failed to run migrations: %v", err)
	}
	debugf("migrations completed successfully")

	application, err := app.New(db, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build application: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if publisher := application.OutboxPublisher(); publisher != nil {
		defer publisher.Close()
		go publisher.Run(shutdownCtx)
		debugf("outbox relay started: queue=%s interval=%s", cfg.RabbitMQ.Queue, cfg.RabbitMQ.RelayInterval)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           application.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Printf("http shutdown error: %v", err)
		}
	}()

	logger.Printf("service-scheduler listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http server error: %v", err)
	}
}
