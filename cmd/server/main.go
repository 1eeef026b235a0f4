package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookpos/internal/config"
	"bookpos/internal/infra"
	"bookpos/internal/repository"
	"bookpos/internal/router"
	"bookpos/internal/service"
	"bookpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON in production
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.JWTSecretGenerated {
		log.Warn().Msg("JWT_SECRET not set: using a random secret, sessions end on restart")
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settingsSvc := service.NewSettingsService(repository.NewSettingsRepository(db))
	if err := settingsSvc.SeedDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed settings")
	}

	// Background jobs need redis. Worker handlers are wired here (composition
	// root) so the pool has access to all infrastructure dependencies.
	var dispatcher service.ReceiptDispatcher
	var pool *worker.Pool
	if rdb != nil {
		d := worker.NewDispatcher(rdb)
		dispatcher = d
		mailer := infra.NewMailer(cfg)
		saleRepo := repository.NewSaleRepository(db)

		pool = worker.NewPool(rdb, cfg.WorkerPoolSize)
		pool.Handle(worker.QueueReceipt, worker.NewReceiptWorker(saleRepo, d, cfg.ShopName, cfg.ReceiptStoragePath))
		pool.Handle(worker.QueueEmail, worker.NewEmailWorker(mailer))
		pool.Start(ctx)

		reports := service.NewReportService(repository.NewReportRepository(db), repository.NewBookRepository(db))
		worker.StartDailyReport(ctx, worker.DailyReportConfig{
			Reports:     reports,
			Emails:      d,
			ShopName:    cfg.ShopName,
			StoragePath: cfg.ReceiptStoragePath,
			To:          cfg.ReportEmail,
			Hour:        cfg.ReportHour,
		})
	} else {
		log.Warn().Msg("REDIS_URL not set: price cache and background jobs disabled")
	}

	r := router.New(cfg, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("driver", cfg.DBDriver).Msgf("%s backend listening on :%d", cfg.ShopName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	cancel()
	if pool != nil {
		pool.Wait()
	}
	log.Info().Msg("server exited")
}
