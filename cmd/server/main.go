package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"minihost-license/internal/config"
	"minihost-license/internal/database"
	"minihost-license/internal/handler"
	"minihost-license/internal/logging"
	"minihost-license/internal/metrics"
	"minihost-license/internal/service"
	"minihost-license/internal/store"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Setup(cfg.LogLevel, os.Getenv("LICENSE_LOG_CONSOLE") != "")

	if cfg.UsesDefaultToken() {
		log.Warn().Msg("LICENSE_API_TOKEN is the default value; set a real admin token")
	}

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close(db)
	if err := database.MigrateLicenseServer(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token issuer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger := store.New(db)
	deps := service.Dependencies{
		Store:   ledger,
		Auth:    service.NewAdminAuth(cfg.APIToken, cfg.APITokenHash),
		Metrics: metrics.New(reg),
	}

	sheetSync, err := service.NewSheetSyncService(ctx, cfg.Sheets)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets mirror")
	}
	if sheetSync != nil {
		deps.Mirror = sheetSync
		go func() {
			syncCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			licenses, err := ledger.ListLicenses(syncCtx)
			if err == nil {
				err = sheetSync.SyncAll(syncCtx, licenses)
			}
			if err != nil {
				log.Error().Err(err).Msg("Initial sheets sync failed")
				return
			}
			log.Info().Int("licenses", len(licenses)).Msg("Sheets mirror synced")
		}()
	}

	licenses := service.NewLicenseService(deps)
	h := handler.New(licenses, service.NewAuditLog(db), tokens)
	app := handler.NewApp(h, handler.AppOptions{AccessLog: true, Gatherer: reg})

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down license server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().Str("listen", cfg.Listen).Str("driver", cfg.DBDriver).Msg("License server starting")
	if err := app.Listen(cfg.Listen); err != nil {
		log.Fatal().Err(err).Msg("License server stopped")
	}
	licenses.WaitMirror()
}
