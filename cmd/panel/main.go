package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"minihost-license/internal/config"
	"minihost-license/internal/database"
	"minihost-license/internal/licenseclient"
	"minihost-license/internal/logging"
	"minihost-license/internal/panel"
)

func main() {
	cfg, err := config.LoadPanel()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Setup(cfg.LogLevel, os.Getenv("PANEL_LOG_CONSOLE") != "")

	db, err := database.Open(database.DriverSQLite, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open panel database")
	}
	defer database.Close(db)
	if err := database.MigratePanel(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate panel database")
	}

	settings := panel.NewSettings(db)
	client := licenseclient.New(licenseclient.WithTimeout(cfg.LicenseTimeout))
	gate := panel.NewGate(*cfg, settings, client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := gate.State(ctx)
	log.Info().Str("machine_id", st.MachineID).Bool("active", st.Active).Str("message", st.Message).Msg("License status")

	h := panel.NewHandler(gate, settings, panel.NewCommandReloader(cfg.ReloadCommand, 30*time.Second))
	app := panel.NewApp(h, true)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down panel")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().Str("listen", cfg.Listen).Msg("Panel starting")
	if err := app.Listen(cfg.Listen); err != nil {
		log.Fatal().Err(err).Msg("Panel stopped")
	}
}
