// Package main is the entry point for the qlens circuit simulation
// service. It wires the archive database, execution backends, event
// bus, scheduled maintenance jobs, and the HTTP server, then blocks
// until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/qlens/qlens/internal/backends"
	"github.com/qlens/qlens/internal/backup"
	"github.com/qlens/qlens/internal/config"
	"github.com/qlens/qlens/internal/database"
	"github.com/qlens/qlens/internal/events"
	"github.com/qlens/qlens/internal/modules/runs"
	"github.com/qlens/qlens/internal/scheduler"
	"github.com/qlens/qlens/internal/server"
	"github.com/qlens/qlens/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger isn't up yet
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("max_qubits", cfg.MaxQubits).
		Msg("Starting qlens")

	// Archive database
	archiveDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "archive.db"),
		Profile: database.ProfileStandard,
		Name:    "archive",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open archive database")
	}
	defer archiveDB.Close()

	if err := archiveDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate archive database")
	}

	// Event bus and typed emitter
	bus := events.NewBus(log)
	eventManager := events.NewManager(bus, log)

	// Run archive repository
	runsRepo := runs.NewRepository(archiveDB.Conn(), log)

	// Execution backends: the in-process simulator is always present
	// and is the default; the remote client joins when configured.
	registry := backends.NewRegistry()
	registry.Register(backends.NewStatevector(cfg.MaxQubits, log))
	if cfg.Remote.URL != "" {
		registry.Register(backends.NewRemote(backends.RemoteConfig{
			BaseURL: cfg.Remote.URL,
			APIKey:  cfg.Remote.APIKey,
			Timeout: time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
		}, log))
		log.Info().Str("url", cfg.Remote.URL).Msg("Remote backend registered")
	}

	// Scheduled maintenance
	sched := scheduler.New(log)

	pruneJob := runs.NewPruneJob(runsRepo, eventManager, cfg.RetentionDays, log)
	if err := sched.AddJob("0 30 3 * * *", pruneJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule archive prune job")
	}

	checkpointJob := database.NewCheckpointJob(archiveDB, log)
	if err := sched.AddJob("@hourly", checkpointJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule WAL checkpoint job")
	}

	if cfg.Backup.Enabled {
		backupJob := backup.NewJob(archiveDB, cfg.Backup, eventManager, log)
		if err := sched.AddJob("0 0 4 * * *", backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule backup job")
		}
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Archive backup scheduled")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:          log,
		Config:       cfg,
		ArchiveDB:    archiveDB,
		RunsRepo:     runsRepo,
		Registry:     registry,
		Bus:          bus,
		EventManager: eventManager,
		DevMode:      cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
