package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/atsuhiron/lite-dist2-go/internal/clock"
	"github.com/atsuhiron/lite-dist2-go/internal/config"
	"github.com/atsuhiron/lite-dist2-go/internal/httpserver"
	"github.com/atsuhiron/lite-dist2-go/internal/infrastructure/logger"
	"github.com/atsuhiron/lite-dist2-go/internal/storage/pgstore"
	"github.com/atsuhiron/lite-dist2-go/internal/storage/snapshot"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the table config JSON file")
		port       = flag.Int("port", 0, "Server port (overrides config)")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadTableConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Port = *port
	}

	log := logger.Setup(cfg.LogLevel)
	log.Info("starting table node",
		"port", cfg.Port,
		"curriculum_path", cfg.CurriculumPath,
		"save_period_seconds", cfg.CurriculumSavePeriodSeconds,
	)

	clk := clock.Real{}
	store := snapshot.NewStore(cfg.CurriculumPath)
	cur, err := store.LoadOrCreate(clk)
	if err != nil {
		// Snapshot corruption is unrecoverable at startup.
		log.Error("failed to load curriculum snapshot", "error", err)
		os.Exit(1)
	}
	log.Info("curriculum loaded", "summaries", len(cur.ToSummaries()))

	var archive *pgstore.Archive
	if cfg.ArchiveDSN != "" {
		archive = pgstore.New(cfg.ArchiveDSN)
		if err := archive.InitSchema(context.Background()); err != nil {
			log.Error("failed to initialize archive schema", "error", err)
			os.Exit(1)
		}
		defer archive.Close()
		log.Info("study archive enabled")
	}

	hub := httpserver.NewHub(log)
	go hub.Run()

	accessLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
	srv := httpserver.NewServer(cur, hub, log, accessLog, cfg.DefaultTimeoutMinutes)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Periodic maintenance: migrate finished studies, sync the archive,
	// snapshot the curriculum, and push a summary broadcast. Save errors
	// are logged and retried on the next tick.
	stopTicker := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SavePeriod())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cur.MigrateDone()
				if archive != nil {
					if err := archive.Sync(context.Background(), cur.StoragesCopy()); err != nil {
						log.Error("archive sync failed", "error", err)
					}
				}
				if err := store.Save(cur); err != nil {
					log.Error("curriculum save failed", "error", err)
				}
				hub.BroadcastSummaries(cur.ToSummaries())
			case <-stopTicker:
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down table node...")
	close(stopTicker)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	cur.MigrateDone()
	if err := store.Save(cur); err != nil {
		log.Error("final curriculum save failed", "error", err)
		os.Exit(1)
	}
	log.Info("table node exited gracefully")
}
