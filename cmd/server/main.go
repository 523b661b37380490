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

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/auth"
	"github.com/edvart/inhouse-scheduler/internal/config"
	"github.com/edvart/inhouse-scheduler/internal/coordinator"
	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/push"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
	"github.com/edvart/inhouse-scheduler/internal/store"
	"github.com/edvart/inhouse-scheduler/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.SetupLogging(); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	if cfg.Database.Type != "postgres" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	db, err := store.Open(cfg.Database.Type, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var shuffler roster.Shuffler
	if cfg.ShuffleSeed != 0 {
		shuffler = roster.NewSeededShuffler(cfg.ShuffleSeed)
		log.WithField("seed", cfg.ShuffleSeed).Warn("Team shuffle is seeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord, err := coordinator.New(ctx, db, coordinator.Engines{
		Schedule: schedule.New(db, cfg.SessionTime),
		Roster:   roster.New(db, shuffler),
		MVP:      mvp.New(db, clockwork.NewRealClock(), cfg.MVP),
	})
	if err != nil {
		log.Fatalf("Failed to initialize coordinator: %v", err)
	}

	var pushService *push.Service
	svc := push.NewService(db, push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		VAPIDSubject:    cfg.VAPIDSubject,
	})
	if svc.Enabled() {
		pushService = svc
		go push.NewNotifier(pushService).Run(ctx, coord.Subscribe())
	} else {
		log.Info("VAPID keys not set. Push notifications are disabled.")
	}

	if cfg.RelayToken == "" {
		log.Warn("RELAY_TOKEN not set. Requests are trusted without a token.")
	}

	server := web.NewServer(
		coord,
		db,
		auth.NewRelay(cfg.RelayToken),
		auth.NewAdminConfig(cfg.AdminUserIDs),
		pushService,
		web.Config{MVPDefaults: cfg.MVP, AllowedOrigins: cfg.CORSOrigins},
	)

	go coord.Run(ctx)
	server.StartSSE(coord.Subscribe())

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		log.Info("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("HTTP server shutdown error")
		}
	}()

	log.WithFields(log.Fields{
		"port":     cfg.Port,
		"database": cfg.Database.Type,
	}).Info("Server running")

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}

	log.Info("Server stopped")
}
