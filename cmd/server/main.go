package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/api"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/bots"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/config"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/logging"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/store"
)

// roundIntermission is the pause between a round ending on the clock and
// the next one starting.
const roundIntermission = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	hub := api.NewHub()
	engines := engine.NewRegistry(logging.Component(logger, "engine"))
	mgr := session.NewManager(st, hub, engines, logging.Component(logger, "session"))

	var dispatcher *bots.Dispatcher
	if cfg.Bots.Enabled {
		dispatcher = bots.NewDispatcher(mgr, bots.Config{
			DAMinInterval: cfg.Bots.DAMinInterval,
			DAMaxInterval: cfg.Bots.DAMaxInterval,
		}, logging.Component(logger, "bots"))
		mgr.SetHooks(dispatcher)
	}

	// When a round's clock runs out: end it, then either start the next
	// round after a short intermission or close out the session.
	mgr.OnRoundExpired(func(sessionCode, roundID string) {
		log := logger.WithFields(logrus.Fields{"session": sessionCode, "round": roundID})
		if err := mgr.EndRound(roundID); err != nil {
			log.WithError(err).Warn("failed to end expired round")
			return
		}

		sess, err := mgr.Session(sessionCode)
		if err != nil {
			return
		}
		next := 0
		for _, r := range sess.Rounds() {
			if r.Status == session.StatusWaiting {
				next = r.Number
				break
			}
		}
		if next == 0 {
			if err := mgr.End(sessionCode); err != nil {
				log.WithError(err).Warn("failed to complete session")
			}
			return
		}

		time.AfterFunc(roundIntermission, func() {
			if err := mgr.StartRound(sessionCode, next); err != nil {
				log.WithError(err).WithField("next", next).Warn("failed to start next round")
			}
		})
	})

	server := api.NewServer(mgr, hub, cfg, logging.Component(logger, "api"))

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr": cfg.Server.Addr,
			"db":   cfg.Database.Path,
			"bots": cfg.Bots.Enabled,
		}).Info("starting econ-games server")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	if dispatcher != nil {
		dispatcher.Shutdown()
	}
	server.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown error")
	}

	if err := st.Close(); err != nil {
		logger.WithError(err).Warn("database close error")
	}
	logger.Info("shutdown complete")
}
