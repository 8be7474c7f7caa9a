package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cinematch/backend/internal/api"
	"github.com/cinematch/backend/internal/chat"
	"github.com/cinematch/backend/internal/config"
	"github.com/cinematch/backend/internal/engine"
	"github.com/cinematch/backend/internal/logging"
	"github.com/cinematch/backend/internal/storage"
)

const sessionSyncInterval = time.Minute

func main() {
	_ = godotenv.Load()

	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logging
	entry, err := logging.New(cfg.Log, "cinematch-api", os.Stderr)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	entry.Info("Starting CineMatch API Service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Artifacts -> engine
	artifacts := storage.NewFileStorage(cfg.Artifacts.CatalogPath(), cfg.Artifacts.VectorSpacePath())
	eng, err := engine.Load(ctx, artifacts, entry)
	if err != nil {
		entry.Fatalf("Failed to load recommender: %v", err)
	}

	// 4. Sessions
	sessions, closeSessions := openSessions(cfg.Sessions, entry)
	defer closeSessions()
	if err := sessions.SyncActiveSessions(ctx); err != nil {
		entry.Warnf("Active session sync failed: %v", err)
	}
	go sessions.WatchActiveSessions(ctx, sessionSyncInterval, entry)
	conv := chat.NewConversation(eng, sessions, cfg.Chat, entry, nil)

	// 5. API Server
	server := api.NewServer(eng, conv, cfg, entry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			entry.Errorf("API server stopped: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			entry.Errorf("Graceful shutdown failed: %v", err)
		}
	}
	entry.Info("CineMatch API Service stopped")
}

func openSessions(cfg config.SessionsConfig, log *logrus.Entry) (*storage.BadgerSessionStore, func()) {
	db, err := storage.OpenBadger(cfg.BadgerDir, cfg.InMemory)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	log.WithFields(logrus.Fields{
		"dir":       cfg.BadgerDir,
		"in_memory": cfg.InMemory,
		"ttl":       cfg.TTL.String(),
	}).Info("Session store opened")

	return storage.NewBadgerSessionStore(db, cfg.TTL), func() {
		if err := db.Close(); err != nil {
			log.Errorf("Failed to close session store: %v", err)
		}
	}
}
