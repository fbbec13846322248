package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pulselog/config"
	"pulselog/internal/storage"
	"pulselog/pkg/logger"
	"pulselog/router"
	"pulselog/socket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}
	logger.Init()
	defer logger.Log.Sync()

	cfg := config.Load()

	store, err := storage.Open(cfg.SnapshotPath)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open store: %v", err)
	}

	hub := socket.NewHub(store)
	go hub.Run()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go store.AutoFlush(ctx, cfg.FlushInterval)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router.Setup(cfg, store, hub),
	}

	go func() {
		logger.Sugar.Infof("Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Shutdown error: %v", err)
	}

	// One last flush so nothing recorded since the previous tick is lost.
	if err := store.Flush(); err != nil {
		logger.Sugar.Errorf("Final snapshot flush failed: %v", err)
	}
}
