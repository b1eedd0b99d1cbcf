package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/protask?sslmode=disable"
	}

	logCfg := logger.DefaultConfig()
	logCfg.FilePath = os.Getenv("PROTASK_LOG_FILE")
	logCfg.Console = true
	if lvl := os.Getenv("PROTASK_LOG_LEVEL"); lvl != "" {
		logCfg.Level = logger.ParseLevel(lvl)
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	var opts []server.Option
	if v := os.Getenv("PROTASK_UPLOAD_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Fatalf("Invalid PROTASK_UPLOAD_LIMIT %q: %v", v, err)
		}
		opts = append(opts, server.WithUploadLimit(n))
	}

	srv, err := server.New(dbURL, opts...)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	go func() {
		logger.Info("ProTask server starting", logger.F("port", port))
		if err := srv.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", logger.F("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", logger.F("error", err))
	}
	logger.Info("ProTask server stopped")
}
