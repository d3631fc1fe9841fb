package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planner/internal/auth"
	"planner/internal/server"
	"planner/internal/storage/sqlite"
	"planner/internal/util"
)

func main() {
	addrFlag := flag.String("addr", util.EnvOrDefault("PLANNER_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("PLANNER_DB_PATH", "data/planner.db"), "Path to sqlite database file")
	staticFlag := flag.String("static", util.EnvOrDefault("PLANNER_STATIC_DIR", "web/dist"), "Directory with built frontend")
	uploadsFlag := flag.String("uploads", util.EnvOrDefault("PLANNER_UPLOADS_DIR", "data/uploads"), "Directory for uploaded backgrounds")
	secretFlag := flag.String("jwt-secret", util.EnvOrDefault("PLANNER_JWT_SECRET", ""), "Secret for signing access tokens")
	ttlFlag := flag.Duration("token-ttl", auth.DefaultTokenTTL, "Access token lifetime")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *secretFlag == "" {
		logger.Error("PLANNER_JWT_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(server.Config{
		Store:      store,
		Tokens:     auth.NewTokens(*secretFlag, *ttlFlag),
		Google:     &auth.TokenInfoVerifier{},
		Logger:     logger,
		StaticDir:  *staticFlag,
		UploadsDir: *uploadsFlag,
	})

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
