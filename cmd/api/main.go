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

	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/logging"
	profile "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/profile"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗しました: %v", err)
	}
	defer logger.Sync()

	repo, err := database.NewRepository(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to open repository", zap.Error(err))
	}
	defer repo.Close()

	profiles := profile.NewProfileService(repo, logger)
	sessions := tetris.NewSessionManager(tetris.SessionManagerConfig{
		TickRate: cfg.TickRate,
		Results:  repo,
		Coins:    profiles,
		Logger:   logger,
	})
	go sessions.Run()

	router := api.NewRouter(api.RouterDeps{
		Sessions:       sessions,
		Repository:     repo,
		Profiles:       profiles,
		Auth:           middleware.NewAuthenticator(cfg.JWTSecret, cfg.BypassAuth, logger),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("database_driver", cfg.DatabaseDriver),
			zap.Int("tick_rate", cfg.TickRate),
			zap.Bool("bypass_auth", cfg.BypassAuth))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	// WebSocket はハイジャック済みで srv.Shutdown では閉じないため、ここで切断する
	sessions.Shutdown()
	logger.Info("server stopped")
}
