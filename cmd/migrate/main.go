package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/logging"
)

// migrate はデータベースに接続してスキーマを適用し、Ping で疎通を確認します。
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("エラー: 設定の読み込みに失敗しました: %v", err)
	}
	if cfg.DatabaseDriver == database.DriverMemory {
		log.Fatal("エラー: DATABASE_DRIVER が memory です。postgres か sqlite3 を指定してください。")
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("エラー: ロガーの初期化に失敗しました: %v", err)
	}
	defer logger.Sync()

	fmt.Printf("データベース接続を試行中 (%s)...\n", cfg.DatabaseDriver)
	svc, err := database.NewDatabaseService(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		logger.Fatal("ping failed", zap.Error(err))
	}

	var version string
	query := "SELECT version()"
	if svc.Driver() == database.DriverSQLite {
		query = "SELECT sqlite_version()"
	}
	if err := svc.DB.QueryRowContext(ctx, query).Scan(&version); err != nil {
		logger.Warn("failed to read database version", zap.Error(err))
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}
	fmt.Println("成功: スキーマを適用し、Pingが成功しました！")
}
