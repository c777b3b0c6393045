package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // PostgreSQLドライバー
	_ "github.com/mattn/go-sqlite3" // SQLiteドライバー（ローカル開発用）
	"go.uber.org/zap"
)

// 対応しているデータベースドライバーです。
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ErrProfileNotFound はプロフィールがまだ保存されていないことを表します。
var ErrProfileNotFound = errors.New("profile not found")

// Repository はゲームサーバーが使う永続化操作のすべてです。
// SQL 実装（DatabaseService）とメモリ実装（MemoryRepository）があります。
type Repository interface {
	ResultRepository
	ProfileRepository

	// Ping は接続を確認します
	Ping(ctx context.Context) error
	// Close は接続を閉じます
	Close() error
}

// DatabaseService は database/sql 上の Repository 実装です。
// PostgreSQL と SQLite で同じクエリを使い、スキーマだけをドライバーごとに切り替えます。
type DatabaseService struct {
	ResultRepository
	ProfileRepository

	DB     *sql.DB
	driver string
	logger *zap.Logger
}

// NewRepository は driver に応じた Repository を作成します。
// "memory" の場合はデータベースに接続せず、プロセス内のメモリに保存します。
func NewRepository(driver, databaseURL string, logger *zap.Logger) (Repository, error) {
	if driver == DriverMemory {
		return NewMemoryRepository(), nil
	}
	svc, err := NewDatabaseService(driver, databaseURL, logger)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// NewDatabaseService はデータベースに接続し、スキーマを適用した DatabaseService を返します。
func NewDatabaseService(driver, databaseURL string, logger *zap.Logger) (*DatabaseService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("database")

	schema, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("未対応のデータベースドライバーです: %q", driver)
	}

	logger.Info("connecting to database", zap.String("driver", driver))
	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite は書き込みが1本なので接続を共有する
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("スキーマの適用に失敗しました: %w", err)
		}
	}

	logger.Info("connected to database", zap.String("driver", driver))
	return &DatabaseService{
		ResultRepository:  NewResultRepository(db),
		ProfileRepository: NewProfileRepository(db, driver),
		DB:                db,
		driver:            driver,
		logger:            logger,
	}, nil
}

// Driver は接続しているドライバー名を返します。
func (s *DatabaseService) Driver() string {
	return s.driver
}

// Ping はデータベースとの接続を確認します。
func (s *DatabaseService) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("データベースのPingに失敗しました: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じます。
func (s *DatabaseService) Close() error {
	s.logger.Info("closing database connection")
	return s.DB.Close()
}

// schemas はドライバーごとのテーブル定義です。
var schemas = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS results (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT        NOT NULL,
			mode       TEXT        NOT NULL,
			score      INTEGER     NOT NULL,
			lines      INTEGER     NOT NULL,
			level      INTEGER     NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS results_score_idx ON results (score DESC, created_at ASC)`,
		`CREATE TABLE IF NOT EXISTS player_data (
			key        TEXT PRIMARY KEY,
			value      TEXT        NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS results (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT      NOT NULL,
			mode       TEXT      NOT NULL,
			score      INTEGER   NOT NULL,
			lines      INTEGER   NOT NULL,
			level      INTEGER   NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS results_score_idx ON results (score DESC, created_at ASC)`,
		`CREATE TABLE IF NOT EXISTS player_data (
			key        TEXT PRIMARY KEY,
			value      TEXT      NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	},
}
