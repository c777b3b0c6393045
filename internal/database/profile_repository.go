package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models"
)

// ProfileRepository はプレイヤープロフィールの保存先です。
// プロフィールはユーザーごとに1つの JSON レコードとしてキーバリューテーブルに保存します。
type ProfileRepository interface {
	// LoadProfile はプロフィールを読み込みます。保存されていなければ ErrProfileNotFound を返します
	LoadProfile(ctx context.Context, userID string) (*models.PlayerProfile, error)

	// SaveProfile はプロフィールを丸ごと上書き保存します
	SaveProfile(ctx context.Context, userID string, profile *models.PlayerProfile) error

	// UpdateProfile は読み込み・変更・保存を1つのトランザクションで行います。
	// 保存されていない場合は初期プロフィールに対して fn を呼びます。fn がエラーを返すと何も保存しません
	UpdateProfile(ctx context.Context, userID string, fn func(*models.PlayerProfile) error) (*models.PlayerProfile, error)
}

// profileKey はキーバリューテーブル上のキーです。
func profileKey(userID string) string {
	return "profile:" + userID
}

// profileRepositoryImpl はProfileRepositoryインターフェースのSQL実装です。
type profileRepositoryImpl struct {
	db           *sql.DB
	selectForTxn string // トランザクション内で行を読むクエリ（PostgreSQL は行ロックを取る）
}

// NewProfileRepository はProfileRepositoryの新しいインスタンスを作成します。
func NewProfileRepository(db *sql.DB, driver string) ProfileRepository {
	selectForTxn := `SELECT value FROM player_data WHERE key = $1`
	if driver == DriverPostgres {
		selectForTxn += ` FOR UPDATE`
	}
	return &profileRepositoryImpl{db: db, selectForTxn: selectForTxn}
}

// LoadProfile はプロフィールを読み込みます。
func (r *profileRepositoryImpl) LoadProfile(ctx context.Context, userID string) (*models.PlayerProfile, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM player_data WHERE key = $1`, profileKey(userID)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	return decodeProfile(value)
}

// SaveProfile はプロフィールを保存します。
func (r *profileRepositoryImpl) SaveProfile(ctx context.Context, userID string, profile *models.PlayerProfile) error {
	return saveProfile(ctx, r.db, userID, profile)
}

// UpdateProfile はトランザクション内でプロフィールを更新します。
func (r *profileRepositoryImpl) UpdateProfile(ctx context.Context, userID string, fn func(*models.PlayerProfile) error) (*models.PlayerProfile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback() // コミット後の Rollback は何もしない

	profile := models.NewPlayerProfile()
	var value string
	err = tx.QueryRowContext(ctx, r.selectForTxn, profileKey(userID)).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// 初回は初期プロフィールから始める
	case err != nil:
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	default:
		if profile, err = decodeProfile(value); err != nil {
			return nil, err
		}
	}

	if err := fn(profile); err != nil {
		return nil, err
	}
	if err := saveProfile(ctx, tx, userID, profile); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return profile, nil
}

// execer は *sql.DB と *sql.Tx の共通部分です。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func saveProfile(ctx context.Context, db execer, userID string, profile *models.PlayerProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("プロフィールのシリアライズに失敗しました: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO player_data (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		profileKey(userID), string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("プロフィールの保存に失敗しました: %w", err)
	}
	return nil
}

func decodeProfile(value string) (*models.PlayerProfile, error) {
	var profile models.PlayerProfile
	if err := json.Unmarshal([]byte(value), &profile); err != nil {
		return nil, fmt.Errorf("プロフィールのデシリアライズに失敗しました: %w", err)
	}
	return &profile, nil
}
