package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models"
)

// ResultRepository はゲーム結果関連のデータベース操作を定義するインターフェースです。
type ResultRepository interface {
	// CreateResult は新しいゲーム結果レコードを作成します
	CreateResult(ctx context.Context, result *models.Result) (*models.Result, error)

	// GetTopResults は上位N件の結果を取得します（ランキング用）
	GetTopResults(ctx context.Context, limit int) ([]models.ResultResponse, error)

	// GetUserBestScore は指定したユーザーの最高スコアを取得します。記録がなければ nil を返します
	GetUserBestScore(ctx context.Context, userID string) (*models.Result, error)
}

// resultRepositoryImpl はResultRepositoryインターフェースのSQL実装です。
type resultRepositoryImpl struct {
	db *sql.DB
}

// NewResultRepository はResultRepositoryの新しいインスタンスを作成します。
func NewResultRepository(db *sql.DB) ResultRepository {
	return &resultRepositoryImpl{db: db}
}

// CreateResult は新しいゲーム結果レコードを作成します。
// CreatedAt が空の場合は現在時刻を使います。
func (r *resultRepositoryImpl) CreateResult(ctx context.Context, result *models.Result) (*models.Result, error) {
	saved := *result
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO results (user_id, mode, score, lines, level, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		saved.UserID, saved.Mode, saved.Score, saved.Lines, saved.Level, saved.CreatedAt,
	).Scan(&saved.ID)
	if err != nil {
		return nil, fmt.Errorf("ゲーム結果レコードの作成に失敗しました: %w", err)
	}
	return &saved, nil
}

// GetTopResults は上位N件の結果を取得します（ランキング用）。
// 同点の場合は先に記録した方が上位です。
func (r *resultRepositoryImpl) GetTopResults(ctx context.Context, limit int) ([]models.ResultResponse, error) {
	query := `
		SELECT
			id, user_id, mode, score, lines, level, created_at,
			ROW_NUMBER() OVER (ORDER BY score DESC, created_at ASC) AS rank
		FROM results
		ORDER BY score DESC, created_at ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ゲーム結果取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results := make([]models.ResultResponse, 0, limit)
	for rows.Next() {
		var res models.ResultResponse
		err := rows.Scan(&res.ID, &res.UserID, &res.Mode, &res.Score, &res.Lines, &res.Level, &res.CreatedAt, &res.Rank)
		if err != nil {
			return nil, fmt.Errorf("ゲーム結果データのスキャンに失敗しました: %w", err)
		}
		results = append(results, res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ゲーム結果取得中にエラーが発生しました: %w", err)
	}

	return results, nil
}

// GetUserBestScore は指定したユーザーの最高スコアを取得します。
func (r *resultRepositoryImpl) GetUserBestScore(ctx context.Context, userID string) (*models.Result, error) {
	query := `
		SELECT id, user_id, mode, score, lines, level, created_at
		FROM results
		WHERE user_id = $1
		ORDER BY score DESC, created_at ASC
		LIMIT 1
	`

	var res models.Result
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&res.ID, &res.UserID, &res.Mode, &res.Score, &res.Lines, &res.Level, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // ユーザーのスコアが存在しない場合はnilを返す
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの最高スコア取得に失敗しました: %w", err)
	}
	return &res, nil
}
