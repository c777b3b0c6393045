package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models"
)

// MemoryRepository はプロセス内のメモリに保存する Repository 実装です。
// テストと、データベースなしでサーバーを動かすときに使います。再起動するとデータは消えます。
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	results  []models.Result
	profiles map[string][]byte // SQL 実装と同じく JSON で保持する
}

// NewMemoryRepository は空の MemoryRepository を作成します。
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string][]byte)}
}

// CreateResult はゲーム結果を保存します。
func (m *MemoryRepository) CreateResult(ctx context.Context, result *models.Result) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	saved := *result
	saved.ID = m.nextID
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	m.results = append(m.results, saved)
	return &saved, nil
}

// GetTopResults はスコアの高い順に最大 limit 件を返します。同点は先に記録した方が上位です。
func (m *MemoryRepository) GetTopResults(ctx context.Context, limit int) ([]models.ResultResponse, error) {
	m.mu.RLock()
	sorted := make([]models.Result, len(m.results))
	copy(sorted, m.results)
	m.mu.RUnlock()

	sortResults(sorted)
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}

	responses := make([]models.ResultResponse, 0, len(sorted))
	for i, r := range sorted {
		responses = append(responses, models.ResultResponse{Result: r, Rank: i + 1})
	}
	return responses, nil
}

// GetUserBestScore はユーザーの最高スコアを返します。記録がなければ nil です。
func (m *MemoryRepository) GetUserBestScore(ctx context.Context, userID string) (*models.Result, error) {
	m.mu.RLock()
	var mine []models.Result
	for _, r := range m.results {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	m.mu.RUnlock()

	if len(mine) == 0 {
		return nil, nil
	}
	sortResults(mine)
	return &mine[0], nil
}

func sortResults(results []models.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
}

// LoadProfile はプロフィールを読み込みます。
func (m *MemoryRepository) LoadProfile(ctx context.Context, userID string) (*models.PlayerProfile, error) {
	m.mu.RLock()
	data, ok := m.profiles[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrProfileNotFound
	}
	return decodeProfile(string(data))
}

// SaveProfile はプロフィールを保存します。
func (m *MemoryRepository) SaveProfile(ctx context.Context, userID string, profile *models.PlayerProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("プロフィールのシリアライズに失敗しました: %w", err)
	}
	m.mu.Lock()
	m.profiles[userID] = data
	m.mu.Unlock()
	return nil
}

// UpdateProfile はロックを取ったままプロフィールを読み込み・変更・保存します。
func (m *MemoryRepository) UpdateProfile(ctx context.Context, userID string, fn func(*models.PlayerProfile) error) (*models.PlayerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile := models.NewPlayerProfile()
	if data, ok := m.profiles[userID]; ok {
		var err error
		if profile, err = decodeProfile(string(data)); err != nil {
			return nil, err
		}
	}

	if err := fn(profile); err != nil {
		return nil, err
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("プロフィールのシリアライズに失敗しました: %w", err)
	}
	m.profiles[userID] = data
	return profile, nil
}

// Ping は常に成功します。
func (m *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close は何もしません。
func (m *MemoryRepository) Close() error {
	return nil
}
