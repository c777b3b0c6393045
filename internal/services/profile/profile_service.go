package profile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models"
)

// CoinsPerScore はスコアをコインに換算する割合です（スコア10点につき1コイン）。
const CoinsPerScore = 10

var (
	ErrThemeNotFound        = errors.New("theme not found")
	ErrThemeLocked          = errors.New("theme is locked")
	ErrThemeAlreadyUnlocked = errors.New("theme already unlocked")
	ErrInsufficientCoins    = errors.New("insufficient coins")
)

// ProfileService はコインとテーマに関するビジネスロジックを定義するインターフェースです。
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*models.PlayerProfile, error)
	AwardCoins(ctx context.Context, userID string, score int) (int, error)
	UnlockTheme(ctx context.Context, userID, themeKey string) (*models.PlayerProfile, error)
	SetActiveTheme(ctx context.Context, userID, themeKey string) (*models.PlayerProfile, error)
}

// profileServiceImpl はProfileServiceインターフェースの実装です。
type profileServiceImpl struct {
	repo   database.ProfileRepository
	logger *zap.Logger
}

// NewProfileService はProfileServiceの新しいインスタンスを作成します。
func NewProfileService(repo database.ProfileRepository, logger *zap.Logger) ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &profileServiceImpl{
		repo:   repo,
		logger: logger.Named("profile"),
	}
}

// GetProfile はユーザーのプロフィールを返します。まだ保存されていなければ初期プロフィールを返します。
func (s *profileServiceImpl) GetProfile(ctx context.Context, userID string) (*models.PlayerProfile, error) {
	p, err := s.repo.LoadProfile(ctx, userID)
	if errors.Is(err, database.ErrProfileNotFound) {
		return models.NewPlayerProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	return p, nil
}

// AwardCoins はゲームのスコアに応じたコインを付与します。
//
// Parameters:
//   - userID: 付与先のユーザー
//   - score: 終了したゲームのスコア
//
// Returns:
//   - int: 付与したコイン数（0 の場合は何も保存しません）
//   - error: 保存に失敗した場合のエラー
func (s *profileServiceImpl) AwardCoins(ctx context.Context, userID string, score int) (int, error) {
	coins := score / CoinsPerScore
	if coins <= 0 {
		return 0, nil
	}

	p, err := s.repo.UpdateProfile(ctx, userID, func(p *models.PlayerProfile) error {
		p.Coins += coins
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("コインの付与に失敗しました: %w", err)
	}

	s.logger.Info("coins awarded",
		zap.String("user_id", userID),
		zap.Int("coins", coins),
		zap.Int("balance", p.Coins))
	return coins, nil
}

// UnlockTheme はコインを消費してテーマを解放します。
func (s *profileServiceImpl) UnlockTheme(ctx context.Context, userID, themeKey string) (*models.PlayerProfile, error) {
	theme, ok := models.FindTheme(themeKey)
	if !ok {
		return nil, ErrThemeNotFound
	}

	p, err := s.repo.UpdateProfile(ctx, userID, func(p *models.PlayerProfile) error {
		if p.HasTheme(theme.Key) {
			return ErrThemeAlreadyUnlocked
		}
		if p.Coins < theme.Price {
			return ErrInsufficientCoins
		}
		p.Coins -= theme.Price
		p.UnlockedThemes = append(p.UnlockedThemes, theme.Key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("テーマの解放に失敗しました: %w", err)
	}

	s.logger.Info("theme unlocked", zap.String("user_id", userID), zap.String("theme", theme.Key))
	return p, nil
}

// SetActiveTheme は解放済みのテーマを使用中にします。
func (s *profileServiceImpl) SetActiveTheme(ctx context.Context, userID, themeKey string) (*models.PlayerProfile, error) {
	if _, ok := models.FindTheme(themeKey); !ok {
		return nil, ErrThemeNotFound
	}

	p, err := s.repo.UpdateProfile(ctx, userID, func(p *models.PlayerProfile) error {
		if !p.HasTheme(themeKey) {
			return ErrThemeLocked
		}
		p.ActiveThemeKey = themeKey
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("テーマの変更に失敗しました: %w", err)
	}
	return p, nil
}
