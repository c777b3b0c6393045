package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models"
)

// Pinger は接続確認ができる依存先です。
type Pinger interface {
	Ping(ctx context.Context) error
}

// PublicHandler は認証不要のエンドポイント（ヘルスチェック、テーマ一覧）を処理します。
type PublicHandler struct {
	db     Pinger
	logger *zap.Logger
}

// NewPublicHandler は新しい PublicHandler を作成します。
func NewPublicHandler(db Pinger, logger *zap.Logger) *PublicHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{db: db, logger: logger.Named("handlers")}
}

// Health はデータベースに接続できるかを返します。
// GET /api/health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		WriteErrorResponse(w, http.StatusServiceUnavailable, "データベースに接続できません")
		return
	}
	WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetThemes はショップで扱う全テーマを返します。
// GET /api/themes
func (h *PublicHandler) GetThemes(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"themes": models.Themes,
	})
}
