package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/database"
)

const (
	defaultResultLimit = 50
	maxResultLimit     = 100
)

// ResultHandler はゲーム結果関連のハンドラーを管理する構造体です。
type ResultHandler struct {
	resultRepo database.ResultRepository
	logger     *zap.Logger
}

// NewResultHandler は新しいResultHandlerインスタンスを作成します。
func NewResultHandler(resultRepo database.ResultRepository, logger *zap.Logger) *ResultHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultHandler{
		resultRepo: resultRepo,
		logger:     logger.Named("handlers"),
	}
}

// GetTopResults は上位ランキングを取得するハンドラーです。
// GET /api/results?limit=50
// limit が 1〜100 の範囲外や数値でない場合はデフォルトの50件を返します。
func (h *ResultHandler) GetTopResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= maxResultLimit {
			limit = parsed
		}
	}

	results, err := h.resultRepo.GetTopResults(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load ranking", zap.Error(err))
		WriteErrorResponse(w, http.StatusInternalServerError, "ゲーム結果取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}

// GetMyBestResult は認証済みユーザーの最高スコアを返すハンドラーです。
// GET /api/results/me
func (h *ResultHandler) GetMyBestResult(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	best, err := h.resultRepo.GetUserBestScore(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load best score", zap.String("user_id", userID), zap.Error(err))
		WriteErrorResponse(w, http.StatusInternalServerError, "ユーザー結果取得に失敗しました")
		return
	}

	if best == nil {
		WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"result":  nil,
			"message": "ユーザーのスコアが見つかりません",
		})
		return
	}
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  best,
	})
}
