package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	profile "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/profile"
)

// ProfileHandler はコインとテーマに関するリクエストを処理します。すべて認証が必要です。
type ProfileHandler struct {
	service profile.ProfileService
	logger  *zap.Logger
}

// NewProfileHandler は新しい ProfileHandler を作成します。
func NewProfileHandler(service profile.ProfileService, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{service: service, logger: logger.Named("handlers")}
}

// GetProfile は認証済みユーザーのプロフィールを返します。
// GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	p, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, userID, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, p)
}

// UnlockTheme はコインを消費してテーマを解放します。
// POST /api/profile/themes/{themeKey}/unlock
func (h *ProfileHandler) UnlockTheme(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	p, err := h.service.UnlockTheme(r.Context(), userID, mux.Vars(r)["themeKey"])
	if err != nil {
		h.writeServiceError(w, userID, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, p)
}

// SetActiveTheme は使用するテーマを変更します。
// PUT /api/profile/theme {"theme": "ocean"}
func (h *ProfileHandler) SetActiveTheme(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
		return
	}
	if req.Theme == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "テーマが必要です")
		return
	}

	p, err := h.service.SetActiveTheme(r.Context(), userID, req.Theme)
	if err != nil {
		h.writeServiceError(w, userID, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, p)
}

// writeServiceError はサービスのエラーを HTTP ステータスに変換して書き込みます。
func (h *ProfileHandler) writeServiceError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, profile.ErrThemeNotFound):
		WriteErrorResponse(w, http.StatusNotFound, "テーマが見つかりません")
	case errors.Is(err, profile.ErrThemeAlreadyUnlocked):
		WriteErrorResponse(w, http.StatusConflict, "テーマは解放済みです")
	case errors.Is(err, profile.ErrInsufficientCoins):
		WriteErrorResponse(w, http.StatusPaymentRequired, "コインが足りません")
	case errors.Is(err, profile.ErrThemeLocked):
		WriteErrorResponse(w, http.StatusForbidden, "テーマが解放されていません")
	default:
		h.logger.Error("profile operation failed", zap.String("user_id", userID), zap.Error(err))
		WriteErrorResponse(w, http.StatusInternalServerError, "プロフィールの更新に失敗しました")
	}
}
