package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket" // WebSocketライブラリ
	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

// authTimeout は WebSocket 接続後に認証メッセージを待つ時間です。
const authTimeout = 10 * time.Second

// GameHandler はゲーム関連のHTTPリクエスト（マッチ作成、状態取得、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager
	auth           *middleware.Authenticator
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   - sm: セッションマネージャー
//   - auth: WebSocket の認証メッセージを検証する Authenticator
//   - allowedOrigins: WebSocket 接続を許可するオリジン（空ならすべて許可）
//
// Returns:
//   - *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, auth *middleware.Authenticator, allowedOrigins []string, logger *zap.Logger) *GameHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &GameHandler{
		sessionManager: sm,
		auth:           auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
		logger: logger.Named("handlers"),
	}
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// CreateGame は新しいマッチを作成するためのHTTPハンドラーです。
// POST /api/games {"mode": "marathon" | "vs_ai", "seed": 0}
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Mode string `json:"mode"`
		Seed int64  `json:"seed"`
	}
	// ボディなしは marathon として扱う
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
		return
	}
	mode, err := tetris.ParseMatchMode(req.Mode)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "モードは marathon または vs_ai を指定してください")
		return
	}

	snap := h.sessionManager.CreateMatch(userID, mode, req.Seed)
	WriteJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"game_id": snap.ID,
		"match":   snap,
	})
}

// GetGame はマッチの現在の状態を返すハンドラーです。自分のマッチしか取得できません。
// GET /api/games/{gameID}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	snap, err := h.sessionManager.GetMatchSnapshot(mux.Vars(r)["gameID"])
	if errors.Is(err, tetris.ErrGameNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたゲームは見つかりませんでした")
		return
	}
	if snap.UserID != userID {
		WriteErrorResponse(w, http.StatusForbidden, "他のユーザーのゲームです")
		return
	}
	WriteJSONResponse(w, http.StatusOK, snap)
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 認証メッセージ {"type":"auth","token":"..."} を受け取ってからセッションマネージャーに引き渡します。
// GET /ws/games/{gameID}
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]
	if _, err := h.sessionManager.GetMatchSnapshot(gameID); err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたゲームは見つかりませんでした")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	logger := h.logger.With(zap.String("game_id", gameID))

	userID, err := h.authenticateConn(conn)
	if err != nil {
		logger.Info("websocket auth failed", zap.Error(err))
		conn.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
		conn.Close()
		return
	}

	if err := h.sessionManager.RegisterClient(gameID, userID, conn); err != nil {
		logger.Info("failed to register client", zap.String("user_id", userID), zap.Error(err))
		conn.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
		conn.Close()
		return
	}
	// ここから先の読み書きは SessionManager のポンプが担当する
}

// authenticateConn は最初のメッセージを認証メッセージとして検証し、ユーザーIDを返します。
func (h *GameHandler) authenticateConn(conn *websocket.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var msg tetris.ClientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return "", errors.New("failed to read auth message")
	}
	if msg.Type != "auth" {
		return "", errors.New("expected auth message")
	}

	userID, err := h.auth.Authenticate(msg.Token)
	if err != nil {
		return "", err
	}
	if err := conn.WriteJSON(map[string]string{"type": "auth_success"}); err != nil {
		return "", err
	}
	return userID, nil
}
