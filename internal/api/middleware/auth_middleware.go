package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrAuthNotConfigured は JWT_SECRET が設定されていないことを表します。
	ErrAuthNotConfigured = errors.New("jwt secret is not configured")
	// ErrInvalidToken はトークンの検証に失敗したことを表します。
	ErrInvalidToken = errors.New("invalid token")
)

// bypassNamespace は BYPASS_AUTH 時の匿名ユーザーIDを作るための名前空間です。
var bypassNamespace = uuid.MustParse("6f2c1d1e-9a57-4d3b-8f0e-5b7a2c4e9d10")

type UserIDKey struct{}

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok
}

// WithUserID はユーザーIDを設定したコンテキストを返します。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Authenticator は HMAC 署名の JWT を検証し、'sub' クレームをユーザーIDとして取り出します。
// HTTP のミドルウェアと WebSocket の認証メッセージの両方で使います。
type Authenticator struct {
	secret []byte
	bypass bool
	logger *zap.Logger
}

// NewAuthenticator は Authenticator を作成します。
// bypass が true の場合は署名を検証せず、トークン文字列から決まる匿名ユーザーIDを使います。
func NewAuthenticator(secret string, bypass bool, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		secret: []byte(secret),
		bypass: bypass,
		logger: logger.Named("auth"),
	}
}

// Authenticate はトークンを検証してユーザーIDを返します。"Bearer " プレフィックスは付いていてもかまいません。
func (a *Authenticator) Authenticate(token string) (string, error) {
	token = strings.TrimPrefix(token, "Bearer ")

	if a.bypass {
		// 同じトークンなら HTTP でも WebSocket でも同じユーザーになる
		return uuid.NewSHA1(bypassNamespace, []byte(token)).String(), nil
	}
	if len(a.secret) == 0 {
		return "", ErrAuthNotConfigured
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// アルゴリズムがHMACであることを確認
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		a.logger.Debug("jwt rejected", zap.Error(err))
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user ID", ErrInvalidToken)
	}
	return userID, nil
}

// Middleware は Authorization ヘッダーの JWT を検証し、ユーザーIDをコンテキストに設定します。
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" && !a.bypass {
			writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}
		if authHeader != "" && !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
			return
		}

		userID, err := a.Authenticate(authHeader)
		switch {
		case errors.Is(err, ErrAuthNotConfigured):
			a.logger.Error("JWT_SECRET is not set")
			writeJSONError(w, http.StatusInternalServerError, "Server configuration error: JWT secret missing")
			return
		case err != nil:
			writeJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
