package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/database"
	profile "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/profile"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

// RouterDeps はルーターが使うサービスです。
type RouterDeps struct {
	Sessions       *tetris.SessionManager
	Repository     database.Repository
	Profiles       profile.ProfileService
	Auth           *middleware.Authenticator
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter は全エンドポイントを登録し、CORS を適用したハンドラーを返します。
func NewRouter(d RouterDeps) http.Handler {
	publicHandler := handlers.NewPublicHandler(d.Repository, d.Logger)
	resultHandler := handlers.NewResultHandler(d.Repository, d.Logger)
	profileHandler := handlers.NewProfileHandler(d.Profiles, d.Logger)
	gameHandler := handlers.NewGameHandler(d.Sessions, d.Auth, d.AllowedOrigins, d.Logger)

	r := mux.NewRouter()

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/health", publicHandler.Health).Methods("GET")
	r.HandleFunc("/api/themes", publicHandler.GetThemes).Methods("GET")
	r.HandleFunc("/api/results", resultHandler.GetTopResults).Methods("GET")
	// WebSocket は接続後の最初のメッセージで認証する
	r.HandleFunc("/ws/games/{gameID}", gameHandler.HandleWebSocketConnection).Methods("GET")

	// 認証が必要なエンドポイント
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(d.Auth.Middleware)
	protected.HandleFunc("/games", gameHandler.CreateGame).Methods("POST")
	protected.HandleFunc("/games/{gameID}", gameHandler.GetGame).Methods("GET")
	protected.HandleFunc("/results/me", resultHandler.GetMyBestResult).Methods("GET")
	protected.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/profile/themes/{themeKey}/unlock", profileHandler.UnlockTheme).Methods("POST")
	protected.HandleFunc("/profile/theme", profileHandler.SetActiveTheme).Methods("PUT")

	return middleware.CORSHandler(d.AllowedOrigins)(r)
}
