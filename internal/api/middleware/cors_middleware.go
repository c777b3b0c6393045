package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// DefaultAllowedOrigins は ALLOWED_ORIGINS が空のときに許可するオリジンです。
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORSHandler はCORS設定を適用するミドルウェアを返します。
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler
}
