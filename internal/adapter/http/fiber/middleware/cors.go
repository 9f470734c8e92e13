package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/carttalk/carttalk-server/pkg/config"
)

// NewCORS builds the CORS middleware from application config. The browser
// dashboard and the call page are served from a different origin than the
// API, so every unset field falls back to a permissive default.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 86400
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     joinOrDefault(cfg.AllowedOrigins, "*"),
		AllowMethods:     joinOrDefault(cfg.AllowedMethods, "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
		AllowHeaders:     joinOrDefault(cfg.AllowedHeaders, "Origin,Content-Type,Accept,Authorization,X-Request-ID"),
		ExposeHeaders:    joinOrDefault(cfg.ExposeHeaders, "Content-Length,Content-Range"),
		AllowCredentials: cfg.Credentials,
		MaxAge:           maxAge,
	})
}

func joinOrDefault(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ",")
}
