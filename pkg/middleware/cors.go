package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4/middleware"
)

// DefaultAllowedOrigins are the dashboard origins used when none are configured
var DefaultAllowedOrigins = []string{
	"http://localhost:5173", // Development (vite dashboard)
	"http://localhost:3000", // Development (preview)
}

// CORSConfig returns the CORS configuration used by the application.
// Centralised here so that both main.go and tests reference the same config.
func CORSConfig(origins []string) middleware.CORSConfig {
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}
	return middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowCredentials: true,
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		},
		ExposeHeaders: []string{
			"Content-Disposition",
			"Content-Length",
		},
	}
}
