package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig sets the response headers of the report API.
// Empty fields fall back to DefaultSecurityHeadersConfig.
type SecurityHeadersConfig struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	PermissionsPolicy     string
	FrameOptions          string
}

// DefaultSecurityHeadersConfig locks responses down to what a JSON and PDF API needs:
// nothing is loaded, framed or submitted from its documents.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=(), payment=(), usb=()",
		FrameOptions:          "DENY",
	}
}

// SecurityHeaders sets the configured policy headers and nosniff on every response
func SecurityHeaders(config SecurityHeadersConfig) echo.MiddlewareFunc {
	defaults := DefaultSecurityHeadersConfig()
	if config.ContentSecurityPolicy == "" {
		config.ContentSecurityPolicy = defaults.ContentSecurityPolicy
	}
	if config.ReferrerPolicy == "" {
		config.ReferrerPolicy = defaults.ReferrerPolicy
	}
	if config.PermissionsPolicy == "" {
		config.PermissionsPolicy = defaults.PermissionsPolicy
	}
	if config.FrameOptions == "" {
		config.FrameOptions = defaults.FrameOptions
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			h.Set("Referrer-Policy", config.ReferrerPolicy)
			h.Set("Permissions-Policy", config.PermissionsPolicy)
			h.Set("X-Frame-Options", config.FrameOptions)
			h.Set("X-Content-Type-Options", "nosniff")
			return next(c)
		}
	}
}
