package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keywarden/keywarden/internal/middleware"
)

// RegisterRoutes sets up all auth routes on the given Echo instance. The
// credential endpoints are public; /me demonstrates RequireAuth, which other
// route groups reuse for protected surfaces.
//
// POST endpoints that accept credentials are rate-limited to slow down
// brute-force and credential stuffing: 5 signups and 10 login or code
// attempts per IP per minute.
func RegisterRoutes(e *echo.Echo, h *Handler, service AuthService) {
	e.POST("/signup", h.Signup, middleware.RateLimit(5, time.Minute))
	e.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.POST("/verify-2fa", h.VerifyTwoFactor, middleware.RateLimit(10, time.Minute))
	e.POST("/logout", h.Logout)
	e.POST("/verify-token", h.VerifyToken)

	e.GET("/me", h.Me, RequireAuth(service))
}
