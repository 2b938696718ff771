package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/keywarden/keywarden/internal/apperror"
	"github.com/keywarden/keywarden/internal/token"
)

// contextKeySession stores the verified session in the Echo context so
// downstream handlers can read the caller's identity.
const contextKeySession = "auth_session"

// RequireAuth returns middleware that verifies the request's token (cookie
// or bearer header) and injects the session into the request context. A
// request without a token gets 400; one with a bad or revoked token gets
// 401.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := RequestToken(c)
			if raw == "" {
				return apperror.NewMissingToken()
			}

			session, err := service.VerifyToken(c.Request().Context(), raw)
			if err != nil {
				clearSessionCookie(c)
				return err
			}

			c.Set(contextKeySession, session)
			return next(c)
		}
	}
}

// SessionFromContext retrieves the verified session from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func SessionFromContext(c echo.Context) *token.Session {
	session, ok := c.Get(contextKeySession).(*token.Session)
	if !ok {
		return nil
	}
	return session
}
