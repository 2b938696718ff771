package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keywarden/keywarden/internal/apperror"
	"github.com/keywarden/keywarden/internal/token"
)

// sessionCookieName is the HTTP cookie carrying the session token.
const sessionCookieName = "jwt"

// Handler handles HTTP requests for authentication. Handlers are thin: they
// bind the request, call the service, and render the response. No business
// logic lives here.
type Handler struct {
	service  AuthService
	tokenTTL time.Duration
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService, tokenTTL time.Duration) *Handler {
	return &Handler{service: service, tokenTTL: tokenTTL}
}

// Signup creates a new account (POST /signup).
func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	if err := h.service.Register(c.Request().Context(), req); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, SignupResponse{Message: "User created successfully!"})
}

// Login authenticates with email and password (POST /login). Accounts with
// a second factor enabled get 206 and a challenge ID instead of a token.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	result, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}

	if result.TwoFactorRequired {
		return c.JSON(http.StatusPartialContent, TwoFactorPendingResponse{
			Message:     "2FA required",
			ChallengeID: result.ChallengeID,
		})
	}

	h.setSessionCookie(c, result.Session)
	return c.JSON(http.StatusOK, LoginResponse{Token: result.Session.Token})
}

// VerifyTwoFactor completes a pending two-factor login (POST /verify-2fa).
func (h *Handler) VerifyTwoFactor(c echo.Context) error {
	var req VerifyTwoFactorRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	session, err := h.service.VerifyTwoFactor(c.Request().Context(), req)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session)
	return c.JSON(http.StatusOK, LoginResponse{Token: session.Token})
}

// Logout revokes the presented token and clears the cookie (POST /logout).
func (h *Handler) Logout(c echo.Context) error {
	raw := RequestToken(c)
	if raw == "" {
		return apperror.NewMissingToken()
	}

	if err := h.service.Logout(c.Request().Context(), raw); err != nil {
		return err
	}

	clearSessionCookie(c)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// VerifyToken checks a token presented in the request body (POST /verify-token).
func (h *Handler) VerifyToken(c echo.Context) error {
	var req VerifyTokenRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if req.Token == "" {
		return apperror.NewMissingToken()
	}

	if _, err := h.service.VerifyToken(c.Request().Context(), req.Token); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Token is valid"})
}

// Me returns the identity behind the request's token (GET /me).
// Requires the RequireAuth middleware.
func (h *Handler) Me(c echo.Context) error {
	session := SessionFromContext(c)
	if session == nil {
		return apperror.NewInvalidToken(nil)
	}
	return c.JSON(http.StatusOK, MeResponse{Email: session.Email.String()})
}

// RequestToken extracts the session token from the cookie or, failing that,
// a bearer Authorization header.
func RequestToken(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after
	}
	return ""
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
func (h *Handler) setSessionCookie(c echo.Context, session *token.Session) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokenTTL.Seconds()),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
