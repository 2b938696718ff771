package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/keywarden/keywarden/internal/apperror"
)

// newTestServer wires handlers over the in-memory fixture and returns an
// Echo instance with the real routes and error handler mapping.
func newTestServer(t *testing.T) (*echo.Echo, *fixture) {
	t.Helper()
	f := newFixture(t)

	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		c.JSON(apperror.SafeCode(err), map[string]string{"message": apperror.SafeMessage(err)})
	}

	h := NewHandler(f.service, tokenTTL)
	RegisterRoutes(e, h, f.service)
	return e, f
}

func doJSON(e *echo.Echo, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignupEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/signup", `{"email":"a@b.co","password":"password123","requires2FA":false}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same email again conflicts.
	rec = doJSON(e, http.MethodPost, "/signup", `{"email":"a@b.co","password":"password123"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// Malformed input is rejected before any store access.
	rec = doJSON(e, http.MethodPost, "/signup", `{"email":"not-an-email","password":"password123"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginEndpointSetsCookie(t *testing.T) {
	e, _ := newTestServer(t)
	doJSON(e, http.MethodPost, "/signup", `{"email":"a@b.co","password":"password123"}`)

	rec := doJSON(e, http.MethodPost, "/login", `{"email":"a@b.co","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token in the response")
	}

	cookie := findCookie(t, rec, sessionCookieName)
	if cookie.Value != resp.Token {
		t.Error("cookie and response token differ")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("session cookie must be SameSite=Lax")
	}
}

func TestLoginEndpointUnauthorized(t *testing.T) {
	e, _ := newTestServer(t)
	doJSON(e, http.MethodPost, "/signup", `{"email":"a@b.co","password":"password123"}`)

	rec := doJSON(e, http.MethodPost, "/login", `{"email":"a@b.co","password":"wrongpassword"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTwoFactorEndpoints(t *testing.T) {
	e, f := newTestServer(t)
	doJSON(e, http.MethodPost, "/signup", `{"email":"c@d.co","password":"password123","requires2FA":true}`)

	rec := doJSON(e, http.MethodPost, "/login", `{"email":"c@d.co","password":"password123"}`)
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d: %s", rec.Code, rec.Body.String())
	}

	var pending TwoFactorPendingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if pending.ChallengeID == "" {
		t.Fatal("expected a challenge ID")
	}
	code := f.mail.lastCode(t)

	body, _ := json.Marshal(VerifyTwoFactorRequest{
		Email:       "c@d.co",
		ChallengeID: pending.ChallengeID,
		Code:        code,
	})
	rec = doJSON(e, http.MethodPost, "/verify-2fa", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	findCookie(t, rec, sessionCookieName)

	// Replaying the consumed challenge fails uniformly.
	rec = doJSON(e, http.MethodPost, "/verify-2fa", string(body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on replay, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogoutEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	doJSON(e, http.MethodPost, "/signup", `{"email":"a@b.co","password":"password123"}`)
	login := doJSON(e, http.MethodPost, "/login", `{"email":"a@b.co","password":"password123"}`)
	cookie := findCookie(t, login, sessionCookieName)

	// No token at all.
	rec := doJSON(e, http.MethodPost, "/logout", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d: %s", rec.Code, rec.Body.String())
	}

	withCookie := func(req *http.Request) { req.AddCookie(cookie) }
	rec = doJSON(e, http.MethodPost, "/logout", "", withCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cleared := findCookie(t, rec, sessionCookieName)
	if cleared.MaxAge != -1 {
		t.Error("expected logout to clear the session cookie")
	}

	// The same token is revoked now.
	rec = doJSON(e, http.MethodPost, "/logout", "", withCookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on repeated logout, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyTokenEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	doJSON(e, http.MethodPost, "/signup", `{"email":"a@b.co","password":"password123"}`)
	login := doJSON(e, http.MethodPost, "/login", `{"email":"a@b.co","password":"password123"}`)

	var resp LoginResponse
	if err := json.Unmarshal(login.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}

	rec := doJSON(e, http.MethodPost, "/verify-token", `{"token":"`+resp.Token+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/verify-token", `{"token":"garbage"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/verify-token", `{"token":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMeEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	doJSON(e, http.MethodPost, "/signup", `{"email":"a@b.co","password":"password123"}`)
	login := doJSON(e, http.MethodPost, "/login", `{"email":"a@b.co","password":"password123"}`)

	var resp LoginResponse
	if err := json.Unmarshal(login.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}

	// Bearer header works as an alternative to the cookie.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var me MeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if me.Email != "a@b.co" {
		t.Errorf("expected a@b.co, got %q", me.Email)
	}

	// Without any token the middleware reports the token as missing.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d: %s", rec.Code, rec.Body.String())
	}
}

// findCookie extracts a named cookie from the response or fails the test.
func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := rec.Result()
	defer res.Body.Close()
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}
