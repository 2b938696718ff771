package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders returns middleware that sets security-related HTTP headers
// on every response. Keywarden serves only JSON, so the policy is stricter
// than a web UI would allow: nothing may be loaded or framed.
//
// TLS is expected to terminate at a reverse proxy in front of the service;
// these headers provide defense-in-depth at the application layer.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// A JSON API never loads sub-resources, so lock the CSP down
			// completely. This mostly matters if a response is ever opened
			// directly in a browser.
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

			// Enforce HTTPS for 1 year including subdomains.
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

			// Prevent MIME type sniffing of JSON responses.
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking (redundant with CSP frame-ancestors, but
			// older browsers only support this header).
			h.Set("X-Frame-Options", "DENY")

			// Limit referrer information leaked to external sites.
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			return next(c)
		}
	}
}
