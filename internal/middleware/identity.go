package middleware

// identity.go defines helpers shared across middleware files and handlers
// for reading the verified email placed in the echo context by
// VerifiedEmail.

import "github.com/labstack/echo/v4"

// VerifiedEmailKey is the echo context key holding the address proven by
// a verification token.
const VerifiedEmailKey = "verified_email"

// VerifiedEmailFrom returns the verified email, or "" when the request
// carried no valid token.
func VerifiedEmailFrom(c echo.Context) string {
	if v, ok := c.Get(VerifiedEmailKey).(string); ok {
		return v
	}
	return ""
}

// currentSubject identifies the caller for rate limiting.  It returns
// "anon" when no verified email is present.
func currentSubject(c echo.Context) string {
	if v := VerifiedEmailFrom(c); v != "" {
		return v
	}
	return "anon"
}
