package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/joshuacenter/applicant-intake/internal/utils"
)

// VerificationTokenHeader carries the token issued by POST /api/verify-code.
const VerificationTokenHeader = "X-Verification-Token"

// VerifiedEmail returns an Echo middleware that reads a verified-email
// token from the X-Verification-Token header (or a Bearer Authorization
// header) and stores the email it vouches for under VerifiedEmailKey.
// Requests without a token pass through untouched; whether one is needed
// is decided by the handler.  A token that is present but invalid is
// rejected so the wizard can send the applicant back to verification.
// An empty secret disables the middleware.
func VerifiedEmail(secret string) echo.MiddlewareFunc {
	if secret == "" {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c.Request())
			if raw == "" {
				return next(c)
			}
			email, err := utils.ParseVerificationToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error": "verification token is invalid or expired, please verify your email again",
					"kind":  "verification",
				})
			}
			c.Set(VerifiedEmailKey, email)
			return next(c)
		}
	}
}

func tokenFromRequest(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(VerificationTokenHeader)); v != "" {
		return v
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
