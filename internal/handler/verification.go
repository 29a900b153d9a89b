package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
	"github.com/joshuacenter/applicant-intake/internal/utils"
)

// CodeGate issues and checks email verification codes.
type CodeGate interface {
	RequestCode(email string) (string, error)
	VerifyCode(email, code string) error
}

// VerificationHandler serves the email verification step of the wizard.
type VerificationHandler struct {
	Gate CodeGate
	// ExposeCode echoes the code in the response.  Development only;
	// configuration refuses it in production.
	ExposeCode bool
	// TokenSecret, when set, makes VerifyCode return a signed token that
	// the submission endpoint accepts as proof of the verified email.
	TokenSecret string
	TokenTTL    time.Duration
	Logger      *slog.Logger
}

// RequestCode handles POST /api/verify-email.
func (h *VerificationHandler) RequestCode(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, h.Logger, errInvalidBody)
	}
	code, err := h.Gate.RequestCode(body.Email)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	h.Logger.Info("verification code issued", "email", strings.ToLower(strings.TrimSpace(body.Email)))

	resp := echo.Map{"message": "Verification code sent"}
	if h.ExposeCode {
		resp["code"] = code
	}
	return c.JSON(http.StatusOK, resp)
}

// VerifyCode handles POST /api/verify-code.
func (h *VerificationHandler) VerifyCode(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, h.Logger, errInvalidBody)
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || strings.TrimSpace(body.Code) == "" {
		return respondError(c, h.Logger, apperr.Validation("email and code are required"))
	}
	if err := h.Gate.VerifyCode(email, body.Code); err != nil {
		return respondError(c, h.Logger, err)
	}

	resp := echo.Map{"verified": true, "email": email}
	if h.TokenSecret != "" {
		tok, err := utils.NewVerificationToken(h.TokenSecret, email, h.TokenTTL)
		if err != nil {
			return respondError(c, h.Logger, apperr.Storage(err))
		}
		resp["token"] = tok.Token
		resp["expiresAt"] = tok.Exp.Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}
