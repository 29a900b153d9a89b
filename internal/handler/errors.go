package handler // handler defines http handlers

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
)

// validate is shared by handlers that check single values such as emails.
var validate = validator.New()

var (
	errInvalidBody = apperr.Validation("invalid request body")
	errInvalidID   = apperr.Validation("invalid id")
)

// respondError writes the {"error","kind"} body for err.  Storage faults
// are logged with full detail here and reach the client only as a generic
// message.
func respondError(c echo.Context, logger *slog.Logger, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindStorage {
		logger.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"err", err)
	}
	return c.JSON(kind.HTTPStatus(), map[string]string{
		"error": apperr.PublicMessage(err),
		"kind":  kind.String(),
	})
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return id, nil
}
