package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
	"github.com/joshuacenter/applicant-intake/internal/model"
)

// UserStore manages staff accounts.
type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, email, firstName, lastName string) (*model.User, error)
	Update(ctx context.Context, id uint64, upd model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id uint64) error
}

// UserHandler serves /api/users.
type UserHandler struct {
	Users  UserStore
	Logger *slog.Logger
}

// List handles GET /api/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c echo.Context) error {
	var body struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, h.Logger, errInvalidBody)
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if err := validate.Var(email, "required,email"); err != nil {
		return respondError(c, h.Logger, apperr.Validation("a valid email address is required"))
	}
	if strings.TrimSpace(body.FirstName) == "" || strings.TrimSpace(body.LastName) == "" {
		return respondError(c, h.Logger, apperr.Validation("first and last name are required"))
	}
	u, err := h.Users.Create(c.Request().Context(), email, body.FirstName, body.LastName)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": u.ID, "message": "User added successfully"})
}

// Update handles PUT /api/users/:id.  Only the fields present in the body
// change.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	var body struct {
		Active    *bool   `json:"active"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, h.Logger, errInvalidBody)
	}
	upd := model.UserUpdate{Active: body.Active, FirstName: body.FirstName, LastName: body.LastName}
	if upd.Empty() {
		return respondError(c, h.Logger, apperr.Validation("nothing to update"))
	}
	for _, name := range []*string{upd.FirstName, upd.LastName} {
		if name != nil && strings.TrimSpace(*name) == "" {
			return respondError(c, h.Logger, apperr.Validation("names cannot be empty"))
		}
	}
	u, err := h.Users.Update(c.Request().Context(), id, upd)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
