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

// LocationStore manages the selectable sites.
type LocationStore interface {
	List(ctx context.Context) ([]model.Location, error)
	Create(ctx context.Context, name string) (*model.Location, error)
	Rename(ctx context.Context, id uint64, name string) (*model.Location, error)
	Delete(ctx context.Context, id uint64) error
}

// Purger drops cached copies of the location list.
type Purger interface {
	Purge(ctx context.Context)
}

// LocationHandler serves /api/locations.
type LocationHandler struct {
	Locations LocationStore
	Cache     Purger // optional
	Logger    *slog.Logger
}

var errNameRequired = apperr.Validation("name is required")

type locationBody struct {
	Name string `json:"name"`
}

// List handles GET /api/locations.
func (h *LocationHandler) List(c echo.Context) error {
	items, err := h.Locations.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /api/locations.
func (h *LocationHandler) Create(c echo.Context) error {
	var body locationBody
	if err := c.Bind(&body); err != nil {
		return respondError(c, h.Logger, errInvalidBody)
	}
	if strings.TrimSpace(body.Name) == "" {
		return respondError(c, h.Logger, errNameRequired)
	}
	loc, err := h.Locations.Create(c.Request().Context(), body.Name)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, echo.Map{"id": loc.ID, "name": loc.Name, "message": "Location added successfully"})
}

// Update handles PUT /api/locations/:id.
func (h *LocationHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	var body locationBody
	if err := c.Bind(&body); err != nil {
		return respondError(c, h.Logger, errInvalidBody)
	}
	if strings.TrimSpace(body.Name) == "" {
		return respondError(c, h.Logger, errNameRequired)
	}
	loc, err := h.Locations.Rename(c.Request().Context(), id, body.Name)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, loc)
}

// Delete handles DELETE /api/locations/:id.  A location that applicants
// applied to is kept and reported as a conflict.
func (h *LocationHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	if err := h.Locations.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Logger, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Location deleted successfully"})
}

func (h *LocationHandler) purge(c echo.Context) {
	if h.Cache != nil {
		h.Cache.Purge(c.Request().Context())
	}
}
