package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
	"github.com/joshuacenter/applicant-intake/internal/intake"
	"github.com/joshuacenter/applicant-intake/internal/middleware"
	"github.com/joshuacenter/applicant-intake/internal/model"
	"github.com/joshuacenter/applicant-intake/internal/queue"
	"github.com/joshuacenter/applicant-intake/internal/repository"
)

// Submitter runs the submission transaction.
type Submitter interface {
	Submit(ctx context.Context, raw intake.RawSubmission) (intake.Result, error)
}

// ApplicantStore is the read/update side of the applicant repository.
type ApplicantStore interface {
	List(ctx context.Context) ([]model.ApplicantSummary, error)
	GetByID(ctx context.Context, id uint64) (*model.Applicant, error)
	UpdateReview(ctx context.Context, id uint64, status model.ApplicationStatus, employeeID *uint64) error
	FindByEmail(ctx context.Context, email string) (*model.EmailMatch, error)
}

// StatusPublisher is notified after a review update.  Failures are only
// logged.
type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, ev queue.ApplicantStatusChangedEvent) error
}

// ApplicantHandler serves the public submission endpoints and the admin
// applicant pages.
type ApplicantHandler struct {
	Intake     Submitter
	Applicants ApplicantStore
	Events     StatusPublisher // optional
	Logger     *slog.Logger
}

var errNotMultipart = apperr.Validation("request must be multipart/form-data with a data field and a resume file")

// Submit handles POST /api/applicants.  The form carries the JSON payload
// in `data` and the PDF in `resume`.
func (h *ApplicantHandler) Submit(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, h.Logger, errNotMultipart)
	}
	defer func() { _ = form.RemoveAll() }()

	raw := intake.RawSubmission{VerifiedEmail: middleware.VerifiedEmailFrom(c)}
	if v := form.Value["data"]; len(v) > 0 {
		raw.Data = v[0]
	}
	files := form.File["resume"]
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return respondError(c, h.Logger, apperr.Storage(err))
		}
		defer f.Close()
		raw.Documents = append(raw.Documents, document(fh, f))
	}

	res, err := h.Intake.Submit(c.Request().Context(), raw)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Application submitted successfully",
		"id":      res.ApplicantID,
	})
}

func document(fh *multipart.FileHeader, f io.Reader) intake.Document {
	return intake.Document{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	}
}

// List handles GET /api/applicants.
func (h *ApplicantHandler) List(c echo.Context) error {
	items, err := h.Applicants.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /api/applicants/:id and returns the full record with
// nested references and locations.
func (h *ApplicantHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	a, err := h.Applicants.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, a)
}

type reviewUpdate struct {
	Status     string  `json:"status"`
	EmployeeID *uint64 `json:"employeeId"`
}

// Update handles PUT /api/applicants/:id.  The status is checked before
// anything is written, so an invalid value leaves the record unchanged.
// Omitting employeeId clears the assignment.
func (h *ApplicantHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	var body reviewUpdate
	if err := c.Bind(&body); err != nil {
		return respondError(c, h.Logger, errInvalidBody)
	}
	status := model.ApplicationStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	if status == "" {
		return respondError(c, h.Logger, apperr.Validation("status is required"))
	}
	if !status.Valid() {
		return respondError(c, h.Logger, apperr.Validation(`status must be one of "not viewed", "in review", "accepted", "rejected"`))
	}
	if body.EmployeeID != nil && *body.EmployeeID == 0 {
		body.EmployeeID = nil
	}

	ctx := c.Request().Context()
	if err := h.Applicants.UpdateReview(ctx, id, status, body.EmployeeID); err != nil {
		return respondError(c, h.Logger, err)
	}
	h.publishStatusChanged(ctx, queue.ApplicantStatusChangedEvent{
		ApplicantID:        id,
		Status:             string(status),
		AssignedEmployeeID: body.EmployeeID,
		ChangedAt:          time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Applicant updated successfully"})
}

func (h *ApplicantHandler) publishStatusChanged(ctx context.Context, ev queue.ApplicantStatusChangedEvent) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Events.PublishStatusChanged(ctx, ev); err != nil {
		h.Logger.Warn("publish applicant.status_changed failed", "applicant_id", ev.ApplicantID, "err", err)
	}
}

// CheckEmail handles GET /api/check-email/:email so the wizard can warn
// before the applicant fills in the whole form.
func (h *ApplicantHandler) CheckEmail(c echo.Context) error {
	email := c.Param("email")
	if unescaped, err := url.PathUnescape(email); err == nil {
		email = unescaped
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return respondError(c, h.Logger, apperr.Validation("a valid email address is required"))
	}
	m, err := h.Applicants.FindByEmail(c.Request().Context(), email)
	if errors.Is(err, repository.ErrApplicantNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"exists": false})
	}
	if err != nil {
		return respondError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": true, "applicant": m})
}
