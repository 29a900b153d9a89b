package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/joshuacenter/applicant-intake/internal/handler" // admin handlers
)

// RegisterAdmin registers the back-office endpoints under /api.  Staff
// sign-in happens in front of this service, so no middleware is attached
// here.
func RegisterAdmin(e *echo.Echo, a *handler.ApplicantHandler, l *handler.LocationHandler, u *handler.UserHandler) {
	g := e.Group("/api")

	// ---- Applicants ----
	g.GET("/applicants", a.List)
	g.GET("/applicants/:id", a.Get)
	g.PUT("/applicants/:id", a.Update)

	// ---- Locations ----
	// GET /api/locations is public and registered by RegisterPublic.
	g.POST("/locations", l.Create)
	g.PUT("/locations/:id", l.Update)
	g.DELETE("/locations/:id", l.Delete)

	// ---- Users ----
	g.GET("/users", u.List)
	g.POST("/users", u.Create)
	g.PUT("/users/:id", u.Update)
	g.DELETE("/users/:id", u.Delete)
}
