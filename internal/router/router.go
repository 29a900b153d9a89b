package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/joshuacenter/applicant-intake/internal/handler" // handlers that implement each endpoint
)

// RegisterRoutes registers the unauthenticated operational routes on the
// provided Echo instance.  At the moment it only exposes a health check
// that also pings the database.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	// Map GET /healthz to the Health handler.  Load balancers use it to
	// decide whether this instance should receive traffic.
	e.GET("/healthz", handler.Health(db))
}

// RegisterPublic registers the endpoints the application wizard calls.
// verified parses an optional verified-email token and must run before
// the submission handler; cache wraps the location list, which every
// wizard load fetches.
func RegisterPublic(e *echo.Echo, a *handler.ApplicantHandler, l *handler.LocationHandler, verified, cache echo.MiddlewareFunc) {
	g := e.Group("/api")
	// Submit the multipart application (data + resume).
	g.POST("/applicants", a.Submit, verified)
	// Let the wizard warn early when an email was already used.
	g.GET("/check-email/:email", a.CheckEmail)
	// Sites the applicant can pick from.
	g.GET("/locations", l.List, cache)
}

// RegisterVerification registers the email verification endpoints.  Both
// share the token-bucket limiter so six-digit codes cannot be brute forced.
func RegisterVerification(e *echo.Echo, v *handler.VerificationHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api", limiter)
	g.POST("/verify-email", v.RequestCode)
	g.POST("/verify-code", v.VerifyCode)
}
