package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/classhub/scoring-api/internal/config"
	"github.com/classhub/scoring-api/internal/handler"
	"github.com/classhub/scoring-api/internal/middleware"
	"github.com/classhub/scoring-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler   *handler.AssessmentHandler
	AttemptHandler      *handler.AttemptHandler
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	AttendanceHandler   *handler.AttendanceHandler
	ReportHandler       *handler.ReportHandler
	NotificationHandler *handler.NotificationHandler
	ActivityHandler     *handler.ActivityHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	professorOnly := middleware.RequireRole("professor", "admin")

	if deps.AssessmentHandler != nil {
		assessments := app.Group("/api/v1/assessments", jwtMiddleware)
		deps.AssessmentHandler.Register(assessments, professorOnly)
	}

	if deps.AttemptHandler != nil {
		attempts := app.Group("/api/v1", jwtMiddleware)
		deps.AttemptHandler.Register(attempts)
	}

	if deps.AssignmentHandler != nil {
		assignments := app.Group("/api/v1/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments, professorOnly)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions, professorOnly)
	}

	if deps.AttendanceHandler != nil {
		attendance := app.Group("/api/v1/attendance", jwtMiddleware)
		deps.AttendanceHandler.Register(attendance, professorOnly)
	}

	if deps.ReportHandler != nil {
		reports := app.Group("/api/v1/reports", jwtMiddleware)
		deps.ReportHandler.Register(reports, professorOnly)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.ActivityHandler != nil {
		activity := app.Group("/api/v1/activity", jwtMiddleware, middleware.RequireRole("admin"))
		deps.ActivityHandler.Register(activity)
	}
}
