package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classhub/scoring-api/internal/service"
	"github.com/classhub/scoring-api/internal/utils"
)

// ReportHandler serves the aggregated analytics endpoints.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler builds a report handler instance.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReportHandler) Register(router fiber.Router, professorOnly fiber.Handler) {
	router.Get("/classes/:classID", professorOnly, h.classReport)
	router.Get("/classes/:classID/students/:studentID", h.studentReport)
	router.Get("/classes/:classID/attendance", professorOnly, h.attendanceRange)
}

func (h *ReportHandler) classReport(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.ClassReport(c.Context(), classID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class report generated", report)
}

func (h *ReportHandler) studentReport(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	// Students may only view their own report; professors and admins see all.
	actor := actorFromContext(c)
	if actor.Role == "student" && actor.ID != studentID {
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	}

	report, err := h.service.StudentReport(c.Context(), classID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student report generated", report)
}

func (h *ReportHandler) attendanceRange(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	opts, err := rateOptionsFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.AttendanceRangeReport(c.Context(), classID, opts)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance report generated", summary)
}

func (h *ReportHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
