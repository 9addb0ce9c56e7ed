package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/service"
	"github.com/classhub/scoring-api/internal/utils"
)

// AttendanceHandler manages attendance session and rate endpoints.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler builds an attendance handler instance.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AttendanceHandler) Register(router fiber.Router, professorOnly fiber.Handler) {
	router.Post("/sessions", professorOnly, h.createSession)
	router.Post("/sessions/:id/marks", professorOnly, h.mark)
	router.Get("/classes/:classID/students/:studentID/rate", h.studentRate)
	router.Get("/classes/:classID/summary", professorOnly, h.classSummary)
}

func (h *AttendanceHandler) createSession(c *fiber.Ctx) error {
	var payload dto.AttendanceSessionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.CreateSession(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance session created", session)
}

func (h *AttendanceHandler) mark(c *fiber.Ctx) error {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AttendanceMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.service.Mark(c.Context(), sessionID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance marked", record)
}

func (h *AttendanceHandler) studentRate(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	opts, err := rateOptionsFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rate, err := h.service.StudentRate(c.Context(), classID, studentID, opts)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance rate computed", rate)
}

func (h *AttendanceHandler) classSummary(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	opts, err := rateOptionsFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.ClassSummary(c.Context(), classID, opts)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class attendance summary computed", summary)
}

func rateOptionsFromQuery(c *fiber.Ctx) (dto.AttendanceRateOptions, error) {
	from, err := parseQueryTime(c, "from")
	if err != nil {
		return dto.AttendanceRateOptions{}, err
	}
	to, err := parseQueryTime(c, "to")
	if err != nil {
		return dto.AttendanceRateOptions{}, err
	}

	return dto.AttendanceRateOptions{
		From:            from,
		To:              to,
		IncludeUnmarked: parseQueryBool(c, "include_unmarked"),
	}, nil
}

func (h *AttendanceHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attendance session not found")
	case errors.Is(err, service.ErrInvalidAttendanceStatus):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid attendance status")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "student is not enrolled in this class")
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
