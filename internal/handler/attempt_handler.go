package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/middleware"
	"github.com/classhub/scoring-api/internal/service"
	"github.com/classhub/scoring-api/internal/utils"
)

// AttemptHandler manages quiz attempt endpoints.
type AttemptHandler struct {
	service service.AttemptService
	logger  zerolog.Logger
}

// NewAttemptHandler builds an attempt handler instance.
func NewAttemptHandler(service service.AttemptService, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		logger:  logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Both routes
// require an authenticated user since attempts belong to the caller.
func (h *AttemptHandler) Register(router fiber.Router) {
	router.Post("/assessments/:id/attempts", middleware.WithAuth(h.start, middleware.AuthOptions{RequireUser: true}))
	router.Post("/attempts/:id/submit", middleware.WithAuth(h.submit, middleware.AuthOptions{RequireUser: true}))
}

func (h *AttemptHandler) start(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempt, err := h.service.Start(c.Context(), assessmentID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt started", attempt)
}

func (h *AttemptHandler) submit(c *fiber.Ctx) error {
	attemptID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AttemptSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Submit(c.Context(), attemptID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempt scored", result)
}

func (h *AttemptHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attempt not found")
	case errors.Is(err, service.ErrAssessmentNotOpen):
		return utils.SendError(c, fiber.StatusConflict, "assessment is not open for attempts")
	case errors.Is(err, service.ErrAttemptLimitExceeded):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAttemptAlreadyCompleted):
		return utils.SendError(c, fiber.StatusConflict, "attempt already completed")
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
