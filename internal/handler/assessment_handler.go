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

// AssessmentHandler manages quiz authoring and statistics endpoints.
type AssessmentHandler struct {
	assessments service.AssessmentService
	attempts    service.AttemptService
	logger      zerolog.Logger
}

// NewAssessmentHandler builds an assessment handler instance.
func NewAssessmentHandler(assessments service.AssessmentService, attempts service.AttemptService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments: assessments,
		attempts:    attempts,
		logger:      logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The professor
// guard wraps authoring routes; read routes stay open to any authenticated
// user.
func (h *AssessmentHandler) Register(router fiber.Router, professorOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", professorOnly, h.create)
	router.Post("/:id/publish", professorOnly, h.publish)
	router.Get("/:id/stats", professorOnly, h.stats)
}

func (h *AssessmentHandler) list(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "class_id")
	if err != nil || classID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "class_id is required")
	}

	assessments, err := h.assessments.ListByClass(c.Context(), *classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessments retrieved", assessments)
}

func (h *AssessmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assessment, err := h.assessments.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment retrieved", assessment)
}

func (h *AssessmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssessmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assessment, err := h.assessments.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment created", assessment)
}

func (h *AssessmentHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assessment, err := h.assessments.Publish(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment published", assessment)
}

func (h *AssessmentHandler) stats(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.attempts.Stats(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment stats retrieved", stats)
}

func (h *AssessmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrInvalidQuestion):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
