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

// AssignmentHandler manages assignment authoring endpoints.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AssignmentHandler) Register(router fiber.Router, professorOnly fiber.Handler) {
	router.Get("", h.list)
	router.Post("", professorOnly, h.create)
	router.Post("/:id/publish", professorOnly, h.publish)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "class_id")
	if err != nil || classID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "class_id is required")
	}

	assignments, err := h.service.ListByClass(c.Context(), *classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	// An attached file is optional for assignments.
	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	assignment, err := h.service.Create(c.Context(), payload, file, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Publish(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment published", assignment)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrInvalidDueDate):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
