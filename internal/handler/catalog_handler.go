package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/service"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

// CatalogHandler exposes the admin catalog endpoints.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Register attaches routes.
func (h *CatalogHandler) Register(router fiber.Router, gates Gates) {
	router.Post("/programs", gates.registrar(), h.createProgram)
	router.Post("/courses", gates.registrar(), h.createCourse)
	router.Post("/curriculum", gates.registrar(), h.createCurriculum)
}

func (h *CatalogHandler) createProgram(c *fiber.Ctx) error {
	var payload dto.ProgramCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	program, err := h.service.CreateProgram(requestContext(c), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "program added", program)
}

func (h *CatalogHandler) createCourse(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.CreateCourse(requestContext(c), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course added", course)
}

func (h *CatalogHandler) createCurriculum(c *fiber.Ctx) error {
	var payload dto.CurriculumCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	curriculum, err := h.service.CreateCurriculum(requestContext(c), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "curriculum added", curriculum)
}
