package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/service"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

// StudentHandler exposes the student registry.
type StudentHandler struct {
	students service.StudentService
	reports  service.ReportService
	logger   zerolog.Logger
}

// NewStudentHandler constructs the handler. reports may be nil, in which case
// the transcript route is not registered.
func NewStudentHandler(students service.StudentService, reports service.ReportService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students: students,
		reports:  reports,
		logger:   logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches routes.
func (h *StudentHandler) Register(router fiber.Router, gates Gates) {
	router.Get("", gates.staff(), h.list)
	router.Post("", gates.registrar(), h.create)
	router.Get("/:id", gates.staff(), h.get)
	router.Put("/:id", gates.registrar(), h.update)
	router.Patch("/:id/archive", gates.registrar(), h.archive)
	router.Patch("/:id/restore", gates.registrar(), h.restore)
	if h.reports != nil {
		router.Get("/:id/transcript", gates.staff(), h.transcript)
	}
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	var req dto.StudentListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	students, err := h.students.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	meta := fiber.Map{
		"count":    len(students),
		"archived": req.Archived,
		"search":   req.Search,
	}
	return utils.OK(c, students, "students retrieved", meta)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	student, err := h.students.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.students.Create(requestContext(c), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.students.Update(requestContext(c), c.Params("id"), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) archive(c *fiber.Ctx) error {
	student, err := h.students.Archive(requestContext(c), c.Params("id"), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "student archived", student)
}

func (h *StudentHandler) restore(c *fiber.Ctx) error {
	student, err := h.students.Restore(requestContext(c), c.Params("id"), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "student restored", student)
}

func (h *StudentHandler) transcript(c *fiber.Ctx) error {
	transcript, err := h.reports.Transcript(requestContext(c), c.Params("id"), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "transcript retrieved", transcript)
}
