package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/internal/service"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

// ReportHandler exposes the registrar reports.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches routes.
func (h *ReportHandler) Register(router fiber.Router, gates Gates) {
	router.Get("/deans-list", gates.staff(), h.deansList)
	router.Get("/transcript/:id", gates.staff(), h.transcript)
	router.Get("/gwa/:id", gates.staff(), h.gwa)
}

func (h *ReportHandler) deansList(c *fiber.Ctx) error {
	list, err := h.service.DeansList(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, list.Students, "dean's list retrieved", fiber.Map{"count": list.Count})
}

func (h *ReportHandler) transcript(c *fiber.Ctx) error {
	transcript, err := h.service.Transcript(requestContext(c), c.Params("id"), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "transcript retrieved", transcript)
}

func (h *ReportHandler) gwa(c *fiber.Ctx) error {
	gwa, err := h.service.GWA(requestContext(c), c.Params("id"), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "gwa calculated", gwa)
}
