package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/service"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// LogStream hands out live feeds of written audit documents.
type LogStream interface {
	Subscribe(collection string) (<-chan auditlog.Document, func())
}

// LogHandler ingests client audit entries and serves the server timelines.
type LogHandler struct {
	service service.AuditService
	stream  LogStream
	logger  zerolog.Logger
}

// NewLogHandler constructs the handler. stream may be nil, in which case the
// live tail is not registered.
func NewLogHandler(service service.AuditService, stream LogStream, logger zerolog.Logger) *LogHandler {
	return &LogHandler{
		service: service,
		stream:  stream,
		logger:  logger.With().Str("component", "log_handler").Logger(),
	}
}

// Register attaches routes. The optional gate runs before the limiter so
// signed-in callers are throttled per account rather than per address.
func (h *LogHandler) Register(router fiber.Router, gates Gates) {
	router.Post("", gates.optional(), gates.ingest(), h.create)
	if h.stream != nil {
		router.Get("/stream", gates.registrar(), h.upgrade, websocket.New(h.tail))
	}
	router.Get("/:category", gates.registrar(), h.List)
}

// RegisterReportAlias serves the log listing under the reports group.
func (h *LogHandler) RegisterReportAlias(router fiber.Router, gates Gates) {
	router.Get("/logs/:category", gates.registrar(), h.List)
}

func (h *LogHandler) create(c *fiber.Ctx) error {
	var payload dto.LogCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.service.Create(requestContext(c), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "log accepted", receipt)
}

// List returns every document of the category named in the path. It is also
// mounted under the reports group.
func (h *LogHandler) List(c *fiber.Ctx) error {
	logs, err := h.service.List(requestContext(c), c.Params("category"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, logs.Logs, "logs retrieved", fiber.Map{
		"category":   logs.Category,
		"collection": logs.Collection,
		"count":      logs.Count,
	})
}

func (h *LogHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return utils.SendError(c, fiber.StatusUpgradeRequired, "websocket upgrade required")
	}

	collection := ""
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category := audit.ParseCategory(raw)
		if !category.Known() {
			return respondError(c, h.logger, service.ErrUnknownCategory)
		}
		collection = category.Collection()
	}
	c.Locals("log_collection", collection)
	return c.Next()
}

func (h *LogHandler) tail(conn *websocket.Conn) {
	collection, _ := conn.Locals("log_collection").(string)
	feed, cancel := h.stream.Subscribe(collection)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info().Str("collection", collection).Msg("log stream connected")
	defer h.logger.Info().Str("collection", collection).Msg("log stream disconnected")

	for {
		select {
		case <-closed:
			return
		case doc, ok := <-feed:
			if !ok {
				return
			}
			if err := conn.WriteJSON(doc); err != nil {
				return
			}
		}
	}
}
