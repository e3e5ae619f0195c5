package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/internal/grading"
	"github.com/noah-isme/sao-registrar-api/internal/middleware"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/internal/service"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ErrorHandler is the application-wide fiber error handler. Handlers return
// domain errors and this maps them onto the response envelope.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	base := logger.With().Str("component", "error_handler").Logger()
	return func(c *fiber.Ctx, err error) error {
		return respondError(c, base, err)
	}
}

func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", fieldErrors(validationErrs))
	}

	var domainErr *service.ValidationError
	if errors.As(err, &domainErr) {
		return utils.SendError(c, fiber.StatusBadRequest, domainErr.Message)
	}

	if errors.Is(err, grading.ErrGradeInvalid) || errors.Is(err, grading.ErrGradeTooLong) {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	switch {
	case errors.Is(err, repository.ErrProcedureRejected),
		errors.Is(err, service.ErrUnknownCategory),
		errors.Is(err, repository.ErrReferenceMissing):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrEnrollmentNotFound),
		errors.Is(err, repository.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateStudent),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, repository.ErrDuplicate):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return utils.SendError(c, fiberErr.Code, fiberErr.Message)
	}

	reqLogger := middleware.RequestLogger(c, logger)
	reqLogger.Error().Err(err).Msg("unhandled request error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func fieldErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}
