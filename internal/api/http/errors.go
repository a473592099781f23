package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

const genericMessage = "something went wrong"

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an error kind onto the HTTP status it is reported with.
func statusFor(kind apperrors.Kind) int {
	switch {
	case apperrors.IsValidation(kind):
		return http.StatusBadRequest
	case kind == apperrors.KindArtifactNotFound:
		return http.StatusNotFound
	case kind == apperrors.KindArtifactBusy:
		return http.StatusConflict
	case kind == apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as
// {"error":{"code","message"}}. Server faults are logged in full and only a
// generic message is sent.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := "http_error"
			if fe.Code == fiber.StatusNotFound {
				code = "not_found"
			}
			return c.Status(fe.Code).JSON(errorBody{Error: errorDetail{Code: code, Message: fe.Message}})
		}

		kind := apperrors.KindOf(err)
		status := statusFor(kind)
		message := apperrors.MessageOf(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"code", kind,
				"error", err,
			)
			message = genericMessage
		}
		if message == "" {
			message = genericMessage
		}
		return c.Status(status).JSON(errorBody{Error: errorDetail{Code: string(kind), Message: message}})
	}
}
