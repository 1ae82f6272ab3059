package httpx

import (
	"errors"

	"tableserve-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Success writes the standard success envelope.
func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// Message writes a success envelope that carries only a message.
func Message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": msg,
	})
}

// ErrorHandler is installed as fiber.Config.ErrorHandler. Known application
// errors map to the error envelope; everything else is logged in full and
// returned as a generic 500.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			entry := log.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
				"code":   appErr.Code,
			})
			if appErr.Status >= 500 {
				entry.WithError(appErr.Err).Error(appErr.Message)
				return writeError(c, appErr.Status, string(appErr.Code), "internal server error", nil)
			}
			entry.Warn(appErr.Message)
			return writeError(c, appErr.Status, string(appErr.Code), appErr.Message, appErr.Fields)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Warn(fiberErr.Message)
			return writeError(c, fiberErr.Code, "", fiberErr.Message, nil)
		}

		log.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).WithError(err).Error("unhandled error")
		return writeError(c, fiber.StatusInternalServerError, string(apperr.CodeInternal), "internal server error", nil)
	}
}

func writeError(c *fiber.Ctx, status int, code, msg string, fields []apperr.FieldError) error {
	body := fiber.Map{
		"status":  "error",
		"message": msg,
	}
	if code != "" {
		body["code"] = code
	}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	return c.Status(status).JSON(body)
}
