// services/respond.go
package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// RespondError maps business-error kinds onto HTTP statuses. Unknown
// errors are infrastructure failures — logged, reported as a generic 500.
func RespondError(c *fiber.Ctx, err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		status := fiber.StatusBadRequest
		switch svcErr.Kind {
		case ErrKindNotFound:
			status = fiber.StatusNotFound
		case ErrKindConflict:
			status = fiber.StatusConflict
		case ErrKindValidation, ErrKindInvalidTransition:
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": svcErr.Message})
	}

	log.Printf("❌ Unexpected service error on %s: %v", c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
