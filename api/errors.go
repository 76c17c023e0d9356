package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/petomi/doodle-mail-server/room"
)

// fail translates a service error into an HTTP status and a small JSON
// message. Store failures are already logged where they happened; the client
// only sees the generic classification.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, room.ErrInvalidInput):
		c.Status(fiber.StatusBadRequest)
	case errors.Is(err, room.ErrNotFound):
		c.Status(fiber.StatusNotFound)
	case errors.Is(err, room.ErrDuplicateParticipant):
		c.Status(fiber.StatusConflict)
	case errors.Is(err, room.ErrUnauthorized):
		c.Status(fiber.StatusForbidden)
	default:
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{"message": "something went wrong"})
	}
	return c.JSON(fiber.Map{"message": publicMessage(err)})
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, room.ErrInvalidInput):
		return "missing required field"
	case errors.Is(err, room.ErrNotFound):
		return "not found"
	case errors.Is(err, room.ErrDuplicateParticipant):
		return "already in room"
	case errors.Is(err, room.ErrUnauthorized):
		return "you are not in this room"
	}
	return "something went wrong"
}
