// Package api holds the Fiber handlers for the REST endpoints.
package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/petomi/doodle-mail-server/models"
	"github.com/petomi/doodle-mail-server/room"
)

// RoomService is what the handlers need from the room core.
type RoomService interface {
	Create(ctx context.Context, p models.Participant) (*models.Room, error)
	Join(ctx context.Context, p models.Participant, entryCode string) (*models.Room, error)
	Leave(ctx context.Context, p models.Participant, entryCode string) (room.LeaveResult, error)
	Info(ctx context.Context, entryCode string) (*models.Room, error)
	Messages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error)
	Post(ctx context.Context, p models.Participant, roomID primitive.ObjectID, inputs []room.MessageInput) ([]models.Message, error)
	DeleteMessage(ctx context.Context, id primitive.ObjectID) error
}

type RoomHandler struct {
	Rooms     RoomService
	Users     UserStore
	JWTSecret string
}

type membershipRequest struct {
	Name      string `json:"name"`
	EntryCode string `json:"entry_code"`
}

type postMessagesRequest struct {
	Name     string              `json:"name"`
	Messages []room.MessageInput `json:"messages"`
}

// participant resolves the caller's identity: the logged-in user when a
// valid jwt cookie is present, otherwise the bare display name from the
// request body. A zero participant falls through to the service's
// InvalidInput check.
func (h *RoomHandler) participant(c *fiber.Ctx, name string) models.Participant {
	if user := UserFromToken(c.Context(), h.Users, h.JWTSecret, c.Cookies("jwt")); user != nil {
		return user.Participant()
	}
	return models.Participant{DisplayName: name}
}

func (h *RoomHandler) CreateRoom(c *fiber.Ctx) error {
	var req membershipRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid request body"})
	}

	r, err := h.Rooms.Create(c.Context(), h.participant(c, req.Name))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(r)
}

func (h *RoomHandler) JoinRoom(c *fiber.Ctx) error {
	var req membershipRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid request body"})
	}

	r, err := h.Rooms.Join(c.Context(), h.participant(c, req.Name), req.EntryCode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(r)
}

func (h *RoomHandler) LeaveRoom(c *fiber.Ctx) error {
	var req membershipRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid request body"})
	}

	res, err := h.Rooms.Leave(c.Context(), h.participant(c, req.Name), req.EntryCode)
	if err != nil {
		return fail(c, err)
	}
	if res.Deleted {
		return c.JSON(fiber.Map{"message": "room deleted", "deleted": true})
	}
	return c.JSON(fiber.Map{"message": "left room", "deleted": false, "room": res.Room})
}

func (h *RoomHandler) GetRoomInfo(c *fiber.Ctx) error {
	r, err := h.Rooms.Info(c.Context(), c.Params("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(r)
}

func (h *RoomHandler) GetRoomMessages(c *fiber.Ctx) error {
	roomID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid room id"})
	}

	msgs, err := h.Rooms.Messages(c.Context(), roomID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *RoomHandler) PostMessages(c *fiber.Ctx) error {
	roomID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid room id"})
	}

	var req postMessagesRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid request body"})
	}

	msgs, err := h.Rooms.Post(c.Context(), h.participant(c, req.Name), roomID, req.Messages)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *RoomHandler) DeleteMessage(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid message id"})
	}

	if err := h.Rooms.DeleteMessage(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "message deleted"})
}
