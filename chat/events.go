package chat

import (
	"errors"

	"github.com/petomi/doodle-mail-server/models"
	"github.com/petomi/doodle-mail-server/room"
)

// Inbound event names.
const (
	EventPostMessages = "post_messages"
	EventLeave        = "leave"
)

// Outbound frame names.
const (
	EventMessage         = "message"
	EventParticipantJoin = "participant_joined"
	EventParticipantLeft = "participant_left"
	EventRoomDeleted     = "room_deleted"
	EventError           = "error"
)

// Event is a frame read from a client.
type Event struct {
	Event    string              `json:"event"`
	Messages []room.MessageInput `json:"messages,omitempty"`
}

// Frame is a broadcast sent to every client in a pool.
type Frame struct {
	Event       string              `json:"event"`
	Message     *models.Message     `json:"message,omitempty"`
	Participant *models.Participant `json:"participant,omitempty"`
}

// ErrorFrame is sent only to the client whose request failed.
type ErrorFrame struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorFrame(err error) ErrorFrame {
	code, msg := "store_error", "something went wrong"
	switch {
	case errors.Is(err, room.ErrInvalidInput):
		code, msg = "invalid_input", "missing required field"
	case errors.Is(err, room.ErrNotFound):
		code, msg = "not_found", "not found"
	case errors.Is(err, room.ErrDuplicateParticipant):
		code, msg = "duplicate_participant", "already in room"
	case errors.Is(err, room.ErrUnauthorized):
		code, msg = "unauthorized", "you are not in this room"
	case errors.Is(err, room.ErrCodeExhausted):
		code = "code_exhausted"
	}
	return ErrorFrame{Event: EventError, Code: code, Message: msg}
}
