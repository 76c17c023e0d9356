package chat

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/petomi/doodle-mail-server/models"
	"github.com/petomi/doodle-mail-server/room"
)

// Client is one websocket connection attached to a room's pool.
type Client struct {
	ID          string
	Participant models.Participant
	Conn        *websocket.Conn
	Pool        *Pool
	hub         *Hub
}

// Read loops over inbound events until the connection drops. Each event
// duplicates one of the REST operations; domain errors go back to this
// client as an error frame instead of closing the socket.
func (c *Client) Read() {
	defer func() {
		c.Pool.Unregister <- c
		c.Conn.Close()
	}()

	for {
		var evt Event
		if err := c.Conn.ReadJSON(&evt); err != nil {
			logrus.WithError(err).WithField("client_id", c.ID).Debug("Socket read ended")
			return
		}

		switch evt.Event {
		case EventPostMessages:
			c.postMessages(evt.Messages)
		case EventLeave:
			if c.leave() {
				return
			}
		default:
			c.writeError(room.ErrInvalidInput)
		}
	}
}

func (c *Client) postMessages(inputs []room.MessageInput) {
	msgs, err := c.hub.Rooms.Post(context.Background(), c.Participant, c.Pool.RoomID, inputs)
	if err != nil {
		c.writeError(err)
		return
	}
	for i := range msgs {
		c.Pool.Broadcast <- Frame{Event: EventMessage, Message: &msgs[i]}
	}
}

// leave runs the leave transition and reports whether the read loop should
// end (it always should once the participant is out of the room).
func (c *Client) leave() bool {
	res, err := c.hub.Rooms.Leave(context.Background(), c.Participant, c.Pool.EntryCode)
	if err != nil {
		// Losing the room to a concurrent leave still means we are out.
		if errors.Is(err, room.ErrNotFound) {
			return true
		}
		c.writeError(err)
		return false
	}
	if res.Deleted {
		c.Pool.Broadcast <- Frame{Event: EventRoomDeleted}
	} else {
		p := c.Participant
		c.Pool.Broadcast <- Frame{Event: EventParticipantLeft, Participant: &p}
	}
	return true
}

func (c *Client) writeError(err error) {
	if werr := c.Conn.WriteJSON(newErrorFrame(err)); werr != nil {
		logrus.WithError(werr).WithField("client_id", c.ID).Warn("Failed to write error frame")
	}
}
