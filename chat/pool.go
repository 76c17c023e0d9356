package chat

import (
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pool fans room events out to every socket connected to one room.
type Pool struct {
	RoomID     primitive.ObjectID
	EntryCode  string
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Frame
}

func NewPool(roomID primitive.ObjectID, entryCode string) *Pool {
	return &Pool{
		RoomID:     roomID,
		EntryCode:  entryCode,
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Frame),
	}
}

// Listen owns the client set. It exits once the last client unregisters and
// tells the hub to forget the pool.
func (p *Pool) Listen(hub *Hub) {
	for {
		select {
		case client := <-p.Register:
			p.Clients[client] = true
		case client := <-p.Unregister:
			delete(p.Clients, client)
			if len(p.Clients) == 0 {
				hub.remove(p)
				return
			}
		case frame := <-p.Broadcast:
			for client := range p.Clients {
				if err := client.Conn.WriteJSON(frame); err != nil {
					logrus.WithError(err).WithField("client_id", client.ID).Warn("Failed to write to socket")
				}
			}
		}
	}
}
