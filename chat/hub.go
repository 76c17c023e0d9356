// Package chat is the websocket channel. Every operation it carries is the
// same room operation the REST endpoints expose, persisted through the same
// service and then fanned out to the room's pool.
package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/petomi/doodle-mail-server/api"
	"github.com/petomi/doodle-mail-server/models"
	"github.com/petomi/doodle-mail-server/room"
)

// Hub tracks one Pool per room with at least one open socket.
type Hub struct {
	Rooms     api.RoomService
	Users     api.UserStore
	JWTSecret string

	mu    sync.Mutex
	pools map[string]*Pool
}

func NewHub(rooms api.RoomService, users api.UserStore, jwtSecret string) *Hub {
	return &Hub{
		Rooms:     rooms,
		Users:     users,
		JWTSecret: jwtSecret,
		pools:     make(map[string]*Pool),
	}
}

// Connect handles a new socket on /ws/:code. The caller's identity comes
// from the jwt cookie when present, otherwise from the name query param.
// Connecting to a room the identity is not yet a member of joins it, exactly
// as the REST join would.
func (h *Hub) Connect(conn *websocket.Conn) {
	ctx := context.Background()
	entryCode := conn.Params("code")

	p := h.identify(ctx, conn)
	if p.Zero() {
		conn.WriteJSON(newErrorFrame(room.ErrInvalidInput))
		conn.Close()
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"participant": p.String(), "entry_code": entryCode})

	r, err := h.Rooms.Info(ctx, entryCode)
	if err != nil {
		conn.WriteJSON(newErrorFrame(err))
		conn.Close()
		return
	}

	joined := false
	if !r.HasParticipant(p) {
		updated, err := h.Rooms.Join(ctx, p, entryCode)
		switch {
		case err == nil:
			r = updated
			joined = true
		case errors.Is(err, room.ErrDuplicateParticipant):
			// Someone joined with this identity between the membership
			// check and the join; stay attached to the room loaded above.
		default:
			conn.WriteJSON(newErrorFrame(err))
			conn.Close()
			return
		}
	}

	pool := h.pool(r)
	client := &Client{
		ID:          uuid.NewString(),
		Participant: p,
		Conn:        conn,
		Pool:        pool,
		hub:         h,
	}
	pool.Register <- client
	if joined {
		pool.Broadcast <- Frame{Event: EventParticipantJoin, Participant: &p}
	}
	logCtx.WithField("client_id", client.ID).Info("Socket attached to room")

	client.Read()
}

func (h *Hub) identify(ctx context.Context, conn *websocket.Conn) models.Participant {
	if user := api.UserFromToken(ctx, h.Users, h.JWTSecret, conn.Cookies("jwt")); user != nil {
		return user.Participant()
	}
	return models.Participant{DisplayName: conn.Query("name")}
}

// pool returns the live pool for a room, starting one if needed.
func (h *Hub) pool(r *models.Room) *Pool {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := r.ID.Hex()
	if p, ok := h.pools[key]; ok {
		return p
	}
	p := NewPool(r.ID, r.EntryCode)
	h.pools[key] = p
	go p.Listen(h)
	return p
}

func (h *Hub) remove(p *Pool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pools, p.RoomID.Hex())
}
