package chat_test

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	wsclient "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/petomi/doodle-mail-server/chat"
	"github.com/petomi/doodle-mail-server/models"
	"github.com/petomi/doodle-mail-server/room"
)

// stubService returns canned results so the socket flow can be exercised
// against a real dialed connection without a database.
type stubService struct {
	mu         sync.Mutex
	infoRoom   *models.Room
	infoErr    error
	joinRoom   *models.Room
	joinErr    error
	leaveRes   room.LeaveResult
	leaveErr   error
	postMsgs   []models.Message
	postErr    error
	postRoomID primitive.ObjectID
}

func (s *stubService) Create(ctx context.Context, p models.Participant) (*models.Room, error) {
	return nil, room.ErrInvalidInput
}

func (s *stubService) Join(ctx context.Context, p models.Participant, entryCode string) (*models.Room, error) {
	return s.joinRoom, s.joinErr
}

func (s *stubService) Leave(ctx context.Context, p models.Participant, entryCode string) (room.LeaveResult, error) {
	return s.leaveRes, s.leaveErr
}

func (s *stubService) Info(ctx context.Context, entryCode string) (*models.Room, error) {
	return s.infoRoom, s.infoErr
}

func (s *stubService) Messages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
	return nil, nil
}

func (s *stubService) Post(ctx context.Context, p models.Participant, roomID primitive.ObjectID, inputs []room.MessageInput) ([]models.Message, error) {
	s.mu.Lock()
	s.postRoomID = roomID
	s.mu.Unlock()
	return s.postMsgs, s.postErr
}

func (s *stubService) postedTo() primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postRoomID
}

func (s *stubService) DeleteMessage(ctx context.Context, id primitive.ObjectID) error {
	return nil
}

// frame is the loose wire shape read back in tests; "message" is an object
// on message frames and a string on error frames.
type frame struct {
	Event       string              `json:"event"`
	Code        string              `json:"code"`
	Message     json.RawMessage     `json:"message"`
	Participant *models.Participant `json:"participant"`
}

func startServer(t *testing.T, svc *stubService) string {
	t.Helper()
	hub := chat.NewHub(svc, nil, "test-secret")
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws/:code", websocket.New(hub.Connect))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String()
}

func dial(t *testing.T, base, entryCode, name string) *wsclient.Conn {
	t.Helper()
	conn, _, err := wsclient.DefaultDialer.Dial(base+"/ws/"+entryCode+"?name="+name, nil)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func activeRoom(members ...string) *models.Room {
	r := &models.Room{ID: primitive.NewObjectID(), EntryCode: "AB2C"}
	for _, name := range members {
		r.Participants = append(r.Participants, models.Participant{DisplayName: name})
	}
	return r
}

// A second socket with the same identity can slip its join in between the
// membership check and ours; the connection must still attach to the room it
// looked up instead of crashing the process.
func TestConnectAttachesWhenIdentityAlreadyJoined(t *testing.T) {
	r := activeRoom("jarl")
	svc := &stubService{
		infoRoom: r,
		joinErr:  room.ErrDuplicateParticipant,
		postMsgs: []models.Message{{ID: primitive.NewObjectID(), RoomID: r.ID, Title: "sunrise"}},
	}
	conn := dial(t, startServer(t, svc), r.EntryCode, "pleb")

	require.NoError(t, conn.WriteJSON(chat.Event{
		Event:    chat.EventPostMessages,
		Messages: []room.MessageInput{{Title: "sunrise", ImageData: "xx"}},
	}))

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EventMessage, got.Event)
	assert.Equal(t, r.ID, svc.postedTo(), "post must target the room loaded at connect")
}

func TestConnectJoinsAndBroadcastsParticipant(t *testing.T) {
	r := activeRoom("pleb")
	joined := activeRoom("pleb", "jarl")
	joined.ID = r.ID
	svc := &stubService{infoRoom: r, joinRoom: joined}
	conn := dial(t, startServer(t, svc), r.EntryCode, "jarl")

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EventParticipantJoin, got.Event)
	require.NotNil(t, got.Participant)
	assert.Equal(t, "jarl", got.Participant.DisplayName)
}

func TestConnectUnknownRoomSendsErrorFrame(t *testing.T) {
	svc := &stubService{infoErr: room.ErrNotFound}
	conn := dial(t, startServer(t, svc), "ZZZZ", "pleb")

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EventError, got.Event)
	assert.Equal(t, "not_found", got.Code)

	// The server closes the socket after refusing the room.
	assert.Error(t, conn.ReadJSON(&got))
}

func TestPostErrorKeepsConnectionOpen(t *testing.T) {
	r := activeRoom("pleb")
	svc := &stubService{infoRoom: r, postErr: room.ErrUnauthorized}
	conn := dial(t, startServer(t, svc), r.EntryCode, "pleb")

	post := chat.Event{Event: chat.EventPostMessages, Messages: []room.MessageInput{{Title: "t"}}}

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(post))
		var got frame
		require.NoError(t, conn.ReadJSON(&got), "connection should survive a domain error")
		assert.Equal(t, chat.EventError, got.Event)
		assert.Equal(t, "unauthorized", got.Code)
	}
}

func TestLeaveBroadcastsRoomDeleted(t *testing.T) {
	r := activeRoom("pleb")
	svc := &stubService{infoRoom: r, leaveRes: room.LeaveResult{Deleted: true}}
	conn := dial(t, startServer(t, svc), r.EntryCode, "pleb")

	require.NoError(t, conn.WriteJSON(chat.Event{Event: chat.EventLeave}))

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EventRoomDeleted, got.Event)

	// The read loop ends once the participant has left.
	assert.Error(t, conn.ReadJSON(&got))
}

func TestLeaveBroadcastsParticipantLeft(t *testing.T) {
	r := activeRoom("pleb", "jarl")
	svc := &stubService{infoRoom: r, leaveRes: room.LeaveResult{Room: activeRoom("jarl")}}
	conn := dial(t, startServer(t, svc), r.EntryCode, "pleb")

	require.NoError(t, conn.WriteJSON(chat.Event{Event: chat.EventLeave}))

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EventParticipantLeft, got.Event)
	require.NotNil(t, got.Participant)
	assert.Equal(t, "pleb", got.Participant.DisplayName)
}

func TestUnknownEventGetsErrorFrame(t *testing.T) {
	r := activeRoom("pleb")
	svc := &stubService{infoRoom: r}
	conn := dial(t, startServer(t, svc), r.EntryCode, "pleb")

	require.NoError(t, conn.WriteJSON(chat.Event{Event: "shout"}))

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EventError, got.Event)
	assert.Equal(t, "invalid_input", got.Code)
}
