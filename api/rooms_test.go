package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/petomi/doodle-mail-server/models"
	"github.com/petomi/doodle-mail-server/room"
)

// stubService returns canned results so the handler's translation to HTTP
// can be tested without a database.
type stubService struct {
	room    *models.Room
	msgs    []models.Message
	leave   room.LeaveResult
	err     error
	gotName string
}

func (s *stubService) Create(ctx context.Context, p models.Participant) (*models.Room, error) {
	s.gotName = p.DisplayName
	return s.room, s.err
}

func (s *stubService) Join(ctx context.Context, p models.Participant, entryCode string) (*models.Room, error) {
	return s.room, s.err
}

func (s *stubService) Leave(ctx context.Context, p models.Participant, entryCode string) (room.LeaveResult, error) {
	return s.leave, s.err
}

func (s *stubService) Info(ctx context.Context, entryCode string) (*models.Room, error) {
	return s.room, s.err
}

func (s *stubService) Messages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
	return s.msgs, s.err
}

func (s *stubService) Post(ctx context.Context, p models.Participant, roomID primitive.ObjectID, inputs []room.MessageInput) ([]models.Message, error) {
	return s.msgs, s.err
}

func (s *stubService) DeleteMessage(ctx context.Context, id primitive.ObjectID) error {
	return s.err
}

func newTestApp(svc RoomService) *fiber.App {
	app := fiber.New()
	h := &RoomHandler{Rooms: svc, JWTSecret: "test-secret"}
	app.Post("/api/rooms", h.CreateRoom)
	app.Post("/api/rooms/join", h.JoinRoom)
	app.Post("/api/rooms/leave", h.LeaveRoom)
	app.Get("/api/rooms/:code", h.GetRoomInfo)
	app.Get("/api/rooms/:id/messages", h.GetRoomMessages)
	app.Post("/api/rooms/:id/messages", h.PostMessages)
	app.Delete("/api/messages/:id", h.DeleteMessage)
	return app
}

func TestCreateRoomHandler(t *testing.T) {
	wanted := &models.Room{
		ID:           primitive.NewObjectID(),
		EntryCode:    "AB2C",
		Participants: []models.Participant{{DisplayName: "pleb"}},
	}
	svc := &stubService{room: wanted}
	app := newTestApp(svc)

	req := httptest.NewRequest("POST", "/api/rooms", strings.NewReader(`{"name":"pleb"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "pleb", svc.gotName)

	body, _ := io.ReadAll(resp.Body)
	var got models.Room
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "AB2C", got.EntryCode)
}

func TestJoinRoomHandlerStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", room.ErrNotFound, fiber.StatusNotFound},
		{"duplicate", room.ErrDuplicateParticipant, fiber.StatusConflict},
		{"invalid input", room.ErrInvalidInput, fiber.StatusBadRequest},
		{"store failure", room.ErrStore, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubService{err: tt.err})

			req := httptest.NewRequest("POST", "/api/rooms/join", strings.NewReader(`{"name":"jarl","entry_code":"AB2C"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestLeaveRoomHandlerReportsDeletion(t *testing.T) {
	app := newTestApp(&stubService{leave: room.LeaveResult{Deleted: true}})

	req := httptest.NewRequest("POST", "/api/rooms/leave", strings.NewReader(`{"name":"pleb","entry_code":"AB2C"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, true, got["deleted"])
}

func TestPostMessagesHandlerUnauthorized(t *testing.T) {
	app := newTestApp(&stubService{err: room.ErrUnauthorized})

	roomID := primitive.NewObjectID().Hex()
	req := httptest.NewRequest("POST", "/api/rooms/"+roomID+"/messages",
		strings.NewReader(`{"name":"thrall","messages":[{"title":"t","image_data":"d","background":"b"}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGetRoomMessagesHandlerRejectsBadID(t *testing.T) {
	app := newTestApp(&stubService{})

	req := httptest.NewRequest("GET", "/api/rooms/not-an-objectid/messages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeleteMessageHandlerNotFound(t *testing.T) {
	app := newTestApp(&stubService{err: room.ErrNotFound})

	req := httptest.NewRequest("DELETE", "/api/messages/"+primitive.NewObjectID().Hex(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
