// Package room implements the room lifecycle: entry-code generation,
// membership (create/join/leave with delete-on-empty), and the message feed.
package room

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/petomi/doodle-mail-server/models"
)

// Service runs the membership state machine on top of an injected Store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	if store == nil {
		panic("room: store cannot be nil")
	}
	return &Service{store: store}
}

// MessageInput is one drawing to post.
type MessageInput struct {
	Title      string `json:"title"`
	ImageData  string `json:"image_data"`
	Background string `json:"background"`
}

// LeaveResult states which terminal the leave transition reached: the room
// is either still active (Room set) or was deleted because the leaving
// participant was the last one.
type LeaveResult struct {
	Deleted bool
	Room    *models.Room
}

// Create makes a new room containing exactly the creating participant. The
// entry code is drawn at random; the store's unique index arbitrates
// collisions, so a concurrent creator racing us simply forces a redraw.
func (s *Service) Create(ctx context.Context, p models.Participant) (*models.Room, error) {
	if p.Zero() {
		return nil, ErrInvalidInput
	}
	logCtx := logrus.WithField("participant", p.String())

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := newEntryCode()
		if err != nil {
			logCtx.WithError(err).Error("Failed to draw entry code")
			return nil, storeErr(err)
		}

		r := &models.Room{
			EntryCode:    code,
			Participants: []models.Participant{p},
			CreatedAt:    time.Now().UTC(),
		}
		err = s.store.InsertRoom(ctx, r)
		if err == nil {
			logCtx.WithField("entry_code", code).Info("Room created")
			return r, nil
		}
		if errors.Is(err, ErrCodeTaken) {
			logCtx.WithField("entry_code", code).Warnf("Entry code already taken, retrying (attempt %d)", attempt)
			continue
		}
		logCtx.WithError(err).Error("Failed to insert new room")
		return nil, storeErr(err)
	}

	logCtx.Errorf("Gave up generating an entry code after %d attempts", maxCodeAttempts)
	return nil, ErrCodeExhausted
}

// Join adds p to the room with the given entry code. Joining a room that
// already contains an equal identity fails with ErrDuplicateParticipant and
// leaves the participant set untouched.
func (s *Service) Join(ctx context.Context, p models.Participant, entryCode string) (*models.Room, error) {
	if p.Zero() || entryCode == "" {
		return nil, ErrInvalidInput
	}
	logCtx := logrus.WithFields(logrus.Fields{"participant": p.String(), "entry_code": entryCode})

	r, err := s.store.FindRoomByCode(ctx, entryCode)
	if err != nil {
		logCtx.WithError(err).Error("Failed to look up room by entry code")
		return nil, storeErr(err)
	}
	if r == nil {
		return nil, ErrNotFound
	}

	// Guarded push: the store only matches the room if no equal identity is
	// present, so the duplicate check and the insert are one atomic update.
	added, err := s.store.AddParticipant(ctx, r.ID, p)
	if err != nil {
		logCtx.WithError(err).Error("Failed to add participant")
		return nil, storeErr(err)
	}
	if !added {
		// Either p was already a member or the room vanished under us.
		current, err := s.store.FindRoomByID(ctx, r.ID)
		if err != nil {
			return nil, storeErr(err)
		}
		if current == nil {
			return nil, ErrNotFound
		}
		return nil, ErrDuplicateParticipant
	}

	joined, err := s.store.FindRoomByID(ctx, r.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to reload room after join")
		return nil, storeErr(err)
	}
	if joined == nil {
		return nil, ErrNotFound
	}
	logCtx.Info("Participant joined room")
	return joined, nil
}

// Leave removes p from the room. Removing the last participant deletes the
// room (and its messages) as part of this same operation. Leaving a room one
// is not a member of is a no-op, not an error.
func (s *Service) Leave(ctx context.Context, p models.Participant, entryCode string) (LeaveResult, error) {
	if p.Zero() || entryCode == "" {
		return LeaveResult{}, ErrInvalidInput
	}
	logCtx := logrus.WithFields(logrus.Fields{"participant": p.String(), "entry_code": entryCode})

	r, err := s.store.FindRoomByCode(ctx, entryCode)
	if err != nil {
		logCtx.WithError(err).Error("Failed to look up room by entry code")
		return LeaveResult{}, storeErr(err)
	}
	if r == nil {
		return LeaveResult{}, ErrNotFound
	}

	remaining, err := s.store.RemoveParticipant(ctx, r.ID, p)
	if err != nil {
		logCtx.WithError(err).Error("Failed to remove participant")
		return LeaveResult{}, storeErr(err)
	}
	if remaining == nil {
		// Concurrent leave already emptied and deleted the room.
		return LeaveResult{Deleted: true}, nil
	}

	if len(remaining.Participants) == 0 {
		// The guard re-checks emptiness so a racing join keeps the room.
		deleted, err := s.store.DeleteRoomIfEmpty(ctx, remaining.ID)
		if deleted {
			// The room document is gone even if the message cascade
			// failed; the leave itself succeeded.
			if err != nil {
				logCtx.WithError(err).Warn("Room deleted but message cleanup failed")
			}
			logCtx.Info("Room emptied and deleted")
			return LeaveResult{Deleted: true}, nil
		}
		if err != nil {
			logCtx.WithError(err).Error("Failed to delete emptied room")
			return LeaveResult{}, storeErr(err)
		}
	}
	logCtx.Info("Participant left room")
	return LeaveResult{Room: remaining}, nil
}

// Info looks a room up by entry code.
func (s *Service) Info(ctx context.Context, entryCode string) (*models.Room, error) {
	if entryCode == "" {
		return nil, ErrInvalidInput
	}
	r, err := s.store.FindRoomByCode(ctx, entryCode)
	if err != nil {
		logrus.WithError(err).WithField("entry_code", entryCode).Error("Failed to look up room by entry code")
		return nil, storeErr(err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

// Messages returns the room's feed, oldest first.
func (s *Service) Messages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
	r, err := s.store.FindRoomByID(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID.Hex()).Error("Failed to look up room")
		return nil, storeErr(err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	msgs, err := s.store.MessagesByRoom(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID.Hex()).Error("Failed to load messages")
		return nil, storeErr(err)
	}
	return msgs, nil
}

// Post appends a batch of messages to the room's feed. The poster must be a
// current member of the room.
func (s *Service) Post(ctx context.Context, p models.Participant, roomID primitive.ObjectID, inputs []MessageInput) ([]models.Message, error) {
	if p.Zero() || len(inputs) == 0 {
		return nil, ErrInvalidInput
	}
	for _, in := range inputs {
		if in.Title == "" {
			return nil, ErrInvalidInput
		}
	}
	logCtx := logrus.WithFields(logrus.Fields{"participant": p.String(), "room_id": roomID.Hex()})

	r, err := s.store.FindRoomByID(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to look up room")
		return nil, storeErr(err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	if !r.HasParticipant(p) {
		logCtx.Warn("Non-member tried to post to room")
		return nil, ErrUnauthorized
	}

	now := time.Now().UTC()
	msgs := make([]models.Message, 0, len(inputs))
	for _, in := range inputs {
		msgs = append(msgs, models.Message{
			ID:         primitive.NewObjectID(),
			RoomID:     roomID,
			Author:     p,
			Title:      in.Title,
			ImageData:  in.ImageData,
			Background: in.Background,
			Date:       now,
		})
	}
	if err := s.store.InsertMessages(ctx, msgs); err != nil {
		logCtx.WithError(err).Error("Failed to insert messages")
		return nil, storeErr(err)
	}
	logCtx.WithField("count", len(msgs)).Info("Messages posted")
	return msgs, nil
}

// DeleteMessage removes a single message by id.
func (s *Service) DeleteMessage(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.store.DeleteMessage(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("message_id", id.Hex()).Error("Failed to delete message")
		return storeErr(err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
