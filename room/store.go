package room

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/petomi/doodle-mail-server/models"
)

// Store is the set of single-document primitives the service needs from the
// backing collection. Each call is atomic on its own document; there are no
// multi-document transactions, which is why the membership updates below are
// phrased as guarded single updates. Lookups return (nil, nil) on a miss.
type Store interface {
	// InsertRoom persists a new room. Returns ErrCodeTaken when the entry
	// code collides with a live room (unique index on entry_code).
	InsertRoom(ctx context.Context, r *models.Room) error

	FindRoomByCode(ctx context.Context, entryCode string) (*models.Room, error)
	FindRoomByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error)

	// AddParticipant pushes p onto the room's participant set only if no
	// member equal to p is already present. Reports whether a document was
	// updated; false means the room is gone or p was already a member.
	AddParticipant(ctx context.Context, roomID primitive.ObjectID, p models.Participant) (bool, error)

	// RemoveParticipant pulls p from the room's participant set and returns
	// the room as it stands after the update, or (nil, nil) if the room no
	// longer exists. Pulling a non-member is a no-op.
	RemoveParticipant(ctx context.Context, roomID primitive.ObjectID, p models.Participant) (*models.Room, error)

	// DeleteRoomIfEmpty deletes the room only while its participant set is
	// still empty, cascading to the room's messages. Reports whether the
	// room document was deleted.
	DeleteRoomIfEmpty(ctx context.Context, roomID primitive.ObjectID) (bool, error)

	InsertMessages(ctx context.Context, msgs []models.Message) error
	MessagesByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error)

	// DeleteMessage reports whether a message with that id existed.
	DeleteMessage(ctx context.Context, id primitive.ObjectID) (bool, error)
}
