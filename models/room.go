package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room is a group of participants sharing a message feed, addressed by a
// short entry code. Messages live in their own collection and reference the
// room by id. A room with zero participants is deleted as part of the leave
// that emptied it, so every persisted room is active.
type Room struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	EntryCode    string             `json:"entry_code" bson:"entry_code"`
	Participants []Participant      `json:"participants" bson:"participants"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// HasParticipant reports whether p is currently a member of the room.
func (r *Room) HasParticipant(p Participant) bool {
	for _, member := range r.Participants {
		if member.Equal(p) {
			return true
		}
	}
	return false
}
