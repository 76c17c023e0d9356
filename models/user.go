package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	UserName  string             `json:"username" bson:"username"`
	Email     string             `json:"email" bson:"email"`
	Password  []byte             `json:"-" bson:"password"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Participant returns the room identity for a logged-in user.
func (u *User) Participant() Participant {
	id := u.ID
	return Participant{UserID: &id, DisplayName: u.UserName}
}
