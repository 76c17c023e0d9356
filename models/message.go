package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a single posted drawing, attributed to a participant within a
// room. ImageData is the encoded image payload and is treated as opaque.
type Message struct {
	ID         primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	RoomID     primitive.ObjectID `json:"room_id" bson:"room_id"`
	Author     Participant        `json:"author" bson:"author"`
	Title      string             `json:"title" bson:"title"`
	ImageData  string             `json:"image_data" bson:"image_data"`
	Background string             `json:"background" bson:"background"`
	Date       time.Time          `json:"date" bson:"date"`
}
