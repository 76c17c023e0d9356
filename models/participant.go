package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant identifies who occupies a room. It is one of two variants:
// a registered user (UserID set, DisplayName carried for rendering) or a
// bare display name (UserID nil). Equality is per-variant: user refs compare
// by id, bare names by display name, and the variants never compare equal.
type Participant struct {
	UserID      *primitive.ObjectID `json:"user_id,omitempty" bson:"user_id,omitempty"`
	DisplayName string              `json:"display_name" bson:"display_name"`
}

func (p Participant) Zero() bool {
	return p.UserID == nil && p.DisplayName == ""
}

func (p Participant) Equal(other Participant) bool {
	if p.UserID != nil && other.UserID != nil {
		return *p.UserID == *other.UserID
	}
	if p.UserID == nil && other.UserID == nil {
		return p.DisplayName == other.DisplayName
	}
	return false
}

// String is the label used in logs.
func (p Participant) String() string {
	if p.UserID != nil {
		return p.UserID.Hex()
	}
	return p.DisplayName
}
