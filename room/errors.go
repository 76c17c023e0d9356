package room

import "errors"

var (
	// ErrInvalidInput means a required field (participant identity, entry
	// code, room id, message batch) was missing from the request.
	ErrInvalidInput = errors.New("missing or invalid input")

	// ErrNotFound means the referenced room or message does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateParticipant means the joining identity is already a member.
	ErrDuplicateParticipant = errors.New("participant already in room")

	// ErrUnauthorized means a non-member attempted a member-scoped operation.
	ErrUnauthorized = errors.New("participant not in room")

	// ErrCodeExhausted means the generator ran out of attempts to produce an
	// entry code that is not already taken.
	ErrCodeExhausted = errors.New("could not generate a unique entry code")

	// ErrCodeTaken is returned by Store.InsertRoom when the entry code
	// collides with a live room's. The service retries with a fresh code.
	ErrCodeTaken = errors.New("entry code already taken")

	// ErrStore wraps persistence failures. The underlying error is logged;
	// callers see only the generic classification.
	ErrStore = errors.New("store error")
)

func storeErr(err error) error {
	return errors.Join(ErrStore, err)
}
