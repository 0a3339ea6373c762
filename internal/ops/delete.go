package ops

import (
	"database/sql"

	"github.com/draftkeep/draftkeep/internal/db"
	"github.com/draftkeep/draftkeep/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	// Key is the composite context key, "conv" or "conv:thread".
	Key string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted    bool   `json:"deleted"`
	ContextKey string `json:"context_key"`
}

// Delete permanently removes the draft record for a context key.
// Deleting a missing record returns ErrNotFound so the operator learns the
// key was wrong, unlike the lifecycle paths where absence is success.
func Delete(database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	key, err := ParseKey(input.Key)
	if err != nil {
		return nil, err
	}

	// Verify the record exists before deleting
	if _, err := db.Get(database, key); err != nil {
		return nil, err
	}

	if err := db.Delete(database, key); err != nil {
		return nil, errors.NewStoreFailure(err)
	}

	return &DeleteOutput{
		Deleted:    true,
		ContextKey: key.String(),
	}, nil
}
