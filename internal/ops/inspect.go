package ops

import (
	"database/sql"

	"github.com/draftkeep/draftkeep/internal/db"
)

// InspectInput contains parameters for the Inspect operation.
type InspectInput struct {
	// Key is the composite context key, "conv" or "conv:thread".
	Key string
}

// InspectOutput contains the result of the Inspect operation.
type InspectOutput struct {
	Draft RecordView `json:"draft"`
}

// Inspect returns the full record for one context key, rich content included.
func Inspect(database *sql.DB, input InspectInput) (*InspectOutput, error) {
	key, err := ParseKey(input.Key)
	if err != nil {
		return nil, err
	}

	record, err := db.Get(database, key)
	if err != nil {
		return nil, err
	}

	return &InspectOutput{
		Draft: NewRecordView(record, true),
	}, nil
}
