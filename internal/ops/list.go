package ops

import (
	"database/sql"

	"github.com/draftkeep/draftkeep/internal/db"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	// IncludePending includes records in a deletion grace period.
	IncludePending bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Drafts []RecordView `json:"drafts"`
	Total  int          `json:"total"`
}

// List returns all draft records, newest capture first.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	records, err := db.GetAll(database, input.IncludePending)
	if err != nil {
		return nil, err
	}

	views := make([]RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, NewRecordView(r, false))
	}

	return &ListOutput{
		Drafts: views,
		Total:  len(views),
	}, nil
}
