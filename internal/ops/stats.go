package ops

import (
	"database/sql"

	"github.com/draftkeep/draftkeep/internal/db"
)

// StatsOutput contains the result of the Stats operation.
type StatsOutput struct {
	Total          int            `json:"total"`
	Pending        int            `json:"pending_deletion"`
	ByConversation map[string]int `json:"by_conversation"`
}

// Stats summarizes the draft store.
func Stats(database *sql.DB) (*StatsOutput, error) {
	total, err := db.Count(database, true)
	if err != nil {
		return nil, err
	}

	active, err := db.Count(database, false)
	if err != nil {
		return nil, err
	}

	byConv, err := db.CountByConversation(database)
	if err != nil {
		return nil, err
	}

	return &StatsOutput{
		Total:          total,
		Pending:        total - active,
		ByConversation: byConv,
	}, nil
}
