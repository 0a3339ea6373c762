package ops

import (
	"database/sql"
	"fmt"

	"github.com/draftkeep/draftkeep/internal/db"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	// Now is the reference time in epoch ms; zero means the caller supplies
	// wall-clock time at the CLI boundary.
	Now int64
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes records whose deletion grace period has expired.
// This is the on-demand twin of the lifecycle sweeper.
func Purge(database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	count, err := db.PurgeExpired(database, input.Now)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int) string {
	if count == 0 {
		return "No expired drafts to purge"
	}

	draftWord := "draft"
	if count > 1 {
		draftWord = "drafts"
	}
	return fmt.Sprintf("Permanently deleted %d expired %s", count, draftWord)
}
