// Package chathistory journals answered questions per user so past
// interactions can be listed, suggested back, and purged. Entries are
// append-only; deletion removes a user's entire journal.
package chathistory

import (
	"context"
	"time"
)

// Interaction is one answered question.
type Interaction struct {
	Identity       string    `json:"user_id"`
	Question       string    `json:"query"`
	Answer         string    `json:"response"`
	QueryID        string    `json:"query_id,omitempty"`
	Mode           string    `json:"mode,omitempty"`
	MatchingCount  int       `json:"matching_transactions_count"`
	FiltersApplied []string  `json:"filters_applied,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stats summarizes one user's journal.
type Stats struct {
	Identity     string         `json:"user_id"`
	Interactions int            `json:"total_interactions"`
	ByMode       map[string]int `json:"interactions_by_mode"`
	FirstAt      *time.Time     `json:"first_interaction,omitempty"`
	LastAt       *time.Time     `json:"last_interaction,omitempty"`
}

// Store persists interactions. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save appends one interaction. A zero CreatedAt is stamped with the
	// current time.
	Save(ctx context.Context, in Interaction) error
	// History returns entries newest first, limit entries starting at
	// offset.
	History(ctx context.Context, identity string, limit, offset int) ([]Interaction, error)
	// Recent returns the latest distinct questions, newest first.
	Recent(ctx context.Context, identity string, limit int) ([]string, error)
	// Stats summarizes the identity's journal. An identity with no
	// entries yields zero counts, not an error.
	Stats(ctx context.Context, identity string) (*Stats, error)
	// Delete removes the identity's entire journal.
	Delete(ctx context.Context, identity string) error
}
