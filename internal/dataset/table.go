package dataset

import (
	"context"
	"time"

	"github.com/Prabal0202/VittaManthan/internal/domain"
)

// Record is what the durable tier holds for one identity: the raw
// transaction sequence and when it was last replaced. The derived search
// index is not stored; it is rebuilt from the transactions on load.
type Record struct {
	Identity     string
	Transactions []domain.Transaction
	LastUpdated  time.Time
}

// DurableTable is the opaque key-value collaborator backing the in-memory
// tier. Get returns (nil, nil) when no record exists for the identity.
type DurableTable interface {
	Get(ctx context.Context, identity string) (*Record, error)
	Put(ctx context.Context, record *Record) error
	Delete(ctx context.Context, identity string) error
	Keys(ctx context.Context) ([]string, error)
}
