// Package inmemory is the DurableTable implementation used for tests and
// for running the service without a BigQuery project. Records are lost on
// restart.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Prabal0202/VittaManthan/internal/dataset"
	"github.com/Prabal0202/VittaManthan/internal/domain"
)

// Table stores records in a mutex-guarded map. It is safe for concurrent
// use and copies records on the way in and out so callers cannot mutate
// stored state.
type Table struct {
	mu      sync.RWMutex
	records map[string]*dataset.Record
}

// NewTable creates an empty in-memory table.
func NewTable() *Table {
	return &Table{records: make(map[string]*dataset.Record)}
}

// Get implements DurableTable. It returns (nil, nil) when the identity has
// no record.
func (t *Table) Get(ctx context.Context, identity string) (*dataset.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[identity]
	if !ok {
		return nil, nil
	}
	return copyRecord(rec), nil
}

// Put implements DurableTable. It saves or replaces the record wholesale.
func (t *Table) Put(ctx context.Context, record *dataset.Record) error {
	if record.Identity == "" {
		return fmt.Errorf("record identity is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[record.Identity] = copyRecord(record)
	return nil
}

// Delete implements DurableTable.
func (t *Table) Delete(ctx context.Context, identity string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, identity)
	return nil
}

// Keys implements DurableTable.
func (t *Table) Keys(ctx context.Context) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.records))
	for key := range t.records {
		keys = append(keys, key)
	}
	return keys, nil
}

func copyRecord(rec *dataset.Record) *dataset.Record {
	return &dataset.Record{
		Identity:     rec.Identity,
		Transactions: domain.CloneSlice(rec.Transactions),
		LastUpdated:  rec.LastUpdated,
	}
}

// Ensure Table implements DurableTable.
var _ dataset.DurableTable = (*Table)(nil)
