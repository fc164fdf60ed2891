// Package dataset owns per-identity transaction collections and their
// derived search index. The in-memory tier is authoritative for reads; a
// durable table, when configured, backs it with best-effort asynchronous
// writes of the raw transactions. On a memory miss the store loads from the
// durable tier and rebuilds the index through the builder collaborator.
package dataset

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Prabal0202/VittaManthan/internal/domain"
	"github.com/Prabal0202/VittaManthan/internal/vectorindex"
)

// GlobalIdentity is the reserved key for requests carrying no user id.
const GlobalIdentity = "global"

const (
	writeQueueSize = 64
	durableTimeout = 30 * time.Second
)

// Dataset is one identity's collection: the transactions, the derived
// index (nil when unavailable), and when the collection was last replaced.
// Datasets are replaced wholesale and never partially mutated.
type Dataset struct {
	Transactions []domain.Transaction
	Index        vectorindex.Index
	LastUpdated  time.Time
}

// Info is the per-identity summary reported by Stats.
type Info struct {
	TransactionCount int       `json:"transactions_count"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Store is the tiered dataset store. It is safe for concurrent use; the
// lock is held only for map mutation, never across index rebuilding or
// durable I/O.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset

	table   DurableTable        // nil disables the durable tier
	builder vectorindex.Builder // nil disables index rebuild on load

	writes    chan *Record
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	log zerolog.Logger
}

// NewStore creates a store. table and builder may each be nil, which
// degrades the store to memory-only and no-rebuild respectively. When a
// table is configured a background worker drains the durable write queue.
func NewStore(table DurableTable, builder vectorindex.Builder, log zerolog.Logger) *Store {
	s := &Store{
		datasets: make(map[string]*Dataset),
		table:    table,
		builder:  builder,
		writes:   make(chan *Record, writeQueueSize),
		done:     make(chan struct{}),
		log:      log,
	}
	if table != nil {
		s.wg.Add(1)
		go s.persistLoop()
	}
	return s
}

func normalizeIdentity(identity string) string {
	if identity == "" {
		return GlobalIdentity
	}
	return identity
}

// Put replaces the dataset for an identity wholesale. The in-memory tier
// is updated synchronously; the durable write is queued and the call
// returns without waiting for it. A full queue drops the write with a
// log line.
func (s *Store) Put(ctx context.Context, identity string, txns []domain.Transaction, index vectorindex.Index) {
	key := normalizeIdentity(identity)
	now := time.Now()

	s.mu.Lock()
	s.datasets[key] = &Dataset{Transactions: txns, Index: index, LastUpdated: now}
	total := len(s.datasets)
	s.mu.Unlock()

	s.log.Info().
		Str("identity", key).
		Int("transactions", len(txns)).
		Int("identities_cached", total).
		Msg("Dataset stored in memory tier")

	if s.table == nil {
		return
	}
	rec := &Record{Identity: key, Transactions: txns, LastUpdated: now}
	select {
	case s.writes <- rec:
	default:
		s.log.Warn().Str("identity", key).Msg("Durable write queue full, dropping write")
	}
}

// Get returns the dataset for an identity. Memory hit first; on a miss it
// loads the raw transactions from the durable tier, rebuilds the index
// outside the lock, installs the result, and returns it. Rebuild failure
// degrades to a nil index; no data in either tier returns an empty dataset.
func (s *Store) Get(ctx context.Context, identity string) *Dataset {
	key := normalizeIdentity(identity)

	s.mu.RLock()
	ds, ok := s.datasets[key]
	s.mu.RUnlock()
	if ok {
		s.log.Debug().Str("identity", key).Msg("Memory tier hit")
		return ds
	}

	if s.table == nil {
		return &Dataset{}
	}

	rec, err := s.table.Get(ctx, key)
	if err != nil {
		s.log.Error().Err(err).Str("identity", key).Msg("Durable load failed")
		return &Dataset{}
	}
	if rec == nil {
		return &Dataset{}
	}

	var index vectorindex.Index
	if s.builder != nil {
		index, err = s.builder.Build(ctx, rec.Transactions)
		if err != nil {
			// Degrade: callers needing semantic search handle a nil index.
			s.log.Error().Err(err).Str("identity", key).Msg("Index rebuild failed")
			index = nil
		}
	}

	loaded := &Dataset{Transactions: rec.Transactions, Index: index, LastUpdated: rec.LastUpdated}

	s.mu.Lock()
	if current, ok := s.datasets[key]; ok {
		// An ingest raced the load; the fresher dataset wins.
		s.mu.Unlock()
		return current
	}
	s.datasets[key] = loaded
	s.mu.Unlock()

	s.log.Info().
		Str("identity", key).
		Int("transactions", len(rec.Transactions)).
		Bool("index_rebuilt", index != nil).
		Msg("Dataset loaded from durable tier")
	return loaded
}

// Exists reports whether the identity has a non-empty dataset in the
// memory tier, or failing that any record in the durable tier. It never
// triggers an index rebuild.
func (s *Store) Exists(ctx context.Context, identity string) bool {
	key := normalizeIdentity(identity)

	s.mu.RLock()
	ds, ok := s.datasets[key]
	s.mu.RUnlock()
	if ok {
		return len(ds.Transactions) > 0
	}

	if s.table == nil {
		return false
	}
	rec, err := s.table.Get(ctx, key)
	if err != nil {
		s.log.Error().Err(err).Str("identity", key).Msg("Durable existence check failed")
		return false
	}
	return rec != nil
}

// Delete removes the identity's dataset from both tiers: synchronously
// from memory, best-effort from the durable table.
func (s *Store) Delete(ctx context.Context, identity string) {
	key := normalizeIdentity(identity)

	s.mu.Lock()
	delete(s.datasets, key)
	s.mu.Unlock()

	if s.table != nil {
		if err := s.table.Delete(ctx, key); err != nil {
			s.log.Error().Err(err).Str("identity", key).Msg("Durable delete failed")
		}
	}
	s.log.Info().Str("identity", key).Msg("Dataset deleted")
}

// Identities returns the union of identities known to either tier, sorted.
func (s *Store) Identities(ctx context.Context) []string {
	seen := make(map[string]struct{})

	s.mu.RLock()
	for key := range s.datasets {
		seen[key] = struct{}{}
	}
	s.mu.RUnlock()

	if s.table != nil {
		keys, err := s.table.Keys(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("Durable key listing failed")
		}
		for _, key := range keys {
			seen[key] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Stats summarizes the memory tier per identity.
func (s *Store) Stats() map[string]Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]Info, len(s.datasets))
	for key, ds := range s.datasets {
		stats[key] = Info{TransactionCount: len(ds.Transactions), LastUpdated: ds.LastUpdated}
	}
	return stats
}

// Close stops the durable write worker after draining queued writes.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Store) persistLoop() {
	defer s.wg.Done()
	for {
		select {
		case rec := <-s.writes:
			s.persist(rec)
		case <-s.done:
			for {
				select {
				case rec := <-s.writes:
					s.persist(rec)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) persist(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), durableTimeout)
	defer cancel()

	if err := s.table.Put(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("identity", rec.Identity).Msg("Durable write failed")
		return
	}
	s.log.Debug().
		Str("identity", rec.Identity).
		Int("transactions", len(rec.Transactions)).
		Msg("Dataset persisted to durable tier")
}
