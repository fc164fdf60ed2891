package chathistory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prabal0202/VittaManthan/internal/chathistory"
)

func saveN(t *testing.T, s *chathistory.MemoryStore, identity string, n int) {
	t.Helper()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, s.Save(context.Background(), chathistory.Interaction{
			Identity:  identity,
			Question:  fmt.Sprintf("question %d", i),
			Answer:    fmt.Sprintf("answer %d", i),
			Mode:      "STATISTICAL",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestMemoryStore_SaveRequiresIdentity(t *testing.T) {
	s := chathistory.NewMemoryStore()

	err := s.Save(context.Background(), chathistory.Interaction{Question: "hi"})
	assert.Error(t, err)
}

func TestMemoryStore_HistoryNewestFirst(t *testing.T) {
	s := chathistory.NewMemoryStore()
	saveN(t, s, "u1", 5)

	entries, err := s.History(context.Background(), "u1", 3, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "question 4", entries[0].Question)
	assert.Equal(t, "question 2", entries[2].Question)

	entries, err = s.History(context.Background(), "u1", 3, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "question 1", entries[0].Question)
}

func TestMemoryStore_HistoryUnknownUserIsEmpty(t *testing.T) {
	s := chathistory.NewMemoryStore()

	entries, err := s.History(context.Background(), "nobody", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryStore_RecentDeduplicates(t *testing.T) {
	s := chathistory.NewMemoryStore()
	for _, q := range []string{"total spend", "upi payments", "total spend"} {
		require.NoError(t, s.Save(context.Background(), chathistory.Interaction{Identity: "u1", Question: q}))
	}

	recent, err := s.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"total spend", "upi payments"}, recent)
}

func TestMemoryStore_Stats(t *testing.T) {
	s := chathistory.NewMemoryStore()
	saveN(t, s, "u1", 3)
	require.NoError(t, s.Save(context.Background(), chathistory.Interaction{
		Identity:  "u1",
		Question:  "show all",
		Mode:      "SMART_FULL",
		CreatedAt: time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC),
	}))

	stats, err := s.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Interactions)
	assert.Equal(t, 3, stats.ByMode["STATISTICAL"])
	assert.Equal(t, 1, stats.ByMode["SMART_FULL"])
	require.NotNil(t, stats.FirstAt)
	require.NotNil(t, stats.LastAt)
	assert.True(t, stats.FirstAt.Before(*stats.LastAt))
}

func TestMemoryStore_StatsUnknownUserIsZero(t *testing.T) {
	s := chathistory.NewMemoryStore()

	stats, err := s.Stats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Interactions)
	assert.Nil(t, stats.FirstAt)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := chathistory.NewMemoryStore()
	saveN(t, s, "u1", 2)
	saveN(t, s, "u2", 1)

	require.NoError(t, s.Delete(context.Background(), "u1"))

	entries, err := s.History(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = s.History(context.Background(), "u2", 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemoryStore_EntriesDetached(t *testing.T) {
	s := chathistory.NewMemoryStore()
	filters := []string{"type: DEBIT"}
	require.NoError(t, s.Save(context.Background(), chathistory.Interaction{
		Identity:       "u1",
		Question:       "debits",
		FiltersApplied: filters,
	}))
	filters[0] = "mutated"

	entries, err := s.History(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"type: DEBIT"}, entries[0].FiltersApplied)
}
