package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectFrames(t *testing.T, o *Orchestrator, req ResolveRequest) ([]Frame, error) {
	t.Helper()
	var frames []Frame
	err := o.ResolveStream(context.Background(), req, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

func frameTypes(frames []Frame) []FrameType {
	types := make([]FrameType, len(frames))
	for i, f := range frames {
		types[i] = f.Type
	}
	return types
}

func TestResolveStream_PreStreamFaults(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil, threeTxns(), nil)
	frames, err := collectFrames(t, o, ResolveRequest{Identity: "u1", Question: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, frames, "faults before streaming emit no frames")

	o, _ = newTestOrchestrator(t, &fakeGenerator{}, nil, nil)
	frames, err = collectFrames(t, o, ResolveRequest{Identity: "u1", Question: "x"})
	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, frames)
}

func TestResolveStream_StatisticalFrameOrder(t *testing.T) {
	o, cache := newTestOrchestrator(t, &fakeGenerator{}, threeTxns(), nil)

	frames, err := collectFrames(t, o, ResolveRequest{Identity: "u1", Question: "what is my total spend"})
	require.NoError(t, err)

	require.Equal(t, []FrameType{FrameMetadata, FrameChunk, FrameStatistics, FrameDone}, frameTypes(frames))
	assert.NotEmpty(t, frames[0].QueryID)
	assert.Contains(t, frames[1].Content, "650.00")
	require.NotNil(t, frames[2].Statistics)
	assert.Equal(t, 3, frames[2].Statistics.Count)
	assert.Equal(t, 1, cache.Len())
}

func TestResolveStream_SmartFullFrameOrder(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"here are ", "your transactions"}}
	o, cache := newTestOrchestrator(t, gen, threeTxns(), nil)

	frames, err := collectFrames(t, o, ResolveRequest{Identity: "u1", Question: "show me all transactions"})
	require.NoError(t, err)

	require.Equal(t,
		[]FrameType{FrameMetadata, FrameChunk, FrameChunk, FrameFinalMetadata, FrameDone},
		frameTypes(frames))

	final := frames[3]
	require.NotNil(t, final.MatchingCount)
	assert.Equal(t, 3, *final.MatchingCount)

	// The cache holds the assembled answer so pagination works later.
	entry, ok := cache.Lookup(frames[0].QueryID)
	require.True(t, ok)
	assert.Equal(t, "here are your transactions", entry.Answer)
	assert.Len(t, entry.Matching, 3)
}

func TestResolveStream_GenerationFailureBecomesErrorFrame(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	o, cache := newTestOrchestrator(t, gen, threeTxns(), nil)

	frames, err := collectFrames(t, o, ResolveRequest{Identity: "u1", Question: "show me all transactions"})
	require.NoError(t, err, "mid-stream failures are reported in-band")

	types := frameTypes(frames)
	require.NotEmpty(t, types)
	assert.Equal(t, FrameError, types[len(types)-1])
	assert.NotContains(t, types, FrameDone)
	assert.Equal(t, 0, cache.Len())
}

func TestResolveStream_ClientGoneSkipsCache(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"a", "b", "c"}}
	o, cache := newTestOrchestrator(t, gen, threeTxns(), nil)

	clientGone := errors.New("write: broken pipe")
	seen := 0
	err := o.ResolveStream(context.Background(), ResolveRequest{Identity: "u1", Question: "show me all transactions"}, func(f Frame) error {
		seen++
		if f.Type == FrameChunk {
			return clientGone
		}
		return nil
	})

	assert.ErrorIs(t, err, clientGone)
	assert.Greater(t, seen, 0)
	assert.Equal(t, 0, cache.Len(), "a disconnected stream must not populate the cache")
}

func TestResolveStream_AnalyticalFinalMetadataCoversDataset(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"trend: up"}}
	o, _ := newTestOrchestrator(t, gen, threeTxns(), nil)

	frames, err := collectFrames(t, o, ResolveRequest{Identity: "u1", Question: "summarize my spending"})
	require.NoError(t, err)

	require.Equal(t,
		[]FrameType{FrameMetadata, FrameChunk, FrameFinalMetadata, FrameDone},
		frameTypes(frames))
	require.NotNil(t, frames[2].MatchingCount)
	assert.Equal(t, 3, *frames[2].MatchingCount)
}

func TestResolveStream_SpecificUsesRetrieval(t *testing.T) {
	txns := threeTxns()
	gen := &fakeGenerator{chunks: []string{"rent was paid on June 2"}}
	o, _ := newTestOrchestrator(t, gen, txns, &fakeIndex{txns: txns[:1]})

	frames, err := collectFrames(t, o, ResolveRequest{Identity: "u1", Question: "when did I pay rent"})
	require.NoError(t, err)

	require.Equal(t,
		[]FrameType{FrameMetadata, FrameChunk, FrameFinalMetadata, FrameDone},
		frameTypes(frames))
	require.NotNil(t, frames[2].MatchingCount)
	assert.Equal(t, 1, *frames[2].MatchingCount)
}

func TestResolveStream_AssembledAnswerMatchesChunks(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"part one, ", "part two"}}
	o, cache := newTestOrchestrator(t, gen, threeTxns(), nil)

	frames, err := collectFrames(t, o, ResolveRequest{Identity: "u1", Question: "show me all transactions"})
	require.NoError(t, err)

	var streamed strings.Builder
	for _, f := range frames {
		if f.Type == FrameChunk {
			streamed.WriteString(f.Content)
		}
	}

	entry, ok := cache.Lookup(frames[0].QueryID)
	require.True(t, ok)
	assert.Equal(t, streamed.String(), entry.Answer)
}
