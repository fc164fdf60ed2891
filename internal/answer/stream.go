package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Prabal0202/VittaManthan/internal/dataset"
	"github.com/Prabal0202/VittaManthan/internal/domain"
	"github.com/Prabal0202/VittaManthan/internal/query"
	"github.com/Prabal0202/VittaManthan/internal/querycache"
)

// FrameType tags one frame of a streamed resolution.
type FrameType string

const (
	FrameMetadata      FrameType = "metadata"
	FrameChunk         FrameType = "chunk"
	FrameStatistics    FrameType = "statistics"
	FrameFinalMetadata FrameType = "metadata_final"
	FrameDone          FrameType = "done"
	FrameError         FrameType = "error"
)

// Frame is one unit of the streaming response:
// metadata → chunk* → (statistics | metadata_final) → done, or error.
type Frame struct {
	Type           FrameType          `json:"type"`
	QueryID        string             `json:"query_id,omitempty"`
	Mode           query.Mode         `json:"mode,omitempty"`
	Content        string             `json:"content,omitempty"`
	MatchingCount  *int               `json:"matching_transactions_count,omitempty"`
	FiltersApplied []string           `json:"filters_applied,omitempty"`
	Statistics     *domain.Statistics `json:"statistics,omitempty"`
	Message        string             `json:"message,omitempty"`
}

// emitFailure wraps an error returned by the caller's emit function so it
// can be told apart from a generation failure: the former means the client
// is gone, the latter becomes an error frame.
type emitFailure struct{ err error }

func (e *emitFailure) Error() string { return e.err.Error() }
func (e *emitFailure) Unwrap() error { return e.err }

// ResolveStream answers one question as an ordered frame sequence.
// Pre-stream faults (no generator, no data) are returned as errors before
// any frame is emitted so the transport can still choose a status code.
// Once streaming has begun, failures become an error frame and a nil
// return. A cancelled stream stops pulling fragments and never populates
// the cache. An emit failure (client disconnect) is returned as-is.
func (o *Orchestrator) ResolveStream(ctx context.Context, req ResolveRequest, emit func(Frame) error) error {
	if o.gen == nil {
		return ErrUnavailable
	}
	req = req.withDefaults()

	ds := o.store.Get(ctx, req.Identity)
	if len(ds.Transactions) == 0 {
		return ErrNoData
	}

	filters := query.ExtractFilters(req.Question)
	fingerprint := req.Fingerprint
	if fingerprint == "" {
		fingerprint = querycache.Fingerprint(req.Identity, req.Question, filters)
	}
	mode, sub := query.ResolveMode(req.Question, len(ds.Transactions), req.UseFullData)

	o.log.Info().
		Str("identity", req.Identity).
		Str("mode", string(mode)).
		Str("sub_mode", string(sub)).
		Str("fingerprint", fingerprint).
		Msg("Resolving streaming query")

	if err := emit(Frame{Type: FrameMetadata, QueryID: fingerprint, Mode: mode, MatchingCount: intPtr(0)}); err != nil {
		return err
	}

	var err error
	switch mode {
	case query.ModeStatistical:
		err = o.streamStatistical(fingerprint, mode, ds.Transactions, filters, req, emit)
	case query.ModeSmartFull:
		err = o.streamSmartFull(ctx, fingerprint, mode, ds.Transactions, filters, req, emit)
	default:
		if sub == query.SubModeAnalytical {
			err = o.streamAnalytical(ctx, fingerprint, mode, ds.Transactions, req, emit)
		} else {
			err = o.streamSpecific(ctx, ds, req, emit)
		}
	}

	if err != nil {
		var ef *emitFailure
		if errors.As(err, &ef) {
			return ef.err
		}
		o.log.Error().Err(err).Str("fingerprint", fingerprint).Msg("Streaming resolution failed")
		if emitErr := emit(Frame{Type: FrameError, Message: err.Error()}); emitErr != nil {
			return emitErr
		}
		return nil
	}

	return emit(Frame{Type: FrameDone})
}

// streamStatistical sends the deterministic aggregate answer as a single
// chunk followed by the statistics frame.
func (o *Orchestrator) streamStatistical(fingerprint string, mode query.Mode, txns []domain.Transaction, filters query.FilterSet, req ResolveRequest, emit func(Frame) error) error {
	matching, descriptions := query.ApplyFilters(txns, filters, req.Question)
	stats := domain.Summarize(matching)
	answer := statisticalAnswer(stats, descriptions)

	if err := emit(Frame{Type: FrameChunk, Content: answer}); err != nil {
		return &emitFailure{err}
	}
	if err := emit(Frame{
		Type:           FrameStatistics,
		Statistics:     &stats,
		FiltersApplied: descriptions,
		MatchingCount:  intPtr(stats.Count),
	}); err != nil {
		return &emitFailure{err}
	}

	o.cache.Store(fingerprint, querycache.Entry{
		Answer:             answer,
		Mode:               mode,
		Matching:           matching,
		FilterDescriptions: descriptions,
		Statistics:         &stats,
	})
	return nil
}

// streamSmartFull computes the filtered subset once, before streaming, so
// the prompt and the final metadata agree on the matching count.
func (o *Orchestrator) streamSmartFull(ctx context.Context, fingerprint string, mode query.Mode, txns []domain.Transaction, filters query.FilterSet, req ResolveRequest, emit func(Frame) error) error {
	matching, descriptions := query.ApplyFilters(txns, filters, req.Question)

	answer, err := o.streamAnswer(ctx, smartFullPrompt(req.Question, matching, descriptions), emit)
	if err != nil {
		return err
	}

	if err := emit(Frame{
		Type:           FrameFinalMetadata,
		MatchingCount:  intPtr(len(matching)),
		FiltersApplied: descriptions,
	}); err != nil {
		return &emitFailure{err}
	}

	o.cache.Store(fingerprint, querycache.Entry{
		Answer:             answer,
		Mode:               mode,
		Matching:           matching,
		FilterDescriptions: descriptions,
	})
	return nil
}

func (o *Orchestrator) streamAnalytical(ctx context.Context, fingerprint string, mode query.Mode, txns []domain.Transaction, req ResolveRequest, emit func(Frame) error) error {
	answer, err := o.streamAnswer(ctx, analyticalPrompt(req.Question, txns), emit)
	if err != nil {
		return err
	}
	if err := emit(Frame{Type: FrameFinalMetadata, MatchingCount: intPtr(len(txns))}); err != nil {
		return &emitFailure{err}
	}
	o.cache.Store(fingerprint, querycache.Entry{Answer: answer, Mode: mode})
	return nil
}

func (o *Orchestrator) streamSpecific(ctx context.Context, ds *dataset.Dataset, req ResolveRequest, emit func(Frame) error) error {
	hits, err := o.searchIndex(ctx, ds, req.Question)
	if err != nil {
		return err
	}
	if _, err := o.streamAnswer(ctx, retrievalPrompt(req.Question, hits), emit); err != nil {
		return err
	}
	if err := emit(Frame{Type: FrameFinalMetadata, MatchingCount: intPtr(len(hits))}); err != nil {
		return &emitFailure{err}
	}
	return nil
}

// streamAnswer forwards each generated fragment as a chunk frame and
// returns the assembled answer for cache population.
func (o *Orchestrator) streamAnswer(ctx context.Context, prompt string, emit func(Frame) error) (string, error) {
	var assembled strings.Builder
	err := o.gen.Stream(ctx, prompt, func(chunk string) error {
		assembled.WriteString(chunk)
		if err := emit(Frame{Type: FrameChunk, Content: chunk}); err != nil {
			return &emitFailure{err}
		}
		return nil
	})
	if err != nil {
		var ef *emitFailure
		if errors.As(err, &ef) {
			return "", ef
		}
		return "", fmt.Errorf("streamAnswer: %w", err)
	}
	return assembled.String(), nil
}

func intPtr(v int) *int { return &v }
