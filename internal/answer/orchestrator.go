package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Prabal0202/VittaManthan/internal/chathistory"
	"github.com/Prabal0202/VittaManthan/internal/dataset"
	"github.com/Prabal0202/VittaManthan/internal/domain"
	"github.com/Prabal0202/VittaManthan/internal/llm"
	"github.com/Prabal0202/VittaManthan/internal/query"
	"github.com/Prabal0202/VittaManthan/internal/querycache"
	"github.com/Prabal0202/VittaManthan/internal/vectorindex"
)

// Orchestrator resolves questions against the dataset store, memoizing
// each generation pass in the query cache so pagination is cheap.
type Orchestrator struct {
	store   *dataset.Store
	cache   *querycache.Cache
	gen     llm.Generator
	history chathistory.Store
	log     zerolog.Logger
}

// NewOrchestrator wires the orchestrator. gen may be nil when the
// generation collaborator failed to initialize; every resolution then
// fails with ErrUnavailable. history may be nil, which disables
// interaction journaling.
func NewOrchestrator(store *dataset.Store, cache *querycache.Cache, gen llm.Generator, history chathistory.Store, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{store: store, cache: cache, gen: gen, history: history, log: log}
}

// Resolve answers one question. Pagination requests (page > 1) whose
// fingerprint is cached and unexpired skip classification, filtering, and
// generation entirely; everything else runs the full pass, caches the
// outcome, and journals the interaction for identified users.
func (o *Orchestrator) Resolve(ctx context.Context, req ResolveRequest) (*ResolveResult, error) {
	if o.gen == nil {
		return nil, ErrUnavailable
	}
	req = req.withDefaults()

	ds := o.store.Get(ctx, req.Identity)
	if len(ds.Transactions) == 0 {
		return nil, ErrNoData
	}

	filters := query.ExtractFilters(req.Question)
	fingerprint := req.Fingerprint
	if fingerprint == "" {
		fingerprint = querycache.Fingerprint(req.Identity, req.Question, filters)
	}

	if req.Page > 1 {
		if entry, ok := o.cache.Lookup(fingerprint); ok {
			o.log.Debug().Str("fingerprint", fingerprint).Int("page", req.Page).Msg("Serving page from cache")
			return o.resultFromCache(fingerprint, req, entry), nil
		}
	}

	res, err := o.resolveDataset(ctx, req, ds, filters, fingerprint, true)
	if err != nil {
		return nil, err
	}
	o.recordInteraction(ctx, req, res)
	return res, nil
}

// ResolveInline answers one question against transactions carried by the
// request itself. The dataset store and the query cache are left
// untouched, so the answer cannot be paginated across requests.
func (o *Orchestrator) ResolveInline(ctx context.Context, req ResolveRequest, txns []domain.Transaction, index vectorindex.Index) (*ResolveResult, error) {
	if o.gen == nil {
		return nil, ErrUnavailable
	}
	req = req.withDefaults()
	if len(txns) == 0 {
		return nil, ErrNoData
	}

	ds := &dataset.Dataset{Transactions: txns, Index: index, LastUpdated: time.Now()}
	filters := query.ExtractFilters(req.Question)
	fingerprint := req.Fingerprint
	if fingerprint == "" {
		fingerprint = querycache.Fingerprint(req.Identity, req.Question, filters)
	}

	res, err := o.resolveDataset(ctx, req, ds, filters, fingerprint, false)
	if err != nil {
		return nil, err
	}
	o.recordInteraction(ctx, req, res)
	return res, nil
}

// resolveDataset runs the full classification, filtering, and generation
// pass over one dataset. memoize controls query cache population; the
// inline path skips it so one-shot data never serves later pagination.
func (o *Orchestrator) resolveDataset(ctx context.Context, req ResolveRequest, ds *dataset.Dataset, filters query.FilterSet, fingerprint string, memoize bool) (*ResolveResult, error) {
	mode, sub := query.ResolveMode(req.Question, len(ds.Transactions), req.UseFullData)
	o.log.Info().
		Str("identity", req.Identity).
		Str("mode", string(mode)).
		Str("sub_mode", string(sub)).
		Str("fingerprint", fingerprint).
		Msg("Resolving query")

	res := &ResolveResult{Fingerprint: fingerprint, Mode: mode, SubMode: sub}

	switch mode {
	case query.ModeStatistical:
		matching, descriptions := query.ApplyFilters(ds.Transactions, filters, req.Question)
		stats := domain.Summarize(matching)
		res.Answer = statisticalAnswer(stats, descriptions)
		res.Statistics = &stats
		res.FilterDescriptions = descriptions
		res.MatchingCount = stats.Count
		if memoize {
			o.cache.Store(fingerprint, querycache.Entry{
				Answer:             res.Answer,
				Mode:               mode,
				Matching:           matching,
				FilterDescriptions: descriptions,
				Statistics:         &stats,
			})
		}

	case query.ModeSmartFull:
		matching, descriptions := query.ApplyFilters(ds.Transactions, filters, req.Question)
		answer, err := o.gen.Complete(ctx, smartFullPrompt(req.Question, matching, descriptions))
		if err != nil {
			return nil, fmt.Errorf("resolveDataset: generating answer: %w", err)
		}
		res.Answer = answer
		res.MatchingCount = len(matching)
		res.FilterDescriptions = descriptions
		if memoize {
			o.cache.Store(fingerprint, querycache.Entry{
				Answer:             answer,
				Mode:               mode,
				Matching:           matching,
				FilterDescriptions: descriptions,
			})
		}
		if req.ShowAll && len(matching) > 0 {
			res.Transactions, res.Pagination = pageOf(matching, req.Page, req.PageSize)
		}

	default: // VECTOR_SEARCH
		if sub == query.SubModeAnalytical {
			answer, err := o.gen.Complete(ctx, analyticalPrompt(req.Question, ds.Transactions))
			if err != nil {
				return nil, fmt.Errorf("resolveDataset: generating analysis: %w", err)
			}
			res.Answer = answer
			res.MatchingCount = len(ds.Transactions)
			if memoize {
				o.cache.Store(fingerprint, querycache.Entry{Answer: answer, Mode: mode})
			}
		} else {
			hits, err := o.searchIndex(ctx, ds, req.Question)
			if err != nil {
				return nil, err
			}
			answer, err := o.gen.Complete(ctx, retrievalPrompt(req.Question, hits))
			if err != nil {
				return nil, fmt.Errorf("resolveDataset: generating answer: %w", err)
			}
			res.Answer = answer
			res.MatchingCount = len(hits)
		}
	}

	return res, nil
}

// recordInteraction journals a completed resolution. Save failures are
// logged, never surfaced; anonymous requests are not journaled.
func (o *Orchestrator) recordInteraction(ctx context.Context, req ResolveRequest, res *ResolveResult) {
	if o.history == nil || req.Identity == "" {
		return
	}
	err := o.history.Save(ctx, chathistory.Interaction{
		Identity:       req.Identity,
		Question:       req.Question,
		Answer:         res.Answer,
		QueryID:        res.Fingerprint,
		Mode:           string(res.Mode),
		MatchingCount:  res.MatchingCount,
		FiltersApplied: res.FilterDescriptions,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		o.log.Warn().Err(err).Str("identity", req.Identity).Msg("Failed to save chat history")
	}
}

func (o *Orchestrator) searchIndex(ctx context.Context, ds *dataset.Dataset, question string) ([]domain.Transaction, error) {
	if ds.Index == nil {
		return nil, fmt.Errorf("searchIndex: %w", ErrNoIndex)
	}
	k := maxRetrievalK
	if len(ds.Transactions) < k {
		k = len(ds.Transactions)
	}
	hits, err := ds.Index.Search(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("searchIndex: %w", err)
	}
	return hits, nil
}

func (o *Orchestrator) resultFromCache(fingerprint string, req ResolveRequest, entry *querycache.Entry) *ResolveResult {
	res := &ResolveResult{
		Fingerprint:        fingerprint,
		Mode:               entry.Mode,
		Answer:             entry.Answer,
		MatchingCount:      len(entry.Matching),
		FilterDescriptions: entry.FilterDescriptions,
		Statistics:         entry.Statistics,
	}
	if entry.Statistics != nil {
		res.MatchingCount = entry.Statistics.Count
	}
	if req.ShowAll && len(entry.Matching) > 0 {
		res.Transactions, res.Pagination = pageOf(entry.Matching, req.Page, req.PageSize)
	}
	return res
}
