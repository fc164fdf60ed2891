// Package vectorindex defines the derived-search-index contracts the
// dataset store and orchestrator depend on, plus an embedding-backed
// implementation that ranks transactions by cosine similarity. The index is
// never persisted: it is rebuilt from the raw transactions on a durable-tier
// load, which sidesteps serializing a large opaque blob.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Prabal0202/VittaManthan/internal/domain"
)

// Index supports approximate semantic top-k retrieval over the transaction
// sequence it was built from.
type Index interface {
	Search(ctx context.Context, query string, k int) ([]domain.Transaction, error)
	Len() int
}

// Builder constructs an Index from a transaction sequence. Building may
// fail (the embedding collaborator is remote); callers degrade per their
// own policy.
type Builder interface {
	Build(ctx context.Context, txns []domain.Transaction) (Index, error)
}

// Embedder is the opaque embedding capability: a batch of texts in, one
// vector per text out, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingBuilder builds cosine-similarity indexes over per-transaction
// document texts produced by DocumentText.
type EmbeddingBuilder struct {
	embedder Embedder
}

// NewEmbeddingBuilder creates a builder backed by the given embedder.
func NewEmbeddingBuilder(embedder Embedder) *EmbeddingBuilder {
	return &EmbeddingBuilder{embedder: embedder}
}

// Build embeds every transaction's document text in one batch.
func (b *EmbeddingBuilder) Build(ctx context.Context, txns []domain.Transaction) (Index, error) {
	texts := make([]string, len(txns))
	for i, t := range txns {
		texts[i] = DocumentText(t)
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = b.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("Build: embedding %d documents: %w", len(texts), err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("Build: embedder returned %d vectors for %d documents", len(vectors), len(texts))
		}
	}

	return &embeddingIndex{
		embedder: b.embedder,
		txns:     txns,
		vectors:  vectors,
	}, nil
}

// DocumentText flattens the searchable fields of a transaction into the
// text that gets embedded.
func DocumentText(t domain.Transaction) string {
	var parts []string
	if n := t.Narration(); n != "" {
		parts = append(parts, n)
	}
	if typ := t.Type(); typ != "" {
		parts = append(parts, typ)
	}
	if mode := t.Mode(); mode != "" {
		parts = append(parts, mode)
	}
	if amount, ok := t.Amount(); ok {
		parts = append(parts, "amount "+amount.StringFixed(2))
	}
	if ts, ok := t.Time(); ok {
		parts = append(parts, ts.Format("2006-01-02"))
	}
	return strings.Join(parts, " | ")
}

type embeddingIndex struct {
	embedder Embedder
	txns     []domain.Transaction
	vectors  [][]float32
}

func (idx *embeddingIndex) Len() int { return len(idx.txns) }

// Search embeds the query and returns the k nearest transactions by cosine
// similarity, best first. k is clamped to the index size.
func (idx *embeddingIndex) Search(ctx context.Context, query string, k int) ([]domain.Transaction, error) {
	if len(idx.txns) == 0 || k <= 0 {
		return nil, nil
	}
	if k > len(idx.txns) {
		k = len(idx.txns)
	}

	queryVecs, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("Search: embedding query: %w", err)
	}
	if len(queryVecs) != 1 {
		return nil, fmt.Errorf("Search: embedder returned %d vectors for one query", len(queryVecs))
	}

	type scored struct {
		pos   int
		score float64
	}
	ranked := make([]scored, len(idx.txns))
	for i := range idx.txns {
		ranked[i] = scored{pos: i, score: cosine(queryVecs[0], idx.vectors[i])}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]domain.Transaction, k)
	for i := 0; i < k; i++ {
		out[i] = idx.txns[ranked[i].pos]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
