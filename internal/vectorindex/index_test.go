package vectorindex_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prabal0202/VittaManthan/internal/domain"
	"github.com/Prabal0202/VittaManthan/internal/vectorindex"
)

// fakeEmbedder maps known texts to fixed vectors so similarity ordering is
// under test control.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func indexedTxns() []domain.Transaction {
	return []domain.Transaction{
		{"narration": "food"},
		{"narration": "travel"},
		{"narration": "rent"},
	}
}

func testVectors() map[string][]float32 {
	return map[string][]float32{
		vectorindex.DocumentText(domain.Transaction{"narration": "food"}):   {1, 0, 0},
		vectorindex.DocumentText(domain.Transaction{"narration": "travel"}): {0, 1, 0},
		vectorindex.DocumentText(domain.Transaction{"narration": "rent"}):   {0.9, 0.1, 0},
		"meals": {1, 0, 0},
	}
}

func TestEmbeddingBuilder_SearchRanksByCosine(t *testing.T) {
	builder := vectorindex.NewEmbeddingBuilder(&fakeEmbedder{vectors: testVectors()})
	index, err := builder.Build(context.Background(), indexedTxns())
	require.NoError(t, err)
	assert.Equal(t, 3, index.Len())

	hits, err := index.Search(context.Background(), "meals", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "food", hits[0].Narration())
	assert.Equal(t, "rent", hits[1].Narration())
}

func TestEmbeddingIndex_KClamped(t *testing.T) {
	builder := vectorindex.NewEmbeddingBuilder(&fakeEmbedder{vectors: testVectors()})
	index, err := builder.Build(context.Background(), indexedTxns())
	require.NoError(t, err)

	hits, err := index.Search(context.Background(), "meals", 50)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	hits, err = index.Search(context.Background(), "meals", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEmbeddingBuilder_EmptyInput(t *testing.T) {
	builder := vectorindex.NewEmbeddingBuilder(&fakeEmbedder{vectors: testVectors()})
	index, err := builder.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, index.Len())

	hits, err := index.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEmbeddingBuilder_EmbedderFailure(t *testing.T) {
	builder := vectorindex.NewEmbeddingBuilder(&fakeEmbedder{err: errors.New("quota exceeded")})
	_, err := builder.Build(context.Background(), indexedTxns())
	assert.Error(t, err)
}

func TestDocumentText(t *testing.T) {
	txn := domain.Transaction{
		"narration": "Zomato order",
		"type":      "DEBIT",
		"mode":      "UPI",
		"amount":    499.0,
		"createdAt": "2024-06-01T10:00:00Z",
	}
	text := vectorindex.DocumentText(txn)
	assert.Equal(t, "Zomato order | DEBIT | UPI | amount 499.00 | 2024-06-01", text)
}
