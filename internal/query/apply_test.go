package query

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prabal0202/VittaManthan/internal/domain"
)

func dec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func sampleTxns() []domain.Transaction {
	return []domain.Transaction{
		{"amount": 100.0, "createdAt": "2024-06-01T10:00:00Z", "narration": "Coffee at Blue Tokai", "type": "DEBIT", "mode": "UPI"},
		{"amount": 500.0, "createdAt": "2024-06-10T10:00:00Z", "narration": "Zomato order", "type": "DEBIT", "mode": "CARD"},
		{"amount": 50.0, "createdAt": "2024-05-20T10:00:00Z", "narration": "Refund from Amazon", "type": "CREDIT", "mode": "UPI"},
	}
}

func TestApplyFilters_EmptySetIsIdentity(t *testing.T) {
	txns := sampleTxns()
	matching, descriptions := ApplyFilters(txns, FilterSet{}, "anything")

	assert.Len(t, matching, len(txns))
	assert.Empty(t, descriptions)
}

func TestApplyFilters_AmountRange(t *testing.T) {
	matching, descriptions := ApplyFilters(sampleTxns(), FilterSet{MinAmount: dec("80")}, "")

	require.Len(t, matching, 2)
	assert.Equal(t, "Coffee at Blue Tokai", matching[0].Narration())
	assert.Equal(t, "Zomato order", matching[1].Narration())
	assert.Equal(t, []string{"amount above ₹80.00"}, descriptions)
}

func TestApplyFilters_PredicatesANDCombine(t *testing.T) {
	f := FilterSet{MinAmount: dec("80"), Modes: []string{"UPI"}}
	matching, _ := ApplyFilters(sampleTxns(), f, "")

	require.Len(t, matching, 1)
	assert.Equal(t, "Coffee at Blue Tokai", matching[0].Narration())
}

func TestApplyFilters_DateWindow(t *testing.T) {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 30, 23, 59, 59, 0, time.UTC)
	matching, _ := ApplyFilters(sampleTxns(), FilterSet{StartDate: &start, EndDate: &end}, "")

	assert.Len(t, matching, 2)
}

func TestApplyFilters_KeywordsMatchNarration(t *testing.T) {
	matching, descriptions := ApplyFilters(sampleTxns(), FilterSet{Keywords: []string{"zomato"}}, "")

	require.Len(t, matching, 1)
	assert.Equal(t, "Zomato order", matching[0].Narration())
	assert.Contains(t, descriptions, "narration contains: zomato")
}

func TestApplyFilters_MalformedFieldDoesNotMatch(t *testing.T) {
	txns := append(sampleTxns(), domain.Transaction{"amount": "whoops", "narration": "broken row"})

	matching, _ := ApplyFilters(txns, FilterSet{MinAmount: dec("0")}, "")
	for _, m := range matching {
		assert.NotEqual(t, "broken row", m.Narration())
	}

	// A missing date excludes the row from any date-constrained pass.
	noDate := []domain.Transaction{{"amount": 10.0, "narration": "undated"}}
	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	matching, _ = ApplyFilters(noDate, FilterSet{StartDate: &start}, "")
	assert.Empty(t, matching)
}

func TestApplyFilters_Idempotent(t *testing.T) {
	f := FilterSet{Types: []string{"DEBIT"}}
	once, _ := ApplyFilters(sampleTxns(), f, "")
	twice, _ := ApplyFilters(once, f, "")

	assert.Equal(t, once, twice)
}

func TestApplyFilters_PreservesOrder(t *testing.T) {
	f := FilterSet{Modes: []string{"UPI"}}
	matching, _ := ApplyFilters(sampleTxns(), f, "")

	require.Len(t, matching, 2)
	assert.Equal(t, "Coffee at Blue Tokai", matching[0].Narration())
	assert.Equal(t, "Refund from Amazon", matching[1].Narration())
}
