package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Extraction is anchored to a fixed clock so relative date phrases stay
// deterministic.
var testNow = time.Date(2024, time.June, 15, 13, 45, 0, 0, time.UTC)

func TestExtractFilters_Amounts(t *testing.T) {
	tests := []struct {
		question string
		min      string
		max      string
	}{
		{"show transactions above 500", "500", ""},
		{"show transactions above rs. 1,500", "1500", ""},
		{"expenses over ₹2000", "2000", ""},
		{"payments below 300", "", "300"},
		{"anything under inr 750.50", "", "750.5"},
		{"transactions between 100 and 2000", "100", "2000"},
		{"transactions between 2000 and 100", "100", "2000"},
		{"500 se zyada ke transactions", "500", ""},
		{"2000 se kam wale", "", "2000"},
		{"spends up to 900", "", "900"},
		// Duration phrasing, not an amount cap.
		{"transactions within 7 days", "", ""},
		{"just show my transactions", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			f := extractFiltersAt(tt.question, testNow)
			if tt.min == "" {
				assert.Nil(t, f.MinAmount)
			} else {
				require.NotNil(t, f.MinAmount)
				assert.Equal(t, tt.min, f.MinAmount.String())
			}
			if tt.max == "" {
				assert.Nil(t, f.MaxAmount)
			} else {
				require.NotNil(t, f.MaxAmount)
				assert.Equal(t, tt.max, f.MaxAmount.String())
			}
		})
	}
}

func TestExtractFilters_Dates(t *testing.T) {
	tests := []struct {
		question string
		start    string
		end      string
	}{
		{"what did I spend today", "2024-06-15", "2024-06-15"},
		{"yesterday's transactions", "2024-06-14", "2024-06-14"},
		{"spends in the last week", "2024-06-08", "2024-06-15"},
		{"last month's expenses", "2024-05-01", "2024-05-31"},
		{"this month so far", "2024-06-01", "2024-06-15"},
		{"last 30 days", "2024-05-16", "2024-06-15"},
		{"spending in january", "2024-01-01", "2024-01-31"},
		{"spending in december", "2023-12-01", "2023-12-31"},
		{"from 2024-01-10 to 2024-02-20", "2024-01-10", "2024-02-20"},
		{"all my spends", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			f := extractFiltersAt(tt.question, testNow)
			if tt.start == "" {
				assert.Nil(t, f.StartDate)
				assert.Nil(t, f.EndDate)
				return
			}
			require.NotNil(t, f.StartDate)
			require.NotNil(t, f.EndDate)
			assert.Equal(t, tt.start, f.StartDate.Format("2006-01-02"))
			assert.Equal(t, tt.end, f.EndDate.Format("2006-01-02"))
		})
	}
}

func TestExtractFilters_TypesAndModes(t *testing.T) {
	f := extractFiltersAt("my expenses via upi", testNow)
	assert.Equal(t, []string{"DEBIT"}, f.Types)
	assert.Equal(t, []string{"UPI"}, f.Modes)

	// "spend" alone is a totalling word, not a type constraint.
	f = extractFiltersAt("what is my total spend", testNow)
	assert.Empty(t, f.Types)

	f = extractFiltersAt("kharcha on cash and card", testNow)
	assert.Equal(t, []string{"DEBIT"}, f.Types)
	assert.ElementsMatch(t, []string{"CARD", "CASH"}, f.Modes)

	f = extractFiltersAt("refunds received last month", testNow)
	assert.Equal(t, []string{"CREDIT"}, f.Types)
}

func TestExtractFilters_CreditCardIsAMode(t *testing.T) {
	// "credit card" names the payment rail, not a CREDIT-type transaction.
	f := extractFiltersAt("spends on my credit card", testNow)
	assert.Equal(t, []string{"CARD"}, f.Modes)
	assert.NotContains(t, f.Types, "CREDIT")
}

func TestExtractFilters_QuotedKeywords(t *testing.T) {
	f := extractFiltersAt(`transactions with "zomato" in them`, testNow)
	assert.Equal(t, []string{"zomato"}, f.Keywords)
}

func TestExtractFilters_DevanagariDegradesGracefully(t *testing.T) {
	f := extractFiltersAt("मेरे लेनदेन दिखाओ", testNow)
	assert.True(t, f.MinAmount == nil && f.MaxAmount == nil)
	assert.Nil(t, f.StartDate)
}

func TestFilterSet_CanonicalDeterministic(t *testing.T) {
	a := extractFiltersAt("debit transactions above 500 via upi last month", testNow)
	b := extractFiltersAt("debit transactions above 500 via upi last month", testNow)
	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.NotEmpty(t, a.Canonical())

	empty := FilterSet{}
	assert.Empty(t, empty.Canonical())
	assert.True(t, empty.Empty())
}
