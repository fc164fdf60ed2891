package domain

import "github.com/shopspring/decimal"

// Statistics is the aggregate block computed over a matching transaction
// subset. Amounts are decimals; transactions without a readable amount
// count toward Count but contribute zero to the sums.
type Statistics struct {
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total_amount"`
	Average decimal.Decimal `json:"average_amount"`
	Max     decimal.Decimal `json:"max_amount"`
	Min     decimal.Decimal `json:"min_amount"`
}

// Summarize computes statistics over a transaction sequence.
func Summarize(txns []Transaction) Statistics {
	stats := Statistics{Count: len(txns)}
	if len(txns) == 0 {
		return stats
	}

	first := true
	for _, t := range txns {
		amount, _ := t.Amount()
		stats.Total = stats.Total.Add(amount)
		if first {
			stats.Max = amount
			stats.Min = amount
			first = false
			continue
		}
		if amount.GreaterThan(stats.Max) {
			stats.Max = amount
		}
		if amount.LessThan(stats.Min) {
			stats.Min = amount
		}
	}
	stats.Average = stats.Total.Div(decimal.NewFromInt(int64(len(txns)))).Round(2)
	return stats
}
