package answer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Prabal0202/VittaManthan/internal/domain"
)

// pageOf sorts the matching subset descending by amount (the stable
// presentation order across pages) and slices out the requested window.
func pageOf(matching []domain.Transaction, page, pageSize int) ([]TransactionView, *Pagination) {
	sorted := make([]domain.Transaction, len(matching))
	copy(sorted, matching)
	sort.SliceStable(sorted, func(i, j int) bool {
		return amountOrZero(sorted[i]).GreaterThan(amountOrZero(sorted[j]))
	})

	total := len(sorted)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	views := make([]TransactionView, 0, end-start)
	for _, t := range sorted[start:end] {
		views = append(views, viewOf(t))
	}

	return views, &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    end < total,
		HasPrev:    page > 1,
	}
}

func amountOrZero(t domain.Transaction) decimal.Decimal {
	amount, _ := t.Amount()
	return amount
}

func viewOf(t domain.Transaction) TransactionView {
	view := TransactionView{
		Narration: t.Narration(),
		Type:      t.Type(),
		Mode:      t.Mode(),
	}
	if amount, ok := t.Amount(); ok {
		view.Amount = amount.StringFixed(2)
	}
	if ts, ok := t.Time(); ok {
		view.Date = ts.Format("2006-01-02")
	}
	return view
}
