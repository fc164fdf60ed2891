package query

import (
	"fmt"
	"strings"

	"github.com/Prabal0202/VittaManthan/internal/domain"
)

// ApplyFilters narrows a transaction sequence to the subset matching every
// present predicate, preserving the original relative order. It returns one
// human-readable description per predicate actually applied. A transaction
// whose relevant field is missing or malformed does not match that
// predicate; it never fails the whole pass.
func ApplyFilters(txns []domain.Transaction, f FilterSet, question string) ([]domain.Transaction, []string) {
	descriptions := describe(f)
	if f.Empty() {
		return txns, descriptions
	}

	matching := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if matches(t, f) {
			matching = append(matching, t)
		}
	}
	return matching, descriptions
}

func matches(t domain.Transaction, f FilterSet) bool {
	if f.MinAmount != nil || f.MaxAmount != nil {
		amount, ok := t.Amount()
		if !ok {
			return false
		}
		if f.MinAmount != nil && amount.LessThan(*f.MinAmount) {
			return false
		}
		if f.MaxAmount != nil && amount.GreaterThan(*f.MaxAmount) {
			return false
		}
	}
	if f.StartDate != nil || f.EndDate != nil {
		ts, ok := t.Time()
		if !ok {
			return false
		}
		if f.StartDate != nil && ts.Before(*f.StartDate) {
			return false
		}
		if f.EndDate != nil && ts.After(*f.EndDate) {
			return false
		}
	}
	if len(f.Types) > 0 && !containsFold(f.Types, t.Type()) {
		return false
	}
	if len(f.Modes) > 0 && !containsFold(f.Modes, t.Mode()) {
		return false
	}
	if len(f.Keywords) > 0 {
		narration := strings.ToLower(t.Narration())
		for _, kw := range f.Keywords {
			if !strings.Contains(narration, strings.ToLower(kw)) {
				return false
			}
		}
	}
	return true
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

func describe(f FilterSet) []string {
	var descriptions []string
	switch {
	case f.MinAmount != nil && f.MaxAmount != nil:
		descriptions = append(descriptions, fmt.Sprintf("amount between ₹%s and ₹%s", f.MinAmount.StringFixed(2), f.MaxAmount.StringFixed(2)))
	case f.MinAmount != nil:
		descriptions = append(descriptions, fmt.Sprintf("amount above ₹%s", f.MinAmount.StringFixed(2)))
	case f.MaxAmount != nil:
		descriptions = append(descriptions, fmt.Sprintf("amount below ₹%s", f.MaxAmount.StringFixed(2)))
	}
	switch {
	case f.StartDate != nil && f.EndDate != nil:
		descriptions = append(descriptions, fmt.Sprintf("dated %s to %s", f.StartDate.Format("2006-01-02"), f.EndDate.Format("2006-01-02")))
	case f.StartDate != nil:
		descriptions = append(descriptions, fmt.Sprintf("dated after %s", f.StartDate.Format("2006-01-02")))
	case f.EndDate != nil:
		descriptions = append(descriptions, fmt.Sprintf("dated before %s", f.EndDate.Format("2006-01-02")))
	}
	if len(f.Types) > 0 {
		descriptions = append(descriptions, "type: "+strings.Join(f.Types, ", "))
	}
	if len(f.Modes) > 0 {
		descriptions = append(descriptions, "payment mode: "+strings.Join(f.Modes, ", "))
	}
	if len(f.Keywords) > 0 {
		descriptions = append(descriptions, "narration contains: "+strings.Join(f.Keywords, ", "))
	}
	return descriptions
}
