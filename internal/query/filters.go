// Package query turns a free-text question into a processing strategy and a
// structured filter set, and applies those filters to a transaction
// collection. Extraction and classification are best-effort heuristics over
// mixed English / Hindi / Hinglish input; text that matches no pattern
// produces no constraint, never an error.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FilterSet is the structured predicate set extracted from a question.
// A nil / empty field means no constraint on that axis; present predicates
// are AND-combined by ApplyFilters.
type FilterSet struct {
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	StartDate *time.Time       `json:"start_date,omitempty"`
	EndDate   *time.Time       `json:"end_date,omitempty"`
	Types     []string         `json:"types,omitempty"`
	Modes     []string         `json:"modes,omitempty"`
	Keywords  []string         `json:"keywords,omitempty"`
}

// Empty reports whether no predicate is set.
func (f FilterSet) Empty() bool {
	return f.MinAmount == nil && f.MaxAmount == nil &&
		f.StartDate == nil && f.EndDate == nil &&
		len(f.Types) == 0 && len(f.Modes) == 0 && len(f.Keywords) == 0
}

// Canonical returns a deterministic string form of the filter set, used as
// part of the query fingerprint. Identical filter sets always canonicalize
// identically regardless of extraction order.
func (f FilterSet) Canonical() string {
	var parts []string
	if f.MinAmount != nil {
		parts = append(parts, "min="+f.MinAmount.String())
	}
	if f.MaxAmount != nil {
		parts = append(parts, "max="+f.MaxAmount.String())
	}
	if f.StartDate != nil {
		parts = append(parts, "from="+f.StartDate.Format("2006-01-02"))
	}
	if f.EndDate != nil {
		parts = append(parts, "to="+f.EndDate.Format("2006-01-02"))
	}
	parts = append(parts, canonicalSet("types", f.Types)...)
	parts = append(parts, canonicalSet("modes", f.Modes)...)
	parts = append(parts, canonicalSet("keywords", f.Keywords)...)
	return strings.Join(parts, ";")
}

func canonicalSet(name string, values []string) []string {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return []string{fmt.Sprintf("%s=%s", name, strings.Join(sorted, ","))}
}
