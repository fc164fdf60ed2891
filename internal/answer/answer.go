// Package answer drives one query end-to-end: classify the question,
// narrow the dataset by extracted filters or semantic retrieval, call the
// generation collaborator, memoize the outcome for pagination, and page the
// matching subset.
package answer

import (
	"errors"

	"github.com/Prabal0202/VittaManthan/internal/domain"
	"github.com/Prabal0202/VittaManthan/internal/query"
)

// Request error taxonomy. Unavailable is a configuration fault (503 at the
// transport layer), NoData a client fault (ingest first), NoIndex the
// degraded state after a failed index rebuild.
var (
	ErrUnavailable = errors.New("generation engine not initialized")
	ErrNoData      = errors.New("no dataset ingested for this identity")
	ErrNoIndex     = errors.New("semantic index unavailable")
)

// ResolveRequest carries one question against one identity's dataset.
type ResolveRequest struct {
	Identity string
	Question string

	// UseFullData is the tri-state caller override: nil defers to the
	// textual classification.
	UseFullData *bool

	// ShowAll asks for the paginated transaction listing alongside the
	// answer.
	ShowAll  bool
	Page     int
	PageSize int

	// Fingerprint, when set, is the explicit query id from a previous
	// page-1 response; otherwise it is derived from the question.
	Fingerprint string
}

const (
	defaultPageSize = 10
	maxRetrievalK   = 50
)

func (r ResolveRequest) withDefaults() ResolveRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = defaultPageSize
	}
	return r
}

// TransactionView is the flattened presentation form of one transaction.
type TransactionView struct {
	Amount    string `json:"amount"`
	Date      string `json:"date,omitempty"`
	Narration string `json:"narration,omitempty"`
	Type      string `json:"type,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

// Pagination describes the returned page window.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ResolveResult is one resolved query.
type ResolveResult struct {
	Fingerprint        string             `json:"query_id"`
	Mode               query.Mode         `json:"mode"`
	SubMode            query.SubMode      `json:"sub_mode,omitempty"`
	Answer             string             `json:"answer"`
	MatchingCount      int                `json:"matching_transactions_count"`
	FilterDescriptions []string           `json:"filters_applied,omitempty"`
	Statistics         *domain.Statistics `json:"statistics,omitempty"`
	Transactions       []TransactionView  `json:"transactions,omitempty"`
	Pagination         *Pagination        `json:"pagination,omitempty"`
}
