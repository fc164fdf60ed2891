package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Prabal0202/VittaManthan/internal/answer"
	"github.com/Prabal0202/VittaManthan/internal/api/middleware"
	"github.com/Prabal0202/VittaManthan/internal/archive"
	"github.com/Prabal0202/VittaManthan/internal/chathistory"
	"github.com/Prabal0202/VittaManthan/internal/dataset"
	"github.com/Prabal0202/VittaManthan/internal/domain"
	"github.com/Prabal0202/VittaManthan/internal/vectorindex"
)

// QueryHandler handles ingestion, question resolution, and chat history
// endpoints.
type QueryHandler struct {
	store        *dataset.Store
	builder      vectorindex.Builder
	orchestrator *answer.Orchestrator
	archiver     *archive.Archiver
	history      chathistory.Store
	log          zerolog.Logger
}

// NewQueryHandler creates a new query handler. builder and archiver may be
// nil; ingestion then skips index construction or payload archiving.
// history may be nil, which turns the history endpoints into 503s.
func NewQueryHandler(store *dataset.Store, builder vectorindex.Builder, orchestrator *answer.Orchestrator, archiver *archive.Archiver, history chathistory.Store, log zerolog.Logger) *QueryHandler {
	return &QueryHandler{
		store:        store,
		builder:      builder,
		orchestrator: orchestrator,
		archiver:     archiver,
		history:      history,
		log:          log,
	}
}

type ingestRequest struct {
	UserID       string               `json:"user_id"`
	Transactions []domain.Transaction `json:"transactions"`
}

type promptRequest struct {
	UserID      string `json:"user_id"`
	Question    string `json:"question"`
	UseFullData *bool  `json:"use_full_data"`
	ShowAll     bool   `json:"show_all"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
	QueryID     string `json:"query_id"`
}

func (p promptRequest) resolveRequest() answer.ResolveRequest {
	return answer.ResolveRequest{
		Identity:    p.UserID,
		Question:    p.Question,
		UseFullData: p.UseFullData,
		ShowAll:     p.ShowAll,
		Page:        p.Page,
		PageSize:    p.PageSize,
		Fingerprint: p.QueryID,
	}
}

// Ingest handles POST /ingest
func (h *QueryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "transactions is required and must be non-empty")
		return
	}

	var index vectorindex.Index
	if h.builder != nil {
		index, err = h.builder.Build(ctx, req.Transactions)
		if err != nil {
			h.log.Warn().Err(err).Msg("Index construction failed; dataset stored without semantic search")
			index = nil
		}
	}

	h.store.Put(ctx, req.UserID, req.Transactions, index)

	if h.archiver != nil {
		if uri, err := h.archiver.SaveIngest(ctx, req.UserID, body); err != nil {
			h.log.Warn().Err(err).Msg("Ingest archive failed")
		} else {
			h.log.Info().Str("gcs_uri", uri).Msg("Ingest payload archived")
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "success",
		"transaction_count": len(req.Transactions),
		"indexed":           index != nil,
		"timestamp":         time.Now().Format(time.RFC3339),
	})
}

// Prompt handles POST /prompt
func (h *QueryHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		middleware.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.orchestrator.Resolve(ctx, req.resolveRequest())
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

type queryRequest struct {
	promptRequest
	Transactions []domain.Transaction `json:"transactions"`
}

// Query handles POST /query: transactions carried inline with the
// question, resolved in one shot. Stored datasets and the pagination
// cache are left untouched.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		middleware.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "transactions is required and must be non-empty")
		return
	}

	var index vectorindex.Index
	if h.builder != nil {
		built, err := h.builder.Build(ctx, req.Transactions)
		if err != nil {
			h.log.Warn().Err(err).Msg("Index construction failed; resolving without semantic search")
		} else {
			index = built
		}
	}

	result, err := h.orchestrator.ResolveInline(ctx, req.resolveRequest(), req.Transactions, index)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// PromptStream handles POST /query/stream with server-sent events.
func (h *QueryHandler) PromptStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		middleware.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	// Headers are deferred until the first frame so pre-stream faults can
	// still pick a status code.
	headersSent := false
	emit := func(f answer.Frame) error {
		if !headersSent {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			headersSent = true
		}
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := h.orchestrator.ResolveStream(ctx, req.resolveRequest(), emit); err != nil {
		if !headersSent {
			h.writeResolveError(w, err)
			return
		}
		h.log.Debug().Err(err).Msg("Stream ended early")
	}
}

// Status handles GET /status
func (h *QueryHandler) Status(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()

	total := 0
	for _, info := range stats {
		total += info.TransactionCount
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"datasets_loaded":    len(stats),
		"total_transactions": total,
		"timestamp":          time.Now().Format(time.RFC3339),
	})
}

// UsersStatus handles GET /status/users
func (h *QueryHandler) UsersStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identities := h.store.Identities(ctx)
	stats := h.store.Stats()

	users := make([]map[string]interface{}, 0, len(identities))
	for _, id := range identities {
		entry := map[string]interface{}{"user_id": id, "loaded": false}
		if info, ok := stats[id]; ok {
			entry["loaded"] = true
			entry["transaction_count"] = info.TransactionCount
			entry["last_updated"] = info.LastUpdated.Format(time.RFC3339)
		}
		users = append(users, entry)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// DeleteData handles DELETE /data/{userID}
func (h *QueryHandler) DeleteData(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	if !h.store.Exists(ctx, userID) {
		middleware.WriteError(w, http.StatusNotFound, "No data found for user")
		return
	}

	h.store.Delete(ctx, userID)

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "deleted",
		"user_id": userID,
	})
}

// Health handles GET /healthz
func (h *QueryHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// History handles GET /history/{userID}
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request, userID string) {
	if h.history == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Chat history is unavailable")
		return
	}

	limit := clampQueryInt(r, "limit", 50, 1, 100)
	offset := clampQueryInt(r, "offset", 0, 0, 1<<30)

	entries, err := h.history.History(r.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("History lookup failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"history": entries,
		"count":   len(entries),
		"limit":   limit,
		"offset":  offset,
	})
}

// RecentQueries handles GET /history/{userID}/recent
func (h *QueryHandler) RecentQueries(w http.ResponseWriter, r *http.Request, userID string) {
	if h.history == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Chat history is unavailable")
		return
	}

	limit := clampQueryInt(r, "limit", 10, 1, 50)

	queries, err := h.history.Recent(r.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Recent query lookup failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load recent queries")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":        userID,
		"recent_queries": queries,
		"count":          len(queries),
	})
}

// HistoryStats handles GET /history/{userID}/stats
func (h *QueryHandler) HistoryStats(w http.ResponseWriter, r *http.Request, userID string) {
	if h.history == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Chat history is unavailable")
		return
	}

	stats, err := h.history.Stats(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("History stats lookup failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load chat statistics")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, stats)
}

// DeleteHistory handles DELETE /history/{userID}
func (h *QueryHandler) DeleteHistory(w http.ResponseWriter, r *http.Request, userID string) {
	if h.history == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Chat history is unavailable")
		return
	}

	if err := h.history.Delete(r.Context(), userID); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("History delete failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete chat history")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Chat history deleted for user '" + userID + "'",
	})
}

// clampQueryInt reads an integer query parameter, falling back to def on
// absence or garbage and clamping into [min, max].
func clampQueryInt(r *http.Request, name string, def, min, max int) int {
	v := def
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			v = n
		}
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}

func (h *QueryHandler) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, answer.ErrUnavailable):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Answer generation is unavailable; check GEMINI_API_KEY configuration")
	case errors.Is(err, answer.ErrNoData):
		middleware.WriteError(w, http.StatusBadRequest, "No transaction data available. Ingest transactions via POST /ingest first")
	case errors.Is(err, answer.ErrNoIndex):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Semantic search index is unavailable for this dataset")
	default:
		h.log.Error().Err(err).Msg("Query resolution failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to resolve query")
	}
}
