package chathistory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// BigQueryStore journals interactions in a BigQuery table, one row per
// answered question. Filters are stored as a JSON string column.
type BigQueryStore struct {
	client    *bigquery.Client
	datasetID string
	tableID   string
}

// NewBigQueryStore creates a store against the given project, dataset, and
// table.
func NewBigQueryStore(ctx context.Context, projectID, datasetID, tableID string) (*BigQueryStore, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryStore: creating bigquery client: %w", err)
	}
	return &BigQueryStore{client: client, datasetID: datasetID, tableID: tableID}, nil
}

// Close closes the BigQuery client connection.
func (s *BigQueryStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *BigQueryStore) qualified() string {
	return fmt.Sprintf("`%s.%s`", s.datasetID, s.tableID)
}

type interactionRow struct {
	UserID        string    `bigquery:"user_id"`
	Query         string    `bigquery:"query"`
	Response      string    `bigquery:"response"`
	QueryID       string    `bigquery:"query_id"`
	Mode          string    `bigquery:"mode"`
	MatchingCount int64     `bigquery:"matching_count"`
	Filters       string    `bigquery:"filters"`
	CreatedAt     time.Time `bigquery:"created_at"`
}

// Save implements Store with a plain INSERT; journals are append-only.
func (s *BigQueryStore) Save(ctx context.Context, in Interaction) error {
	if in.Identity == "" {
		return fmt.Errorf("Save: interaction identity is required")
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}

	filters, err := json.Marshal(in.FiltersApplied)
	if err != nil {
		return fmt.Errorf("Save: marshaling filters for %q: %w", in.Identity, err)
	}

	q := s.client.Query(fmt.Sprintf(`
		INSERT INTO %s (user_id, query, response, query_id, mode, matching_count, filters, created_at)
		VALUES (@user_id, @query, @response, @query_id, @mode, @matching_count, @filters, @created_at)
	`, s.qualified()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: in.Identity},
		{Name: "query", Value: in.Question},
		{Name: "response", Value: in.Answer},
		{Name: "query_id", Value: in.QueryID},
		{Name: "mode", Value: in.Mode},
		{Name: "matching_count", Value: int64(in.MatchingCount)},
		{Name: "filters", Value: string(filters)},
		{Name: "created_at", Value: in.CreatedAt},
	}
	return s.runDML(ctx, q, "Save")
}

// History implements Store.
func (s *BigQueryStore) History(ctx context.Context, identity string, limit, offset int) ([]Interaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT user_id, query, response, query_id, mode, matching_count, filters, created_at
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset
	`, s.qualified()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: identity},
		{Name: "limit", Value: int64(limit)},
		{Name: "offset", Value: int64(offset)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("History: query read: %w", err)
	}

	var out []Interaction
	for {
		var row interactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("History: iterating rows: %w", err)
		}
		in := Interaction{
			Identity:      row.UserID,
			Question:      row.Query,
			Answer:        row.Response,
			QueryID:       row.QueryID,
			Mode:          row.Mode,
			MatchingCount: int(row.MatchingCount),
			CreatedAt:     row.CreatedAt,
		}
		if row.Filters != "" {
			if err := json.Unmarshal([]byte(row.Filters), &in.FiltersApplied); err != nil {
				return nil, fmt.Errorf("History: unmarshaling filters for %q: %w", identity, err)
			}
		}
		out = append(out, in)
	}
	return out, nil
}

// Recent implements Store. Repeated questions collapse to their most
// recent occurrence.
func (s *BigQueryStore) Recent(ctx context.Context, identity string, limit int) ([]string, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT query
		FROM %s
		WHERE user_id = @user_id
		GROUP BY query
		ORDER BY MAX(created_at) DESC
		LIMIT @limit
	`, s.qualified()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: identity},
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Recent: query read: %w", err)
	}

	var out []string
	for {
		var row struct {
			Query string `bigquery:"query"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Recent: iterating rows: %w", err)
		}
		out = append(out, row.Query)
	}
	return out, nil
}

// Stats implements Store. Per-mode counts come back grouped and are
// folded into one summary.
func (s *BigQueryStore) Stats(ctx context.Context, identity string) (*Stats, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT mode, COUNT(*) AS cnt, MIN(created_at) AS first_at, MAX(created_at) AS last_at
		FROM %s
		WHERE user_id = @user_id
		GROUP BY mode
	`, s.qualified()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: identity},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Stats: query read: %w", err)
	}

	stats := &Stats{Identity: identity, ByMode: make(map[string]int)}
	for {
		var row struct {
			Mode    string    `bigquery:"mode"`
			Cnt     int64     `bigquery:"cnt"`
			FirstAt time.Time `bigquery:"first_at"`
			LastAt  time.Time `bigquery:"last_at"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Stats: iterating rows: %w", err)
		}
		stats.Interactions += int(row.Cnt)
		if row.Mode != "" {
			stats.ByMode[row.Mode] += int(row.Cnt)
		}
		if stats.FirstAt == nil || row.FirstAt.Before(*stats.FirstAt) {
			first := row.FirstAt
			stats.FirstAt = &first
		}
		if stats.LastAt == nil || row.LastAt.After(*stats.LastAt) {
			last := row.LastAt
			stats.LastAt = &last
		}
	}
	return stats, nil
}

// Delete implements Store.
func (s *BigQueryStore) Delete(ctx context.Context, identity string) error {
	q := s.client.Query(fmt.Sprintf(`DELETE FROM %s WHERE user_id = @user_id`, s.qualified()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: identity},
	}
	return s.runDML(ctx, q, "Delete")
}

func (s *BigQueryStore) runDML(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job failed: %w", op, err)
	}
	return nil
}

// Ensure BigQueryStore implements Store.
var _ Store = (*BigQueryStore)(nil)
