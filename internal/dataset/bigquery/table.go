// Package bigquery is the DurableTable implementation backed by a BigQuery
// table keyed by user id. Transactions are stored as one JSON column; the
// derived index is never written here.
package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/Prabal0202/VittaManthan/internal/dataset"
	"github.com/Prabal0202/VittaManthan/internal/domain"
)

// Table holds a shared BigQuery client so each operation does not open a
// new connection.
type Table struct {
	client    *bigquery.Client
	datasetID string
	tableID   string
}

// New creates a Table against the given project, dataset, and table.
func New(ctx context.Context, projectID, datasetID, tableID string) (*Table, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("New: creating bigquery client: %w", err)
	}
	return &Table{client: client, datasetID: datasetID, tableID: tableID}, nil
}

// Close closes the BigQuery client connection.
func (t *Table) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

func (t *Table) qualified() string {
	return fmt.Sprintf("`%s.%s`", t.datasetID, t.tableID)
}

type userDatasetRow struct {
	UserID       string    `bigquery:"user_id"`
	Transactions string    `bigquery:"transactions"`
	TxnCount     int64     `bigquery:"txn_count"`
	LastUpdated  time.Time `bigquery:"last_updated"`
}

// Get implements DurableTable. It returns (nil, nil) when the identity has
// no row.
func (t *Table) Get(ctx context.Context, identity string) (*dataset.Record, error) {
	q := t.client.Query(fmt.Sprintf(`
		SELECT user_id, transactions, txn_count, last_updated
		FROM %s
		WHERE user_id = @user_id
		LIMIT 1
	`, t.qualified()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: identity},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Get: query read: %w", err)
	}

	var row userDatasetRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: iterating rows: %w", err)
	}

	var txns []domain.Transaction
	if err := json.Unmarshal([]byte(row.Transactions), &txns); err != nil {
		return nil, fmt.Errorf("Get: unmarshaling transactions for %q: %w", identity, err)
	}

	return &dataset.Record{
		Identity:     row.UserID,
		Transactions: txns,
		LastUpdated:  row.LastUpdated,
	}, nil
}

// Put implements DurableTable with a MERGE upsert so repeated ingestion
// for the same identity replaces the row.
func (t *Table) Put(ctx context.Context, record *dataset.Record) error {
	payload, err := json.Marshal(record.Transactions)
	if err != nil {
		return fmt.Errorf("Put: marshaling transactions for %q: %w", record.Identity, err)
	}

	q := t.client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @user_id AS user_id) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN UPDATE SET
			transactions = @transactions,
			txn_count = @txn_count,
			last_updated = @last_updated
		WHEN NOT MATCHED THEN INSERT (user_id, transactions, txn_count, last_updated)
		VALUES (@user_id, @transactions, @txn_count, @last_updated)
	`, t.qualified()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: record.Identity},
		{Name: "transactions", Value: string(payload)},
		{Name: "txn_count", Value: int64(len(record.Transactions))},
		{Name: "last_updated", Value: record.LastUpdated},
	}

	return t.runDML(ctx, q, "Put")
}

// Delete implements DurableTable.
func (t *Table) Delete(ctx context.Context, identity string) error {
	q := t.client.Query(fmt.Sprintf(`DELETE FROM %s WHERE user_id = @user_id`, t.qualified()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: identity},
	}
	return t.runDML(ctx, q, "Delete")
}

// Keys implements DurableTable.
func (t *Table) Keys(ctx context.Context) ([]string, error) {
	q := t.client.Query(fmt.Sprintf(`SELECT user_id FROM %s ORDER BY user_id`, t.qualified()))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Keys: query read: %w", err)
	}

	var keys []string
	for {
		var row struct {
			UserID string `bigquery:"user_id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Keys: iterating rows: %w", err)
		}
		keys = append(keys, row.UserID)
	}
	return keys, nil
}

func (t *Table) runDML(ctx context.Context, q *bigquery.Query, op string) error {
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

// Ensure Table implements DurableTable.
var _ dataset.DurableTable = (*Table)(nil)
