// Package archive writes raw ingest payloads to a GCS bucket so the
// original client submissions can be replayed or audited. Archiving is
// best-effort: a failure is logged by the caller and never blocks or fails
// the ingest itself.
package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Archiver writes payload snapshots under ingests/YYYY/MM/DD/.
type Archiver struct {
	client *storage.Client
	bucket string
}

// New creates an archiver against the given bucket.
func New(ctx context.Context, bucket string) (*Archiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("New: creating storage client: %w", err)
	}
	return &Archiver{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (a *Archiver) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// SaveIngest writes one raw ingest payload and returns the gs:// URI of
// the created object.
func (a *Archiver) SaveIngest(ctx context.Context, identity string, payload []byte) (string, error) {
	objectName := fmt.Sprintf("ingests/%s/%s-%s.json",
		time.Now().Format("2006/01/02"), uuid.New().String(), identity)

	wc := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"

	if _, err := wc.Write(payload); err != nil {
		return "", fmt.Errorf("SaveIngest: writing object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("SaveIngest: closing writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}
