package domain

import "time"

// EmbeddingRecord is one stored knowledge-base chunk with its vector.
// Records are written by the ingestion path and read-only to the pipeline.
type EmbeddingRecord struct {
	TenantID    string
	ContentID   string
	ContentType string
	Category    string
	Subject     string
	ChunkIndex  int
	Vector      []float32
	Text        string
	Metadata    map[string]string
	CreatedAt   time.Time
}

// Key returns the record identity within its tenant.
func (r *EmbeddingRecord) Key() string {
	return r.ContentID
}
