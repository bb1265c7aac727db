// Package vector stores tenant-scoped embedding records and serves KNN search.
package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/brightclass/answerhub/internal/db"
	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/candidate"
)

// store is the consumer interface for embedding records (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/retrieval.Repository.
type Repo struct {
	store store
	dim   int
}

// New creates an embedding record repository. dim is the vector dimension
// enforced on write and declared to the index.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// EnsureIndex creates the embedding FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, domain.EmbeddingIndexName)
	if err != nil {
		return fmt.Errorf("index probe: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     domain.EmbeddingIndexName,
		Prefixes: []string{domain.EmbeddingIndexPrefix},
		Fields: []db.IndexField{
			{Name: "tenant", Type: db.IndexFieldTag},
			{Name: "content_type", Type: db.IndexFieldTag},
			{Name: "category", Type: db.IndexFieldTag},
			{Name: "chunk_index", Type: db.IndexFieldNumeric},
			{
				Name:           "__vector",
				Alias:          "vector",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorHNSW,
				VectorDim:      r.dim,
				VectorDistance: db.DistanceCosine,
				VectorM:        16,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Search runs a tenant-scoped KNN search and returns candidates sorted by
// the store (most similar first). The tenant tag filter is always present;
// search never crosses tenants. contentType, when nonempty, narrows the
// search to one content type.
func (r *Repo) Search(
	ctx context.Context, tenantID string, vector []float32, k int, contentType string,
) ([]candidate.Result, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	filters := []db.TagFilter{{Field: "tenant", Value: tenantID}}
	if contentType != "" {
		filters = append(filters, db.TagFilter{Field: "content_type", Value: contentType})
	}

	q := &db.KNNQuery{
		IndexName:    domain.EmbeddingIndexName,
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__content", "content_id", "content_type", "category", "subject"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn tenant %s: %w", tenantID, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	results := make([]candidate.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		contentID := entry.Fields["content_id"]
		if contentID == "" {
			contentID = domain.ContentIDFromKey(entry.Key, tenantID)
		}
		res := candidate.New(contentID, entry.Fields["content_type"], entry.Score, candidate.ProvenanceVector)
		res.SetText(entry.Fields["__content"])
		res.SetCategory(entry.Fields["category"])
		res.SetSubject(entry.Fields["subject"])
		results = append(results, res)
	}

	return results, nil
}

// FetchRecords loads the first chunk of each content ID for a tenant.
// Content IDs without a stored record are skipped.
func (r *Repo) FetchRecords(
	ctx context.Context, tenantID string, contentIDs []string,
) ([]domain.EmbeddingRecord, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	if len(contentIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(contentIDs))
	for i, id := range contentIDs {
		keys[i] = domain.EmbeddingKey(tenantID, id, 0)
	}

	fieldMaps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch records tenant %s: %w", tenantID, err)
	}

	records := make([]domain.EmbeddingRecord, 0, len(fieldMaps))
	for _, fields := range fieldMaps {
		if fields == nil {
			continue
		}
		records = append(records, parseHashFields(fields))
	}

	return records, nil
}

// UpsertRecord writes one embedding record. The vector dimension must match
// the configured index dimension.
func (r *Repo) UpsertRecord(ctx context.Context, rec *domain.EmbeddingRecord) error {
	if rec.TenantID == "" {
		return domain.ErrTenantRequired
	}
	if len(rec.Vector) != r.dim {
		return domain.NewDimMismatch(r.dim, len(rec.Vector))
	}

	key := domain.EmbeddingKey(rec.TenantID, rec.ContentID, rec.ChunkIndex)
	if err := r.store.HSet(ctx, key, buildHashFields(rec)); err != nil {
		return fmt.Errorf("upsert record %s: %w", key, err)
	}
	return nil
}
