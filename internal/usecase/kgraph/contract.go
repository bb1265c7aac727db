package kgraph

import (
	"context"

	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/graph"
)

// Repository defines the storage contract for graph traversal.
type Repository interface {
	OutEdges(ctx context.Context, tenantID string, sourceIDs []string) ([]graph.Edge, error)
	NodesByID(ctx context.Context, tenantID string, nodeIDs []string) ([]graph.Node, error)
}

// RecordReader fetches embedding records for graph-discovered content.
type RecordReader interface {
	FetchRecords(ctx context.Context, tenantID string, contentIDs []string) ([]domain.EmbeddingRecord, error)
}
