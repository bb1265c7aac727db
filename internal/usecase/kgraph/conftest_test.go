package kgraph

import (
	"context"

	"go.uber.org/zap"

	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/candidate"
	"github.com/brightclass/answerhub/internal/domain/graph"
)

// mockGraph is a function-field test double for the Repository contract.
type mockGraph struct {
	outEdgesFn  func(ctx context.Context, tenantID string, sourceIDs []string) ([]graph.Edge, error)
	nodesByIDFn func(ctx context.Context, tenantID string, nodeIDs []string) ([]graph.Node, error)

	outCalls [][]string
}

func (m *mockGraph) OutEdges(ctx context.Context, tenantID string, sourceIDs []string) ([]graph.Edge, error) {
	m.outCalls = append(m.outCalls, sourceIDs)
	if m.outEdgesFn != nil {
		return m.outEdgesFn(ctx, tenantID, sourceIDs)
	}
	return nil, nil
}

func (m *mockGraph) NodesByID(ctx context.Context, tenantID string, nodeIDs []string) ([]graph.Node, error) {
	if m.nodesByIDFn != nil {
		return m.nodesByIDFn(ctx, tenantID, nodeIDs)
	}
	return nil, nil
}

// mockRecords is a function-field test double for the RecordReader contract.
type mockRecords struct {
	fetchFn func(ctx context.Context, tenantID string, contentIDs []string) ([]domain.EmbeddingRecord, error)
}

func (m *mockRecords) FetchRecords(ctx context.Context, tenantID string, contentIDs []string) ([]domain.EmbeddingRecord, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, tenantID, contentIDs)
	}
	return nil, nil
}

func newTestService(g *mockGraph, r *mockRecords) *Service {
	return New(g, r, Config{MaxDepth: 2, MinEdgeWeight: 0.1}, zap.NewNop())
}

func edge(src, dst string, t graph.EdgeType, w float64) graph.Edge {
	return graph.Edge{TenantID: "acme", SourceID: src, TargetID: dst, Type: t, Weight: w}
}

func vectorHit(id string, sim float64) candidate.Result {
	return candidate.New(id, "course", sim, candidate.ProvenanceVector)
}
