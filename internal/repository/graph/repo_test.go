package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/brightclass/answerhub/internal/domain"
	domgraph "github.com/brightclass/answerhub/internal/domain/graph"
)

func TestUpsertEdge_KeyEncodesTriple(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotKey string
	ms.hSetFn = func(_ context.Context, key string, _ map[string]string) error {
		gotKey = key
		return nil
	}

	edge := &domgraph.Edge{
		TenantID: "acme",
		SourceID: "content:a",
		TargetID: "skill:b",
		Type:     domgraph.EdgeSupports,
		Weight:   0.8,
	}
	if err := repo.UpsertEdge(context.Background(), edge); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "ah:acme:edge:content:a|skill:b|supports" {
		t.Errorf("unexpected edge key: %s", gotKey)
	}
}

func TestUpsertEdge_RegistersAdjacency(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotSetKey string
	var gotMembers []string
	ms.sAddFn = func(_ context.Context, key string, members ...string) error {
		gotSetKey = key
		gotMembers = members
		return nil
	}

	edge := &domgraph.Edge{
		TenantID: "acme",
		SourceID: "content:a",
		TargetID: "skill:b",
		Type:     domgraph.EdgeSupports,
		Weight:   0.8,
	}
	if err := repo.UpsertEdge(context.Background(), edge); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSetKey != "ah:acme:out:content:a" {
		t.Errorf("unexpected set key: %s", gotSetKey)
	}
	if len(gotMembers) != 1 || gotMembers[0] != "skill:b|supports" {
		t.Errorf("unexpected members: %v", gotMembers)
	}
}

func TestUpsertEdge_RejectsInvalid(t *testing.T) {
	repo, _ := newTestRepo(t)

	tests := []struct {
		name string
		edge domgraph.Edge
	}{
		{"no tenant", domgraph.Edge{SourceID: "a", TargetID: "b", Type: domgraph.EdgeRelated}},
		{"no target", domgraph.Edge{TenantID: "t", SourceID: "a", Type: domgraph.EdgeRelated}},
		{"bad type", domgraph.Edge{TenantID: "t", SourceID: "a", TargetID: "b", Type: "follows"}},
		{"weight above one", domgraph.Edge{TenantID: "t", SourceID: "a", TargetID: "b", Type: domgraph.EdgeRelated, Weight: 1.5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := repo.UpsertEdge(context.Background(), &tc.edge); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUpsertNode_WritesHash(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotKey string
	var gotFields map[string]string
	ms.hSetFn = func(_ context.Context, key string, fields map[string]string) error {
		gotKey = key
		gotFields = fields
		return nil
	}

	node := &domgraph.Node{
		TenantID: "acme",
		NodeID:   "content:algebra-1",
		NodeType: "content",
	}
	if err := repo.UpsertNode(context.Background(), node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "ah:acme:node:content:algebra-1" {
		t.Errorf("unexpected key: %s", gotKey)
	}
	if gotFields["node_type"] != "content" {
		t.Errorf("unexpected fields: %v", gotFields)
	}
}

func TestOutEdges_TwoRoundTrips(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.sMembersMultiFn = func(_ context.Context, keys []string) ([][]string, error) {
		if len(keys) != 1 || keys[0] != "ah:acme:out:content:a" {
			t.Fatalf("unexpected set keys: %v", keys)
		}
		return [][]string{{"skill:b|supports", "content:c|related"}}, nil
	}
	ms.hGetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if len(keys) != 2 {
			t.Fatalf("unexpected edge keys: %v", keys)
		}
		return []map[string]string{
			{"target": "skill:b", "edge_type": "supports", "weight": "0.8"},
			{"target": "content:c", "edge_type": "related", "weight": "0.4"},
		}, nil
	}

	edges, err := repo.OutEdges(context.Background(), "acme", []string{"content:a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if edges[0].SourceID != "content:a" || edges[0].TargetID != "skill:b" {
		t.Errorf("unexpected first edge: %+v", edges[0])
	}
	if edges[0].Type != domgraph.EdgeSupports || edges[0].Weight != 0.8 {
		t.Errorf("unexpected first edge attrs: %+v", edges[0])
	}
}

func TestOutEdges_EmptyInputNoIO(t *testing.T) {
	repo, ms := newTestRepo(t)

	called := false
	ms.sMembersMultiFn = func(_ context.Context, _ []string) ([][]string, error) {
		called = true
		return nil, nil
	}

	edges, err := repo.OutEdges(context.Background(), "acme", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edges != nil || called {
		t.Error("empty input must not hit the store")
	}
}

func TestOutEdges_SkipsDanglingAdjacency(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.sMembersMultiFn = func(_ context.Context, _ []string) ([][]string, error) {
		return [][]string{{"skill:b|supports", "skill:gone|supports"}}, nil
	}
	ms.hGetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{
			{"target": "skill:b", "edge_type": "supports", "weight": "0.8"},
			nil, // edge hash deleted but adjacency entry remains
		}, nil
	}

	edges, err := repo.OutEdges(context.Background(), "acme", []string{"content:a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
}

func TestNodesByID_SkipsMissing(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hGetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if len(keys) != 2 {
			t.Fatalf("unexpected keys: %v", keys)
		}
		return []map[string]string{
			{"node_type": "content"},
			nil,
		}, nil
	}

	nodes, err := repo.NodesByID(context.Background(), "acme", []string{"content:a", "content:b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if nodes[0].NodeID != "content:a" {
		t.Errorf("unexpected node: %+v", nodes[0])
	}
}

func TestTenantRequired(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.OutEdges(ctx, "", []string{"a"}); !errors.Is(err, domain.ErrTenantRequired) {
		t.Errorf("OutEdges: expected ErrTenantRequired, got %v", err)
	}
	if _, err := repo.NodesByID(ctx, "", []string{"a"}); !errors.Is(err, domain.ErrTenantRequired) {
		t.Errorf("NodesByID: expected ErrTenantRequired, got %v", err)
	}
	if err := repo.UpsertNode(ctx, &domgraph.Node{NodeID: "a"}); !errors.Is(err, domain.ErrTenantRequired) {
		t.Errorf("UpsertNode: expected ErrTenantRequired, got %v", err)
	}
}

func TestSplitAdjacencyMember(t *testing.T) {
	tests := []struct {
		member   string
		target   string
		edgeType string
		ok       bool
	}{
		{"skill:b|supports", "skill:b", "supports", true},
		{"content:a|b|related", "content:a|b", "related", true},
		{"noseparator", "", "", false},
		{"|supports", "", "", false},
		{"skill:b|", "", "", false},
	}
	for _, tc := range tests {
		target, edgeType, ok := splitAdjacencyMember(tc.member)
		if target != tc.target || edgeType != tc.edgeType || ok != tc.ok {
			t.Errorf("splitAdjacencyMember(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.member, target, edgeType, ok, tc.target, tc.edgeType, tc.ok)
		}
	}
}
