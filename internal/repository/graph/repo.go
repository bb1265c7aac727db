// Package graph stores tenant-scoped knowledge graph nodes and edges.
//
// Nodes and edges are Redis hashes; each node additionally maintains an
// outgoing adjacency set whose members encode "target|edgeType", so one
// SMEMBERS per frontier node is enough to walk the graph.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/brightclass/answerhub/internal/domain"
	domgraph "github.com/brightclass/answerhub/internal/domain/graph"
)

// store is the consumer interface for graph persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembersMulti(ctx context.Context, keys []string) ([][]string, error)
}

// Repo implements usecase/kgraph.Repository.
type Repo struct {
	store store
}

// New creates a graph repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// UpsertNode writes a node hash.
func (r *Repo) UpsertNode(ctx context.Context, node *domgraph.Node) error {
	if node.TenantID == "" {
		return domain.ErrTenantRequired
	}
	if node.NodeID == "" {
		return fmt.Errorf("node id is required")
	}

	fields := map[string]string{
		"node_id":   node.NodeID,
		"node_type": node.NodeType,
	}
	if len(node.Properties) > 0 {
		if data, err := json.Marshal(node.Properties); err == nil {
			fields["properties"] = string(data)
		}
	}

	key := domain.NodeKey(node.TenantID, node.NodeID)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("upsert node %s: %w", key, err)
	}
	return nil
}

// UpsertEdge writes an edge hash and registers it in the source node's
// adjacency set. The key encodes (tenant, source, target, type), so the
// same logical edge overwrites instead of duplicating.
func (r *Repo) UpsertEdge(ctx context.Context, edge *domgraph.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}

	fields := map[string]string{
		"source":    edge.SourceID,
		"target":    edge.TargetID,
		"edge_type": string(edge.Type),
		"weight":    strconv.FormatFloat(edge.Weight, 'f', -1, 64),
	}
	if len(edge.Properties) > 0 {
		if data, err := json.Marshal(edge.Properties); err == nil {
			fields["properties"] = string(data)
		}
	}

	key := domain.EdgeKey(edge.TenantID, edge.SourceID, edge.TargetID, string(edge.Type))
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("upsert edge %s: %w", key, err)
	}

	member := adjacencyMember(edge.TargetID, string(edge.Type))
	if err := r.store.SAdd(ctx, domain.OutEdgesKey(edge.TenantID, edge.SourceID), member); err != nil {
		return fmt.Errorf("register adjacency %s: %w", key, err)
	}
	return nil
}

// OutEdges loads all outgoing edges of the given source nodes in two
// round-trips: adjacency sets first, then the referenced edge hashes.
func (r *Repo) OutEdges(ctx context.Context, tenantID string, sourceIDs []string) ([]domgraph.Edge, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	if len(sourceIDs) == 0 {
		return nil, nil
	}

	setKeys := make([]string, len(sourceIDs))
	for i, src := range sourceIDs {
		setKeys[i] = domain.OutEdgesKey(tenantID, src)
	}

	adjacency, err := r.store.SMembersMulti(ctx, setKeys)
	if err != nil {
		return nil, fmt.Errorf("load adjacency tenant %s: %w", tenantID, err)
	}

	var edgeKeys []string
	var sources []string
	for i, members := range adjacency {
		for _, member := range members {
			target, edgeType, ok := splitAdjacencyMember(member)
			if !ok {
				continue
			}
			edgeKeys = append(edgeKeys, domain.EdgeKey(tenantID, sourceIDs[i], target, edgeType))
			sources = append(sources, sourceIDs[i])
		}
	}
	if len(edgeKeys) == 0 {
		return nil, nil
	}

	fieldMaps, err := r.store.HGetAllMulti(ctx, edgeKeys)
	if err != nil {
		return nil, fmt.Errorf("load edges tenant %s: %w", tenantID, err)
	}

	edges := make([]domgraph.Edge, 0, len(fieldMaps))
	for i, fields := range fieldMaps {
		if fields == nil {
			continue // adjacency entry without edge hash, skip
		}
		edges = append(edges, parseEdge(tenantID, sources[i], fields))
	}

	return edges, nil
}

// NodesByID loads nodes by ID, skipping missing ones.
func (r *Repo) NodesByID(ctx context.Context, tenantID string, nodeIDs []string) ([]domgraph.Node, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(nodeIDs))
	for i, id := range nodeIDs {
		keys[i] = domain.NodeKey(tenantID, id)
	}

	fieldMaps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load nodes tenant %s: %w", tenantID, err)
	}

	nodes := make([]domgraph.Node, 0, len(fieldMaps))
	for i, fields := range fieldMaps {
		if fields == nil {
			continue
		}
		nodes = append(nodes, parseNode(tenantID, nodeIDs[i], fields))
	}

	return nodes, nil
}

func parseEdge(tenantID, sourceID string, fields map[string]string) domgraph.Edge {
	edge := domgraph.Edge{
		TenantID: tenantID,
		SourceID: sourceID,
		TargetID: fields["target"],
		Type:     domgraph.EdgeType(fields["edge_type"]),
	}
	if w, err := strconv.ParseFloat(fields["weight"], 64); err == nil {
		edge.Weight = w
	}
	if raw := fields["properties"]; raw != "" {
		var props map[string]string
		if err := json.Unmarshal([]byte(raw), &props); err == nil {
			edge.Properties = props
		}
	}
	return edge
}

func parseNode(tenantID, nodeID string, fields map[string]string) domgraph.Node {
	node := domgraph.Node{
		TenantID: tenantID,
		NodeID:   nodeID,
		NodeType: fields["node_type"],
	}
	if raw := fields["properties"]; raw != "" {
		var props map[string]string
		if err := json.Unmarshal([]byte(raw), &props); err == nil {
			node.Properties = props
		}
	}
	return node
}

func adjacencyMember(target, edgeType string) string {
	return target + "|" + edgeType
}

// splitAdjacencyMember parses "target|edgeType". Edge types never contain
// "|", so the last separator is authoritative.
func splitAdjacencyMember(member string) (target, edgeType string, ok bool) {
	i := strings.LastIndex(member, "|")
	if i <= 0 || i == len(member)-1 {
		return "", "", false
	}
	return member[:i], member[i+1:], true
}
