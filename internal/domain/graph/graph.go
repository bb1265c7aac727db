// Package graph holds the tenant-scoped knowledge graph domain types.
package graph

import "fmt"

// EdgeType is a categorical graph relation.
type EdgeType string

const (
	// EdgeSupports links evidence content to the skill it supports.
	EdgeSupports EdgeType = "supports"
	// EdgeRelated links topically related content.
	EdgeRelated EdgeType = "related"
	// EdgePrerequisite links content to its prerequisite.
	EdgePrerequisite EdgeType = "prerequisite"
	// EdgePartOf links a chunk or lesson to its parent unit.
	EdgePartOf EdgeType = "part_of"
	// EdgeLearning links a user to a skill they are actively learning.
	EdgeLearning EdgeType = "learning"
)

// ParseEdgeType validates a raw edge type string.
func ParseEdgeType(s string) (EdgeType, error) {
	switch EdgeType(s) {
	case EdgeSupports, EdgeRelated, EdgePrerequisite, EdgePartOf, EdgeLearning:
		return EdgeType(s), nil
	}
	return "", fmt.Errorf("unknown edge type %q", s)
}

// ContentEdgeTypes are the relations followed when traversing from content
// nodes. The learning type is user-scoped and excluded.
func ContentEdgeTypes() []EdgeType {
	return []EdgeType{EdgeSupports, EdgeRelated, EdgePrerequisite, EdgePartOf}
}

// DefaultBoostWeights is the per-edge-type contribution used when boosting
// vector results with graph structure. Values are multiplied by edge weight;
// the boost is additive and capped, so structure nudges ranking without
// overriding raw similarity.
func DefaultBoostWeights() map[EdgeType]float64 {
	return map[EdgeType]float64{
		EdgeSupports:     0.15,
		EdgePrerequisite: 0.10,
		EdgePartOf:       0.10,
		EdgeRelated:      0.05,
		EdgeLearning:     0.05,
	}
}

// Node is a typed knowledge-graph node, unique per (tenant, nodeID).
// Node IDs are type-prefixed, e.g. "content:algebra-1" or "user:u42".
type Node struct {
	TenantID   string
	NodeID     string
	NodeType   string
	Properties map[string]string
}

// Edge is a directed weighted relation, unique per (tenant, source, target, type).
type Edge struct {
	TenantID   string
	SourceID   string
	TargetID   string
	Type       EdgeType
	Weight     float64
	Properties map[string]string
}

// Validate checks edge invariants.
func (e *Edge) Validate() error {
	if e.TenantID == "" {
		return fmt.Errorf("edge tenant id is required")
	}
	if e.SourceID == "" || e.TargetID == "" {
		return fmt.Errorf("edge endpoints are required")
	}
	if _, err := ParseEdgeType(string(e.Type)); err != nil {
		return err
	}
	if e.Weight < 0 || e.Weight > 1 {
		return fmt.Errorf("edge weight %g outside [0,1]", e.Weight)
	}
	return nil
}

// Relation is a traversal result: a node reached over an edge of a given
// type, deduplicated by (NodeID, EdgeType) with the higher weight kept.
type Relation struct {
	NodeID   string
	NodeType string
	EdgeType EdgeType
	Weight   float64
	Depth    int
}

// ContentID extracts the content identifier from a type-prefixed node ID.
// Returns "" for non-content nodes.
func (r *Relation) ContentID() string {
	const prefix = "content:"
	if len(r.NodeID) > len(prefix) && r.NodeID[:len(prefix)] == prefix {
		return r.NodeID[len(prefix):]
	}
	return ""
}

// ContentNodeID builds the node ID for a content identifier.
func ContentNodeID(contentID string) string { return "content:" + contentID }

// UserNodeID builds the node ID for a user identifier.
func UserNodeID(userID string) string { return "user:" + userID }
