// Package kgraph enriches vector search results with knowledge graph
// structure: boosting candidates that are structurally connected, pulling in
// graph-reachable content the vector pass missed, and surfacing a user's
// learning context.
//
// The graph is an optional signal. Every method here degrades to returning
// its input unmodified when the graph store fails, logging a warning and
// marking the trace; a graph outage never fails retrieval.
package kgraph

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/candidate"
	"github.com/brightclass/answerhub/internal/domain/graph"
	"github.com/brightclass/answerhub/internal/domain/pipeline"
	"github.com/brightclass/answerhub/internal/metrics"
)

const stageName = "graph"

// Config tunes graph traversal.
type Config struct {
	MaxDepth      int
	MinEdgeWeight float64
}

// Service implements graph expansion over a tenant-scoped knowledge graph.
type Service struct {
	graph   Repository
	records RecordReader
	cfg     Config
	logger  *zap.Logger
}

// New creates a graph expansion service.
func New(repo Repository, records RecordReader, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 2
	}
	if cfg.MinEdgeWeight <= 0 {
		cfg.MinEdgeWeight = 0.1
	}
	return &Service{graph: repo, records: records, cfg: cfg, logger: logger}
}

// FindRelatedNodes walks the graph breadth-first from the given content IDs,
// following only the listed edge types and edges at or above the weight
// floor. Results are deduplicated by (nodeID, edgeType) keeping the highest
// weight. Empty input returns nil without touching the store.
func (s *Service) FindRelatedNodes(
	ctx context.Context, tenantID string, contentIDs []string,
	edgeTypes []graph.EdgeType, maxDepth int, trace *pipeline.Trace,
) []graph.Relation {
	if len(contentIDs) == 0 {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = s.cfg.MaxDepth
	}

	allowed := make(map[graph.EdgeType]bool, len(edgeTypes))
	for _, t := range edgeTypes {
		allowed[t] = true
	}

	visited := make(map[string]bool, len(contentIDs))
	frontier := make([]string, 0, len(contentIDs))
	for _, id := range contentIDs {
		nodeID := graph.ContentNodeID(id)
		visited[nodeID] = true
		frontier = append(frontier, nodeID)
	}

	// Explicit frontier queue; depth is bounded, never recursive.
	best := make(map[string]*graph.Relation)
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		edges, err := s.graph.OutEdges(ctx, tenantID, frontier)
		if err != nil {
			s.degrade(trace, "graph traversal failed", tenantID, err)
			return nil
		}

		var next []string
		for i := range edges {
			e := &edges[i]
			if !allowed[e.Type] || e.Weight < s.cfg.MinEdgeWeight {
				continue
			}

			key := e.TargetID + "|" + string(e.Type)
			if cur, ok := best[key]; !ok || e.Weight > cur.Weight {
				best[key] = &graph.Relation{
					NodeID:   e.TargetID,
					EdgeType: e.Type,
					Weight:   e.Weight,
					Depth:    depth,
				}
			}
			if !visited[e.TargetID] {
				visited[e.TargetID] = true
				next = append(next, e.TargetID)
			}
		}
		frontier = next
	}

	if len(best) == 0 {
		return nil
	}

	relations := make([]graph.Relation, 0, len(best))
	for _, rel := range best {
		relations = append(relations, *rel)
	}
	sort.Slice(relations, func(i, j int) bool {
		if relations[i].NodeID != relations[j].NodeID {
			return relations[i].NodeID < relations[j].NodeID
		}
		return relations[i].EdgeType < relations[j].EdgeType
	})

	s.fillNodeTypes(ctx, tenantID, relations)
	return relations
}

// fillNodeTypes annotates relations with node types. Missing nodes or a
// store error leave the type empty; the relation itself stands.
func (s *Service) fillNodeTypes(ctx context.Context, tenantID string, relations []graph.Relation) {
	ids := make([]string, len(relations))
	for i := range relations {
		ids[i] = relations[i].NodeID
	}

	nodes, err := s.graph.NodesByID(ctx, tenantID, ids)
	if err != nil {
		s.logger.Warn("graph node load failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return
	}

	types := make(map[string]string, len(nodes))
	for i := range nodes {
		types[nodes[i].NodeID] = nodes[i].NodeType
	}
	for i := range relations {
		relations[i].NodeType = types[relations[i].NodeID]
	}
}

// BoostResults nudges candidates that the graph connects to other search
// hits: each matching relation adds weight x the per-type boost, capped at a
// similarity of 1. The re-sort is stable, so equally scored candidates keep
// their vector order.
func (s *Service) BoostResults(
	results []candidate.Result, relations []graph.Relation,
	boostWeights map[graph.EdgeType]float64, trace *pipeline.Trace,
) []candidate.Result {
	if len(results) == 0 || len(relations) == 0 {
		return results
	}

	byContent := make(map[string][]graph.Relation)
	for _, rel := range relations {
		if id := rel.ContentID(); id != "" {
			byContent[id] = append(byContent[id], rel)
		}
	}

	boosted := 0
	for i := range results {
		c := &results[i]
		total := 0.0
		for _, rel := range byContent[c.ContentID()] {
			total += rel.Weight * boostWeights[rel.EdgeType]
			c.AddRelation(rel.NodeID, string(rel.EdgeType))
		}
		if total > 0 {
			c.SetSimilarity(min(1, c.Similarity()+total))
			boosted++
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity() > results[j].Similarity()
	})

	trace.Boosted = boosted
	return results
}

// ExpandResults appends graph-reachable content that the vector pass missed,
// scored against the original query vector with graph provenance. Content IDs
// already present are never duplicated.
func (s *Service) ExpandResults(
	ctx context.Context, tenantID string, queryVector []float32,
	results []candidate.Result, relations []graph.Relation, trace *pipeline.Trace,
) []candidate.Result {
	seen := make(map[string]bool, len(results))
	for i := range results {
		seen[results[i].ContentID()] = true
	}

	var missing []string
	related := make(map[string][]graph.Relation)
	for _, rel := range relations {
		id := rel.ContentID()
		if id == "" || seen[id] {
			continue
		}
		if len(related[id]) == 0 {
			missing = append(missing, id)
		}
		related[id] = append(related[id], rel)
	}
	if len(missing) == 0 {
		return results
	}

	records, err := s.records.FetchRecords(ctx, tenantID, missing)
	if err != nil {
		s.degrade(trace, "graph expansion fetch failed", tenantID, err)
		return results
	}

	added := 0
	for i := range records {
		rec := &records[i]
		c := candidate.New(
			rec.ContentID, rec.ContentType,
			domain.CosineSimilarity(queryVector, rec.Vector),
			candidate.ProvenanceGraph,
		)
		c.SetText(rec.Text)
		c.SetCategory(rec.Category)
		c.SetSubject(rec.Subject)
		for _, rel := range related[rec.ContentID] {
			c.AddRelation(rel.NodeID, string(rel.EdgeType))
		}
		results = append(results, c)
		added++
	}

	trace.GraphExpanded = added
	return results
}

// UserLearningContext returns the content IDs supporting the skills a user
// is actively learning. The signal is optional; any store failure returns
// nil with a warning.
func (s *Service) UserLearningContext(ctx context.Context, tenantID, userID string) []string {
	if userID == "" {
		return nil
	}

	userEdges, err := s.graph.OutEdges(ctx, tenantID, []string{graph.UserNodeID(userID)})
	if err != nil {
		s.logger.Warn("user learning context failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return nil
	}

	var skills []string
	for i := range userEdges {
		if userEdges[i].Type == graph.EdgeLearning {
			skills = append(skills, userEdges[i].TargetID)
		}
	}
	if len(skills) == 0 {
		return nil
	}

	skillEdges, err := s.graph.OutEdges(ctx, tenantID, skills)
	if err != nil {
		s.logger.Warn("user learning context failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return nil
	}

	seen := make(map[string]bool)
	var contentIDs []string
	for i := range skillEdges {
		e := &skillEdges[i]
		if e.Type != graph.EdgeSupports {
			continue
		}
		rel := graph.Relation{NodeID: e.TargetID}
		if id := rel.ContentID(); id != "" && !seen[id] {
			seen[id] = true
			contentIDs = append(contentIDs, id)
		}
	}
	return contentIDs
}

func (s *Service) degrade(trace *pipeline.Trace, msg, tenantID string, err error) {
	s.logger.Warn(msg, zap.String("tenant_id", tenantID), zap.Error(err))
	trace.SkipStage(stageName)
	metrics.PipelineStageSkippedTotal.WithLabelValues(stageName).Inc()
}
