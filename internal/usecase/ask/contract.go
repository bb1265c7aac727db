package ask

import (
	"context"

	"github.com/brightclass/answerhub/internal/domain/candidate"
	"github.com/brightclass/answerhub/internal/domain/graph"
	"github.com/brightclass/answerhub/internal/domain/pipeline"
	"github.com/brightclass/answerhub/internal/domain/route"
	"github.com/brightclass/answerhub/internal/transport/coordinator"
	"github.com/brightclass/answerhub/internal/usecase/access"
	"github.com/brightclass/answerhub/internal/usecase/merge"
	"github.com/brightclass/answerhub/internal/usecase/retrieval"
)

// Retriever runs the thresholded vector search stage.
type Retriever interface {
	Search(
		ctx context.Context, tenantID string, vector []float32,
		opts retrieval.Options, trace *pipeline.Trace,
	) ([]candidate.Result, error)
}

// Expander enriches vector results with knowledge graph structure.
type Expander interface {
	FindRelatedNodes(
		ctx context.Context, tenantID string, contentIDs []string,
		edgeTypes []graph.EdgeType, maxDepth int, trace *pipeline.Trace,
	) []graph.Relation
	BoostResults(
		results []candidate.Result, relations []graph.Relation,
		boostWeights map[graph.EdgeType]float64, trace *pipeline.Trace,
	) []candidate.Result
	ExpandResults(
		ctx context.Context, tenantID string, queryVector []float32,
		results []candidate.Result, relations []graph.Relation, trace *pipeline.Trace,
	) []candidate.Result
	UserLearningContext(ctx context.Context, tenantID, userID string) []string
}

// AccessRule filters candidates by the caller's permissions.
type AccessRule interface {
	Filter(results []candidate.Result, role, queryText string) ([]candidate.Result, access.Signal)
}

// Merger assembles the final evidence bundle.
type Merger interface {
	Merge(internal, external []candidate.Result) merge.Bundle
	HandleFallbacks(bundle merge.Bundle, stageErrs merge.StageErrors) merge.Bundle
}

// Router is the external Coordinator fallback. Optional: a nil Router means
// the pipeline runs on internal evidence only.
type Router interface {
	Route(ctx context.Context, env route.Envelope) (*coordinator.RouteResponse, error)
}
