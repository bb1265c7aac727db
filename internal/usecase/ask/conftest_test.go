package ask

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/candidate"
	"github.com/brightclass/answerhub/internal/domain/graph"
	"github.com/brightclass/answerhub/internal/domain/pipeline"
	"github.com/brightclass/answerhub/internal/domain/route"
	"github.com/brightclass/answerhub/internal/transport/coordinator"
	"github.com/brightclass/answerhub/internal/usecase/access"
	"github.com/brightclass/answerhub/internal/usecase/merge"
	"github.com/brightclass/answerhub/internal/usecase/retrieval"
)

// mockEmbedder vectorizes everything to a fixed embedding.
type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 4}, nil
}

// mockRetriever is a function-field double for the Retriever contract.
type mockRetriever struct {
	searchFn func(
		ctx context.Context, tenantID string, vector []float32,
		opts retrieval.Options, trace *pipeline.Trace,
	) ([]candidate.Result, error)
}

func (m *mockRetriever) Search(
	ctx context.Context, tenantID string, vector []float32,
	opts retrieval.Options, trace *pipeline.Trace,
) ([]candidate.Result, error) {
	return m.searchFn(ctx, tenantID, vector, opts, trace)
}

// passthroughExpander leaves results untouched, standing in for a graph
// subsystem with nothing to add.
type passthroughExpander struct {
	learning []string
}

func (p *passthroughExpander) FindRelatedNodes(
	_ context.Context, _ string, _ []string, _ []graph.EdgeType, _ int, _ *pipeline.Trace,
) []graph.Relation {
	return nil
}

func (p *passthroughExpander) BoostResults(
	results []candidate.Result, _ []graph.Relation,
	_ map[graph.EdgeType]float64, _ *pipeline.Trace,
) []candidate.Result {
	return results
}

func (p *passthroughExpander) ExpandResults(
	_ context.Context, _ string, _ []float32,
	results []candidate.Result, _ []graph.Relation, _ *pipeline.Trace,
) []candidate.Result {
	return results
}

func (p *passthroughExpander) UserLearningContext(_ context.Context, _, _ string) []string {
	return p.learning
}

// mockRouter is a function-field double for the Router contract.
type mockRouter struct {
	routeFn func(ctx context.Context, env route.Envelope) (*coordinator.RouteResponse, error)
	calls   int
}

func (m *mockRouter) Route(ctx context.Context, env route.Envelope) (*coordinator.RouteResponse, error) {
	m.calls++
	return m.routeFn(ctx, env)
}

type serviceOverrides struct {
	embed      domain.Embedder
	retriever  Retriever
	expander   Expander
	router     Router
	classifier *Classifier
}

// newTestService wires a real access rule and merger around the given
// doubles so scenario tests exercise the actual filtering semantics.
func newTestService(o serviceOverrides) *Service {
	if o.embed == nil {
		o.embed = &mockEmbedder{}
	}
	if o.expander == nil {
		o.expander = &passthroughExpander{}
	}
	if o.classifier == nil {
		o.classifier = NewClassifier()
	}
	return New(
		o.embed, o.retriever, o.expander,
		access.NewRule(nil, nil), merge.New(zap.NewNop()), o.router,
		o.classifier,
		Config{
			SearchLimit:        5,
			MinInternalSources: 1,
			EmbedTimeout:       time.Second,
			VectorTimeout:      time.Second,
			GraphTimeout:       time.Second,
			CoordinatorTimeout: time.Second,
		},
		zap.NewNop(),
	)
}

func hit(id string, sim float64) candidate.Result {
	return candidate.New(id, "course", sim, candidate.ProvenanceVector)
}

func profileHit(id, subject string, sim float64) candidate.Result {
	c := candidate.New(id, "document", sim, candidate.ProvenanceVector)
	c.SetCategory("profile")
	c.SetSubject(subject)
	return c
}

func staticSearch(results ...candidate.Result) *mockRetriever {
	return &mockRetriever{
		searchFn: func(
			_ context.Context, _ string, _ []float32,
			_ retrieval.Options, trace *pipeline.Trace,
		) ([]candidate.Result, error) {
			trace.VectorHits = len(results)
			return results, nil
		},
	}
}
