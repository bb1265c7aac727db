// Package ask orchestrates the answer pipeline: domain classification,
// embedding, vector search with a widened retry, graph enrichment, access
// filtering, the Coordinator fallback, and the final merge. Each stage runs
// under its own bounded timeout; optional stages degrade, mandatory stages
// abort the query with a generic processing error.
package ask

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/candidate"
	"github.com/brightclass/answerhub/internal/domain/graph"
	"github.com/brightclass/answerhub/internal/domain/pipeline"
	"github.com/brightclass/answerhub/internal/domain/route"
	"github.com/brightclass/answerhub/internal/metrics"
	"github.com/brightclass/answerhub/internal/usecase/access"
	"github.com/brightclass/answerhub/internal/usecase/merge"
	"github.com/brightclass/answerhub/internal/usecase/retrieval"
)

// reasonOutOfDomain short-circuits before the trace reasons apply.
const reasonOutOfDomain = "out_of_domain"

// learningBoost is the similarity nudge for content in the caller's active
// learning context.
const learningBoost = 0.05

// Config tunes the orchestrator.
type Config struct {
	Source             string // envelope source identity
	SearchLimit        int
	GraphMaxDepth      int
	MinInternalSources int

	EmbedTimeout       time.Duration
	VectorTimeout      time.Duration
	GraphTimeout       time.Duration
	CoordinatorTimeout time.Duration
}

// Service is the pipeline orchestrator.
type Service struct {
	embed      domain.Embedder
	retriever  Retriever
	expander   Expander
	rule       AccessRule
	merger     Merger
	router     Router // nil runs without the Coordinator fallback
	classifier *Classifier
	cfg        Config
	logger     *zap.Logger
}

// New creates the orchestrator. router may be nil when no Coordinator is
// configured or its signing key failed to load.
func New(
	embed domain.Embedder, retriever Retriever, expander Expander,
	rule AccessRule, merger Merger, router Router,
	classifier *Classifier, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.Source == "" {
		cfg.Source = "answerhub"
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.MinInternalSources <= 0 {
		cfg.MinInternalSources = 1
	}
	return &Service{
		embed: embed, retriever: retriever, expander: expander,
		rule: rule, merger: merger, router: router,
		classifier: classifier, cfg: cfg, logger: logger,
	}
}

// Ask answers one question. Abstention is a valid outcome, not an error;
// errors are reserved for invalid requests and mandatory stage failures.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	if req.TenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidRequest)
	}

	if !s.classifier.InDomain(req.Query) {
		metrics.PipelineQueriesTotal.WithLabelValues(req.TenantID, "OUT_OF_DOMAIN").Inc()
		return &Response{
			Abstained: true,
			Reason:    reasonOutOfDomain,
			Sources:   []Source{},
			Metadata:  Metadata{Reason: reasonOutOfDomain},
		}, nil
	}

	trace := pipeline.NewTrace()

	vector, err := s.embedQuery(ctx, req.Query)
	if err != nil {
		s.logger.Error("embedding stage failed",
			zap.String("tenant_id", req.TenantID), zap.Error(err))
		return nil, fmt.Errorf("%w: embedding unavailable", domain.ErrProcessing)
	}

	results, err := s.searchVectors(ctx, req, vector, trace)
	if err != nil {
		s.logger.Error("vector stage failed",
			zap.String("tenant_id", req.TenantID), zap.Error(err))
		return nil, fmt.Errorf("%w: vector store unavailable", domain.ErrProcessing)
	}
	metrics.PipelineCandidates.WithLabelValues("vector").Observe(float64(len(results)))
	if trace.WidenedPass {
		trace.Reason = pipeline.ReasonLowSimilarity
	}

	results = s.enrichWithGraph(ctx, req, vector, results, trace)

	trace.BeforeFilter = len(results)
	filtered, signal := s.rule.Filter(results, req.Role, req.Query)
	trace.AfterFilter = len(filtered)
	metrics.PipelineCandidates.WithLabelValues("filtered").Observe(float64(len(filtered)))

	external, decision, stageErrs := s.consultCoordinator(ctx, req, filtered, trace)

	bundle := s.merger.Merge(filtered, external)
	bundle = s.merger.HandleFallbacks(bundle, stageErrs)
	metrics.PipelineCandidates.WithLabelValues("final").Observe(float64(len(bundle.Sources)))

	resp := s.decide(req, bundle, signal, decision, trace)
	metrics.PipelineQueriesTotal.WithLabelValues(req.TenantID, string(trace.Reason)).Inc()
	return resp, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	defer observeStage("embed", time.Now())
	ctx, cancel := stageContext(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	result, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return result.Embedding, nil
}

func (s *Service) searchVectors(
	ctx context.Context, req Request, vector []float32, trace *pipeline.Trace,
) ([]candidate.Result, error) {
	defer observeStage("vector", time.Now())
	ctx, cancel := stageContext(ctx, s.cfg.VectorTimeout)
	defer cancel()

	return s.retriever.Search(ctx, req.TenantID, vector, retrieval.Options{
		Limit:       s.cfg.SearchLimit,
		ContentType: req.ContentType,
	}, trace)
}

// enrichWithGraph runs the optional graph stage: structural boost, expansion
// to graph-reachable content, and the caller's learning-context nudge. The
// expander degrades internally, so this never fails the query.
func (s *Service) enrichWithGraph(
	ctx context.Context, req Request, vector []float32,
	results []candidate.Result, trace *pipeline.Trace,
) []candidate.Result {
	if len(results) == 0 {
		return results
	}
	defer observeStage("graph", time.Now())
	ctx, cancel := stageContext(ctx, s.cfg.GraphTimeout)
	defer cancel()

	contentIDs := make([]string, len(results))
	for i := range results {
		contentIDs[i] = results[i].ContentID()
	}

	relations := s.expander.FindRelatedNodes(
		ctx, req.TenantID, contentIDs, graph.ContentEdgeTypes(), s.cfg.GraphMaxDepth, trace,
	)
	results = s.expander.BoostResults(results, relations, graph.DefaultBoostWeights(), trace)
	results = s.expander.ExpandResults(ctx, req.TenantID, vector, results, relations, trace)

	if req.UserID != "" {
		learning := s.expander.UserLearningContext(ctx, req.TenantID, req.UserID)
		results = applyLearningContext(results, learning)
	}
	return results
}

// consultCoordinator asks the external router only when internal evidence is
// below the floor. Its failure never surfaces; the merger records it as a
// fallback with internal evidence intact.
func (s *Service) consultCoordinator(
	ctx context.Context, req Request, internal []candidate.Result, trace *pipeline.Trace,
) ([]candidate.Result, *route.Decision, merge.StageErrors) {
	if len(internal) >= s.cfg.MinInternalSources || s.router == nil {
		return nil, nil, merge.StageErrors{}
	}
	defer observeStage("coordinator", time.Now())
	ctx, cancel := stageContext(ctx, s.cfg.CoordinatorTimeout)
	defer cancel()

	env := route.NewEnvelope(req.TenantID, req.UserID, s.cfg.Source, route.Payload{
		QueryText: req.Query,
		Metadata:  map[string]string{"role": req.Role},
	})

	resp, err := s.router.Route(ctx, env)
	if err != nil {
		s.logger.Warn("coordinator fallback failed",
			zap.String("tenant_id", req.TenantID), zap.Error(err))
		trace.SkipStage("coordinator")
		metrics.PipelineStageSkippedTotal.WithLabelValues("coordinator").Inc()
		return nil, nil, merge.StageErrors{Coordinator: err}
	}

	external := make([]candidate.Result, 0, len(resp.Sources))
	for _, src := range resp.Sources {
		c := candidate.New(src.ContentID, "", src.Score, candidate.ProvenanceCoordinator)
		c.SetText(src.Content)
		c.SetSourceService(src.Service)
		external = append(external, c)
	}
	trace.CoordinatorHit = len(external)

	decision := resp.Decision()
	return external, &decision, merge.StageErrors{}
}

// decide produces the terminal response. A nonempty bundle is a success; an
// empty one abstains with the most specific reason available.
func (s *Service) decide(
	req Request, bundle merge.Bundle, signal access.Signal,
	decision *route.Decision, trace *pipeline.Trace,
) *Response {
	meta := Metadata{
		VectorsBeforeFilter: trace.BeforeFilter,
		VectorsAfterFilter:  trace.AfterFilter,
		WidenedPass:         trace.WidenedPass,
		GraphExpanded:       trace.GraphExpanded,
		Boosted:             trace.Boosted,
		CoordinatorSources:  trace.CoordinatorHit,
		SkippedStages:       trace.SkippedStages,
	}

	if len(bundle.Sources) == 0 {
		switch {
		case signal == access.SignalNoPermission:
			trace.Reason = pipeline.ReasonNoPermission
		case trace.WidenedPass:
			trace.Reason = pipeline.ReasonLowSimilarity
		default:
			trace.Reason = pipeline.ReasonNoData
		}
		meta.Reason = string(trace.Reason)

		s.logger.Info("query abstained",
			zap.String("tenant_id", req.TenantID),
			zap.String("reason", string(trace.Reason)))
		return &Response{
			Abstained: true,
			Reason:    trace.Reason.AbstainCode(),
			Sources:   []Source{},
			Context:   bundle.Context,
			Fallbacks: bundle.Fallbacks,
			Metadata:  meta,
		}
	}

	trace.Reason = pipeline.ReasonSuccess
	meta.Reason = string(trace.Reason)

	sources := make([]Source, len(bundle.Sources))
	for i := range bundle.Sources {
		c := &bundle.Sources[i]
		sources[i] = Source{
			ContentID:   c.ContentID(),
			ContentType: c.ContentType(),
			Similarity:  c.Similarity(),
			Provenance:  string(c.Provenance()),
			Service:     c.SourceService(),
		}
	}

	return &Response{
		Confidence: bundle.Sources[0].Similarity(),
		Sources:    sources,
		Context:    bundle.Context,
		Fallbacks:  bundle.Fallbacks,
		Decision:   decision,
		Metadata:   meta,
	}
}

// applyLearningContext nudges candidates the caller is actively studying.
func applyLearningContext(results []candidate.Result, learning []string) []candidate.Result {
	if len(learning) == 0 {
		return results
	}
	set := make(map[string]bool, len(learning))
	for _, id := range learning {
		set[id] = true
	}
	for i := range results {
		c := &results[i]
		if set[c.ContentID()] {
			c.SetSimilarity(min(1, c.Similarity()+learningBoost))
		}
	}
	return results
}

func observeStage(stage string, start time.Time) {
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func stageContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
