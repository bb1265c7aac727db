// Package retrieval runs the similarity-search stage of the answer pipeline:
// a thresholded KNN pass with a single widened retry when nothing clears the
// primary threshold.
package retrieval

import (
	"context"
	"fmt"

	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/candidate"
	"github.com/brightclass/answerhub/internal/domain/pipeline"
)

// Options tunes a single search invocation.
type Options struct {
	Limit       int
	ContentType string
}

// Config holds the search thresholds. WidenedThreshold is the floor used by
// the retry pass and must not exceed Threshold.
type Config struct {
	Threshold         float64
	WidenedThreshold  float64
	WidenedMultiplier int
}

// Service executes thresholded vector searches against the embedding store.
type Service struct {
	repo Repository
	cfg  Config
}

// New creates a retrieval service.
func New(repo Repository, cfg Config) *Service {
	if cfg.WidenedMultiplier <= 0 {
		cfg.WidenedMultiplier = 3
	}
	return &Service{repo: repo, cfg: cfg}
}

// Search runs a KNN pass at the primary threshold. When no candidate clears
// it, exactly one widened pass runs at the lower floor with an enlarged
// limit. The trace's widened flag is set whenever the store held rows but
// the primary pass rejected them all, so the terminal reason can tell weak
// evidence apart from no data. An empty store yields an empty slice and no
// error.
func (s *Service) Search(
	ctx context.Context, tenantID string, vector []float32,
	opts Options, trace *pipeline.Trace,
) ([]candidate.Result, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	results, raw, err := s.pass(ctx, tenantID, vector, opts.Limit, opts.ContentType, s.cfg.Threshold)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		trace.VectorHits = len(results)
		return results, nil
	}

	// One widened retry at the floor threshold. Never widened twice: a
	// second pass at an even lower floor would only admit noise.
	widened, rawWidened, err := s.pass(
		ctx, tenantID, vector,
		opts.Limit*s.cfg.WidenedMultiplier, opts.ContentType, s.cfg.WidenedThreshold,
	)
	if err != nil {
		return nil, err
	}
	if raw+rawWidened > 0 {
		trace.WidenedPass = true
	}
	trace.VectorHits = len(widened)
	return widened, nil
}

// pass runs one KNN query and keeps candidates at or above threshold,
// reporting the raw row count alongside. The store returns candidates
// most-similar first, so the filtered slice stays ordered.
func (s *Service) pass(
	ctx context.Context, tenantID string, vector []float32,
	k int, contentType string, threshold float64,
) ([]candidate.Result, int, error) {
	found, err := s.repo.Search(ctx, tenantID, vector, k, contentType)
	if err != nil {
		return nil, 0, fmt.Errorf("vector search: %w", err)
	}

	kept := make([]candidate.Result, 0, len(found))
	for _, c := range found {
		if c.Similarity() >= threshold {
			kept = append(kept, c)
		}
	}
	return kept, len(found), nil
}
