// Package merge assembles the final evidence bundle from internal retrieval
// and external coordinator results. Merging is the last stage before the
// decision; it never fails the query.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/brightclass/answerhub/internal/domain/candidate"
)

// Fallback labels recorded on the bundle when merging had to compensate.
const (
	FallbackNoSources         = "no_sources"
	FallbackCoordinatorFailed = "coordinator_failed"
)

// noSourcesContext is returned when no evidence survived any stage, so the
// caller still has an explanation to hand to the answering layer.
const noSourcesContext = "No supporting content was found for this question. " +
	"The knowledge base may not cover this topic yet."

// Bundle is the merged evidence handed to the decision stage.
type Bundle struct {
	Sources   []candidate.Result
	Context   string
	Fallbacks []string
}

// StageErrors carries per-stage failures into fallback handling.
type StageErrors struct {
	Coordinator error
}

// Service merges evidence bundles.
type Service struct {
	logger *zap.Logger
}

// New creates a merge service.
func New(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Merge concatenates internal and external candidates, sorts by similarity
// descending, and renders the provenance-labeled context string. It never
// returns an error; a panic in context rendering degrades to a minimal
// bundle that still carries the sources.
func (s *Service) Merge(internal, external []candidate.Result) (bundle Bundle) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("merge panicked", zap.Any("panic", r))
			bundle = Bundle{Sources: internal, Context: noSourcesContext}
		}
	}()

	merged := make([]candidate.Result, 0, len(internal)+len(external))
	merged = append(merged, internal...)
	merged = append(merged, external...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity() > merged[j].Similarity()
	})

	return Bundle{Sources: merged, Context: renderContext(merged)}
}

// HandleFallbacks inspects the merged bundle against stage failures and
// records compensations: an empty bundle gets the fixed explanatory context,
// and a coordinator failure with internal evidence present is noted while
// the pipeline proceeds on internal sources alone.
func (s *Service) HandleFallbacks(bundle Bundle, stageErrs StageErrors) (out Bundle) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("fallback handling panicked", zap.Any("panic", r))
			out = Bundle{Context: noSourcesContext, Fallbacks: []string{FallbackNoSources}}
		}
	}()

	out = bundle
	if len(out.Sources) == 0 {
		out.Context = noSourcesContext
		out.Fallbacks = append(out.Fallbacks, FallbackNoSources)
		return out
	}

	if stageErrs.Coordinator != nil {
		s.logger.Warn("proceeding on internal evidence only",
			zap.Int("internal_sources", len(out.Sources)),
			zap.Error(stageErrs.Coordinator))
		out.Fallbacks = append(out.Fallbacks, FallbackCoordinatorFailed)
	}
	return out
}

func renderContext(sources []candidate.Result) string {
	if len(sources) == 0 {
		return ""
	}

	var b strings.Builder
	for i := range sources {
		c := &sources[i]
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] %s", c.Provenance(), c.ContentID())
		if svc := c.SourceService(); svc != "" {
			fmt.Fprintf(&b, " via %s", svc)
		}
		fmt.Fprintf(&b, " (similarity %.2f)", c.Similarity())
		if text := c.Text(); text != "" {
			b.WriteString("\n")
			b.WriteString(text)
		}
	}
	return b.String()
}
