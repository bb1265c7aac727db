package chi

import (
	"github.com/brightclass/answerhub/internal/domain/route"
	askuc "github.com/brightclass/answerhub/internal/usecase/ask"
)

// errorCode is the machine-readable error identifier in error responses.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeUnauthorized     errorCode = "unauthorized"
	codeValidationFailed errorCode = "validation_failed"
	codeTenantRequired   errorCode = "tenant_required"
	codeRateLimited      errorCode = "rate_limited"
	codeEmbeddingError   errorCode = "embedding_provider_error"
	codeProcessingFailed errorCode = "processing_failed"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type askRequest struct {
	Question    string `json:"question"`
	ContentType string `json:"content_type,omitempty"`
}

type sourceItem struct {
	ContentID   string  `json:"content_id"`
	ContentType string  `json:"content_type,omitempty"`
	Similarity  float64 `json:"similarity"`
	Provenance  string  `json:"provenance"`
	Service     string  `json:"service,omitempty"`
}

type routingInfo struct {
	SuccessfulService string  `json:"successful_service"`
	RankUsed          int     `json:"rank_used"`
	QualityScore      float64 `json:"quality_score"`
	TotalAttempts     int     `json:"total_attempts"`
	Degraded          bool    `json:"degraded"`
}

type askMetadata struct {
	Reason              string   `json:"reason"`
	VectorsBeforeFilter int      `json:"vectors_before_filter"`
	VectorsAfterFilter  int      `json:"vectors_after_filter"`
	WidenedPass         bool     `json:"widened_pass,omitempty"`
	GraphExpanded       int      `json:"graph_expanded,omitempty"`
	Boosted             int      `json:"boosted,omitempty"`
	CoordinatorSources  int      `json:"coordinator_sources,omitempty"`
	SkippedStages       []string `json:"skipped_stages,omitempty"`
}

type askResponse struct {
	Abstained  bool         `json:"abstained"`
	Reason     string       `json:"reason,omitempty"`
	Confidence float64      `json:"confidence"`
	Sources    []sourceItem `json:"sources"`
	Context    string       `json:"context,omitempty"`
	Fallbacks  []string     `json:"fallbacks,omitempty"`
	Routing    *routingInfo `json:"routing,omitempty"`
	Metadata   askMetadata  `json:"metadata"`
}

func askResponseFrom(resp *askuc.Response) askResponse {
	sources := make([]sourceItem, len(resp.Sources))
	for i, s := range resp.Sources {
		sources[i] = sourceItem{
			ContentID:   s.ContentID,
			ContentType: s.ContentType,
			Similarity:  s.Similarity,
			Provenance:  s.Provenance,
			Service:     s.Service,
		}
	}

	return askResponse{
		Abstained:  resp.Abstained,
		Reason:     resp.Reason,
		Confidence: resp.Confidence,
		Sources:    sources,
		Context:    resp.Context,
		Fallbacks:  resp.Fallbacks,
		Routing:    routingFrom(resp.Decision),
		Metadata: askMetadata{
			Reason:              resp.Metadata.Reason,
			VectorsBeforeFilter: resp.Metadata.VectorsBeforeFilter,
			VectorsAfterFilter:  resp.Metadata.VectorsAfterFilter,
			WidenedPass:         resp.Metadata.WidenedPass,
			GraphExpanded:       resp.Metadata.GraphExpanded,
			Boosted:             resp.Metadata.Boosted,
			CoordinatorSources:  resp.Metadata.CoordinatorSources,
			SkippedStages:       resp.Metadata.SkippedStages,
		},
	}
}

func routingFrom(d *route.Decision) *routingInfo {
	if d == nil {
		return nil
	}
	return &routingInfo{
		SuccessfulService: d.SuccessfulService,
		RankUsed:          d.RankUsed,
		QualityScore:      d.QualityScore,
		TotalAttempts:     d.TotalAttempts,
		Degraded:          d.Degraded(),
	}
}
