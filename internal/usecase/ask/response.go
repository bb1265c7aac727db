package ask

import "github.com/brightclass/answerhub/internal/domain/route"

// Request is one question scoped to a tenant and caller.
type Request struct {
	TenantID    string
	UserID      string
	Role        string
	Query       string
	ContentType string
}

// Source is one evidence item backing the response.
type Source struct {
	ContentID   string
	ContentType string
	Similarity  float64
	Provenance  string
	Service     string
}

// Metadata carries the pipeline trace into the response for diagnosability.
type Metadata struct {
	Reason              string
	VectorsBeforeFilter int
	VectorsAfterFilter  int
	WidenedPass         bool
	GraphExpanded       int
	Boosted             int
	CoordinatorSources  int
	SkippedStages       []string
}

// Response is the pipeline outcome: either merged evidence for answering, or
// an abstention with a reason kept distinguishable end-to-end.
type Response struct {
	Abstained  bool
	Reason     string
	Confidence float64
	Sources    []Source
	Context    string
	Fallbacks  []string
	Decision   *route.Decision
	Metadata   Metadata
}
