// Package pipeline holds the per-query filtering trace carried through
// every stage so the terminal response can explain what happened.
package pipeline

// Reason is the terminal disposition of a query's retrieval pipeline.
type Reason string

const (
	// ReasonNoData means no rows matched even the widened search.
	ReasonNoData Reason = "NO_DATA"
	// ReasonLowSimilarity means only the widened low-threshold pass matched.
	ReasonLowSimilarity Reason = "LOW_SIMILARITY"
	// ReasonNoPermission means access filtering emptied a nonempty set.
	ReasonNoPermission Reason = "NO_PERMISSION"
	// ReasonSuccess means evidence survived to the merge stage.
	ReasonSuccess Reason = "SUCCESS"
)

// AbstainCode maps the terminal reason to the externally visible abstention
// code. The three codes must stay distinguishable end-to-end: a permission
// problem must never look identical to missing data.
func (r Reason) AbstainCode() string {
	switch r {
	case ReasonNoPermission:
		return "permission_denied"
	case ReasonLowSimilarity:
		return "below_threshold"
	default:
		return "no_vector_results"
	}
}

// Trace accumulates per-stage counters for one query. It is owned by a
// single query goroutine and needs no locking.
type Trace struct {
	Reason Reason

	VectorHits     int
	WidenedPass    bool
	Boosted        int
	GraphExpanded  int
	BeforeFilter   int
	AfterFilter    int
	CoordinatorHit int

	// SkippedStages lists optional stages that failed closed.
	SkippedStages []string
}

// NewTrace starts a trace with no data observed yet.
func NewTrace() *Trace {
	return &Trace{Reason: ReasonNoData}
}

// SkipStage records an optional stage that degraded to a no-op.
func (t *Trace) SkipStage(name string) {
	t.SkippedStages = append(t.SkippedStages, name)
}
