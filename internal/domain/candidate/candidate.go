// Package candidate holds the transient per-query retrieval candidate.
package candidate

// Provenance records which pipeline stage produced a candidate.
type Provenance string

const (
	// ProvenanceVector marks candidates found by vector similarity search.
	ProvenanceVector Provenance = "vector"
	// ProvenanceGraph marks candidates discovered through graph expansion.
	ProvenanceGraph Provenance = "graph"
	// ProvenanceCoordinator marks candidates returned by the external Coordinator.
	ProvenanceCoordinator Provenance = "coordinator"
)

// Result is a single retrieval candidate flowing through the pipeline.
type Result struct {
	contentID      string
	contentType    string
	category       string
	subject        string
	text           string
	similarity     float64
	provenance     Provenance
	relatedNodeIDs []string
	edgeTypes      []string
	sourceService  string
}

// New creates a retrieval candidate.
func New(contentID, contentType string, similarity float64, provenance Provenance) Result {
	return Result{
		contentID:   contentID,
		contentType: contentType,
		similarity:  similarity,
		provenance:  provenance,
	}
}

// ContentID returns the content identifier.
func (r *Result) ContentID() string { return r.contentID }

// ContentType returns the content type.
func (r *Result) ContentType() string { return r.contentType }

// Category returns the content category used by access filtering.
func (r *Result) Category() string { return r.category }

// Subject returns the resolved subject of the record, if any.
func (r *Result) Subject() string { return r.subject }

// Text returns the content snippet.
func (r *Result) Text() string { return r.text }

// Similarity returns the relevance score in [0, 1].
func (r *Result) Similarity() float64 { return r.similarity }

// Provenance returns the producing pipeline stage.
func (r *Result) Provenance() Provenance { return r.provenance }

// RelatedNodeIDs returns graph node IDs that contributed to this candidate.
func (r *Result) RelatedNodeIDs() []string { return r.relatedNodeIDs }

// EdgeTypes returns the edge types that contributed to this candidate.
func (r *Result) EdgeTypes() []string { return r.edgeTypes }

// SourceService returns the downstream service that served a coordinator candidate.
func (r *Result) SourceService() string { return r.sourceService }

// SetText sets the content snippet.
func (r *Result) SetText(text string) { r.text = text }

// SetCategory sets the content category.
func (r *Result) SetCategory(category string) { r.category = category }

// SetSubject sets the resolved subject.
func (r *Result) SetSubject(subject string) { r.subject = subject }

// SetSimilarity replaces the relevance score.
func (r *Result) SetSimilarity(s float64) { r.similarity = s }

// SetSourceService records the downstream service for coordinator candidates.
func (r *Result) SetSourceService(svc string) { r.sourceService = svc }

// AddRelation records a graph relation that touched this candidate.
func (r *Result) AddRelation(nodeID, edgeType string) {
	r.relatedNodeIDs = append(r.relatedNodeIDs, nodeID)
	for _, t := range r.edgeTypes {
		if t == edgeType {
			return
		}
	}
	r.edgeTypes = append(r.edgeTypes, edgeType)
}
