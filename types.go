package answerhub

import (
	askuc "github.com/brightclass/answerhub/internal/usecase/ask"
)

// Question is one query against a tenant's knowledge base.
type Question struct {
	TenantID    string
	UserID      string // optional, enables learning-context boosting
	Role        string
	Text        string
	ContentType string // optional content type filter
}

// Source is one piece of evidence behind an answer.
type Source struct {
	ContentID   string
	ContentType string
	Similarity  float64
	Provenance  string
	Service     string
}

// Answer is the pipeline outcome: either assembled evidence or an explicit
// abstention with a machine-readable reason.
type Answer struct {
	Abstained  bool
	Reason     string // abstention code, empty on success
	Confidence float64
	Sources    []Source
	Context    string
	Fallbacks  []string
}

// Chunk is one text fragment of a content item. Vector is optional; when
// nil the client embeds Text.
type Chunk struct {
	Index  int
	Text   string
	Vector []float32
}

// Content is one knowledge-base item to index.
type Content struct {
	TenantID    string
	ContentID   string
	ContentType string
	Category    string
	Subject     string
	Metadata    map[string]string
	Chunks      []Chunk
}

// Node is a knowledge graph node. IDs are type-prefixed, e.g.
// "content:algebra-1", "skill:algebra", "user:u42".
type Node struct {
	ID         string
	Type       string
	Properties map[string]string
}

// Link is a directed weighted relation between two graph nodes.
type Link struct {
	SourceID string
	TargetID string
	Type     string // supports, related, prerequisite, part_of, learning
	Weight   float64
}

func answerFrom(resp *askuc.Response) *Answer {
	sources := make([]Source, len(resp.Sources))
	for i, s := range resp.Sources {
		sources[i] = Source{
			ContentID:   s.ContentID,
			ContentType: s.ContentType,
			Similarity:  s.Similarity,
			Provenance:  s.Provenance,
			Service:     s.Service,
		}
	}
	return &Answer{
		Abstained:  resp.Abstained,
		Reason:     resp.Reason,
		Confidence: resp.Confidence,
		Sources:    sources,
		Context:    resp.Context,
		Fallbacks:  resp.Fallbacks,
	}
}
