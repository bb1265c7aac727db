package db

// TagFilter restricts a search to rows whose TAG field equals Value.
type TagFilter struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search.
// Filters are pre-filters applied before the KNN stage; the tenant tag
// filter is mandatory and enforced by the repository layer.
type KNNQuery struct {
	IndexName    string
	Filters      []TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// Score is cosine similarity in [0, 1] (the redis layer converts distance).
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
