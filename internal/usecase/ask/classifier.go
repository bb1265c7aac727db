package ask

import "strings"

// Classifier is a keyword heuristic deciding whether a question belongs to
// the tenant's learning domain before any retrieval work is spent on it.
// An empty keyword set or an unclassifiable query defaults to in-domain;
// the classifier only short-circuits clearly foreign questions.
type Classifier struct {
	keywords []string
}

// NewClassifier builds a classifier from configured domain terms plus the
// tenant's course vocabulary. Terms are matched case-insensitively as
// substrings of the query.
func NewClassifier(terms ...[]string) *Classifier {
	var keywords []string
	for _, list := range terms {
		for _, t := range list {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				keywords = append(keywords, t)
			}
		}
	}
	return &Classifier{keywords: keywords}
}

// InDomain reports whether the query should enter the retrieval pipeline.
func (c *Classifier) InDomain(query string) bool {
	if len(c.keywords) == 0 || strings.TrimSpace(query) == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, kw := range c.keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
