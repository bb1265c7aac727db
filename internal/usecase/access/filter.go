// Package access enforces category-level access control on retrieval
// candidates before anything leaves the pipeline.
package access

import (
	"strings"

	"github.com/brightclass/answerhub/internal/domain/candidate"
)

// Signal reports the outcome of a filtering pass.
type Signal string

const (
	// SignalAllowed means filtering did not remove all evidence.
	SignalAllowed Signal = "allowed"
	// SignalNoPermission means a nonempty candidate set was emptied by the
	// access rule. Callers must surface this as a permission abstention, not
	// as missing data.
	SignalNoPermission Signal = "no_permission"
)

// Rule is the declarative access policy: a candidate in a restricted
// category passes only for privileged roles, or when the query itself names
// the candidate's subject.
type Rule struct {
	restrictedCategories map[string]bool
	privilegedRoles      map[string]bool
}

// NewRule builds the policy. Empty inputs fall back to the defaults:
// restricted {profile, personal}, privileged {admin, instructor}.
func NewRule(restrictedCategories, privilegedRoles []string) *Rule {
	if len(restrictedCategories) == 0 {
		restrictedCategories = []string{"profile", "personal"}
	}
	if len(privilegedRoles) == 0 {
		privilegedRoles = []string{"admin", "instructor"}
	}
	return &Rule{
		restrictedCategories: lowerSet(restrictedCategories),
		privilegedRoles:      lowerSet(privilegedRoles),
	}
}

// Filter applies the rule to candidates for one caller. It returns the
// surviving candidates and a signal distinguishing "nothing passed the rule"
// from ordinary empty input.
//
// The subject-mention clause admits a restricted record whenever the query
// text contains the record's subject name, case-insensitive. Names are not
// unique; a query about one person with a common name admits records about
// anyone sharing it.
func (r *Rule) Filter(results []candidate.Result, role, queryText string) ([]candidate.Result, Signal) {
	if len(results) == 0 {
		return results, SignalAllowed
	}
	if r.privilegedRoles[strings.ToLower(role)] {
		return results, SignalAllowed
	}

	query := strings.ToLower(queryText)
	kept := make([]candidate.Result, 0, len(results))
	for i := range results {
		c := &results[i]
		if r.allows(c, query) {
			kept = append(kept, *c)
		}
	}

	if len(kept) == 0 {
		return kept, SignalNoPermission
	}
	return kept, SignalAllowed
}

func (r *Rule) allows(c *candidate.Result, lowerQuery string) bool {
	if !r.restrictedCategories[strings.ToLower(c.Category())] {
		return true
	}
	subject := strings.ToLower(strings.TrimSpace(c.Subject()))
	return subject != "" && strings.Contains(lowerQuery, subject)
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
