package chi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brightclass/answerhub/internal/domain"
)

// tenantIDPattern constrains tenant identifiers to lowercase slugs so they
// embed safely into store keys and tag filters.
var tenantIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// TenantResolver validates and normalizes tenant identifiers at the edge.
// Everything past this point trusts the tenant ID; no downstream layer
// patches or rewrites it.
type TenantResolver struct {
	aliases map[string]string
}

// NewTenantResolver creates a resolver. aliases maps legacy identifiers to
// their canonical form, fixing known-bad IDs at the boundary instead of
// deep in the pipeline.
func NewTenantResolver(aliases map[string]string) *TenantResolver {
	normalized := make(map[string]string, len(aliases))
	for from, to := range aliases {
		normalized[strings.ToLower(strings.TrimSpace(from))] = to
	}
	return &TenantResolver{aliases: normalized}
}

// Resolve returns the canonical tenant ID or an invalid-request error.
func (r *TenantResolver) Resolve(raw string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if id == "" {
		return "", domain.ErrTenantRequired
	}
	if canonical, ok := r.aliases[id]; ok {
		id = canonical
	}
	if !tenantIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: malformed tenant id %q", domain.ErrInvalidRequest, raw)
	}
	return id, nil
}
