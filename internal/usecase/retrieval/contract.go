package retrieval

import (
	"context"

	"github.com/brightclass/answerhub/internal/domain/candidate"
)

// Repository defines the storage contract for tenant-scoped KNN search.
type Repository interface {
	Search(
		ctx context.Context, tenantID string, vector []float32,
		k int, contentType string,
	) ([]candidate.Result, error)
}
