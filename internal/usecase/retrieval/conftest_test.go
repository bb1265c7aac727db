package retrieval

import (
	"context"

	"github.com/brightclass/answerhub/internal/domain/candidate"
)

// mockRepo is a function-field test double for the Repository contract.
type mockRepo struct {
	searchFn func(
		ctx context.Context, tenantID string, vector []float32,
		k int, contentType string,
	) ([]candidate.Result, error)

	calls []searchCall
}

type searchCall struct {
	tenantID    string
	k           int
	contentType string
}

func (m *mockRepo) Search(
	ctx context.Context, tenantID string, vector []float32,
	k int, contentType string,
) ([]candidate.Result, error) {
	m.calls = append(m.calls, searchCall{tenantID: tenantID, k: k, contentType: contentType})
	if m.searchFn != nil {
		return m.searchFn(ctx, tenantID, vector, k, contentType)
	}
	return nil, nil
}

func vectorHit(id string, sim float64) candidate.Result {
	return candidate.New(id, "course", sim, candidate.ProvenanceVector)
}

func testConfig() Config {
	return Config{Threshold: 0.25, WidenedThreshold: 0.1, WidenedMultiplier: 3}
}
