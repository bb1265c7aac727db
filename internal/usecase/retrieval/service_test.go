package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/candidate"
	"github.com/brightclass/answerhub/internal/domain/pipeline"
)

func TestSearch_KeepsResultsAboveThreshold(t *testing.T) {
	repo := &mockRepo{
		searchFn: func(_ context.Context, _ string, _ []float32, _ int, _ string) ([]candidate.Result, error) {
			return []candidate.Result{
				vectorHit("doc-1", 0.91),
				vectorHit("doc-2", 0.40),
				vectorHit("doc-3", 0.12),
			}, nil
		},
	}
	svc := New(repo, testConfig())
	trace := pipeline.NewTrace()

	results, err := svc.Search(context.Background(), "acme", []float32{0.1}, Options{Limit: 5}, trace)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above threshold, got %d", len(results))
	}
	if results[0].ContentID() != "doc-1" || results[1].ContentID() != "doc-2" {
		t.Errorf("order not preserved: %q, %q", results[0].ContentID(), results[1].ContentID())
	}
	if trace.WidenedPass {
		t.Error("widened pass flagged on a primary-pass hit")
	}
	if trace.VectorHits != 2 {
		t.Errorf("VectorHits = %d, want 2", trace.VectorHits)
	}
	if len(repo.calls) != 1 {
		t.Errorf("expected 1 search call, got %d", len(repo.calls))
	}
}

func TestSearch_WidensWhenPrimaryPassEmpty(t *testing.T) {
	repo := &mockRepo{
		searchFn: func(_ context.Context, _ string, _ []float32, k int, _ string) ([]candidate.Result, error) {
			if k == 5 {
				return []candidate.Result{vectorHit("weak", 0.15)}, nil
			}
			return []candidate.Result{vectorHit("weak", 0.15), vectorHit("weaker", 0.11)}, nil
		},
	}
	svc := New(repo, testConfig())
	trace := pipeline.NewTrace()

	results, err := svc.Search(context.Background(), "acme", []float32{0.1}, Options{Limit: 5}, trace)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 widened results, got %d", len(results))
	}
	if !trace.WidenedPass {
		t.Error("widened pass not flagged")
	}
	if len(repo.calls) != 2 {
		t.Fatalf("expected exactly 2 search calls, got %d", len(repo.calls))
	}
	if repo.calls[1].k != 15 {
		t.Errorf("widened pass k = %d, want 15", repo.calls[1].k)
	}
}

func TestSearch_NeverWidensTwice(t *testing.T) {
	repo := &mockRepo{
		searchFn: func(_ context.Context, _ string, _ []float32, _ int, _ string) ([]candidate.Result, error) {
			return nil, nil
		},
	}
	svc := New(repo, testConfig())
	trace := pipeline.NewTrace()

	results, err := svc.Search(context.Background(), "acme", []float32{0.1}, Options{Limit: 5}, trace)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
	if len(repo.calls) != 2 {
		t.Fatalf("expected exactly 2 search calls on empty store, got %d", len(repo.calls))
	}
	if trace.WidenedPass {
		t.Error("empty store must not set the widened flag")
	}
}

func TestSearch_RowsBelowFloorStillMarkWidenedPass(t *testing.T) {
	repo := &mockRepo{
		searchFn: func(_ context.Context, _ string, _ []float32, _ int, _ string) ([]candidate.Result, error) {
			return []candidate.Result{vectorHit("noise", 0.03)}, nil
		},
	}
	svc := New(repo, testConfig())
	trace := pipeline.NewTrace()

	results, err := svc.Search(context.Background(), "acme", []float32{0.1}, Options{Limit: 5}, trace)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	// Rows existed but none cleared even the floor: the caller must see
	// LOW_SIMILARITY, not NO_DATA.
	if !trace.WidenedPass {
		t.Error("rows below the floor must still set the widened flag")
	}
}

func TestSearch_RequiresTenant(t *testing.T) {
	svc := New(&mockRepo{}, testConfig())

	_, err := svc.Search(context.Background(), "", []float32{0.1}, Options{Limit: 5}, pipeline.NewTrace())
	if !errors.Is(err, domain.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

func TestSearch_PropagatesTenantAndContentType(t *testing.T) {
	repo := &mockRepo{
		searchFn: func(_ context.Context, _ string, _ []float32, _ int, _ string) ([]candidate.Result, error) {
			return []candidate.Result{vectorHit("doc-1", 0.9)}, nil
		},
	}
	svc := New(repo, testConfig())

	_, err := svc.Search(
		context.Background(), "globex", []float32{0.1},
		Options{Limit: 5, ContentType: "lesson"}, pipeline.NewTrace(),
	)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if repo.calls[0].tenantID != "globex" || repo.calls[0].contentType != "lesson" {
		t.Errorf("call = %+v, want tenant globex, content type lesson", repo.calls[0])
	}
}

func TestSearch_RepoErrorWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &mockRepo{
		searchFn: func(_ context.Context, _ string, _ []float32, _ int, _ string) ([]candidate.Result, error) {
			return nil, boom
		},
	}
	svc := New(repo, testConfig())

	_, err := svc.Search(context.Background(), "acme", []float32{0.1}, Options{Limit: 5}, pipeline.NewTrace())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}
