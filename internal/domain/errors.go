package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantRequired signals an operation attempted without a tenant scope.
	ErrTenantRequired = errors.New("tenant id is required")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding gateway failure.
	// Embedding generation is mandatory: this error aborts the query.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInvalidRequest signals a malformed request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSigningKey signals a missing or malformed Coordinator signing key.
	// Fatal to the fallback client only; the pipeline runs without fallback.
	ErrSigningKey = errors.New("coordinator signing key unavailable")
	// ErrRateLimited signals a rate limit hit on the embedding gateway.
	ErrRateLimited = errors.New("rate limited")
	// ErrProcessing is the generic failure surfaced when a mandatory pipeline
	// stage breaks. Internal detail stays in logs, never in responses.
	ErrProcessing = errors.New("query processing failed")
)

// DimMismatchError wraps ErrVectorDimMismatch with the observed dimensions.
type DimMismatchError struct {
	Want int
	Got  int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: want %d, got %d", ErrVectorDimMismatch.Error(), e.Want, e.Got)
}

func (e *DimMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimMismatch creates a dimension mismatch error.
func NewDimMismatch(want, got int) error {
	return &DimMismatchError{Want: want, Got: got}
}
