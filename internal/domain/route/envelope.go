// Package route holds the versioned envelope exchanged with the external
// Coordinator routing service.
package route

import (
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the wire version this service speaks.
const EnvelopeVersion = "1.0"

// Envelope is the versioned request/response wrapper for Coordinator calls.
type Envelope struct {
	Version   string  `json:"version"`
	Timestamp int64   `json:"timestamp"`
	RequestID string  `json:"request_id"`
	TenantID  string  `json:"tenant_id"`
	UserID    string  `json:"user_id"`
	Source    string  `json:"source"`
	Payload   Payload `json:"payload"`
}

// Payload is the routed query content.
type Payload struct {
	QueryText string            `json:"query_text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope builds a request envelope with a fresh request ID.
func NewEnvelope(tenantID, userID, source string, payload Payload) Envelope {
	return Envelope{
		Version:   EnvelopeVersion,
		Timestamp: time.Now().Unix(),
		RequestID: uuid.NewString(),
		TenantID:  tenantID,
		UserID:    userID,
		Source:    source,
		Payload:   payload,
	}
}

// Decision is the normalized routing outcome reported by the Coordinator.
type Decision struct {
	SuccessfulService string  `json:"successful_service"`
	RankUsed          int     `json:"rank_used"`
	QualityScore      float64 `json:"quality_score"`
	TotalAttempts     int     `json:"total_attempts"`
}

// Degraded reports whether a lower-ranked downstream served the response
// after a higher-ranked one failed.
func (d *Decision) Degraded() bool { return d.RankUsed > 0 }
