// Package coordinator is the signed gRPC client for the external Coordinator
// routing service. It is invoked as a fallback when internal retrieval yields
// insufficient evidence.
package coordinator

import "github.com/brightclass/answerhub/internal/domain/route"

// RouteRequest is the wire request for Coordinator.Route.
type RouteRequest struct {
	Envelope route.Envelope `json:"envelope"`
}

// RouteSource is one evidence item returned by a downstream service.
type RouteSource struct {
	ContentID string  `json:"content_id"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	Service   string  `json:"service"`
}

// RouteResponse is the wire response for Coordinator.Route.
type RouteResponse struct {
	SuccessfulService string        `json:"successful_service"`
	RankUsed          int           `json:"rank_used"`
	QualityScore      float64       `json:"quality_score"`
	TotalAttempts     int           `json:"total_attempts"`
	Sources           []RouteSource `json:"sources"`
}

// Decision normalizes the routing outcome for the pipeline trace.
func (r *RouteResponse) Decision() route.Decision {
	return route.Decision{
		SuccessfulService: r.SuccessfulService,
		RankUsed:          r.RankUsed,
		QualityScore:      r.QualityScore,
		TotalAttempts:     r.TotalAttempts,
	}
}

// BatchSyncRequest is the wire request for Coordinator.BatchSync.
type BatchSyncRequest struct {
	TargetService string `json:"target_service"`
	SyncType      string `json:"sync_type"`
	Since         string `json:"since,omitempty"`
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
}

// BatchSyncItem is one synced record.
type BatchSyncItem struct {
	ID      string            `json:"id"`
	Kind    string            `json:"kind"`
	Payload map[string]string `json:"payload,omitempty"`
}

// BatchSyncResponse is one page of the paged sync.
type BatchSyncResponse struct {
	Items   []BatchSyncItem `json:"items"`
	HasMore bool            `json:"has_more"`
}
