package domain

import (
	"fmt"
	"strings"
)

// KeyPrefix is the namespace for all keys written by this service.
const KeyPrefix = "ah:"

// EmbeddingIndexName is the single FT index covering all tenants' embeddings.
// Tenant isolation is enforced by a mandatory tenant TAG pre-filter.
const EmbeddingIndexName = KeyPrefix + "emb:idx"

// EmbeddingIndexPrefix is the hash key prefix the embedding index covers.
// Graph keys live under a different prefix and stay out of the index.
const EmbeddingIndexPrefix = KeyPrefix + "emb:"

// EmbeddingKeyPrefix returns the hash key prefix for a tenant's embeddings.
func EmbeddingKeyPrefix(tenantID string) string {
	return fmt.Sprintf("%s%s:", EmbeddingIndexPrefix, tenantID)
}

// EmbeddingKey returns the hash key for one chunk of a content item.
func EmbeddingKey(tenantID, contentID string, chunk int) string {
	return fmt.Sprintf("%s%s#%d", EmbeddingKeyPrefix(tenantID), contentID, chunk)
}

// ContentIDFromKey strips the tenant prefix and chunk suffix from an
// embedding hash key, returning the bare content ID.
func ContentIDFromKey(key, tenantID string) string {
	id := strings.TrimPrefix(key, EmbeddingKeyPrefix(tenantID))
	if i := strings.LastIndex(id, "#"); i >= 0 {
		id = id[:i]
	}
	return id
}

// NodeKey returns the hash key for a graph node.
func NodeKey(tenantID, nodeID string) string {
	return fmt.Sprintf("%s%s:node:%s", KeyPrefix, tenantID, nodeID)
}

// EdgeKey returns the hash key for a graph edge. The key encodes the
// (source, destination, type) triple so re-upserting the same edge
// overwrites rather than duplicates.
func EdgeKey(tenantID, src, dst, edgeType string) string {
	return fmt.Sprintf("%s%s:edge:%s|%s|%s", KeyPrefix, tenantID, src, dst, edgeType)
}

// OutEdgesKey returns the set key holding a node's outgoing adjacency,
// with members encoded as "dst|type".
func OutEdgesKey(tenantID, src string) string {
	return fmt.Sprintf("%s%s:out:%s", KeyPrefix, tenantID, src)
}
