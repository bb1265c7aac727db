package answerhub

import (
	"go.uber.org/zap"
)

// defaults for the in-process pipeline; mirror the service config defaults.
const (
	defaultDimensions        = 1536
	defaultSearchLimit       = 5
	defaultSearchThreshold   = 0.25
	defaultWidenedThreshold  = 0.1
	defaultWidenedMultiplier = 3
	defaultGraphMaxDepth     = 2
	defaultGraphMinWeight    = 0.1
)

type clientConfig struct {
	addrs    []string
	password string

	embedder   Embedder
	dimensions int

	searchLimit       int
	searchThreshold   float64
	widenedThreshold  float64
	widenedMultiplier int

	graphMaxDepth    int
	graphMinWeight   float64
	minInternalCount int

	restrictedCategories []string
	privilegedRoles      []string
	domainKeywords       []string

	coordinatorTarget   string
	coordinatorIdentity string
	coordinatorKeyB64   string

	logger *zap.Logger
}

// Option configures the answerhub Client.
type Option func(*clientConfig)

// WithRedis sets the Redis connection.
func WithRedis(password string, addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	}
}

// WithEmbedder sets the embedding provider. Required for asking questions
// and for indexing chunks without precomputed vectors.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithDimensions sets the embedding vector dimension (default 1536).
func WithDimensions(dim int) Option {
	return func(c *clientConfig) {
		if dim > 0 {
			c.dimensions = dim
		}
	}
}

// WithSearchTuning overrides the retrieval limit and similarity thresholds.
func WithSearchTuning(limit int, threshold, widenedThreshold float64) Option {
	return func(c *clientConfig) {
		if limit > 0 {
			c.searchLimit = limit
		}
		if threshold > 0 {
			c.searchThreshold = threshold
		}
		if widenedThreshold > 0 {
			c.widenedThreshold = widenedThreshold
		}
	}
}

// WithGraphTuning overrides the traversal depth and minimum edge weight.
func WithGraphTuning(maxDepth int, minEdgeWeight float64) Option {
	return func(c *clientConfig) {
		if maxDepth > 0 {
			c.graphMaxDepth = maxDepth
		}
		if minEdgeWeight > 0 {
			c.graphMinWeight = minEdgeWeight
		}
	}
}

// WithMinInternalSources sets how many internal sources count as sufficient
// before the external fallback is consulted.
func WithMinInternalSources(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.minInternalCount = n
		}
	}
}

// WithAccessPolicy overrides the restricted content categories and the roles
// exempt from filtering.
func WithAccessPolicy(restrictedCategories, privilegedRoles []string) Option {
	return func(c *clientConfig) {
		c.restrictedCategories = restrictedCategories
		c.privilegedRoles = privilegedRoles
	}
}

// WithDomainKeywords enables the out-of-domain short circuit. Empty keeps
// every question in domain.
func WithDomainKeywords(keywords ...string) Option {
	return func(c *clientConfig) { c.domainKeywords = keywords }
}

// WithCoordinator enables the external fallback, consulted when internal
// evidence is insufficient. signingKeyB64 is the base64 ed25519 seed used to
// sign requests. Without this option, queries resolve internally only.
func WithCoordinator(target, serviceIdentity, signingKeyB64 string) Option {
	return func(c *clientConfig) {
		c.coordinatorTarget = target
		c.coordinatorIdentity = serviceIdentity
		c.coordinatorKeyB64 = signingKeyB64
	}
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
