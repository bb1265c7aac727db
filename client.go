// Package answerhub is the embedded SDK: it wires the retrieval pipeline
// against Redis in-process, without the HTTP server. Ingestion tools and
// tests use it to index content and ask questions directly.
package answerhub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/brightclass/answerhub/internal/db"
	dbRedis "github.com/brightclass/answerhub/internal/db/redis"
	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/graph"
	"github.com/brightclass/answerhub/internal/metrics"
	graphrepo "github.com/brightclass/answerhub/internal/repository/graph"
	vectorrepo "github.com/brightclass/answerhub/internal/repository/vector"
	"github.com/brightclass/answerhub/internal/transport/coordinator"
	accessuc "github.com/brightclass/answerhub/internal/usecase/access"
	askuc "github.com/brightclass/answerhub/internal/usecase/ask"
	kgraphuc "github.com/brightclass/answerhub/internal/usecase/kgraph"
	mergeuc "github.com/brightclass/answerhub/internal/usecase/merge"
	retrievaluc "github.com/brightclass/answerhub/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the answerhub SDK entry point.
type Client struct {
	store      db.Store
	embedder   domain.Embedder
	askSvc     *askuc.Service
	vectorRepo *vectorrepo.Repo
	graphRepo  *graphrepo.Repo
}

// New creates a Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dimensions:        defaultDimensions,
		searchLimit:       defaultSearchLimit,
		searchThreshold:   defaultSearchThreshold,
		widenedThreshold:  defaultWidenedThreshold,
		widenedMultiplier: defaultWidenedMultiplier,
		graphMaxDepth:     defaultGraphMaxDepth,
		graphMinWeight:    defaultGraphMinWeight,
		logger:            zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("answerhub: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("answerhub: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("answerhub: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := c.vectorRepo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("answerhub: ensure index: %w", err)
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterCoordinatorMetrics()

	var embedder domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	}

	vectorRepo := vectorrepo.New(store, cfg.dimensions)
	graphRepo := graphrepo.New(store)

	retriever := retrievaluc.New(vectorRepo, retrievaluc.Config{
		Threshold:         cfg.searchThreshold,
		WidenedThreshold:  cfg.widenedThreshold,
		WidenedMultiplier: cfg.widenedMultiplier,
	})
	expander := kgraphuc.New(graphRepo, vectorRepo, kgraphuc.Config{
		MaxDepth:      cfg.graphMaxDepth,
		MinEdgeWeight: cfg.graphMinWeight,
	}, cfg.logger)
	rule := accessuc.NewRule(cfg.restrictedCategories, cfg.privilegedRoles)
	merger := mergeuc.New(cfg.logger)
	classifier := askuc.NewClassifier(cfg.domainKeywords)

	router, err := buildRouter(cfg)
	if err != nil {
		return nil, err
	}

	askSvc := askuc.New(
		embedder, retriever, expander, rule, merger, router, classifier,
		askuc.Config{
			SearchLimit:        cfg.searchLimit,
			GraphMaxDepth:      cfg.graphMaxDepth,
			MinInternalSources: cfg.minInternalCount,
		},
		cfg.logger,
	)

	return &Client{
		store:      store,
		embedder:   embedder,
		askSvc:     askSvc,
		vectorRepo: vectorRepo,
		graphRepo:  graphRepo,
	}, nil
}

func buildRouter(cfg *clientConfig) (askuc.Router, error) {
	if cfg.coordinatorTarget == "" {
		return nil, nil
	}
	signer, err := coordinator.LoadSigner(cfg.coordinatorIdentity, cfg.coordinatorKeyB64, "")
	if err != nil {
		return nil, fmt.Errorf("answerhub: coordinator signer: %w", err)
	}
	return coordinator.NewClient(coordinator.Config{
		Target: cfg.coordinatorTarget,
	}, signer, nil, cfg.logger), nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ask runs the full answer pipeline for one question.
func (c *Client) Ask(ctx context.Context, q Question) (*Answer, error) {
	resp, err := c.askSvc.Ask(ctx, askuc.Request{
		TenantID:    q.TenantID,
		UserID:      q.UserID,
		Role:        q.Role,
		Query:       q.Text,
		ContentType: q.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	return answerFrom(resp), nil
}

// IndexContent embeds (when needed) and stores the chunks of one content
// item. Chunks with a precomputed vector skip the embedder.
func (c *Client) IndexContent(ctx context.Context, content Content) error {
	for _, chunk := range content.Chunks {
		vector := chunk.Vector
		if vector == nil {
			res, err := c.embedder.Embed(ctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("index %s chunk %d: %w", content.ContentID, chunk.Index, err)
			}
			vector = res.Embedding
		}

		rec := &domain.EmbeddingRecord{
			TenantID:    content.TenantID,
			ContentID:   content.ContentID,
			ContentType: content.ContentType,
			Category:    content.Category,
			Subject:     content.Subject,
			ChunkIndex:  chunk.Index,
			Vector:      vector,
			Text:        chunk.Text,
			Metadata:    content.Metadata,
		}
		if err := c.vectorRepo.UpsertRecord(ctx, rec); err != nil {
			return fmt.Errorf("index %s chunk %d: %w", content.ContentID, chunk.Index, err)
		}
	}
	return nil
}

// AddNode upserts a knowledge graph node.
func (c *Client) AddNode(ctx context.Context, tenantID string, node Node) error {
	err := c.graphRepo.UpsertNode(ctx, &graph.Node{
		TenantID:   tenantID,
		NodeID:     node.ID,
		NodeType:   node.Type,
		Properties: node.Properties,
	})
	if err != nil {
		return fmt.Errorf("add node %s: %w", node.ID, err)
	}
	return nil
}

// Link upserts a directed weighted edge between two nodes.
func (c *Client) Link(ctx context.Context, tenantID string, link Link) error {
	err := c.graphRepo.UpsertEdge(ctx, &graph.Edge{
		TenantID: tenantID,
		SourceID: link.SourceID,
		TargetID: link.TargetID,
		Type:     graph.EdgeType(link.Type),
		Weight:   link.Weight,
	})
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", link.SourceID, link.TargetID, err)
	}
	return nil
}
