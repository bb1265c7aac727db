package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/brightclass/answerhub/internal/domain/route"
	"github.com/brightclass/answerhub/internal/metrics"
)

const (
	routeMethod     = "/coordinator.v1.Coordinator/Route"
	batchSyncMethod = "/coordinator.v1.Coordinator/BatchSync"

	sigHeader       = "x-signature"
	serviceHeader   = "x-service"
	timestampHeader = "x-timestamp"
)

// Conn is the consumer interface over *grpc.ClientConn.
type Conn interface {
	Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error
	Close() error
}

// DialFunc creates a connection to the Coordinator. Injected so tests and
// alternative transports can substitute the dialer.
type DialFunc func(target string) (Conn, error)

// DefaultDial connects over plaintext gRPC.
func DefaultDial(target string) (Conn, error) {
	cc, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial coordinator %s: %w", target, err)
	}
	return cc, nil
}

// Config holds the Coordinator client settings.
type Config struct {
	Target        string
	Timeout       time.Duration
	SyncPageLimit int
	MaxSyncPages  int
}

// Client is the Coordinator fallback client. The connection is created
// lazily on first use and torn down after timeout/unavailable failures so
// the next call redials.
type Client struct {
	cfg    Config
	signer *Signer
	dial   DialFunc
	logger *zap.Logger

	mu   sync.Mutex
	conn Conn
}

// NewClient creates a Coordinator client. It does not connect.
func NewClient(cfg Config, signer *Signer, dial DialFunc, logger *zap.Logger) *Client {
	if dial == nil {
		dial = DefaultDial
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SyncPageLimit <= 0 {
		cfg.SyncPageLimit = 100
	}
	if cfg.MaxSyncPages <= 0 {
		cfg.MaxSyncPages = 50
	}
	return &Client{cfg: cfg, signer: signer, dial: dial, logger: logger}
}

// Route submits an envelope and returns the Coordinator's routing result.
// The client never retries; retryability is reported on the typed error.
func (c *Client) Route(ctx context.Context, env route.Envelope) (*RouteResponse, error) {
	req := &RouteRequest{Envelope: env}

	start := time.Now()
	var resp RouteResponse
	err := c.invoke(ctx, routeMethod, req, &resp)
	metrics.CoordinatorRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		cerr := c.handleFailure(err)
		c.logger.Warn("Coordinator route failed",
			zap.String("code", string(cerr.Code)),
			zap.Bool("retryable", cerr.Code.Retryable()),
			zap.Error(err),
		)
		return nil, cerr
	}

	metrics.CoordinatorRequestsTotal.WithLabelValues("success").Inc()
	if resp.SuccessfulService != "" {
		metrics.CoordinatorDownstreamTotal.WithLabelValues(resp.SuccessfulService).Inc()
	}
	if resp.RankUsed > 0 {
		metrics.CoordinatorFallbackRoutesTotal.Inc()
	}

	return &resp, nil
}

// BatchSync pulls all pages of a sync feed. The loop stops on has_more=false
// or a short page; maxSyncPages caps the loop so an inconsistent has_more
// flag cannot spin it forever.
func (c *Client) BatchSync(
	ctx context.Context, targetService, syncType string, since time.Time,
) ([]BatchSyncItem, error) {
	var sinceStr string
	if !since.IsZero() {
		sinceStr = since.UTC().Format(time.RFC3339)
	}

	var items []BatchSyncItem
	for page := 1; page <= c.cfg.MaxSyncPages; page++ {
		req := &BatchSyncRequest{
			TargetService: targetService,
			SyncType:      syncType,
			Since:         sinceStr,
			Page:          page,
			Limit:         c.cfg.SyncPageLimit,
		}

		var resp BatchSyncResponse
		if err := c.invoke(ctx, batchSyncMethod, req, &resp); err != nil {
			return items, c.handleFailure(err)
		}

		items = append(items, resp.Items...)
		if !resp.HasMore || len(resp.Items) < c.cfg.SyncPageLimit {
			return items, nil
		}
	}

	c.logger.Warn("Coordinator batch sync hit page cap",
		zap.String("target_service", targetService),
		zap.Int("max_pages", c.cfg.MaxSyncPages),
	)
	return items, nil
}

// invoke signs the request and performs one unary call with a bounded deadline.
func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	conn, err := c.getConn()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	ctx = metadata.AppendToOutgoingContext(ctx,
		sigHeader, c.signer.Sign(payload, timestamp),
		serviceHeader, c.signer.Service(),
		timestampHeader, timestamp,
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	return conn.Invoke(ctx, method, req, resp, grpc.ForceCodec(jsonCodec{}))
}

// handleFailure classifies the error, records metrics, and tears down the
// connection on timeout/unavailable so the next call redials.
func (c *Client) handleFailure(err error) *Error {
	if cerr, ok := err.(*Error); ok {
		return cerr
	}

	cerr := classify(err)
	metrics.CoordinatorRequestsTotal.WithLabelValues("failure").Inc()
	metrics.CoordinatorErrorsTotal.WithLabelValues(string(cerr.Code)).Inc()

	if cerr.Code == CodeTimeout || cerr.Code == CodeUnavailable {
		c.resetConn()
	}
	return cerr
}

func (c *Client) getConn() (Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := c.dial(c.cfg.Target)
	if err != nil {
		return nil, &Error{Code: CodeUnavailable, Err: err}
	}
	c.conn = conn
	return conn, nil
}

func (c *Client) resetConn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Warn("Failed to close coordinator connection", zap.Error(err))
	}
	c.conn = nil
}

// Close releases the connection, if any.
func (c *Client) Close() {
	c.resetConn()
}
