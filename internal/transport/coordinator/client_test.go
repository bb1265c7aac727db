package coordinator

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/brightclass/answerhub/internal/domain"
	"github.com/brightclass/answerhub/internal/domain/route"
	"github.com/brightclass/answerhub/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterCoordinatorMetrics()
	os.Exit(m.Run())
}

// mockConn implements Conn for tests.
type mockConn struct {
	invokeFn func(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error
	closed   int
}

func (m *mockConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	if m.invokeFn != nil {
		return m.invokeFn(ctx, method, args, reply, opts...)
	}
	return nil
}

func (m *mockConn) Close() error {
	m.closed++
	return nil
}

func testSigner(t *testing.T) *Signer {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	s, err := NewSigner("answerhub", seed)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func newTestClient(t *testing.T, mc *mockConn) *Client {
	t.Helper()
	dials := 0
	dial := func(_ string) (Conn, error) {
		dials++
		return mc, nil
	}
	return NewClient(Config{Target: "coordinator:9000", Timeout: time.Second},
		testSigner(t), dial, zap.NewNop())
}

func testEnvelope() route.Envelope {
	return route.NewEnvelope("acme", "u1", "answerhub", route.Payload{QueryText: "what is algebra"})
}

func TestRoute_Success(t *testing.T) {
	mc := &mockConn{
		invokeFn: func(_ context.Context, method string, _, reply any, _ ...grpc.CallOption) error {
			if method != "/coordinator.v1.Coordinator/Route" {
				t.Errorf("unexpected method: %s", method)
			}
			resp := reply.(*RouteResponse)
			resp.SuccessfulService = "tutor-bot"
			resp.RankUsed = 0
			resp.Sources = []RouteSource{{ContentID: "x", Content: "answer", Score: 0.7, Service: "tutor-bot"}}
			return nil
		},
	}
	c := newTestClient(t, mc)

	resp, err := c.Route(context.Background(), testEnvelope())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SuccessfulService != "tutor-bot" || len(resp.Sources) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
	decision := resp.Decision()
	if decision.Degraded() {
		t.Error("rank 0 must not be degraded")
	}
}

func TestRoute_SignatureMetadata(t *testing.T) {
	var md metadata.MD
	mc := &mockConn{
		invokeFn: func(ctx context.Context, _ string, _, _ any, _ ...grpc.CallOption) error {
			md, _ = metadata.FromOutgoingContext(ctx)
			return nil
		},
	}
	c := newTestClient(t, mc)

	if _, err := c.Route(context.Background(), testEnvelope()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, header := range []string{"x-signature", "x-service", "x-timestamp"} {
		if len(md.Get(header)) != 1 || md.Get(header)[0] == "" {
			t.Errorf("missing metadata header %s", header)
		}
	}
	if md.Get("x-service")[0] != "answerhub" {
		t.Errorf("unexpected service identity: %s", md.Get("x-service")[0])
	}
}

func TestRoute_DeadlineSet(t *testing.T) {
	mc := &mockConn{
		invokeFn: func(ctx context.Context, _ string, _, _ any, _ ...grpc.CallOption) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected a deadline on the call context")
			}
			return nil
		},
	}
	c := newTestClient(t, mc)

	if _, err := c.Route(context.Background(), testEnvelope()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRoute_TimeoutTearsDownConnection(t *testing.T) {
	mc := &mockConn{
		invokeFn: func(_ context.Context, _ string, _, _ any, _ ...grpc.CallOption) error {
			return status.Error(codes.DeadlineExceeded, "deadline exceeded")
		},
	}
	c := newTestClient(t, mc)

	_, err := c.Route(context.Background(), testEnvelope())
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != CodeTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !cerr.Code.Retryable() {
		t.Error("timeout must be retryable")
	}
	if mc.closed != 1 {
		t.Errorf("expected connection closed once, got %d", mc.closed)
	}

	// Next call must redial (conn was cleared).
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		t.Error("connection must be cleared after timeout")
	}
}

func TestRoute_NotFoundKeepsConnection(t *testing.T) {
	mc := &mockConn{
		invokeFn: func(_ context.Context, _ string, _, _ any, _ ...grpc.CallOption) error {
			return status.Error(codes.NotFound, "no service could answer")
		},
	}
	c := newTestClient(t, mc)

	_, err := c.Route(context.Background(), testEnvelope())
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != CodeNotFound {
		t.Fatalf("expected not_found error, got %v", err)
	}
	if cerr.Code.Retryable() {
		t.Error("not_found must not be retryable")
	}
	if mc.closed != 0 {
		t.Errorf("connection must survive not_found, closed %d times", mc.closed)
	}
}

func TestRoute_ErrorClassification(t *testing.T) {
	tests := []struct {
		grpcCode  codes.Code
		want      ErrorCode
		retryable bool
	}{
		{codes.DeadlineExceeded, CodeTimeout, true},
		{codes.Unavailable, CodeUnavailable, true},
		{codes.Internal, CodeInternal, true},
		{codes.NotFound, CodeNotFound, false},
		{codes.InvalidArgument, CodeInvalidRequest, false},
		{codes.PermissionDenied, CodeUnknown, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.want), func(t *testing.T) {
			mc := &mockConn{
				invokeFn: func(_ context.Context, _ string, _, _ any, _ ...grpc.CallOption) error {
					return status.Error(tc.grpcCode, "boom")
				},
			}
			c := newTestClient(t, mc)

			_, err := c.Route(context.Background(), testEnvelope())
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected coordinator.Error, got %v", err)
			}
			if cerr.Code != tc.want {
				t.Errorf("expected code %s, got %s", tc.want, cerr.Code)
			}
			if cerr.Code.Retryable() != tc.retryable {
				t.Errorf("expected retryable=%v", tc.retryable)
			}
		})
	}
}

func TestRoute_DialFailure(t *testing.T) {
	dial := func(_ string) (Conn, error) {
		return nil, errors.New("connection refused")
	}
	c := NewClient(Config{Target: "coordinator:9000"}, testSigner(t), dial, zap.NewNop())

	_, err := c.Route(context.Background(), testEnvelope())
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != CodeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestBatchSync_StopsOnHasMoreFalse(t *testing.T) {
	calls := 0
	mc := &mockConn{
		invokeFn: func(_ context.Context, method string, args, reply any, _ ...grpc.CallOption) error {
			if method != "/coordinator.v1.Coordinator/BatchSync" {
				t.Errorf("unexpected method: %s", method)
			}
			calls++
			req := args.(*BatchSyncRequest)
			if req.Page != calls {
				t.Errorf("expected page %d, got %d", calls, req.Page)
			}
			resp := reply.(*BatchSyncResponse)
			if calls < 3 {
				resp.Items = makeItems(req.Limit)
				resp.HasMore = true
			} else {
				resp.Items = makeItems(2)
				resp.HasMore = false
			}
			return nil
		},
	}
	c := newTestClient(t, mc)

	items, err := c.BatchSync(context.Background(), "tutor-bot", "content", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 pages, got %d", calls)
	}
	if len(items) != 2*100+2 {
		t.Errorf("unexpected item count: %d", len(items))
	}
}

func TestBatchSync_ShortPageStops(t *testing.T) {
	calls := 0
	mc := &mockConn{
		invokeFn: func(_ context.Context, _ string, _, reply any, _ ...grpc.CallOption) error {
			calls++
			resp := reply.(*BatchSyncResponse)
			resp.Items = makeItems(5) // fewer than the page limit
			resp.HasMore = true       // inconsistent flag
			return nil
		},
	}
	c := newTestClient(t, mc)

	items, err := c.BatchSync(context.Background(), "tutor-bot", "content", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("short page must stop the loop, got %d calls", calls)
	}
	if len(items) != 5 {
		t.Errorf("unexpected item count: %d", len(items))
	}
}

func TestBatchSync_PageCapTerminates(t *testing.T) {
	calls := 0
	mc := &mockConn{
		invokeFn: func(_ context.Context, _ string, args, reply any, _ ...grpc.CallOption) error {
			calls++
			req := args.(*BatchSyncRequest)
			resp := reply.(*BatchSyncResponse)
			resp.Items = makeItems(req.Limit)
			resp.HasMore = true // always claims more
			return nil
		},
	}
	dial := func(_ string) (Conn, error) { return mc, nil }
	c := NewClient(Config{Target: "t", MaxSyncPages: 4, SyncPageLimit: 10},
		testSigner(t), dial, zap.NewNop())

	items, err := c.BatchSync(context.Background(), "tutor-bot", "content", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected page cap at 4, got %d calls", calls)
	}
	if len(items) != 40 {
		t.Errorf("unexpected item count: %d", len(items))
	}
}

func makeItems(n int) []BatchSyncItem {
	items := make([]BatchSyncItem, n)
	for i := range items {
		items[i] = BatchSyncItem{ID: "item", Kind: "content"}
	}
	return items
}

// --- signer tests ---

func TestSigner_SignatureVerifies(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(100 - i)
	}
	s, err := NewSigner("answerhub", seed)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	payload := []byte(`{"envelope":{}}`)
	timestamp := "2026-08-28T12:00:00Z"
	sigHex := s.Sign(payload, timestamp)

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		t.Fatalf("signature is not hex: %v", err)
	}

	digest := sha256.Sum256(payload)
	msg := "answerhub|" + timestamp + "|" + hex.EncodeToString(digest[:])

	pub, err := base64.StdEncoding.DecodeString(s.PublicKey())
	if err != nil {
		t.Fatalf("public key is not base64: %v", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), []byte(msg), sig) {
		t.Error("signature does not verify against the canonical message")
	}
}

func TestLoadSigner_InlineKey(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	s, err := LoadSigner("answerhub", base64.StdEncoding.EncodeToString(seed), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Service() != "answerhub" {
		t.Errorf("unexpected service: %s", s.Service())
	}
}

func TestLoadSigner_KeyFile(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	path := t.TempDir() + "/signing.key"
	if err := os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(seed)+"\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	if _, err := LoadSigner("answerhub", "", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadSigner_Missing(t *testing.T) {
	_, err := LoadSigner("answerhub", "", "")
	if !errors.Is(err, domain.ErrSigningKey) {
		t.Errorf("expected ErrSigningKey, got %v", err)
	}
}

func TestLoadSigner_BadSeedLength(t *testing.T) {
	_, err := LoadSigner("answerhub", base64.StdEncoding.EncodeToString([]byte("short")), "")
	if !errors.Is(err, domain.ErrSigningKey) {
		t.Errorf("expected ErrSigningKey, got %v", err)
	}
}

func TestLoadSigner_BadBase64(t *testing.T) {
	_, err := LoadSigner("answerhub", "%%%not-base64%%%", "")
	if !errors.Is(err, domain.ErrSigningKey) {
		t.Errorf("expected ErrSigningKey, got %v", err)
	}
}
