package grpcledger

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/idgov/codec"
	"xdao.co/idgov/ledger"
)

// Client implements ledger.Client over a Ledger gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client LedgerClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ ledger.Client = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// RPCTimeout becomes Client.Timeout.
	RPCTimeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc, opts.RPCTimeout), nil
}

// NewClient wraps an existing connection. Close closes cc.
func NewClient(cc *grpc.ClientConn, timeout time.Duration) *Client {
	return &Client{cc: cc, client: NewLedgerClient(cc), Timeout: timeout}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) GetObject(ctx context.Context, id string) (ledger.Object, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.GetObject(ctx, wrapperspb.String(id))
	if err != nil {
		return ledger.Object{}, mapRPC(err)
	}
	var obj ledger.Object
	if err := codec.UnmarshalStrict(reply.GetValue(), &obj); err != nil {
		return ledger.Object{}, fmt.Errorf("grpcledger: decode object: %w", err)
	}
	if obj.ID != id {
		return ledger.Object{}, fmt.Errorf("grpcledger: asked for %s, got %s", id, obj.ID)
	}
	return obj, nil
}

func (c *Client) GetEpoch(ctx context.Context) (uint64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.GetEpoch(ctx, &emptypb.Empty{})
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) Submit(ctx context.Context, payload []byte) (*ledger.Effects, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Submit(ctx, wrapperspb.Bytes(payload))
	if err != nil {
		return nil, mapRPC(err)
	}
	fx := new(ledger.Effects)
	if err := codec.UnmarshalStrict(reply.GetValue(), fx); err != nil {
		return nil, fmt.Errorf("grpcledger: decode effects: %w", err)
	}
	return fx, nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
