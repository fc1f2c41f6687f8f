package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gogo/protobuf/proto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ppopth/lfsr-analysis/cipher"
	"github.com/ppopth/lfsr-analysis/host"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/pb"
)

// ErrClientClosed is returned for calls on a closed client
var ErrClientClosed = errors.New("client closed")

type clientOptions struct {
	retries        uint64
	initialBackoff time.Duration
}

// ClientOption configures Dial
type ClientOption func(*clientOptions)

// WithDialRetries sets how many failed dials are retried
func WithDialRetries(n uint64) ClientOption {
	return func(o *clientOptions) {
		o.retries = n
	}
}

// WithInitialBackoff sets the wait after the first failed dial. Later
// waits grow exponentially.
func WithInitialBackoff(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.initialBackoff = d
	}
}

// Client sends requests to one server and matches the responses by id
type Client struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	conn   *host.Conn
	server peer.ID
	nextID atomic.Uint64

	pending *xsync.MapOf[uint64, chan *pb.Response]

	// done is closed when the receive loop ends; err says why
	done chan struct{}
	err  error
}

// Dial connects h to the server at addr, retrying with exponential backoff
func Dial(ctx context.Context, h *host.Host, addr net.Addr, opts ...ClientOption) (*Client, error) {
	o := clientOptions{
		retries:        5,
		initialBackoff: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.initialBackoff
	var server peer.ID
	err := backoff.RetryNotify(func() error {
		var err error
		server, err = h.Connect(ctx, addr)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, o.retries), ctx), func(err error, d time.Duration) {
		log.Warnf("dial %s failed, retrying in %s: %v", addr, d.Round(time.Millisecond), err)
	})
	if err != nil {
		return nil, err
	}

	conn, ok := h.Conn(server)
	if !ok {
		return nil, fmt.Errorf("connection to %s closed right after dialing", server)
	}
	return newClient(conn), nil
}

func newClient(conn *host.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ctx:     ctx,
		cancel:  cancel,
		conn:    conn,
		server:  conn.RemotePeer(),
		pending: xsync.NewMapOf[uint64, chan *pb.Response](),
		done:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.receiveLoop()
	return c
}

// Server returns the peer ID of the server
func (c *Client) Server() peer.ID {
	return c.server
}

// Close drops the connection. Calls in flight fail.
func (c *Client) Close() error {
	c.cancel()
	err := c.conn.Close()
	c.wg.Wait()
	return err
}

func (c *Client) receiveLoop() {
	defer c.wg.Done()
	defer close(c.done)

	for {
		data, err := c.conn.Receive(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				err = ErrClientClosed
			}
			c.err = err
			return
		}

		resp := &pb.Response{}
		if err := proto.Unmarshal(data, resp); err != nil {
			log.Warnf("invalid response received from %s: %v", c.server, err)
			continue
		}
		ch, ok := c.pending.LoadAndDelete(resp.Id)
		if !ok {
			log.Debugf("response %d matches no pending request", resp.Id)
			continue
		}
		ch <- resp
	}
}

// call sends req under a fresh id and waits for the matching response
func (c *Client) call(ctx context.Context, req *pb.Request) (*pb.Response, error) {
	req.Id = c.nextID.Add(1)
	if deadline, ok := ctx.Deadline(); ok && req.TimeoutMs == 0 {
		if ms := time.Until(deadline).Milliseconds(); ms > 0 {
			req.TimeoutMs = uint64(ms)
		}
	}

	ch := make(chan *pb.Response, 1)
	c.pending.Store(req.Id, ch)
	defer c.pending.Delete(req.Id)

	data, err := proto.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := c.conn.Send(data); err != nil {
		return nil, fmt.Errorf("send request %d: %w", req.Id, err)
	}

	select {
	case resp := <-ch:
		return resp, responseError(resp)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.err
	}
}

func polynomialRequest(kind pb.Request_Kind, in order.Input, strategy order.Strategy) *pb.Request {
	return &pb.Request{
		Kind:         kind,
		FieldOrder:   in.FieldOrder,
		Coefficients: in.Coefficients,
		Degree:       int64(in.Degree),
		Strategy:     strategy.String(),
	}
}

// Analyze asks the server for the full analysis of a polynomial
func (c *Client) Analyze(ctx context.Context, in order.Input, strategy order.Strategy) (*order.Result, error) {
	resp, err := c.call(ctx, polynomialRequest(pb.Request_ANALYZE, in, strategy))
	if err != nil {
		return nil, err
	}
	return resultFromPB(resp.Order)
}

// Order asks the server for the order of a polynomial
func (c *Client) Order(ctx context.Context, in order.Input, strategy order.Strategy) (order.Value, error) {
	resp, err := c.call(ctx, polynomialRequest(pb.Request_ORDER, in, strategy))
	if err != nil {
		return order.Undefined, err
	}
	if resp.Order == nil {
		return order.Undefined, fmt.Errorf("response carries no result")
	}
	return order.ParseValue(resp.Order.PolynomialOrder)
}

// Keystream asks the server for length keystream elements of its cipher.
// A nil iv stands for the all-zero IV.
func (c *Client) Keystream(ctx context.Context, key, iv []uint64, length int) ([]uint64, error) {
	if length < 0 {
		return nil, fmt.Errorf("negative keystream length %d", length)
	}
	resp, err := c.call(ctx, &pb.Request{
		Kind:   pb.Request_KEYSTREAM,
		Key:    key,
		Iv:     iv,
		HasIv:  iv != nil,
		Length: uint64(length),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Keystream) != length {
		return nil, fmt.Errorf("server returned %d elements, asked for %d", len(resp.Keystream), length)
	}
	return resp.Keystream, nil
}

// Describe asks the server for the structure of its cipher
func (c *Client) Describe(ctx context.Context) (cipher.Description, error) {
	var d cipher.Description
	resp, err := c.call(ctx, &pb.Request{Kind: pb.Request_DESCRIBE})
	if err != nil {
		return d, err
	}
	err = json.Unmarshal([]byte(resp.Description), &d)
	return d, err
}
