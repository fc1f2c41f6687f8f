// Package service answers analysis and keystream requests from remote
// peers. Requests and responses are pb messages carried by a host.Host.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gogo/protobuf/proto"
	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/peer"
	"golang.org/x/sync/errgroup"

	"github.com/ppopth/lfsr-analysis/cipher"
	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/host"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/pb"
)

var log = logging.Logger("service")

const (
	DefaultConcurrency  = 8
	DefaultDedupTTL     = 2 * time.Minute
	DefaultMaxKeystream = 1 << 20
)

// requestKey identifies a request; ids are only unique per peer
type requestKey struct {
	peer peer.ID
	id   uint64
}

// Option configures a Server
type Option func(*Server) error

// WithConcurrency bounds the number of requests processed at once
func WithConcurrency(n int) Option {
	return func(s *Server) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be positive, got %d", n)
		}
		s.concurrency = n
		return nil
	}
}

// WithDedupTTL sets how long a request id is remembered. A request whose
// id was seen from the same peer within the TTL is dropped.
func WithDedupTTL(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return fmt.Errorf("dedup ttl must be positive, got %s", d)
		}
		s.dedupTTL = d
		return nil
	}
}

// WithCache makes analyses go through c
func WithCache(c order.Cache) Option {
	return func(s *Server) error {
		s.cache = c
		return nil
	}
}

// WithCipher sets the cipher design used for keystream and describe
// requests. The default is cipher.ReferenceConfig.
func WithCipher(cfg cipher.Config) Option {
	return func(s *Server) error {
		s.cipherCfg = cfg
		return nil
	}
}

// WithRequestTimeout bounds the processing time of every request. A
// request carrying a shorter timeout of its own gets that one.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d < 0 {
			return fmt.Errorf("negative request timeout %s", d)
		}
		s.requestTimeout = d
		return nil
	}
}

// WithMaxKeystream caps the length of a requested keystream
func WithMaxKeystream(n int) Option {
	return func(s *Server) error {
		if n < 1 {
			return fmt.Errorf("max keystream must be positive, got %d", n)
		}
		s.maxKeystream = n
		return nil
	}
}

// Server serves requests arriving on every connection of a host
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	group  errgroup.Group

	mutex  sync.Mutex
	closed bool

	host *host.Host
	seen *TimeCache[requestKey]

	concurrency    int
	dedupTTL       time.Duration
	cache          order.Cache
	cipherCfg      cipher.Config
	description    string
	requestTimeout time.Duration
	maxKeystream   int
}

// NewServer starts serving on h. Peers already connected are served too.
func NewServer(h *host.Host, opts ...Option) (*Server, error) {
	s := &Server{
		host:         h,
		concurrency:  DefaultConcurrency,
		dedupTTL:     DefaultDedupTTL,
		cipherCfg:    cipher.ReferenceConfig(),
		maxKeystream: DefaultMaxKeystream,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	c, err := cipher.New(s.cipherCfg)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	desc, err := json.Marshal(c.Describe())
	if err != nil {
		return nil, err
	}
	s.description = string(desc)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.seen = NewTimeCache[requestKey](s.dedupTTL)
	s.group.SetLimit(s.concurrency)

	h.SetPeerHandlers(s.handleAddPeer, s.handleRemovePeer)
	return s, nil
}

// Close stops reading requests and waits for the ones in flight
func (s *Server) Close() error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return nil
	}
	s.closed = true
	s.mutex.Unlock()

	s.host.SetPeerHandlers(nil, nil)
	s.cancel()
	s.wg.Wait()
	err := s.group.Wait()
	s.seen.Close()
	return err
}

// handleAddPeer starts the request loop of a new peer
func (s *Server) handleAddPeer(peerID peer.ID, conn *host.Conn) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			data, err := conn.Receive(s.ctx)
			if err != nil {
				log.Debugf("stop reading from %s: %v", peerID, err)
				return
			}

			req := &pb.Request{}
			if err := proto.Unmarshal(data, req); err != nil {
				log.Warnf("invalid request received from %s: %v", peerID, err)
				continue
			}
			if s.seen.CheckAndAdd(requestKey{peer: peerID, id: req.Id}) {
				log.Debugf("dropping duplicate request %d from %s", req.Id, peerID)
				continue
			}

			// blocks while the concurrency limit is reached
			s.group.Go(func() error {
				sendResponse(s.handle(req), conn)
				return nil
			})
		}
	}()
}

func (s *Server) handleRemovePeer(peerID peer.ID) {
	log.Debugf("peer %s left", peerID)
}

// handle computes the response to one request
func (s *Server) handle(req *pb.Request) *pb.Response {
	ctx := s.ctx
	timeout := s.requestTimeout
	if req.TimeoutMs > 0 {
		if own := time.Duration(req.TimeoutMs) * time.Millisecond; timeout == 0 || own < timeout {
			timeout = own
		}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.dispatch(ctx, req)
	if err != nil {
		resp = &pb.Response{ErrorKind: errorKind(err), Error: err.Error()}
		log.Infof("request %d (%s) failed after %s: %v", req.Id, req.Kind, time.Since(start), err)
	} else {
		log.Debugf("request %d (%s) done in %s", req.Id, req.Kind, time.Since(start))
	}
	resp.Id = req.Id
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *pb.Request) (*pb.Response, error) {
	switch req.Kind {
	case pb.Request_ANALYZE:
		return s.analyze(ctx, req)
	case pb.Request_ORDER:
		return s.polynomialOrder(ctx, req)
	case pb.Request_KEYSTREAM:
		return s.keystream(ctx, req)
	case pb.Request_DESCRIBE:
		return &pb.Response{Description: s.description}, nil
	default:
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("unknown request kind %s", req.Kind)}
	}
}

// orderOptions reads the polynomial and strategy of a request
func (s *Server) orderOptions(req *pb.Request) (order.Input, []order.Option, error) {
	in := order.Input{
		Coefficients: req.Coefficients,
		FieldOrder:   req.FieldOrder,
		Degree:       int(req.Degree),
	}
	strategy, err := order.ParseStrategy(req.Strategy)
	if err != nil {
		return in, nil, &InvalidRequestError{Reason: err.Error()}
	}
	opts := []order.Option{order.WithStrategy(strategy)}
	if s.cache != nil {
		opts = append(opts, order.WithCache(s.cache))
	}
	return in, opts, nil
}

func (s *Server) analyze(ctx context.Context, req *pb.Request) (*pb.Response, error) {
	in, opts, err := s.orderOptions(req)
	if err != nil {
		return nil, err
	}
	p, err := in.Polynomial()
	if err != nil {
		return nil, &InvalidRequestError{Reason: err.Error()}
	}
	r, err := order.Analyze(ctx, p, opts...)
	if err != nil {
		return nil, err
	}
	return &pb.Response{Order: resultToPB(r)}, nil
}

func (s *Server) polynomialOrder(ctx context.Context, req *pb.Request) (*pb.Response, error) {
	in, opts, err := s.orderOptions(req)
	if err != nil {
		return nil, err
	}
	p, err := in.Polynomial()
	if err != nil {
		return nil, &InvalidRequestError{Reason: err.Error()}
	}
	v, err := order.Order(ctx, p, opts...)
	if err != nil {
		return nil, err
	}
	return &pb.Response{Order: &pb.OrderResult{
		FieldOrder:           req.FieldOrder,
		Coefficients:         p.Uint64s(),
		PolynomialOrder:      v.String(),
		CombinedOrder:        order.Undefined.String(),
		TheoreticalMaxPeriod: order.MaxPeriod(p).String(),
	}}, nil
}

func (s *Server) keystream(ctx context.Context, req *pb.Request) (*pb.Response, error) {
	if req.Length > uint64(s.maxKeystream) {
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("keystream length %d exceeds %d", req.Length, s.maxKeystream)}
	}
	c, err := cipher.New(s.cipherCfg)
	if err != nil {
		return nil, err
	}
	key, err := elements(c.Field(), "key", req.Key)
	if err != nil {
		return nil, err
	}
	var iv []field.Element
	if req.HasIv {
		if iv, err = elements(c.Field(), "iv", req.Iv); err != nil {
			return nil, err
		}
	}
	ks, err := c.GenerateKeystream(key, iv, int(req.Length))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &pb.Response{Keystream: ks.Uint64s()}, nil
}

// sendResponse marshals and sends a response to a connection
func sendResponse(resp *pb.Response, conn *host.Conn) {
	log.Debugf("sending response to %s: %v", conn.RemotePeer(), resp)

	buffer, err := proto.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal response: %v", err)
		return
	}
	if err := conn.Send(buffer); err != nil {
		log.Errorf("failed to send response to %s: %v", conn.RemotePeer(), err)
	}
}
