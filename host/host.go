// Package host carries analysis requests between peers over QUIC. Each
// peer is identified by the ed25519 key behind its self-signed TLS
// certificate, and each connection carries length-prefixed messages on one
// stream per direction.
package host

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	quic "github.com/quic-go/quic-go"

	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/peer"
)

var log = logging.Logger("host")

const (
	DefaultPort = 7411

	// Protocol is negotiated through ALPN on every connection
	Protocol = "lfsr-analysis/1"
)

// HostOption configures a Host during construction
type HostOption func(*Host) error

// Host accepts and dials QUIC connections to other analysis peers
type Host struct {
	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup

	mutex sync.Mutex
	conns map[peer.ID]*Conn

	certificate *tls.Certificate
	endpoint    *net.UDPAddr
	peerID      peer.ID
	privateKey  crypto.PrivateKey
	maxMessage  int
	idleTimeout time.Duration

	transport *quic.Transport
	listener  *quic.Listener

	statsMutex    sync.Mutex
	bytesSent     uint64
	bytesReceived uint64

	addHandler    AddPeerHandler
	removeHandler RemovePeerHandler
}

// AddPeerHandler is called when a new peer connects
type AddPeerHandler func(peer.ID, *Conn)

// RemovePeerHandler is called when a peer disconnects
type RemovePeerHandler func(peer.ID)

// New creates a host listening on the configured UDP endpoint
func New(opts ...HostOption) (*Host, error) {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Host{
		ctx:    ctx,
		cancel: cancel,

		endpoint:    net.UDPAddrFromAddrPort(netip.AddrPortFrom(netip.IPv4Unspecified(), DefaultPort)),
		conns:       make(map[peer.ID]*Conn),
		maxMessage:  DefaultMaxMessageSize,
		idleTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			cancel()
			return nil, err
		}
	}

	if h.privateKey == nil {
		_, sk, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			cancel()
			return nil, err
		}
		if err := WithIdentity(sk)(h); err != nil {
			cancel()
			return nil, err
		}
	}

	var err error
	if h.certificate, err = createTLSCertFromKey(h.privateKey); err != nil {
		cancel()
		return nil, err
	}

	udpConn, err := net.ListenUDP("udp", h.endpoint)
	if err != nil {
		cancel()
		return nil, err
	}
	h.transport = &quic.Transport{Conn: udpConn}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{*h.certificate},
		ClientAuth:   tls.RequireAnyClientCert,
		NextProtos:   []string{Protocol},
	}
	h.listener, err = h.transport.Listen(tlsConfig, h.quicConfig())
	if err != nil {
		_ = h.transport.Close()
		cancel()
		return nil, err
	}

	h.waitGroup.Add(1)
	go h.acceptLoop()

	return h, nil
}

func (h *Host) quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:  h.idleTimeout,
		KeepAlivePeriod: h.idleTimeout / 3,
	}
}

// Connect dials addr and returns the peer ID presented by the remote
func (h *Host) Connect(ctx context.Context, addr net.Addr) (peer.ID, error) {
	// stop dialing when either the host or the caller is done
	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(h.ctx, cancel)
	defer stop()

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{*h.certificate},
		// peers authenticate by key, checked in handleConnection
		InsecureSkipVerify: true,
		NextProtos:         []string{Protocol},
	}
	qconn, err := h.transport.Dial(dialCtx, addr, tlsConfig, h.quicConfig())
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}

	peerID, err := h.handleConnection(qconn)
	if err != nil {
		_ = qconn.CloseWithError(0, err.Error())
		return "", err
	}
	log.Infof("connected to %s at %s", peerID, addr)
	return peerID, nil
}

// Conn returns the live connection to p
func (h *Host) Conn(p peer.ID) (*Conn, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	c, ok := h.conns[p]
	return c, ok
}

// Peers returns the IDs of all connected peers
func (h *Host) Peers() []peer.ID {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	out := make([]peer.ID, 0, len(h.conns))
	for p := range h.conns {
		out = append(out, p)
	}
	return out
}

func (h *Host) LocalAddr() net.Addr {
	return h.transport.Conn.LocalAddr()
}

func (h *Host) ID() peer.ID {
	return h.peerID
}

// Close shuts the listener and every connection, then waits for the
// background goroutines
func (h *Host) Close() error {
	h.cancel()
	err := h.transport.Close()
	h.waitGroup.Wait()
	return err
}

// SetPeerHandlers registers callbacks for peer connection events. The add
// handler is called at once for peers that are already connected. Either
// handler may be nil.
func (h *Host) SetPeerHandlers(addHandler AddPeerHandler, removeHandler RemovePeerHandler) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.addHandler = addHandler
	h.removeHandler = removeHandler

	if addHandler == nil {
		return
	}
	for peerID, c := range h.conns {
		addHandler(peerID, c)
	}
}

func (h *Host) handleConnection(qconn quic.Connection) (peer.ID, error) {
	state := qconn.ConnectionState().TLS
	if len(state.PeerCertificates) == 0 {
		return "", fmt.Errorf("no certificate presented by %s", qconn.RemoteAddr())
	}
	peerID, err := parsePeerIDFromCertificate(state.PeerCertificates[0])
	if err != nil {
		return "", fmt.Errorf("failed parsing for a peer ID from the TLS certificate: %w", err)
	}
	if peerID == h.peerID {
		return "", fmt.Errorf("refusing a connection to ourselves")
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, exists := h.conns[peerID]; exists {
		return "", fmt.Errorf("already connected to peer %s", peerID)
	}

	c := newConn(qconn, peerID, h.maxMessage, h)
	h.conns[peerID] = c
	if h.addHandler != nil {
		h.addHandler(peerID, c)
	}

	h.waitGroup.Add(1)
	go func() {
		defer h.waitGroup.Done()
		<-qconn.Context().Done()

		h.mutex.Lock()
		delete(h.conns, peerID)
		if h.removeHandler != nil {
			h.removeHandler(peerID)
		}
		h.mutex.Unlock()
		log.Debugf("peer %s disconnected", peerID)
	}()
	return peerID, nil
}

func (h *Host) acceptLoop() {
	defer h.waitGroup.Done()

	log.Infof("listening on %s", h.LocalAddr())
	log.Infof("peer ID: %s", h.peerID)

	for {
		qconn, err := h.listener.Accept(h.ctx)
		if err != nil {
			if h.ctx.Err() == nil {
				log.Warnf("listener accept error: %v", err)
			}
			return
		}

		peerID, err := h.handleConnection(qconn)
		if err != nil {
			log.Warnf("failed to handle connection: %v", err)
			_ = qconn.CloseWithError(0, err.Error())
			continue
		}
		log.Infof("accepted connection from %s at %s", peerID, qconn.RemoteAddr())
	}
}

func WithAddrPort(ep netip.AddrPort) HostOption {
	return func(h *Host) error {
		h.endpoint = net.UDPAddrFromAddrPort(ep)
		return nil
	}
}

// WithMaxMessageSize bounds the size of a single received message
func WithMaxMessageSize(n int) HostOption {
	return func(h *Host) error {
		if n <= 0 {
			return fmt.Errorf("invalid max message size: %d", n)
		}
		h.maxMessage = n
		return nil
	}
}

// WithIdleTimeout sets how long a silent connection is kept
func WithIdleTimeout(d time.Duration) HostOption {
	return func(h *Host) error {
		if d <= 0 {
			return fmt.Errorf("invalid idle timeout: %s", d)
		}
		h.idleTimeout = d
		return nil
	}
}

// WithIdentity sets the host's identity from a private key
func WithIdentity(privateKey crypto.PrivateKey) HostOption {
	return func(h *Host) error {
		peerID, err := peerIDFromPrivateKey(privateKey)
		if err != nil {
			return err
		}
		h.privateKey = privateKey
		h.peerID = peerID
		return nil
	}
}

func (h *Host) addBytesSent(n uint64) {
	h.statsMutex.Lock()
	defer h.statsMutex.Unlock()
	h.bytesSent += n
}

func (h *Host) addBytesReceived(n uint64) {
	h.statsMutex.Lock()
	defer h.statsMutex.Unlock()
	h.bytesReceived += n
}

// BytesSent returns the total bytes written to all peers, framing included
func (h *Host) BytesSent() uint64 {
	h.statsMutex.Lock()
	defer h.statsMutex.Unlock()
	return h.bytesSent
}

// BytesReceived returns the total bytes read from all peers
func (h *Host) BytesReceived() uint64 {
	h.statsMutex.Lock()
	defer h.statsMutex.Unlock()
	return h.bytesReceived
}
