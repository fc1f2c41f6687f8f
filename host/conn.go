package host

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	quic "github.com/quic-go/quic-go"

	"github.com/libp2p/go-libp2p/core/peer"
)

// DefaultMaxMessageSize bounds a single message unless WithMaxMessageSize
// says otherwise
const DefaultMaxMessageSize = 4 << 20

// ErrMessageTooLarge is returned for frames longer than the limit of the
// receiving or sending side
var ErrMessageTooLarge = errors.New("message too large")

type byteCounter interface {
	addBytesSent(n uint64)
	addBytesReceived(n uint64)
}

// Conn is a message connection to one peer. Each side opens its own stream
// on the first Send and reads the stream opened by the other side.
// Send and Receive may be called concurrently.
type Conn struct {
	conn    quic.Connection
	remote  peer.ID
	maxSize int
	counter byteCounter

	sendMutex  sync.Mutex
	sendStream quic.Stream

	recvMutex  sync.Mutex
	recvStream quic.Stream
	recvReady  chan struct{}
	recvErr    error
}

func newConn(qconn quic.Connection, remote peer.ID, maxSize int, counter byteCounter) *Conn {
	c := &Conn{
		conn:      qconn,
		remote:    remote,
		maxSize:   maxSize,
		counter:   counter,
		recvReady: make(chan struct{}),
	}
	go c.acceptStream()
	return c
}

func (c *Conn) acceptStream() {
	stream, err := c.conn.AcceptStream(c.conn.Context())
	if err != nil {
		c.recvErr = err
	} else {
		c.recvStream = stream
	}
	close(c.recvReady)
}

// Send writes one length-prefixed message
func (c *Conn) Send(buf []byte) error {
	if len(buf) > c.maxSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(buf))
	}

	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if c.sendStream == nil {
		stream, err := c.conn.OpenStreamSync(c.conn.Context())
		if err != nil {
			return err
		}
		c.sendStream = stream
	}

	frame := make([]byte, 4+len(buf))
	binary.BigEndian.PutUint32(frame, uint32(len(buf)))
	copy(frame[4:], buf)
	if _, err := c.sendStream.Write(frame); err != nil {
		return err
	}
	if c.counter != nil {
		c.counter.addBytesSent(uint64(len(frame)))
	}
	return nil
}

// Receive reads the next message. A Receive interrupted by ctx may leave
// the stream inside a frame, so the caller should close the connection
// afterwards.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-c.recvReady:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if c.recvErr != nil {
		return nil, c.recvErr
	}

	c.recvMutex.Lock()
	defer c.recvMutex.Unlock()

	// unblock the read when ctx ends
	stop := context.AfterFunc(ctx, func() {
		_ = c.recvStream.SetReadDeadline(time.Now())
	})
	defer func() {
		if stop() {
			return
		}
		_ = c.recvStream.SetReadDeadline(time.Time{})
	}()

	var lengthBuf [4]byte
	if _, err := io.ReadFull(c.recvStream, lengthBuf[:]); err != nil {
		return nil, c.readError(ctx, err)
	}
	length := binary.BigEndian.Uint32(lengthBuf[:])
	if int64(length) > int64(c.maxSize) {
		return nil, fmt.Errorf("%w: %d bytes from %s", ErrMessageTooLarge, length, c.remote)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(c.recvStream, buf); err != nil {
		return nil, c.readError(ctx, err)
	}
	if c.counter != nil {
		c.counter.addBytesReceived(uint64(4 + len(buf)))
	}
	return buf, nil
}

func (c *Conn) readError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// RemotePeer returns the ID proven by the remote certificate
func (c *Conn) RemotePeer() peer.ID {
	return c.remote
}

func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Done is closed when the connection goes away
func (c *Conn) Done() <-chan struct{} {
	return c.conn.Context().Done()
}

func (c *Conn) Close() error {
	return c.conn.CloseWithError(0, "")
}
