package mqttv3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrUnexpectedPacket is returned by Connect when the server answers with
// something other than CONNACK.
var ErrUnexpectedPacket = errors.New("unexpected packet")

// Client drives one MQTT connection: it sends packets and receives them, one
// blocking operation at a time.
//
// A Client does not run goroutines and does not retry. Any failure that leaves
// the byte stream in an unknown position closes the connection; the next Send
// opens a fresh one. One goroutine may Send while another Receives; concurrent
// Sends or concurrent Receives must be serialized by the caller.
type Client struct {
	address  string
	dialAddr string
	dialer   Dialer
	options  *clientOptions
	logger   Logger
	metrics  *ClientMetrics
	scratch  []byte

	// mu guards conn only; it is never held across I/O.
	mu   sync.Mutex
	conn net.Conn

	lastErr atomic.Pointer[OpError]
}

// NewClient creates a client for the server at address. The connection is
// opened lazily by the first Send or explicitly by Open.
//
// The address scheme selects the transport: tcp://, mqtt://, tls://, ssl://,
// mqtts://, ws://, wss://, unix:// and quic://.
func NewClient(address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errors.New("mqttv3: empty server address")
	}

	options := applyOptions(opts...)

	c := &Client{
		address:  address,
		dialAddr: address,
		dialer:   options.dialer,
		options:  options,
		logger:   options.logger.WithFields(LogFields{LogFieldAddress: address}),
		metrics:  NewClientMetrics(options.metrics),
		scratch:  make([]byte, options.scratchSize),
	}

	if c.dialer == nil {
		dialer, dialAddr, err := transportFor(address, options)
		if err != nil {
			return nil, fmt.Errorf("mqttv3: %w", err)
		}
		c.dialer = dialer
		c.dialAddr = dialAddr
	}

	return c, nil
}

// Open establishes the connection. It is a no-op when the client is already open.
// The connect timeout bounds the attempt in addition to ctx.
func (c *Client) Open(ctx context.Context) error {
	_, err := c.open(ctx)
	return err
}

func (c *Client) open(ctx context.Context) (net.Conn, error) {
	if conn := c.current(); conn != nil {
		return conn, nil
	}

	if c.options.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.connectTimeout)
		defer cancel()
	}

	start := time.Now()

	conn, err := c.dialer.Dial(ctx, c.dialAddr)
	if err != nil {
		return nil, c.fail(nil, newOpError("open", ErrConnect, err))
	}

	c.mu.Lock()
	if c.conn != nil {
		// Lost a race with another Open; keep the connection already installed.
		existing := c.conn
		c.mu.Unlock()
		conn.Close()
		return existing, nil
	}
	c.conn = conn
	c.mu.Unlock()

	c.metrics.ConnectionOpened()
	c.logger.Debug("connection opened", LogFields{
		LogFieldDuration: time.Since(start).String(),
	})

	return conn, nil
}

// Send writes pkt to the server, opening the connection first if needed.
//
// Encoding failures return ErrEncode and send nothing. Write failures return
// ErrTransport and close the connection; the whole packet must be resent.
func (c *Client) Send(pkt Packet) error {
	conn, err := c.open(context.Background())
	if err != nil {
		return err
	}

	if pkt == nil {
		return c.fail(conn, newOpError("send", ErrEncode, ErrEmptyPacket))
	}

	buf := getBytesBuffer()
	defer putBytesBuffer(buf)

	if err := encodeTo(buf, pkt, c.options.maxPacketSize); err != nil {
		return c.fail(conn, newOpError("send", ErrEncode, err))
	}

	if limiter := c.options.sendLimiter; limiter != nil {
		if r := limiter.Reserve(); r.OK() {
			time.Sleep(r.Delay())
		}
	}

	if c.options.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(c.options.writeTimeout)); err != nil {
			return c.fail(conn, newOpError("send", ErrTransport, err))
		}
	}

	data := buf.Bytes()
	n, err := conn.Write(data)
	if err == nil && n != len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return c.fail(conn, newOpError("send", ErrTransport, err))
	}

	c.metrics.PacketSent(pkt.Type(), n)
	c.logger.Debug("packet sent", packetFields(pkt, n))

	return nil
}

// Receive reads the next packet from the server. It does not open the
// connection; receiving on a closed client fails with ErrHeader.
//
// A packet is returned only when it is complete. Header and body failures
// close the connection; ErrFactory and ErrIncompleteBody leave it open.
func (c *Client) Receive() (Packet, error) {
	conn := c.current()
	if conn == nil {
		return nil, c.fail(nil, newOpError("receive", ErrHeader, ErrClientClosed))
	}

	pr := packetReader{
		r:       &deadlineReader{conn: conn, timeout: c.options.readTimeout},
		scratch: c.scratch,
		maxSize: c.options.maxPacketSize,
		op:      "receive",
	}

	pkt, header, n, err := pr.readPacket()
	if err != nil {
		var opErr *OpError
		if !errors.As(err, &opErr) {
			opErr = newOpError("receive", ErrBodyTransport, err)
		}
		return nil, c.fail(conn, opErr)
	}

	c.metrics.PacketReceived(pkt.Type(), n, header.RemainingLength)
	fields := packetFields(pkt, n)
	fields[LogFieldRemainingLength] = header.RemainingLength
	c.logger.Debug("packet received", fields)

	return pkt, nil
}

// Connect opens the connection, sends pkt and waits for the CONNACK.
// A refused connection is closed and reported as a *ConnackError.
func (c *Client) Connect(ctx context.Context, pkt *ConnectPacket) (*ConnackPacket, error) {
	if err := c.Open(ctx); err != nil {
		return nil, err
	}

	if err := c.Send(pkt); err != nil {
		return nil, err
	}

	resp, err := c.Receive()
	if err != nil {
		return nil, err
	}

	connack, ok := resp.(*ConnackPacket)
	if !ok {
		c.Close()
		return nil, fmt.Errorf("%w: %s while waiting for CONNACK", ErrUnexpectedPacket, resp.Type())
	}

	if connack.ReturnCode != ConnectAccepted {
		c.Close()
		return connack, &ConnackError{ReturnCode: connack.ReturnCode}
	}

	return connack, nil
}

// Close closes the connection. It is safe to call on a closed client and
// from another goroutine to unblock a pending Receive.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.metrics.ConnectionClosed()
	c.logger.Debug("connection closed", nil)

	return conn.Close()
}

// IsOpen reports whether the client holds an open connection.
func (c *Client) IsOpen() bool {
	return c.current() != nil
}

// LastError returns the most recent failure that closed the connection or
// prevented it from opening. It is meant for diagnostics.
func (c *Client) LastError() error {
	if err := c.lastErr.Load(); err != nil {
		return err
	}
	return nil
}

// RemoteAddr returns the address of the connected server, or the configured
// address when the client is closed.
func (c *Client) RemoteAddr() string {
	if conn := c.current(); conn != nil && conn.RemoteAddr() != nil {
		return conn.RemoteAddr().String()
	}
	return c.address
}

func (c *Client) current() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// fail is the single exit for every failed operation. It closes conn when the
// error kind requires it, records, logs and counts the failure, and returns err.
func (c *Client) fail(conn net.Conn, err *OpError) error {
	fields := LogFields{
		LogFieldOp:    err.Op,
		LogFieldError: err.Error(),
	}

	switch {
	case err.closesConnection():
		c.lastErr.Store(err)
		if conn != nil {
			c.drop(conn)
		}
		c.logger.Error("operation failed, connection closed", fields)
	case err.Kind == ErrConnect:
		c.lastErr.Store(err)
		c.logger.Error("operation failed", fields)
	default:
		c.logger.Warn("operation failed", fields)
	}

	c.metrics.OperationFailed(err.Op, err.Kind)

	return err
}

// drop closes conn if it is still the current connection.
func (c *Client) drop(conn net.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	conn.Close()
	c.metrics.ConnectionClosed()
}

func packetFields(pkt Packet, n int) LogFields {
	fields := LogFields{
		LogFieldPacketType: pkt.Type().String(),
		LogFieldBytes:      n,
	}
	if p, ok := pkt.(PacketWithID); ok && p.GetPacketID() != 0 {
		fields[LogFieldPacketID] = p.GetPacketID()
	}
	return fields
}

// deadlineReader applies the read timeout to every read from conn.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			return 0, err
		}
	}
	return r.conn.Read(p)
}
