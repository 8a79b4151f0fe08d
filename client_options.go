package mqttv3

import (
	"crypto/tls"
	"time"

	"golang.org/x/time/rate"
)

// Packet size limits.
const (
	// MaxPacketSizeProtocol is the largest remaining length the wire format can express.
	MaxPacketSizeProtocol uint32 = maxVarint

	// MaxPacketSizeDefault is the default packet size limit (4MB).
	MaxPacketSizeDefault uint32 = 4 * 1024 * 1024

	// MaxPacketSizeMinimal suits constrained devices (16KB).
	MaxPacketSizeMinimal uint32 = 16 * 1024
)

// clientOptions holds configuration for a Client.
type clientOptions struct {
	// TLS configuration
	tlsConfig *tls.Config

	// Timeouts
	connectTimeout time.Duration
	writeTimeout   time.Duration
	readTimeout    time.Duration

	// Limits
	maxPacketSize uint32
	scratchSize   int
	sendLimiter   *rate.Limiter

	// Transport
	dialer       Dialer
	proxyConfig  *ProxyConfig
	proxyFromEnv bool

	// Observability
	logger  Logger
	metrics Metrics
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *clientOptions {
	return &clientOptions{
		connectTimeout: 10 * time.Second,
		writeTimeout:   5 * time.Second,
		readTimeout:    5 * time.Second,
		maxPacketSize:  MaxPacketSizeDefault,
		scratchSize:    DefaultScratchSize,
		logger:         NewNoOpLogger(),
		metrics:        NoOpMetrics{},
	}
}

// Option configures a Client.
type Option func(*clientOptions)

// WithTLS sets the TLS configuration for tls://, wss:// and quic:// servers.
func WithTLS(config *tls.Config) Option {
	return func(o *clientOptions) {
		o.tlsConfig = config
	}
}

// WithConnectTimeout sets the timeout for establishing the transport.
// Zero means no timeout beyond the context passed to Open.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.connectTimeout = d
	}
}

// WithWriteTimeout sets the deadline applied to every Send.
// Zero disables write deadlines.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.writeTimeout = d
	}
}

// WithReadTimeout sets the deadline applied to every Receive.
// Zero disables read deadlines, so Receive blocks until a packet arrives.
func WithReadTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.readTimeout = d
	}
}

// WithMaxPacketSize sets the largest remaining length, the packet size without
// the fixed header, accepted by Receive and written by Send.
//
// Common values:
//   - MaxPacketSizeDefault (4MB): typical broker default
//   - MaxPacketSizeMinimal (16KB): constrained IoT devices
//
// Zero and values exceeding MaxPacketSizeProtocol select the protocol maximum.
//
// Default: MaxPacketSizeDefault (4MB)
func WithMaxPacketSize(size uint32) Option {
	return func(o *clientOptions) {
		if size == 0 || size > MaxPacketSizeProtocol {
			size = MaxPacketSizeProtocol
		}
		o.maxPacketSize = size
	}
}

// WithScratchSize sets the size of the buffer payloads are read through.
// Values below 1 keep DefaultScratchSize.
func WithScratchSize(size int) Option {
	return func(o *clientOptions) {
		if size > 0 {
			o.scratchSize = size
		}
	}
}

// WithSendRateLimit limits outbound packets to perSecond with the given burst.
// Send waits for a token before writing. A non-positive rate removes the limit.
func WithSendRateLimit(perSecond float64, burst int) Option {
	return func(o *clientOptions) {
		if perSecond <= 0 {
			o.sendLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.sendLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithDialer replaces the scheme-selected transport with a custom dialer.
// The server address is passed to it unchanged.
func WithDialer(d Dialer) Option {
	return func(o *clientOptions) {
		o.dialer = d
	}
}

// WithProxy routes tcp:// and tls:// connections through an HTTP CONNECT or SOCKS5 proxy.
func WithProxy(config ProxyConfig) Option {
	return func(o *clientOptions) {
		o.proxyConfig = &config
	}
}

// WithProxyFromEnvironment enables proxy discovery from HTTP_PROXY, HTTPS_PROXY
// and NO_PROXY. An explicit WithProxy takes precedence.
func WithProxyFromEnvironment(enabled bool) Option {
	return func(o *clientOptions) {
		o.proxyFromEnv = enabled
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(o *clientOptions) {
		if logger == nil {
			logger = NewNoOpLogger()
		}
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector. A nil collector disables metrics.
func WithMetrics(metrics Metrics) Option {
	return func(o *clientOptions) {
		if metrics == nil {
			metrics = NoOpMetrics{}
		}
		o.metrics = metrics
	}
}

// applyOptions applies all options to the default options.
func applyOptions(opts ...Option) *clientOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
