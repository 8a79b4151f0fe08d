package mqttv3

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// ErrUnsupportedScheme is returned when a server address uses an unknown scheme.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// Conn represents a network connection for MQTT communication.
type Conn interface {
	net.Conn
}

// Dialer establishes MQTT connections.
type Dialer interface {
	// Dial connects to the address with the given context.
	Dial(ctx context.Context, address string) (Conn, error)
}

// TCPDialer connects to MQTT brokers over TCP.
type TCPDialer struct {
	// Timeout is the maximum time to wait for a connection.
	// Zero means no timeout.
	Timeout time.Duration

	// Proxy, when set, tunnels the connection through an HTTP CONNECT or SOCKS5 proxy.
	Proxy *ProxyDialer
}

// Dial connects to the address.
func (d *TCPDialer) Dial(ctx context.Context, address string) (Conn, error) {
	if d.Proxy != nil {
		return d.Proxy.DialContext(ctx, "tcp", address)
	}

	var dialer net.Dialer
	if d.Timeout > 0 {
		dialer.Timeout = d.Timeout
	}
	return dialer.DialContext(ctx, "tcp", address)
}

// TLSDialer connects to MQTT brokers over TLS.
type TLSDialer struct {
	// Config is the TLS configuration.
	Config *tls.Config

	// Timeout is the maximum time to wait for a connection.
	// Zero means no timeout.
	Timeout time.Duration

	// Proxy, when set, tunnels the connection through an HTTP CONNECT or SOCKS5 proxy
	// before the TLS handshake.
	Proxy *ProxyDialer
}

// Dial connects to the address.
func (d *TLSDialer) Dial(ctx context.Context, address string) (Conn, error) {
	config := d.Config
	if config == nil {
		config = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if d.Proxy != nil {
		raw, err := d.Proxy.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, err
		}

		if config.ServerName == "" {
			config = config.Clone()
			config.ServerName, _, _ = net.SplitHostPort(address)
		}

		conn := tls.Client(raw, config)
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, fmt.Errorf("TLS handshake failed: %w", err)
		}
		return conn, nil
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{
			Timeout: d.Timeout,
		},
		Config: config,
	}
	return dialer.DialContext(ctx, "tcp", address)
}

// defaultPorts maps address schemes to the port used when none is given.
var defaultPorts = map[string]string{
	"tcp":   "1883",
	"mqtt":  "1883",
	"tls":   "8883",
	"ssl":   "8883",
	"mqtts": "8883",
	"ws":    "80",
	"wss":   "443",
	"quic":  "8883",
}

// transportFor picks the dialer for a server address and returns the address
// in the form that dialer expects.
func transportFor(address string, opts *clientOptions) (Dialer, string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, "", fmt.Errorf("invalid address: %w", err)
	}

	host := u.Host
	if port, ok := defaultPorts[u.Scheme]; ok && u.Port() == "" && u.Hostname() != "" {
		host = net.JoinHostPort(u.Hostname(), port)
	}

	switch u.Scheme {
	case "tcp", "mqtt":
		proxy, err := resolveProxy(address, opts)
		if err != nil {
			return nil, "", err
		}
		return &TCPDialer{Timeout: opts.connectTimeout, Proxy: proxy}, host, nil
	case "tls", "ssl", "mqtts":
		proxy, err := resolveProxy(address, opts)
		if err != nil {
			return nil, "", err
		}
		return &TLSDialer{Config: opts.tlsConfig, Timeout: opts.connectTimeout, Proxy: proxy}, host, nil
	case "ws", "wss":
		d := NewWSDialer()
		if opts.tlsConfig != nil {
			d.Dialer.TLSClientConfig = opts.tlsConfig
		}
		if opts.proxyConfig != nil || opts.proxyFromEnv {
			d.SetProxyFromEnvironment()
		}
		return d, address, nil
	case "unix":
		path := u.Path
		if path == "" || u.Host != "" && u.Host != "localhost" {
			path = u.Host + u.Path
		}
		return NewUnixDialer(), path, nil
	case "quic":
		return NewQUICDialer(opts.tlsConfig), host, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// resolveProxy returns the proxy configured for address, or nil when none applies.
func resolveProxy(address string, opts *clientOptions) (*ProxyDialer, error) {
	if opts.proxyConfig != nil {
		return NewProxyDialer(opts.proxyConfig.URL, opts.proxyConfig.Username, opts.proxyConfig.Password)
	}

	if opts.proxyFromEnv {
		proxyURL, err := ProxyFromEnvironment(address)
		if err != nil {
			return nil, fmt.Errorf("proxy configuration error: %w", err)
		}
		if proxyURL != nil {
			return NewProxyDialer(proxyURL.String(), "", "")
		}
	}

	return nil, nil
}
