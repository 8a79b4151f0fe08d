package mqttv3

import (
	"context"
	"net"
)

// UnixDialer connects to MQTT brokers over Unix domain sockets.
// Addresses take the form unix:///var/run/mqtt.sock.
type UnixDialer struct{}

// NewUnixDialer creates a new Unix socket dialer.
func NewUnixDialer() *UnixDialer {
	return &UnixDialer{}
}

// Dial connects to the Unix socket at the given path.
func (d *UnixDialer) Dial(ctx context.Context, path string) (Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
