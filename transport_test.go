package mqttv3

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestCertificate(t testing.TB) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Test"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		DNSNames:              []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)

	certPool := x509.NewCertPool()
	certPool.AppendCertsFromPEM(certPEM)

	return cert, certPool
}

// answerConnect reads one CONNECT from rw and replies with an accepted CONNACK.
func answerConnect(rw io.ReadWriter) error {
	pkt, _, err := ReadPacket(rw, 0)
	if err != nil {
		return err
	}
	if pkt.Type() != PacketCONNECT {
		return errors.New("expected CONNECT, got " + pkt.Type().String())
	}
	_, err = WritePacket(rw, &ConnackPacket{ReturnCode: ConnectAccepted}, 0)
	return err
}

// serveConnect accepts one connection on l and answers its CONNECT.
func serveConnect(l net.Listener) <-chan error {
	done := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		done <- answerConnect(conn)
	}()
	return done
}

// connectClient runs a CONNECT/CONNACK exchange through a client built for address.
func connectClient(t *testing.T, address string, opts ...Option) *Client {
	t.Helper()

	client, err := NewClient(address, append([]Option{WithReadTimeout(5 * time.Second)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connack, err := client.Connect(ctx, &ConnectPacket{ClientID: "transport-test", CleanSession: true, KeepAlive: 30})
	require.NoError(t, err)
	assert.Equal(t, ConnectAccepted, connack.ReturnCode)
	assert.True(t, client.IsOpen())

	return client
}

func TestTransportFor(t *testing.T) {
	tests := []struct {
		address  string
		dialer   any
		dialAddr string
	}{
		{"tcp://broker:1884", &TCPDialer{}, "broker:1884"},
		{"tcp://broker", &TCPDialer{}, "broker:1883"},
		{"mqtt://broker", &TCPDialer{}, "broker:1883"},
		{"tls://broker", &TLSDialer{}, "broker:8883"},
		{"ssl://broker:9000", &TLSDialer{}, "broker:9000"},
		{"mqtts://broker", &TLSDialer{}, "broker:8883"},
		{"ws://broker:8080/mqtt", &WSDialer{}, "ws://broker:8080/mqtt"},
		{"wss://broker/mqtt", &WSDialer{}, "wss://broker/mqtt"},
		{"unix:///var/run/mqtt.sock", &UnixDialer{}, "/var/run/mqtt.sock"},
		{"quic://broker", &QUICDialer{}, "broker:8883"},
		{"tcp://[::1]", &TCPDialer{}, "[::1]:1883"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			dialer, dialAddr, err := transportFor(tt.address, defaultOptions())
			require.NoError(t, err)
			assert.IsType(t, tt.dialer, dialer)
			assert.Equal(t, tt.dialAddr, dialAddr)
		})
	}
}

func TestTransportForErrors(t *testing.T) {
	_, _, err := transportFor("http://broker", defaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, _, err = transportFor("broker:1883", defaultOptions())
	assert.Error(t, err)

	_, _, err = transportFor("tcp://broker\x7f", defaultOptions())
	assert.Error(t, err)
}

func TestTransportForOptions(t *testing.T) {
	config := &tls.Config{ServerName: "broker"}
	opts := applyOptions(WithTLS(config), WithConnectTimeout(3*time.Second))

	dialer, _, err := transportFor("tls://broker", opts)
	require.NoError(t, err)
	tlsDialer := dialer.(*TLSDialer)
	assert.Same(t, config, tlsDialer.Config)
	assert.Equal(t, 3*time.Second, tlsDialer.Timeout)
	assert.Nil(t, tlsDialer.Proxy)

	dialer, _, err = transportFor("wss://broker/mqtt", opts)
	require.NoError(t, err)
	assert.Same(t, config, dialer.(*WSDialer).Dialer.TLSClientConfig)

	opts = applyOptions(WithProxy(ProxyConfig{URL: "socks5://proxy:1080"}))
	dialer, _, err = transportFor("tcp://broker", opts)
	require.NoError(t, err)
	assert.NotNil(t, dialer.(*TCPDialer).Proxy)
}

func TestTCPDialer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, _ := listener.Accept()
		if conn != nil {
			conn.Close()
		}
	}()

	dialer := &TCPDialer{Timeout: 5 * time.Second}
	conn, err := dialer.Dial(context.Background(), listener.Addr().String())
	require.NoError(t, err)
	assert.NotNil(t, conn)
	conn.Close()
}

func TestTCPDialerContextCancel(t *testing.T) {
	dialer := &TCPDialer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dialer.Dial(ctx, "127.0.0.1:1883")
	assert.Error(t, err)
}

func TestTCPClientConnect(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	served := serveConnect(listener)
	client := connectClient(t, "tcp://"+listener.Addr().String())

	require.NoError(t, <-served)
	assert.Equal(t, listener.Addr().String(), client.RemoteAddr())
}

func TestTLSClientConnect(t *testing.T) {
	cert, pool := generateTestCertificate(t)

	listener, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	require.NoError(t, err)
	defer listener.Close()

	served := serveConnect(listener)
	connectClient(t, "tls://"+listener.Addr().String(), WithTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}))

	require.NoError(t, <-served)
}

func TestTLSDialerUntrusted(t *testing.T) {
	cert, _ := generateTestCertificate(t)

	listener, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Read(make([]byte, 1))
		conn.Close()
	}()

	// The default config verifies against system roots.
	dialer := &TLSDialer{Timeout: 5 * time.Second}
	_, err = dialer.Dial(context.Background(), listener.Addr().String())
	assert.Error(t, err)
}

func BenchmarkTCPDialer(b *testing.B) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(b, err)
	defer listener.Close()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	dialer := &TCPDialer{}
	addr := listener.Addr().String()

	b.ReportAllocs()
	for b.Loop() {
		conn, err := dialer.Dial(context.Background(), addr)
		if err != nil {
			b.Fatal(err)
		}
		conn.Close()
	}
}
