package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitalvas/mqttv3"
)

// session bundles one client with the logger and metrics endpoint serving it.
type session struct {
	cfg     config
	client  *mqttv3.Client
	logger  mqttv3.Logger
	metrics *http.Server
}

// newSession builds the client described by cfg. Extra options are applied
// after the configured ones.
func newSession(cfg config, extra ...mqttv3.Option) (*session, error) {
	s := &session{
		cfg:    cfg,
		logger: mqttv3.NewZerologLogger(os.Stderr, cfg.LogLevel),
	}

	var metrics mqttv3.Metrics = mqttv3.NoOpMetrics{}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := s.serveMetrics(reg); err != nil {
			return nil, err
		}
		metrics = mqttv3.NewPrometheusMetrics(reg)
	}

	opts := append(cfg.clientOptions(s.logger, metrics), extra...)
	client, err := mqttv3.NewClient(cfg.Server, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client

	return s, nil
}

func (s *session) serveMetrics(reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", s.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	s.metrics = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", mqttv3.LogFields{mqttv3.LogFieldError: err.Error()})
		}
	}()

	s.logger.Info("serving metrics", mqttv3.LogFields{mqttv3.LogFieldAddress: ln.Addr().String()})
	return nil
}

// connect opens the connection and completes the CONNECT handshake.
func (s *session) connect(ctx context.Context) (*mqttv3.ConnackPacket, error) {
	return s.client.Connect(ctx, s.cfg.connectPacket())
}

// await receives until a packet of type want arrives. A non-zero id must also
// match the packet identifier. Other packets are logged and skipped.
func (s *session) await(want mqttv3.PacketType, id uint16) (mqttv3.Packet, error) {
	for {
		pkt, err := s.client.Receive()
		if err != nil {
			return nil, err
		}

		if pkt.Type() == want {
			withID, ok := pkt.(mqttv3.PacketWithID)
			if id == 0 || (ok && withID.GetPacketID() == id) {
				return pkt, nil
			}
		}

		s.logger.Debug("skipping packet", mqttv3.LogFields{
			mqttv3.LogFieldPacketType: pkt.Type().String(),
		})
	}
}

// disconnect sends DISCONNECT on an open connection.
func (s *session) disconnect() {
	if !s.client.IsOpen() {
		return
	}
	if err := s.client.Send(&mqttv3.DisconnectPacket{}); err != nil {
		s.logger.Warn("disconnect failed", mqttv3.LogFields{mqttv3.LogFieldError: err.Error()})
	}
}

// Close closes the client and stops the metrics endpoint.
func (s *session) Close() error {
	var err error
	if s.client != nil {
		err = s.client.Close()
	}

	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = errors.Join(err, s.metrics.Shutdown(ctx))
	}

	return err
}
