package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitalvas/mqttv3"
	"github.com/vitalvas/mqttv3/extensions/router"
	"golang.org/x/sync/errgroup"
)

var (
	errCountReached   = errors.New("message count reached")
	errConnectionLost = errors.New("connection lost")
	errSubackMismatch = errors.New("SUBACK return codes do not match the subscription")
)

func subCmd(flags *globalFlags) *cobra.Command {
	var (
		qos   uint8
		count int
	)

	cmd := &cobra.Command{
		Use:   "sub FILTER...",
		Short: "Subscribe and print received messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}

			// PINGRESP arrives every keep-alive/2, so silence past that is a dead link.
			cfg.ReadTimeout = time.Duration(cfg.KeepAlive) * time.Second * 3 / 2

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSub(ctx, s, args, qos, count, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Uint8VarP(&qos, "qos", "q", 0, "maximum QoS requested for every filter")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many messages (0 runs until interrupted)")

	return cmd
}

func runSub(ctx context.Context, s *session, filters []string, qos byte, count int, out io.Writer) error {
	r := router.New()
	for _, filter := range filters {
		r.Handle(func(pkt *mqttv3.PublishPacket) {
			fmt.Fprintf(out, "%s %s\n", pkt.Topic, pkt.Payload)
		}, router.WithTopic(filter), router.WithSubscriptionQoS(qos))
	}

	subscribe := r.Subscribe(1)
	if err := subscribe.Validate(); err != nil {
		return err
	}

	if _, err := s.connect(ctx); err != nil {
		return err
	}
	defer s.disconnect()

	if err := s.subscribe(subscribe); err != nil {
		return err
	}

	var sendMu sync.Mutex
	send := func(pkt mqttv3.Packet) error {
		sendMu.Lock()
		defer sendMu.Unlock()

		// Send would silently reopen a connection the reader lost.
		if !s.client.IsOpen() {
			return errConnectionLost
		}
		return s.client.Send(pkt)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		received := 0
		for {
			pkt, err := s.client.Receive()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}

			switch p := pkt.(type) {
			case *mqttv3.PublishPacket:
				r.Route(p)
				if err := acknowledge(p, send); err != nil {
					return err
				}
				received++
				if count > 0 && received >= count {
					return errCountReached
				}
			case *mqttv3.PubrelPacket:
				if err := send(&mqttv3.PubcompPacket{PacketID: p.PacketID}); err != nil {
					return err
				}
			}
		}
	})

	if keepAlive := time.Duration(s.cfg.KeepAlive) * time.Second; keepAlive > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(keepAlive / 2)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := send(&mqttv3.PingreqPacket{}); err != nil {
						return err
					}
				}
			}
		})
	}

	// Unblocks a pending Receive once the group is done.
	g.Go(func() error {
		<-gctx.Done()
		sendMu.Lock()
		s.disconnect()
		sendMu.Unlock()
		s.client.Close()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, errCountReached) {
		return nil
	}
	return err
}

// subscribe sends pkt and checks every return code of the SUBACK.
func (s *session) subscribe(pkt *mqttv3.SubscribePacket) error {
	if err := s.client.Send(pkt); err != nil {
		return err
	}

	resp, err := s.await(mqttv3.PacketSUBACK, pkt.PacketID)
	if err != nil {
		return err
	}

	suback := resp.(*mqttv3.SubackPacket)
	if len(suback.ReturnCodes) != len(pkt.Subscriptions) {
		return errSubackMismatch
	}

	for i, code := range suback.ReturnCodes {
		if code.IsFailure() {
			return &mqttv3.SubscribeError{
				TopicFilter: pkt.Subscriptions[i].TopicFilter,
				ReturnCode:  code,
			}
		}
		s.logger.Info("subscribed", mqttv3.LogFields{
			"topic_filter": pkt.Subscriptions[i].TopicFilter,
			"granted_qos":  byte(code),
		})
	}

	return nil
}

// acknowledge answers a received PUBLISH according to its QoS.
func acknowledge(pkt *mqttv3.PublishPacket, send func(mqttv3.Packet) error) error {
	switch pkt.QoS {
	case 1:
		return send(&mqttv3.PubackPacket{PacketID: pkt.PacketID})
	case 2:
		return send(&mqttv3.PubrecPacket{PacketID: pkt.PacketID})
	}
	return nil
}
