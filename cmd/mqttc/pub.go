package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vitalvas/mqttv3"
)

func pubCmd(flags *globalFlags) *cobra.Command {
	var (
		qos    uint8
		retain bool
	)

	cmd := &cobra.Command{
		Use:   "pub TOPIC MESSAGE",
		Short: "Publish one message",
		Long: `Publish one message and wait for the QoS flow to finish:
PUBACK at QoS 1, PUBREC/PUBREL/PUBCOMP at QoS 2.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}

			pkt := &mqttv3.PublishPacket{
				Topic:   args[0],
				Payload: []byte(args[1]),
				QoS:     qos,
				Retain:  retain,
			}
			if qos > 0 {
				pkt.PacketID = 1
			}
			if err := pkt.Validate(); err != nil {
				return err
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			return runPub(cmd.Context(), s, pkt, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Uint8VarP(&qos, "qos", "q", 0, "QoS level (0, 1 or 2)")
	cmd.Flags().BoolVarP(&retain, "retain", "r", false, "set the retain flag")

	return cmd
}

func runPub(ctx context.Context, s *session, pkt *mqttv3.PublishPacket, out io.Writer) error {
	if _, err := s.connect(ctx); err != nil {
		return err
	}
	defer s.disconnect()

	if err := s.publish(pkt); err != nil {
		return err
	}

	fmt.Fprintf(out, "published %d bytes to %s at QoS %d\n", len(pkt.Payload), pkt.Topic, pkt.QoS)
	return nil
}

// publish sends pkt and completes its acknowledgement flow.
func (s *session) publish(pkt *mqttv3.PublishPacket) error {
	if err := s.client.Send(pkt); err != nil {
		return err
	}

	switch pkt.QoS {
	case 1:
		_, err := s.await(mqttv3.PacketPUBACK, pkt.PacketID)
		return err
	case 2:
		if _, err := s.await(mqttv3.PacketPUBREC, pkt.PacketID); err != nil {
			return err
		}
		if err := s.client.Send(&mqttv3.PubrelPacket{PacketID: pkt.PacketID}); err != nil {
			return err
		}
		_, err := s.await(mqttv3.PacketPUBCOMP, pkt.PacketID)
		return err
	}

	return nil
}
