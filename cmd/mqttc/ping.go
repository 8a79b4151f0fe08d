package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitalvas/mqttv3"
)

func pingCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect, exchange PINGREQ/PINGRESP and disconnect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			return runPing(cmd.Context(), s, cmd.OutOrStdout())
		},
	}
}

func runPing(ctx context.Context, s *session, out io.Writer) error {
	if _, err := s.connect(ctx); err != nil {
		return err
	}
	defer s.disconnect()

	start := time.Now()

	if err := s.client.Send(&mqttv3.PingreqPacket{}); err != nil {
		return err
	}
	if _, err := s.await(mqttv3.PacketPINGRESP, 0); err != nil {
		return err
	}

	fmt.Fprintf(out, "PINGRESP from %s in %s\n", s.client.RemoteAddr(), time.Since(start).Round(time.Microsecond))
	return nil
}
