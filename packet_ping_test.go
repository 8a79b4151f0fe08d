package mqttv3

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyPackets(t *testing.T) {
	tests := []struct {
		packet   Packet
		expected []byte
	}{
		{&PingreqPacket{}, []byte{0xC0, 0x00}},
		{&PingrespPacket{}, []byte{0xD0, 0x00}},
		{&DisconnectPacket{}, []byte{0xE0, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.packet.Type().String(), func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tt.packet.Encode(&buf)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, tt.expected, buf.Bytes())

			p, err := NewPacket(FixedHeader{PacketType: tt.packet.Type()})
			require.NoError(t, err)
			assert.Zero(t, p.DeclaredLength())
			assert.True(t, p.Complete(), "complete before any payload byte")

			n, err = p.Accumulate(nil)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestEmptyPacketsRejectPayload(t *testing.T) {
	for _, pt := range []PacketType{PacketPINGREQ, PacketPINGRESP, PacketDISCONNECT} {
		t.Run(pt.String(), func(t *testing.T) {
			// A non-zero remaining length does not change the expected size.
			p, err := NewPacket(FixedHeader{PacketType: pt, RemainingLength: 3})
			require.NoError(t, err)
			assert.Zero(t, p.DeclaredLength())

			_, err = p.Accumulate([]byte{0x00})
			assert.ErrorIs(t, err, ErrPayloadOverflow)
		})
	}
}

func TestReadEmptyPackets(t *testing.T) {
	wire := []byte{0xD0, 0x00, 0xC0, 0x00, 0xE0, 0x00}
	r := bytes.NewReader(wire)

	for _, expected := range []PacketType{PacketPINGRESP, PacketPINGREQ, PacketDISCONNECT} {
		pkt, n, err := ReadPacket(r, 0)
		require.NoError(t, err)
		assert.Equal(t, expected, pkt.Type())
		assert.Equal(t, 2, n)
	}
	assert.Zero(t, r.Len())
}
