package mqttv3

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ackPackets(id uint16) []PacketWithID {
	return []PacketWithID{
		&PubackPacket{PacketID: id},
		&PubrecPacket{PacketID: id},
		&PubrelPacket{PacketID: id},
		&PubcompPacket{PacketID: id},
		&UnsubackPacket{PacketID: id},
	}
}

func TestAckPacketEncode(t *testing.T) {
	tests := []struct {
		packet   PacketWithID
		expected []byte
	}{
		{&PubackPacket{PacketID: 1}, []byte{0x40, 0x02, 0x00, 0x01}},
		{&PubrecPacket{PacketID: 0x1234}, []byte{0x50, 0x02, 0x12, 0x34}},
		{&PubrelPacket{PacketID: 0xFFFF}, []byte{0x62, 0x02, 0xFF, 0xFF}},
		{&PubcompPacket{PacketID: 10}, []byte{0x70, 0x02, 0x00, 0x0A}},
		{&UnsubackPacket{PacketID: 300}, []byte{0xB0, 0x02, 0x01, 0x2C}},
	}

	for _, tt := range tests {
		t.Run(tt.packet.Type().String(), func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tt.packet.Encode(&buf)
			require.NoError(t, err)
			assert.Equal(t, len(tt.expected), n)
			assert.Equal(t, tt.expected, buf.Bytes())
		})
	}
}

func TestAckPacketEncodeZeroID(t *testing.T) {
	for _, pkt := range ackPackets(0) {
		t.Run(pkt.Type().String(), func(t *testing.T) {
			var buf bytes.Buffer
			_, err := pkt.Encode(&buf)
			assert.ErrorIs(t, err, ErrInvalidPacketID)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestAckPacketAccumulate(t *testing.T) {
	for _, pkt := range ackPackets(0xABCD) {
		t.Run(pkt.Type().String(), func(t *testing.T) {
			wire := encodeBytes(t, pkt)

			decoded, err := receive(t, wire, 1)
			require.NoError(t, err)

			ack, ok := decoded.(PacketWithID)
			require.True(t, ok)
			assert.Equal(t, pkt.Type(), ack.Type())
			assert.Equal(t, uint16(0xABCD), ack.GetPacketID())
			assert.Equal(t, uint32(ackLength), ack.DeclaredLength())
		})
	}
}

func TestAckPacketAccumulateZeroID(t *testing.T) {
	for _, pkt := range ackPackets(1) {
		t.Run(pkt.Type().String(), func(t *testing.T) {
			empty, err := NewPacket(FixedHeader{PacketType: pkt.Type(), RemainingLength: ackLength})
			require.NoError(t, err)

			_, err = empty.Accumulate([]byte{0x00, 0x00})
			assert.ErrorIs(t, err, ErrInvalidPacketID)
		})
	}
}

func TestAckPacketAccumulateOverflow(t *testing.T) {
	for _, pkt := range ackPackets(1) {
		t.Run(pkt.Type().String(), func(t *testing.T) {
			empty, err := NewPacket(FixedHeader{PacketType: pkt.Type(), RemainingLength: ackLength})
			require.NoError(t, err)

			n, err := empty.Accumulate([]byte{0x00, 0x01, 0x02})
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.True(t, empty.Complete())

			_, err = empty.Accumulate([]byte{0x02})
			assert.ErrorIs(t, err, ErrPayloadOverflow)
		})
	}
}

func TestAckPacketSetPacketID(t *testing.T) {
	for _, pkt := range ackPackets(0) {
		pkt.SetPacketID(42)
		assert.Equal(t, uint16(42), pkt.GetPacketID(), pkt.Type().String())
	}
}

func TestAckPacketValidate(t *testing.T) {
	type validator interface {
		Validate() error
	}

	for _, pkt := range ackPackets(0) {
		v, ok := pkt.(validator)
		require.True(t, ok, pkt.Type().String())
		assert.ErrorIs(t, v.Validate(), ErrInvalidPacketID)
	}
	for _, pkt := range ackPackets(7) {
		v, ok := pkt.(validator)
		require.True(t, ok, pkt.Type().String())
		assert.NoError(t, v.Validate())
	}
}

func BenchmarkAckPacketEncode(b *testing.B) {
	pkt := &PubackPacket{PacketID: 1234}
	var buf bytes.Buffer

	b.ReportAllocs()
	for b.Loop() {
		buf.Reset()
		_, _ = pkt.Encode(&buf)
	}
}
