package mqttv3

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnackPacketType(t *testing.T) {
	p := &ConnackPacket{}
	assert.Equal(t, PacketCONNACK, p.Type())
}

func TestConnackPacketEncodeDecode(t *testing.T) {
	tests := []struct {
		name     string
		packet   ConnackPacket
		expected []byte
	}{
		{
			name:     "accepted",
			packet:   ConnackPacket{ReturnCode: ConnectAccepted},
			expected: []byte{0x20, 0x02, 0x00, 0x00},
		},
		{
			name:     "accepted session present",
			packet:   ConnackPacket{SessionPresent: true, ReturnCode: ConnectAccepted},
			expected: []byte{0x20, 0x02, 0x01, 0x00},
		},
		{
			name:     "not authorized",
			packet:   ConnackPacket{ReturnCode: ConnectRefusedNotAuthorized},
			expected: []byte{0x20, 0x02, 0x00, 0x05},
		},
		{
			name:     "bad credentials",
			packet:   ConnackPacket{ReturnCode: ConnectRefusedBadUsernameOrPassword},
			expected: []byte{0x20, 0x02, 0x00, 0x04},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tt.packet.Encode(&buf)
			require.NoError(t, err)
			assert.Equal(t, 4, n)
			assert.Equal(t, tt.expected, buf.Bytes())

			decoded, err := receive(t, buf.Bytes(), 1)
			require.NoError(t, err)

			p, ok := decoded.(*ConnackPacket)
			require.True(t, ok)
			assert.Equal(t, tt.packet.SessionPresent, p.SessionPresent)
			assert.Equal(t, tt.packet.ReturnCode, p.ReturnCode)
		})
	}
}

func TestConnackPacketDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		err  error
	}{
		{"reserved flag bits", []byte{0x02, 0x00}, ErrInvalidConnackFlags},
		{"session present on refusal", []byte{0x01, 0x05}, ErrInvalidConnackFlags},
		{"unknown return code", []byte{0x00, 0x06}, ErrInvalidReturnCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPacket(FixedHeader{PacketType: PacketCONNACK, RemainingLength: connackLength})
			require.NoError(t, err)

			_, err = p.Accumulate(tt.body)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestConnackPacketEncodeInvalid(t *testing.T) {
	tests := []struct {
		name   string
		packet ConnackPacket
		err    error
	}{
		{"unknown return code", ConnackPacket{ReturnCode: 0x80}, ErrInvalidReturnCode},
		{"session present on refusal", ConnackPacket{SessionPresent: true, ReturnCode: ConnectRefusedServerUnavailable}, ErrInvalidConnackFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := tt.packet.Encode(&buf)
			assert.ErrorIs(t, err, tt.err)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestConnackPacketFixedSize(t *testing.T) {
	p, err := NewPacket(FixedHeader{PacketType: PacketCONNACK, RemainingLength: 7})
	require.NoError(t, err)
	assert.Equal(t, uint32(connackLength), p.DeclaredLength())

	n, err := p.Accumulate([]byte{0x00})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, p.Complete())

	n, err = p.Accumulate([]byte{0x00, 0xAA})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, p.Complete())
}

func BenchmarkConnackPacketAccumulate(b *testing.B) {
	body := []byte{0x01, 0x00}

	b.ReportAllocs()
	for b.Loop() {
		p := &ConnackPacket{payload: newPayload(connackLength)}
		_, _ = p.Accumulate(body)
	}
}
