package mqttv3

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishPacketType(t *testing.T) {
	p := &PublishPacket{}
	assert.Equal(t, PacketPUBLISH, p.Type())
}

func TestPublishPacketID(t *testing.T) {
	p := &PublishPacket{}
	p.SetPacketID(12345)
	assert.Equal(t, uint16(12345), p.GetPacketID())
}

func TestPublishPacketEncode(t *testing.T) {
	p := &PublishPacket{Topic: "a/b", Payload: []byte("hi"), QoS: 1, PacketID: 10, Retain: true}

	var buf bytes.Buffer
	n, err := p.Encode(&buf)
	require.NoError(t, err)

	expected := []byte{
		0x33, 0x09,
		0x00, 0x03, 'a', '/', 'b',
		0x00, 0x0A,
		'h', 'i',
	}
	assert.Equal(t, expected, buf.Bytes())
	assert.Equal(t, len(expected), n)
}

func TestPublishPacketEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		packet PublishPacket
	}{
		{
			name:   "QoS 0 minimal",
			packet: PublishPacket{Topic: "test/topic", Payload: []byte("hello")},
		},
		{
			name:   "QoS 0 empty payload",
			packet: PublishPacket{Topic: "test/topic"},
		},
		{
			name:   "QoS 1",
			packet: PublishPacket{Topic: "test/topic", Payload: []byte("hello"), QoS: 1, PacketID: 1},
		},
		{
			name:   "QoS 2",
			packet: PublishPacket{Topic: "test/topic", Payload: []byte("hello"), QoS: 2, PacketID: 2},
		},
		{
			name:   "QoS 1 DUP",
			packet: PublishPacket{Topic: "test/topic", Payload: []byte("hello"), QoS: 1, DUP: true, PacketID: 100},
		},
		{
			name:   "QoS 0 RETAIN",
			packet: PublishPacket{Topic: "test/topic", Payload: []byte("hello"), Retain: true},
		},
		{
			name:   "QoS 2 DUP RETAIN",
			packet: PublishPacket{Topic: "a", Payload: []byte{0x00, 0xFF}, QoS: 2, DUP: true, Retain: true, PacketID: 0xFFFF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := encodeBytes(t, &tt.packet)

			decoded, err := receive(t, wire, 2)
			require.NoError(t, err)

			p, ok := decoded.(*PublishPacket)
			require.True(t, ok)
			assert.Equal(t, tt.packet.Topic, p.Topic)
			assert.Equal(t, len(tt.packet.Payload), len(p.Payload))
			if len(tt.packet.Payload) > 0 {
				assert.Equal(t, tt.packet.Payload, p.Payload)
			}
			assert.Equal(t, tt.packet.QoS, p.QoS)
			assert.Equal(t, tt.packet.DUP, p.DUP)
			assert.Equal(t, tt.packet.Retain, p.Retain)
			assert.Equal(t, tt.packet.PacketID, p.PacketID)
		})
	}
}

func TestPublishPacketLargePayload(t *testing.T) {
	payload := make([]byte, 20000)
	for i := range payload {
		payload[i] = byte(rand.IntN(256))
	}

	pkt := &PublishPacket{Topic: "bulk", Payload: payload, QoS: 1, PacketID: 9}
	wire := encodeBytes(t, pkt)

	for _, chunk := range []int{1, DefaultScratchSize, len(wire)} {
		decoded, err := receive(t, wire, chunk)
		require.NoError(t, err)
		assert.Equal(t, payload, decoded.(*PublishPacket).Payload, "chunk %d", chunk)
	}
}

func TestPublishPacketValidation(t *testing.T) {
	tests := []struct {
		name   string
		packet PublishPacket
		err    error
	}{
		{"empty topic", PublishPacket{}, ErrEmptyTopic},
		{"wildcard topic", PublishPacket{Topic: "a/#"}, ErrInvalidTopicName},
		{"QoS 3", PublishPacket{Topic: "a", QoS: 3, PacketID: 1}, ErrInvalidQoS},
		{"QoS 1 without packet id", PublishPacket{Topic: "a", QoS: 1}, ErrPacketIDRequired},
		{"DUP with QoS 0", PublishPacket{Topic: "a", DUP: true}, ErrInvalidPacketFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.packet.Validate(), tt.err)

			var buf bytes.Buffer
			_, err := tt.packet.Encode(&buf)
			assert.ErrorIs(t, err, tt.err)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestPublishPacketFlagsFromHeader(t *testing.T) {
	tests := []struct {
		flags  byte
		qos    byte
		dup    bool
		retain bool
	}{
		{0x00, 0, false, false},
		{0x01, 0, false, true},
		{0x02, 1, false, false},
		{0x04, 2, false, false},
		{0x0A, 1, true, false},
		{0x0D, 2, true, true},
	}

	for _, tt := range tests {
		p := newPublishPacket(FixedHeader{PacketType: PacketPUBLISH, Flags: tt.flags, RemainingLength: 5})
		assert.Equal(t, tt.qos, p.QoS, "flags 0x%02X", tt.flags)
		assert.Equal(t, tt.dup, p.DUP, "flags 0x%02X", tt.flags)
		assert.Equal(t, tt.retain, p.Retain, "flags 0x%02X", tt.flags)
		assert.Equal(t, uint32(5), p.DeclaredLength())
		assert.Equal(t, tt.flags, p.flags())
	}
}

func TestPublishPacketDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags byte
		body  []byte
		err   error
	}{
		{
			name: "truncated topic",
			body: []byte{0x00, 0x05, 'a'},
			err:  ErrMalformedPacket,
		},
		{
			name:  "missing packet id",
			flags: 0x02,
			body:  []byte{0x00, 0x01, 'a', 0x00},
			err:   ErrMalformedPacket,
		},
		{
			name:  "zero packet id",
			flags: 0x02,
			body:  []byte{0x00, 0x01, 'a', 0x00, 0x00},
			err:   ErrPacketIDRequired,
		},
		{
			name:  "QoS 3",
			flags: 0x06,
			body:  []byte{0x00, 0x01, 'a', 0x00, 0x01},
			err:   ErrInvalidQoS,
		},
		{
			name: "wildcard topic",
			body: []byte{0x00, 0x01, '+'},
			err:  ErrInvalidTopicName,
		},
		{
			name: "invalid UTF-8 topic",
			body: []byte{0x00, 0x02, 0xC3, 0x28},
			err:  ErrInvalidUTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPacket(FixedHeader{PacketType: PacketPUBLISH, Flags: tt.flags, RemainingLength: uint32(len(tt.body))})
			require.NoError(t, err)

			_, err = p.Accumulate(tt.body)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func BenchmarkPublishPacketEncode(b *testing.B) {
	p := &PublishPacket{Topic: "sensors/temperature", Payload: make([]byte, 256), QoS: 1, PacketID: 1}
	var buf bytes.Buffer

	b.ReportAllocs()
	for b.Loop() {
		buf.Reset()
		_, _ = p.Encode(&buf)
	}
}

func BenchmarkPublishPacketAccumulate(b *testing.B) {
	var buf bytes.Buffer
	_, _ = (&PublishPacket{Topic: "sensors/temperature", Payload: make([]byte, 256), QoS: 1, PacketID: 1}).Encode(&buf)
	header := FixedHeader{PacketType: PacketPUBLISH, Flags: 0x02, RemainingLength: uint32(buf.Len() - 3)}
	body := buf.Bytes()[3:]

	b.ReportAllocs()
	for b.Loop() {
		p := newPublishPacket(header)
		_, _ = p.Accumulate(body)
	}
}

func FuzzPublishPacketAccumulate(f *testing.F) {
	f.Add(byte(0x00), []byte{0x00, 0x01, 'a', 'x'})
	f.Add(byte(0x02), []byte{0x00, 0x01, 'a', 0x00, 0x01})
	f.Add(byte(0x0D), []byte{0x00, 0x01, 'a', 0x00, 0x01, 0xFF})

	f.Fuzz(func(t *testing.T, flags byte, body []byte) {
		p := newPublishPacket(FixedHeader{PacketType: PacketPUBLISH, Flags: flags & 0x0F, RemainingLength: uint32(len(body))})
		if _, err := p.Accumulate(body); err != nil {
			return
		}
		if !p.Complete() || len(body) == 0 {
			return
		}

		var buf bytes.Buffer
		_, err := p.Encode(&buf)
		require.NoError(t, err)
	})
}
