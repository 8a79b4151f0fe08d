package mqttv3

import (
	"errors"
	"io"
)

// Packet errors.
var (
	ErrPayloadOverflow = errors.New("payload exceeds declared length")
	ErrMalformedPacket = errors.New("malformed packet")
)

// Packet is the interface that all MQTT control packets implement.
//
// Packets built by NewPacket start empty and are filled through Accumulate;
// packets built by application code are only encoded.
type Packet interface {
	// Type returns the packet type.
	Type() PacketType

	// Encode writes the complete packet, fixed header included, to the writer.
	// Returns the number of bytes written.
	Encode(w io.Writer) (int, error)

	// DeclaredLength returns the number of payload bytes the packet expects.
	DeclaredLength() uint32

	// Accumulate appends received payload bytes and returns how many were consumed.
	// Fewer than len(p) are consumed only once the declared length is reached.
	// An empty p completes a zero-length payload, parsing it like any other.
	Accumulate(p []byte) (int, error)

	// Complete reports whether all declared payload bytes were received.
	Complete() bool
}

// PacketWithID is implemented by packets that have a packet identifier.
type PacketWithID interface {
	Packet

	// GetPacketID returns the packet identifier.
	GetPacketID() uint16

	// SetPacketID sets the packet identifier.
	SetPacketID(id uint16)
}

// payload tracks the receive side of a packet: the declared length, the bytes
// collected so far and the parser run once the last byte arrives.
type payload struct {
	declared uint32
	consumed uint32
	buf      []byte
	parsed   bool
}

// newPayload creates receive storage sized for length bytes.
func newPayload(length uint32) payload {
	return payload{declared: length}
}

// DeclaredLength returns the number of payload bytes the packet expects.
func (b *payload) DeclaredLength() uint32 {
	return b.declared
}

// Complete reports whether all declared payload bytes were received.
func (b *payload) Complete() bool {
	return b.consumed == b.declared
}

// accumulate copies up to the remaining declared bytes from p. When the
// payload becomes complete, parse is invoked with the collected bytes.
func (b *payload) accumulate(p []byte, parse func(data []byte) error) (int, error) {
	if len(p) == 0 {
		if b.declared == 0 && !b.parsed && parse != nil {
			b.parsed = true
			return 0, parse(nil)
		}
		return 0, nil
	}

	remaining := b.declared - b.consumed
	if remaining == 0 {
		return 0, ErrPayloadOverflow
	}

	n := len(p)
	if uint32(n) > remaining {
		n = int(remaining)
	}

	if b.buf == nil {
		b.buf = make([]byte, 0, b.declared)
	}
	b.buf = append(b.buf, p[:n]...)
	b.consumed += uint32(n)

	if b.Complete() && parse != nil {
		b.parsed = true
		data := b.buf
		b.buf = nil
		if err := parse(data); err != nil {
			return n, err
		}
	}

	return n, nil
}

// parseAll runs fn over data and fails if fn leaves bytes unread.
func parseAll(data []byte, fn func(r *bytesReader) error) error {
	r := getBytesReader(data)
	defer putBytesReader(r)

	if err := fn(r); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrMalformedPacket
		}
		return err
	}

	if r.Len() != 0 {
		return ErrMalformedPacket
	}

	return nil
}

// encodePacket writes the fixed header followed by body.
func encodePacket(w io.Writer, packetType PacketType, flags byte, body []byte) (int, error) {
	if len(body) > maxVarint {
		return 0, ErrVarintTooLarge
	}

	header := FixedHeader{
		PacketType:      packetType,
		Flags:           flags,
		RemainingLength: uint32(len(body)),
	}

	buf := getBytesBuffer()
	defer putBytesBuffer(buf)

	var err error
	buf.data, err = header.appendTo(buf.data)
	if err != nil {
		return 0, err
	}
	buf.data = append(buf.data, body...)

	return w.Write(buf.Bytes())
}
