package mqttv3

import (
	"errors"
	"io"
)

var (
	ErrPacketTooLarge    = errors.New("mqttv3: packet exceeds maximum size")
	ErrUnknownPacketType = errors.New("mqttv3: unknown packet type")
	ErrEmptyPacket       = errors.New("mqttv3: packet encoded to no bytes")
)

// DefaultScratchSize is the size of the buffer used to drain packet payloads.
const DefaultScratchSize = 8192

// NewPacket returns an empty packet of the variant named by header, ready to
// receive header.RemainingLength payload bytes through Accumulate.
//
// Fixed-size variants ignore the remaining length and expect their own size;
// a mismatch surfaces while accumulating.
func NewPacket(header FixedHeader) (Packet, error) {
	length := header.RemainingLength

	switch header.PacketType {
	case PacketCONNECT:
		return &ConnectPacket{payload: newPayload(length)}, nil
	case PacketCONNACK:
		return &ConnackPacket{payload: newPayload(connackLength)}, nil
	case PacketPUBLISH:
		return newPublishPacket(header), nil
	case PacketPUBACK:
		return &PubackPacket{payload: newPayload(ackLength)}, nil
	case PacketPUBREC:
		return &PubrecPacket{payload: newPayload(ackLength)}, nil
	case PacketPUBREL:
		return &PubrelPacket{payload: newPayload(ackLength)}, nil
	case PacketPUBCOMP:
		return &PubcompPacket{payload: newPayload(ackLength)}, nil
	case PacketSUBSCRIBE:
		return &SubscribePacket{payload: newPayload(length)}, nil
	case PacketSUBACK:
		return &SubackPacket{payload: newPayload(length)}, nil
	case PacketUNSUBSCRIBE:
		return &UnsubscribePacket{payload: newPayload(length)}, nil
	case PacketUNSUBACK:
		return &UnsubackPacket{payload: newPayload(ackLength)}, nil
	case PacketPINGREQ:
		return &PingreqPacket{}, nil
	case PacketPINGRESP:
		return &PingrespPacket{}, nil
	case PacketDISCONNECT:
		return &DisconnectPacket{}, nil
	default:
		return nil, ErrUnknownPacketType
	}
}

// packetReader assembles packets from a byte stream that may deliver any
// number of bytes per Read. Errors are *OpError values tagged with op.
type packetReader struct {
	r       io.Reader
	scratch []byte
	maxSize uint32
	op      string
}

// readHeader reads the fixed header one byte at a time, stopping as soon as
// the remaining length is known. Flags must match the packet type.
func (pr *packetReader) readHeader() (FixedHeader, int, error) {
	var (
		dec HeaderDecoder
		one [1]byte
	)

	for !dec.Finished() {
		if _, err := io.ReadFull(pr.r, one[:]); err != nil {
			return FixedHeader{}, dec.Len(), newOpError(pr.op, ErrHeader, err)
		}
		if err := dec.Feed(one[0]); err != nil {
			return FixedHeader{}, dec.Len() + 1, newOpError(pr.op, ErrHeader, err)
		}
	}

	header, err := dec.Header()
	if err != nil {
		return FixedHeader{}, dec.Len(), newOpError(pr.op, ErrHeader, err)
	}

	if err := header.ValidateFlags(); err != nil {
		return header, dec.Len(), newOpError(pr.op, ErrHeader, err)
	}

	if pr.maxSize > 0 && header.RemainingLength > pr.maxSize {
		return header, dec.Len(), newOpError(pr.op, ErrHeader, ErrPacketTooLarge)
	}

	return header, dec.Len(), nil
}

// readPacket reads one complete packet.
func (pr *packetReader) readPacket() (Packet, FixedHeader, int, error) {
	header, total, err := pr.readHeader()
	if err != nil {
		return nil, header, total, err
	}

	pkt, err := NewPacket(header)
	if err != nil {
		return nil, header, total, newOpError(pr.op, ErrFactory, err)
	}

	remaining := header.RemainingLength
	if remaining == 0 {
		// Variants with fields still parse an empty body and reject it.
		if _, err := pkt.Accumulate(nil); err != nil {
			return nil, header, total, newOpError(pr.op, ErrBodyProtocol, err)
		}
		if pkt.Complete() {
			return pkt, header, total, nil
		}
	}

	for remaining > 0 {
		chunk := pr.scratch
		if uint32(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}

		n, rerr := pr.r.Read(chunk)
		if n > 0 {
			total += n
			remaining -= uint32(n)

			consumed, aerr := pkt.Accumulate(chunk[:n])
			if aerr != nil {
				return nil, header, total, newOpError(pr.op, ErrBodyProtocol, aerr)
			}
			if consumed != n {
				return nil, header, total, newOpError(pr.op, ErrBodyProtocol, ErrPayloadOverflow)
			}
		}

		if remaining == 0 {
			break
		}
		if rerr != nil {
			return nil, header, total, newOpError(pr.op, ErrBodyTransport, rerr)
		}
		if n == 0 {
			return nil, header, total, newOpError(pr.op, ErrBodyTransport, io.ErrNoProgress)
		}
	}

	if !pkt.Complete() {
		// A fixed-size variant announced with a shorter length is the peer's fault.
		if pkt.DeclaredLength() != header.RemainingLength {
			return nil, header, total, newOpError(pr.op, ErrBodyProtocol, ErrMalformedPacket)
		}
		return nil, header, total, newOpError(pr.op, ErrIncompleteBody, nil)
	}

	return pkt, header, total, nil
}

// ReadPacket reads a complete MQTT packet from the reader.
// If maxSize is greater than 0, a remaining length above maxSize fails with ErrPacketTooLarge.
// Failures are *OpError values; use errors.Is with the error kinds to classify them.
func ReadPacket(r io.Reader, maxSize uint32) (Packet, int, error) {
	scratch := getScratch()
	defer putScratch(scratch)

	pr := packetReader{r: r, scratch: *scratch, maxSize: maxSize, op: "read"}
	pkt, _, n, err := pr.readPacket()
	return pkt, n, err
}

// WritePacket writes a complete MQTT packet to the writer in a single Write.
// If maxSize is greater than 0, a remaining length above maxSize fails with ErrPacketTooLarge.
func WritePacket(w io.Writer, packet Packet, maxSize uint32) (int, error) {
	buf := getBytesBuffer()
	defer putBytesBuffer(buf)

	if err := encodeTo(buf, packet, maxSize); err != nil {
		return 0, err
	}

	n, err := w.Write(buf.Bytes())
	if err == nil && n != len(buf.Bytes()) {
		err = io.ErrShortWrite
	}
	return n, err
}

// encodeTo serializes packet into buf and checks the result.
func encodeTo(buf *bytesBuffer, packet Packet, maxSize uint32) error {
	if _, err := packet.Encode(buf); err != nil {
		return err
	}

	if len(buf.data) == 0 {
		return ErrEmptyPacket
	}

	if maxSize > 0 {
		// Limit the remaining length, as readHeader does.
		remaining, _, err := decodeVarint(&bytesReader{data: buf.data[1:]})
		if err != nil {
			return err
		}
		if remaining > maxSize {
			return ErrPacketTooLarge
		}
	}

	return nil
}

// bytesReader wraps a byte slice for io.Reader and io.ByteReader.
type bytesReader struct {
	data []byte
	pos  int
}

func (r *bytesReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *bytesReader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// Len returns the number of unread bytes.
func (r *bytesReader) Len() int {
	return len(r.data) - r.pos
}

// bytesBuffer is a simple buffer for encoding.
type bytesBuffer struct {
	data []byte
}

func (b *bytesBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bytesBuffer) Bytes() []byte {
	return b.data
}
