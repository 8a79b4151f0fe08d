package mqttv3

import (
	"bytes"
	"errors"
	"io"
)

// PUBLISH packet errors.
var (
	ErrInvalidQoS       = errors.New("invalid QoS level")
	ErrPacketIDRequired = errors.New("packet identifier required for QoS > 0")
)

// PublishPacket represents an MQTT PUBLISH packet.
type PublishPacket struct {
	payload

	// Topic is the topic name.
	Topic string

	// Payload is the application message.
	Payload []byte

	// QoS is the Quality of Service level (0, 1, or 2).
	QoS byte

	// Retain indicates if the message should be retained.
	Retain bool

	// DUP indicates if this is a retransmission.
	DUP bool

	// PacketID is the packet identifier (only for QoS > 0).
	PacketID uint16
}

// newPublishPacket returns an empty PUBLISH whose flags come from header.
func newPublishPacket(header FixedHeader) *PublishPacket {
	p := &PublishPacket{payload: newPayload(header.RemainingLength)}
	p.setFlags(header.Flags)
	return p
}

// Type returns the packet type.
func (p *PublishPacket) Type() PacketType {
	return PacketPUBLISH
}

// GetPacketID returns the packet identifier.
func (p *PublishPacket) GetPacketID() uint16 {
	return p.PacketID
}

// SetPacketID sets the packet identifier.
func (p *PublishPacket) SetPacketID(id uint16) {
	p.PacketID = id
}

// flags returns the fixed header flags.
func (p *PublishPacket) flags() byte {
	var h FixedHeader
	h.SetDUP(p.DUP)
	h.SetQoS(p.QoS)
	h.SetRetain(p.Retain)
	return h.Flags
}

// setFlags parses the fixed header flags.
func (p *PublishPacket) setFlags(flags byte) {
	h := FixedHeader{Flags: flags}
	p.DUP = h.DUP()
	p.QoS = h.QoS()
	p.Retain = h.Retain()
}

// Encode writes the packet to the writer.
func (p *PublishPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	buf.Grow(2 + len(p.Topic) + 2 + len(p.Payload))

	if _, err := encodeString(&buf, p.Topic); err != nil {
		return 0, err
	}

	// Packet Identifier (only for QoS > 0)
	if p.QoS > 0 {
		if _, err := encodeUint16(&buf, p.PacketID); err != nil {
			return 0, err
		}
	}

	buf.Write(p.Payload)

	return encodePacket(w, PacketPUBLISH, p.flags(), buf.Bytes())
}

// Accumulate collects the topic, the optional packet identifier and the message.
func (p *PublishPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, p.decode)
}

func (p *PublishPacket) decode(data []byte) error {
	if p.QoS > 2 {
		return ErrInvalidQoS
	}

	return parseAll(data, func(r *bytesReader) error {
		var err error
		if p.Topic, _, err = decodeString(r); err != nil {
			return err
		}

		if p.QoS > 0 {
			if p.PacketID, _, err = decodeUint16(r); err != nil {
				return err
			}
		}

		// The message is whatever remains
		if n := r.Len(); n > 0 {
			p.Payload = make([]byte, n)
			if _, err := io.ReadFull(r, p.Payload); err != nil {
				return err
			}
		}

		return p.Validate()
	})
}

// Validate validates the packet contents.
func (p *PublishPacket) Validate() error {
	if p.QoS > 2 {
		return ErrInvalidQoS
	}

	// DUP must be 0 for QoS 0
	if p.QoS == 0 && p.DUP {
		return ErrInvalidPacketFlags
	}

	if p.QoS > 0 && p.PacketID == 0 {
		return ErrPacketIDRequired
	}

	return ValidateTopicName(p.Topic)
}
