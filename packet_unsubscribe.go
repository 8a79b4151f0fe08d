package mqttv3

import (
	"bytes"
	"io"
)

// UnsubscribePacket represents an MQTT UNSUBSCRIBE packet.
type UnsubscribePacket struct {
	payload

	PacketID     uint16
	TopicFilters []string
}

// Type returns the packet type.
func (p *UnsubscribePacket) Type() PacketType { return PacketUNSUBSCRIBE }

// GetPacketID returns the packet identifier.
func (p *UnsubscribePacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *UnsubscribePacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *UnsubscribePacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	if _, err := encodeUint16(&buf, p.PacketID); err != nil {
		return 0, err
	}

	for _, filter := range p.TopicFilters {
		if _, err := encodeString(&buf, filter); err != nil {
			return 0, err
		}
	}

	return encodePacket(w, PacketUNSUBSCRIBE, 0x02, buf.Bytes())
}

// Accumulate collects the packet identifier and the topic filter list.
func (p *UnsubscribePacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, p.decode)
}

func (p *UnsubscribePacket) decode(data []byte) error {
	return parseAll(data, func(r *bytesReader) error {
		var err error
		if p.PacketID, _, err = decodeUint16(r); err != nil {
			return err
		}

		p.TopicFilters = p.TopicFilters[:0]
		for r.Len() > 0 {
			filter, _, err := decodeString(r)
			if err != nil {
				return err
			}
			p.TopicFilters = append(p.TopicFilters, filter)
		}

		return p.Validate()
	})
}

// Validate validates the packet contents.
func (p *UnsubscribePacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	if len(p.TopicFilters) == 0 {
		return ErrNoSubscriptions
	}

	for _, filter := range p.TopicFilters {
		if err := ValidateTopicFilter(filter); err != nil {
			return err
		}
	}

	return nil
}
