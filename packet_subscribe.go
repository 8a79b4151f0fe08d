package mqttv3

import (
	"bytes"
	"errors"
	"io"
)

// ErrNoSubscriptions is returned when SUBSCRIBE carries no topic filter.
var ErrNoSubscriptions = errors.New("at least one subscription required")

// Subscription represents a topic filter with its requested QoS.
type Subscription struct {
	TopicFilter string
	QoS         byte
}

// SubscribePacket represents an MQTT SUBSCRIBE packet.
type SubscribePacket struct {
	payload

	PacketID      uint16
	Subscriptions []Subscription
}

// Type returns the packet type.
func (p *SubscribePacket) Type() PacketType { return PacketSUBSCRIBE }

// GetPacketID returns the packet identifier.
func (p *SubscribePacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *SubscribePacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *SubscribePacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	if _, err := encodeUint16(&buf, p.PacketID); err != nil {
		return 0, err
	}

	for _, sub := range p.Subscriptions {
		if _, err := encodeString(&buf, sub.TopicFilter); err != nil {
			return 0, err
		}
		buf.WriteByte(sub.QoS)
	}

	return encodePacket(w, PacketSUBSCRIBE, 0x02, buf.Bytes())
}

// Accumulate collects the packet identifier and the topic filter list.
func (p *SubscribePacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, p.decode)
}

func (p *SubscribePacket) decode(data []byte) error {
	return parseAll(data, func(r *bytesReader) error {
		var err error
		if p.PacketID, _, err = decodeUint16(r); err != nil {
			return err
		}

		p.Subscriptions = p.Subscriptions[:0]
		for r.Len() > 0 {
			var sub Subscription
			if sub.TopicFilter, _, err = decodeString(r); err != nil {
				return err
			}
			if sub.QoS, err = r.ReadByte(); err != nil {
				return err
			}
			p.Subscriptions = append(p.Subscriptions, sub)
		}

		return p.Validate()
	})
}

// Validate validates the packet contents.
func (p *SubscribePacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	if len(p.Subscriptions) == 0 {
		return ErrNoSubscriptions
	}

	for _, sub := range p.Subscriptions {
		// Upper six bits of the requested QoS byte are reserved
		if sub.QoS > 2 {
			return ErrInvalidQoS
		}
		if err := ValidateTopicFilter(sub.TopicFilter); err != nil {
			return err
		}
	}

	return nil
}
