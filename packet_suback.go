package mqttv3

import (
	"bytes"
	"io"
)

// SubackPacket represents an MQTT SUBACK packet.
type SubackPacket struct {
	payload

	PacketID    uint16
	ReturnCodes []SubackReturnCode
}

// Type returns the packet type.
func (p *SubackPacket) Type() PacketType { return PacketSUBACK }

// GetPacketID returns the packet identifier.
func (p *SubackPacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *SubackPacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *SubackPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	if _, err := encodeUint16(&buf, p.PacketID); err != nil {
		return 0, err
	}

	for _, rc := range p.ReturnCodes {
		buf.WriteByte(byte(rc))
	}

	return encodePacket(w, PacketSUBACK, 0x00, buf.Bytes())
}

// Accumulate collects the packet identifier and one return code per filter.
func (p *SubackPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, p.decode)
}

func (p *SubackPacket) decode(data []byte) error {
	return parseAll(data, func(r *bytesReader) error {
		var err error
		if p.PacketID, _, err = decodeUint16(r); err != nil {
			return err
		}

		p.ReturnCodes = make([]SubackReturnCode, 0, r.Len())
		for r.Len() > 0 {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			p.ReturnCodes = append(p.ReturnCodes, SubackReturnCode(b))
		}

		return p.Validate()
	})
}

// Validate validates the packet contents.
func (p *SubackPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	if len(p.ReturnCodes) == 0 {
		return ErrNoSubscriptions
	}

	for _, rc := range p.ReturnCodes {
		if !rc.Valid() {
			return ErrInvalidReturnCode
		}
	}

	return nil
}
