//nolint:dupl // MQTT requires separate packet types with same structure
package mqttv3

import "io"

// PubrelPacket represents an MQTT PUBREL packet.
// It answers a PUBREC; its fixed header flags are always 0x02.
type PubrelPacket struct {
	payload

	// PacketID is the packet identifier.
	PacketID uint16
}

// Type returns the packet type.
func (p *PubrelPacket) Type() PacketType { return PacketPUBREL }

// GetPacketID returns the packet identifier.
func (p *PubrelPacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *PubrelPacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *PubrelPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketPUBREL, 0x02, p.PacketID)
}

// Accumulate collects the packet identifier.
func (p *PubrelPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, func(data []byte) error {
		return decodeAck(data, &p.PacketID)
	})
}

// Validate validates the packet contents.
func (p *PubrelPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}
	return nil
}
