//nolint:dupl // MQTT requires separate packet types with same structure
package mqttv3

import "io"

// PubrecPacket represents an MQTT PUBREC packet.
// It is the first response to a QoS 2 PUBLISH.
type PubrecPacket struct {
	payload

	// PacketID is the packet identifier.
	PacketID uint16
}

// Type returns the packet type.
func (p *PubrecPacket) Type() PacketType { return PacketPUBREC }

// GetPacketID returns the packet identifier.
func (p *PubrecPacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *PubrecPacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *PubrecPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketPUBREC, 0x00, p.PacketID)
}

// Accumulate collects the packet identifier.
func (p *PubrecPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, func(data []byte) error {
		return decodeAck(data, &p.PacketID)
	})
}

// Validate validates the packet contents.
func (p *PubrecPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}
	return nil
}
