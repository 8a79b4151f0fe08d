//nolint:dupl // MQTT requires separate packet types with same structure
package mqttv3

import "io"

// PubackPacket represents an MQTT PUBACK packet.
// It acknowledges a QoS 1 PUBLISH.
type PubackPacket struct {
	payload

	// PacketID is the packet identifier.
	PacketID uint16
}

// Type returns the packet type.
func (p *PubackPacket) Type() PacketType { return PacketPUBACK }

// GetPacketID returns the packet identifier.
func (p *PubackPacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *PubackPacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *PubackPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketPUBACK, 0x00, p.PacketID)
}

// Accumulate collects the packet identifier.
func (p *PubackPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, func(data []byte) error {
		return decodeAck(data, &p.PacketID)
	})
}

// Validate validates the packet contents.
func (p *PubackPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}
	return nil
}
