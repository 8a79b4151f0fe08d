//nolint:dupl // MQTT requires separate packet types with same structure
package mqttv3

import "io"

// UnsubackPacket represents an MQTT UNSUBACK packet.
// It acknowledges an UNSUBSCRIBE.
type UnsubackPacket struct {
	payload

	// PacketID is the packet identifier.
	PacketID uint16
}

// Type returns the packet type.
func (p *UnsubackPacket) Type() PacketType { return PacketUNSUBACK }

// GetPacketID returns the packet identifier.
func (p *UnsubackPacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *UnsubackPacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *UnsubackPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketUNSUBACK, 0x00, p.PacketID)
}

// Accumulate collects the packet identifier.
func (p *UnsubackPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, func(data []byte) error {
		return decodeAck(data, &p.PacketID)
	})
}

// Validate validates the packet contents.
func (p *UnsubackPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}
	return nil
}
