//nolint:dupl // MQTT requires separate packet types with same structure
package mqttv3

import "io"

// PubcompPacket represents an MQTT PUBCOMP packet.
// It completes the QoS 2 exchange.
type PubcompPacket struct {
	payload

	// PacketID is the packet identifier.
	PacketID uint16
}

// Type returns the packet type.
func (p *PubcompPacket) Type() PacketType { return PacketPUBCOMP }

// GetPacketID returns the packet identifier.
func (p *PubcompPacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *PubcompPacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *PubcompPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketPUBCOMP, 0x00, p.PacketID)
}

// Accumulate collects the packet identifier.
func (p *PubcompPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, func(data []byte) error {
		return decodeAck(data, &p.PacketID)
	})
}

// Validate validates the packet contents.
func (p *PubcompPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}
	return nil
}
