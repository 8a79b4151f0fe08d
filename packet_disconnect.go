package mqttv3

import "io"

// DisconnectPacket represents an MQTT DISCONNECT packet. It has no payload.
type DisconnectPacket struct {
	payload
}

// Type returns the packet type.
func (p *DisconnectPacket) Type() PacketType { return PacketDISCONNECT }

// Encode writes the packet to the writer.
func (p *DisconnectPacket) Encode(w io.Writer) (int, error) {
	return encodePacket(w, PacketDISCONNECT, 0x00, nil)
}

// Accumulate rejects any payload byte.
func (p *DisconnectPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, nil)
}
