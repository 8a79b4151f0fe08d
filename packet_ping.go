package mqttv3

import "io"

// PingreqPacket represents an MQTT PINGREQ packet. It has no payload.
type PingreqPacket struct {
	payload
}

// Type returns the packet type.
func (p *PingreqPacket) Type() PacketType { return PacketPINGREQ }

// Encode writes the packet to the writer.
func (p *PingreqPacket) Encode(w io.Writer) (int, error) {
	return encodePacket(w, PacketPINGREQ, 0x00, nil)
}

// Accumulate rejects any payload byte.
func (p *PingreqPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, nil)
}

// PingrespPacket represents an MQTT PINGRESP packet. It has no payload.
type PingrespPacket struct {
	payload
}

// Type returns the packet type.
func (p *PingrespPacket) Type() PacketType { return PacketPINGRESP }

// Encode writes the packet to the writer.
func (p *PingrespPacket) Encode(w io.Writer) (int, error) {
	return encodePacket(w, PacketPINGRESP, 0x00, nil)
}

// Accumulate rejects any payload byte.
func (p *PingrespPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, nil)
}
