package mqttv3

import (
	"errors"
	"io"
)

// CONNACK packet errors.
var (
	ErrInvalidConnackFlags = errors.New("invalid CONNACK flags")
	ErrInvalidReturnCode   = errors.New("invalid return code")
)

// connackLength is the fixed payload size of a CONNACK packet.
const connackLength = 2

// ConnackPacket represents an MQTT CONNACK packet.
type ConnackPacket struct {
	payload

	// SessionPresent indicates if a session exists from a previous connection.
	SessionPresent bool

	// ReturnCode is the connection result.
	ReturnCode ConnectReturnCode
}

// Type returns the packet type.
func (p *ConnackPacket) Type() PacketType {
	return PacketCONNACK
}

// Encode writes the packet to the writer.
func (p *ConnackPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var flags byte
	if p.SessionPresent {
		flags = 0x01
	}

	return encodePacket(w, PacketCONNACK, 0x00, []byte{flags, byte(p.ReturnCode)})
}

// Accumulate collects the acknowledge flags and the return code.
func (p *ConnackPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, p.decode)
}

func (p *ConnackPacket) decode(data []byte) error {
	// Only bit 0 (session present) may be set
	if data[0]&0xFE != 0 {
		return ErrInvalidConnackFlags
	}

	p.SessionPresent = data[0]&0x01 != 0
	p.ReturnCode = ConnectReturnCode(data[1])

	return p.Validate()
}

// Validate validates the packet contents.
func (p *ConnackPacket) Validate() error {
	if !p.ReturnCode.Valid() {
		return ErrInvalidReturnCode
	}

	// Session present must be 0 when the connection is refused
	if p.SessionPresent && p.ReturnCode != ConnectAccepted {
		return ErrInvalidConnackFlags
	}

	return nil
}
