package mqttv3

import (
	"bytes"
	"errors"
	"io"
)

// CONNECT packet constants.
const (
	protocolName  = "MQTT"
	protocolLevel = 4
)

// Connect flag bit positions.
const (
	connectFlagReserved     = 0x01
	connectFlagCleanSession = 0x02
	connectFlagWillFlag     = 0x04
	connectFlagWillRetain   = 0x20
	connectFlagPasswordFlag = 0x40
	connectFlagUsernameFlag = 0x80
)

// CONNECT packet errors.
var (
	ErrInvalidProtocolName    = errors.New("invalid protocol name")
	ErrInvalidProtocolVersion = errors.New("unsupported protocol version")
	ErrInvalidConnectFlags    = errors.New("invalid connect flags")
	ErrClientIDRequired       = errors.New("client ID required with clean session false")
	ErrPasswordWithoutUser    = errors.New("password requires a user name")
)

// ConnectPacket represents an MQTT CONNECT packet.
type ConnectPacket struct {
	payload

	// ClientID is the client identifier.
	ClientID string

	// CleanSession asks the server to discard any previous session.
	CleanSession bool

	// KeepAlive is the keep alive interval in seconds.
	KeepAlive uint16

	// Username for authentication.
	Username string

	// Password for authentication.
	Password []byte

	// Will message configuration.
	WillFlag    bool
	WillRetain  bool
	WillQoS     byte
	WillTopic   string
	WillPayload []byte
}

// Type returns the packet type.
func (p *ConnectPacket) Type() PacketType {
	return PacketCONNECT
}

// connectFlags returns the connect flags byte.
func (p *ConnectPacket) connectFlags() byte {
	var flags byte

	if p.CleanSession {
		flags |= connectFlagCleanSession
	}

	if p.WillFlag {
		flags |= connectFlagWillFlag
		flags |= (p.WillQoS & 0x03) << 3
		if p.WillRetain {
			flags |= connectFlagWillRetain
		}
	}

	if len(p.Password) > 0 {
		flags |= connectFlagPasswordFlag
	}

	if p.Username != "" {
		flags |= connectFlagUsernameFlag
	}

	return flags
}

// setConnectFlags parses the connect flags byte.
func (p *ConnectPacket) setConnectFlags(flags byte) error {
	if flags&connectFlagReserved != 0 {
		return ErrInvalidConnectFlags
	}

	p.CleanSession = flags&connectFlagCleanSession != 0
	p.WillFlag = flags&connectFlagWillFlag != 0
	p.WillQoS = (flags >> 3) & 0x03
	p.WillRetain = flags&connectFlagWillRetain != 0

	if !p.WillFlag && (p.WillQoS != 0 || p.WillRetain) {
		return ErrInvalidConnectFlags
	}

	if p.WillQoS > 2 {
		return ErrInvalidConnectFlags
	}

	if flags&connectFlagPasswordFlag != 0 && flags&connectFlagUsernameFlag == 0 {
		return ErrPasswordWithoutUser
	}

	return nil
}

// Encode writes the packet to the writer.
func (p *ConnectPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	// Variable header: protocol name, level, flags, keep alive
	if _, err := encodeString(&buf, protocolName); err != nil {
		return 0, err
	}
	buf.WriteByte(protocolLevel)
	buf.WriteByte(p.connectFlags())
	if _, err := encodeUint16(&buf, p.KeepAlive); err != nil {
		return 0, err
	}

	// Payload
	if _, err := encodeString(&buf, p.ClientID); err != nil {
		return 0, err
	}

	if p.WillFlag {
		if _, err := encodeString(&buf, p.WillTopic); err != nil {
			return 0, err
		}
		if _, err := encodeBinary(&buf, p.WillPayload); err != nil {
			return 0, err
		}
	}

	if p.Username != "" {
		if _, err := encodeString(&buf, p.Username); err != nil {
			return 0, err
		}
	}

	if len(p.Password) > 0 {
		if _, err := encodeBinary(&buf, p.Password); err != nil {
			return 0, err
		}
	}

	return encodePacket(w, PacketCONNECT, 0x00, buf.Bytes())
}

// Accumulate collects the variable header and payload.
func (p *ConnectPacket) Accumulate(b []byte) (int, error) {
	return p.accumulate(b, p.decode)
}

func (p *ConnectPacket) decode(data []byte) error {
	err := parseAll(data, func(r *bytesReader) error {
		name, _, err := decodeString(r)
		if err != nil {
			return err
		}
		if name != protocolName {
			return ErrInvalidProtocolName
		}

		level, err := r.ReadByte()
		if err != nil {
			return err
		}
		if level != protocolLevel {
			return ErrInvalidProtocolVersion
		}

		flags, err := r.ReadByte()
		if err != nil {
			return err
		}
		if err := p.setConnectFlags(flags); err != nil {
			return err
		}

		if p.KeepAlive, _, err = decodeUint16(r); err != nil {
			return err
		}

		if p.ClientID, _, err = decodeString(r); err != nil {
			return err
		}

		if p.WillFlag {
			if p.WillTopic, _, err = decodeString(r); err != nil {
				return err
			}
			if p.WillPayload, _, err = decodeBinary(r); err != nil {
				return err
			}
		}

		if flags&connectFlagUsernameFlag != 0 {
			if p.Username, _, err = decodeString(r); err != nil {
				return err
			}
		}

		if flags&connectFlagPasswordFlag != 0 {
			if p.Password, _, err = decodeBinary(r); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	return p.Validate()
}

// Validate validates the packet contents.
func (p *ConnectPacket) Validate() error {
	if p.ClientID == "" && !p.CleanSession {
		return ErrClientIDRequired
	}

	if p.WillFlag {
		if p.WillQoS > 2 {
			return ErrInvalidQoS
		}
		if err := ValidateTopicName(p.WillTopic); err != nil {
			return err
		}
	}

	if len(p.Password) > 0 && p.Username == "" {
		return ErrPasswordWithoutUser
	}

	return nil
}
