package mqttv3

// ConnectReturnCode is the result carried by a CONNACK packet.
type ConnectReturnCode byte

// CONNACK return codes.
const (
	// Connection accepted
	ConnectAccepted ConnectReturnCode = 0x00
	// The server does not support the requested protocol level
	ConnectRefusedProtocolVersion ConnectReturnCode = 0x01
	// The client identifier is correct UTF-8 but not allowed by the server
	ConnectRefusedIdentifierRejected ConnectReturnCode = 0x02
	// The network connection was made but the MQTT service is unavailable
	ConnectRefusedServerUnavailable ConnectReturnCode = 0x03
	// The data in the user name or password is malformed
	ConnectRefusedBadUsernameOrPassword ConnectReturnCode = 0x04
	// The client is not authorized to connect
	ConnectRefusedNotAuthorized ConnectReturnCode = 0x05
)

// String returns the string representation of the return code.
func (c ConnectReturnCode) String() string {
	switch c {
	case ConnectAccepted:
		return "connection accepted"
	case ConnectRefusedProtocolVersion:
		return "unacceptable protocol version"
	case ConnectRefusedIdentifierRejected:
		return "identifier rejected"
	case ConnectRefusedServerUnavailable:
		return "server unavailable"
	case ConnectRefusedBadUsernameOrPassword:
		return "bad user name or password"
	case ConnectRefusedNotAuthorized:
		return "not authorized"
	default:
		return "unknown return code"
	}
}

// Valid returns true if the code is defined by the protocol.
func (c ConnectReturnCode) Valid() bool {
	return c <= ConnectRefusedNotAuthorized
}

// SubackReturnCode is the per-filter result carried by a SUBACK packet.
type SubackReturnCode byte

// SUBACK return codes.
const (
	SubackGrantedQoS0 SubackReturnCode = 0x00
	SubackGrantedQoS1 SubackReturnCode = 0x01
	SubackGrantedQoS2 SubackReturnCode = 0x02
	SubackFailure     SubackReturnCode = 0x80
)

// String returns the string representation of the return code.
func (c SubackReturnCode) String() string {
	switch c {
	case SubackGrantedQoS0:
		return "granted QoS 0"
	case SubackGrantedQoS1:
		return "granted QoS 1"
	case SubackGrantedQoS2:
		return "granted QoS 2"
	case SubackFailure:
		return "failure"
	default:
		return "unknown return code"
	}
}

// Valid returns true if the code is defined by the protocol.
func (c SubackReturnCode) Valid() bool {
	return c <= SubackGrantedQoS2 || c == SubackFailure
}

// IsFailure returns true if the subscription was rejected.
func (c SubackReturnCode) IsFailure() bool {
	return c == SubackFailure
}
