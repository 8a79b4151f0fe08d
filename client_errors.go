package mqttv3

import (
	"errors"
)

// Error kinds reported by the client and the packet reader - check with errors.Is().
var (
	// ErrConnect is returned when the transport could not be established.
	ErrConnect = errors.New("connect failed")

	// ErrEncode is returned when a packet could not be serialized; nothing was sent.
	ErrEncode = errors.New("encode failed")

	// ErrTransport is returned when writing to the transport failed.
	ErrTransport = errors.New("transport failed")

	// ErrHeader is returned when the fixed header could not be read or decoded.
	ErrHeader = errors.New("invalid fixed header")

	// ErrFactory is returned when a decoded header names a type no variant exists for.
	ErrFactory = errors.New("packet factory failed")

	// ErrBodyTransport is returned when the transport failed while reading a payload.
	ErrBodyTransport = errors.New("payload read failed")

	// ErrBodyProtocol is returned when a payload was rejected by its packet.
	ErrBodyProtocol = errors.New("payload rejected")

	// ErrIncompleteBody is returned when a payload was fully read but the packet
	// did not report completion. It indicates a defect, not a network condition.
	ErrIncompleteBody = errors.New("payload incomplete")
)

// ErrClientClosed is returned when an operation is attempted on a closed client.
var ErrClientClosed = errors.New("client closed")

// OpError describes a failed client or codec operation.
// Extract with errors.As(); both Kind and Err match errors.Is().
type OpError struct {
	// Op is the operation that failed: "open", "send", "receive" or "read".
	Op string

	// Kind is one of the error kinds above.
	Kind error

	// Err is the underlying cause, if any.
	Err error
}

func newOpError(op string, kind, cause error) *OpError {
	return &OpError{Op: op, Kind: kind, Err: cause}
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return "mqttv3: " + e.Op + ": " + e.Kind.Error()
	}
	return "mqttv3: " + e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// closesConnection reports whether an error of this kind leaves the stream
// position untrustworthy, so the connection must be dropped.
func (e *OpError) closesConnection() bool {
	switch e.Kind {
	case ErrTransport, ErrHeader, ErrBodyTransport, ErrBodyProtocol:
		return true
	default:
		return false
	}
}

// ConnackError is returned when the server refuses a connection.
// Extract with errors.As().
type ConnackError struct {
	ReturnCode ConnectReturnCode
}

func (e *ConnackError) Error() string {
	return "connect refused: " + e.ReturnCode.String()
}

func (e *ConnackError) Unwrap() error { return ErrConnect }

// SubscribeError is returned when the server rejects a subscription.
// Extract with errors.As().
type SubscribeError struct {
	TopicFilter string
	ReturnCode  SubackReturnCode
}

func (e *SubscribeError) Error() string {
	return "subscribe " + e.TopicFilter + " failed: " + e.ReturnCode.String()
}
