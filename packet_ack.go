package mqttv3

import (
	"errors"
	"io"
)

// ErrInvalidPacketID is returned when a packet identifier is zero where one is required.
var ErrInvalidPacketID = errors.New("invalid packet identifier")

// ackLength is the payload size of every packet that carries only a packet identifier
// (PUBACK, PUBREC, PUBREL, PUBCOMP, UNSUBACK).
const ackLength = 2

// encodeAck encodes an acknowledgment packet with the given packet type and flags.
func encodeAck(w io.Writer, packetType PacketType, flags byte, packetID uint16) (int, error) {
	if packetID == 0 {
		return 0, ErrInvalidPacketID
	}
	return encodePacket(w, packetType, flags, []byte{byte(packetID >> 8), byte(packetID)})
}

// decodeAck parses the packet identifier of an acknowledgment packet.
func decodeAck(data []byte, packetID *uint16) error {
	return parseAll(data, func(r *bytesReader) error {
		id, _, err := decodeUint16(r)
		if err != nil {
			return err
		}
		if id == 0 {
			return ErrInvalidPacketID
		}
		*packetID = id
		return nil
	})
}
