package mqttv3

import "errors"

// Header decoder errors.
var (
	ErrHeaderIncomplete = errors.New("fixed header incomplete")
	ErrHeaderFinished   = errors.New("fixed header already finished")
)

// HeaderDecoder incrementally decodes a fixed header fed one byte at a time.
// It never touches a transport, so the caller decides where bytes come from.
// The zero value is ready to use; a decoder is not reusable once finished.
type HeaderDecoder struct {
	header   FixedHeader
	acc      uint32
	shift    uint
	n        int
	finished bool
}

// Feed consumes the next header byte.
func (d *HeaderDecoder) Feed(b byte) error {
	if d.finished {
		return ErrHeaderFinished
	}

	if d.n == 0 {
		pt := PacketType(b >> 4)
		if !pt.Valid() {
			return ErrInvalidPacketType
		}
		d.header.PacketType = pt
		d.header.Flags = b & 0x0F
		d.n++
		return nil
	}

	acc, shift, more, err := decodeVarintStep(b, d.acc, d.shift)
	if err != nil {
		return err
	}
	d.n++
	d.acc = acc
	d.shift = shift

	if !more {
		d.header.RemainingLength = d.acc
		d.finished = true
	}

	return nil
}

// Finished reports whether the remaining length is fully known.
func (d *HeaderDecoder) Finished() bool {
	return d.finished
}

// Len returns the number of header bytes consumed so far.
func (d *HeaderDecoder) Len() int {
	return d.n
}

// Header returns the decoded header. It fails until Finished reports true.
func (d *HeaderDecoder) Header() (FixedHeader, error) {
	if !d.finished {
		return FixedHeader{}, ErrHeaderIncomplete
	}
	return d.header, nil
}
