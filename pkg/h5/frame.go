package h5

import "errors"

// HeaderLen is the fixed size of an H5 header in bytes.
const HeaderLen = 4

// MaxPayloadLen is the largest payload this codec can frame: the length
// field is a single byte, which comfortably covers link-control and
// vendor-specific payloads on this link (see DESIGN.md).
const MaxPayloadLen = 0xFF

// Errors returned by Encode and Decode.
var (
	ErrShortFrame     = errors.New("h5: frame shorter than header")
	ErrChecksum       = errors.New("h5: header checksum mismatch")
	ErrLengthMismatch = errors.New("h5: payload length does not match header")
	ErrPayloadTooLong = errors.New("h5: payload exceeds maximum frame length")
)

// Encode serializes payload with the given header fields into a complete H5
// frame (header + payload). It fails only if payload is too long to frame.
func Encode(payload []byte, seq, ack uint8, reliable bool, integrity bool, kind Kind) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}

	header := [HeaderLen]byte{}
	header[0] = (seq & 0x07) | ((ack & 0x07) << 3)
	if reliable {
		header[0] |= 1 << 6
	}
	if integrity {
		header[0] |= 1 << 7
	}
	header[1] = byte(kind)
	header[2] = byte(len(payload))
	header[3] = checksum(header[:3])

	frame := make([]byte, HeaderLen+len(payload))
	copy(frame, header[:])
	copy(frame[HeaderLen:], payload)
	return frame, nil
}

// Decode parses a complete H5 frame (header + payload) into its fields.
func Decode(frame []byte) (payload []byte, seq, ack uint8, reliable bool, kind Kind, err error) {
	if len(frame) < HeaderLen {
		err = ErrShortFrame
		return
	}

	header := frame[:HeaderLen]
	if checksum(header[:3]) != header[3] {
		err = ErrChecksum
		return
	}

	payloadLen := int(header[2])
	if len(frame)-HeaderLen != payloadLen {
		err = ErrLengthMismatch
		return
	}

	seq = header[0] & 0x07
	ack = (header[0] >> 3) & 0x07
	reliable = header[0]&(1<<6) != 0
	integrity := header[0]&(1<<7) != 0
	_ = integrity // data-integrity check type is round-tripped but unused: no CRC (Non-goal)
	kind = Kind(header[1])

	if payloadLen == 0 {
		payload = nil
	} else {
		payload = append([]byte(nil), frame[HeaderLen:]...)
	}
	return
}

// checksum returns the byte that makes the sum of b and the returned byte
// equal to zero modulo 256, i.e. a simple additive header checksum.
func checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return -sum
}
