package h5

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name      string
		payload   []byte
		seq       uint8
		ack       uint8
		reliable  bool
		integrity bool
		kind      Kind
	}{
		{"empty link control", nil, 0, 0, false, false, KindLinkControl},
		{"vendor specific reliable", []byte{0xAA, 0xBB}, 3, 5, true, true, KindVendorSpecific},
		{"ack packet", nil, 0, 7, false, false, KindAck},
		{"max seq and ack", []byte{1, 2, 3}, 7, 7, true, false, KindHciEvent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := Encode(tc.payload, tc.seq, tc.ack, tc.reliable, tc.integrity, tc.kind)
			require.NoError(t, err)

			payload, seq, ack, reliable, kind, err := Decode(frame)
			require.NoError(t, err)
			require.Equal(t, tc.payload, payload)
			require.Equal(t, tc.seq, seq)
			require.Equal(t, tc.ack, ack)
			require.Equal(t, tc.reliable, reliable)
			require.Equal(t, tc.kind, kind)
		})
	}
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, _, _, _, _, err := Decode([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrShortFrame)
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	frame, err := Encode([]byte{1}, 0, 0, false, false, KindHciCommand)
	require.NoError(t, err)
	frame[3] ^= 0xFF

	_, _, _, _, _, err = Decode(frame)
	require.ErrorIs(t, err, ErrChecksum)
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	frame, err := Encode([]byte{1, 2}, 0, 0, false, false, KindHciCommand)
	require.NoError(t, err)
	frame = append(frame, 0x99)

	_, _, _, _, _, err = Decode(frame)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestEncodeRejectsOversizePayload(t *testing.T) {
	_, err := Encode(make([]byte, MaxPayloadLen+1), 0, 0, false, false, KindAclData)
	require.ErrorIs(t, err, ErrPayloadTooLong)
}
