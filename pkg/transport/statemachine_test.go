package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nordic-semi/h5link/pkg/h5"
)

func TestRunResetSendsResetAndNotifiesStatus(t *testing.T) {
	lower := &fakeLower{}
	link := New(lower, 200*time.Millisecond)

	var gotCode StatusCode
	var gotMsg string
	link.statusCb = func(code StatusCode, msg string) { gotCode, gotMsg = code, msg }

	next := link.runReset()

	require.Equal(t, StateUninitialized, next)
	require.True(t, link.exit.resetSnapshot().resetSent)
	require.Equal(t, StatusResetPerformed, gotCode)
	require.NotEmpty(t, gotMsg)
	require.Len(t, lower.sent, 1)

	_, seq, ack, reliable, kind, err := decodeSent(t, lower.sent[0])
	require.NoError(t, err)
	require.Equal(t, h5.KindReset, kind)
	require.False(t, reliable)
	require.EqualValues(t, 0, seq)
	require.EqualValues(t, 0, ack)
}

func TestRunUninitializedRetriesThenFails(t *testing.T) {
	lower := &fakeLower{}
	link := New(lower, 200*time.Millisecond)
	link.setState(StateUninitialized)
	lower.onSend = func([]byte) [][]byte { return nil }

	start := time.Now()
	next := link.runUninitialized()
	elapsed := time.Since(start)

	require.Equal(t, StateFailed, next)
	require.Len(t, lower.sent, PacketRetransmissions)
	require.GreaterOrEqual(t, elapsed, 3*NonActiveStateTimeout) // 4 attempts, 3 full waits between them
}

func TestRunUninitializedSucceedsOnFirstReply(t *testing.T) {
	lower := &fakeLower{}
	link := New(lower, 200*time.Millisecond)
	link.setState(StateUninitialized)
	require.NoError(t, lower.Open(link.lowerStatusHandler, link.lowerDataHandler))
	lower.onSend = func(raw []byte) [][]byte {
		return [][]byte{wireFrame(t, h5.SyncRspPacketPayload(), 0, 0, false, h5.KindLinkControl)}
	}

	next := link.runUninitialized()

	require.Equal(t, StateInitialized, next)
	require.Len(t, lower.sent, 1)
}

func TestWaitFulfilledOrTimeoutReturnsFalseOnTimeout(t *testing.T) {
	link := New(&fakeLower{}, 200*time.Millisecond)
	ok := link.waitFulfilledOrTimeout(StateUninitialized, 20*time.Millisecond)
	require.False(t, ok)
}

func TestWaitFulfilledOrTimeoutReturnsTrueWhenAlreadyFulfilled(t *testing.T) {
	link := New(&fakeLower{}, 200*time.Millisecond)
	link.exit.setSyncRspReceived()
	ok := link.waitFulfilledOrTimeout(StateUninitialized, 20*time.Millisecond)
	require.True(t, ok)
}
