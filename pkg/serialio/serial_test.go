package serialio

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nordic-semi/h5link/pkg/transport"
)

// chunkedReader yields one chunk per Read call, then returns errDone.
type chunkedReader struct {
	mu      sync.Mutex
	chunks  [][]byte
	i       int
	errDone error
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.i >= len(r.chunks) {
		return 0, r.errDone
	}
	n := copy(p, r.chunks[r.i])
	r.i++
	return n, nil
}

func TestReadPumpForwardsChunksThenReportsIOError(t *testing.T) {
	r := &chunkedReader{
		chunks:  [][]byte{{0xC0, 0x01}, {0x02, 0xC0}},
		errDone: errors.New("device unplugged"),
	}

	var mu sync.Mutex
	var got [][]byte
	data := func(b []byte) {
		mu.Lock()
		got = append(got, b)
		mu.Unlock()
	}

	p := &Port{done: make(chan struct{})}
	var statusCode transport.StatusCode
	var statusMsg string
	p.status = func(code transport.StatusCode, msg string) {
		statusCode, statusMsg = code, msg
	}

	p.readPump(r, data)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	require.Equal(t, []byte{0xC0, 0x01}, got[0])
	require.Equal(t, []byte{0x02, 0xC0}, got[1])
	require.Equal(t, transport.StatusIOResourcesUnavailable, statusCode)
	require.Equal(t, "device unplugged", statusMsg)

	select {
	case <-p.done:
	default:
		t.Fatal("done channel was not closed after IO error")
	}
}

func TestReadPumpStopsCleanlyOnZeroReadNilError(t *testing.T) {
	r := &chunkedReader{chunks: nil, errDone: nil}

	finished := make(chan struct{})
	p := &Port{done: make(chan struct{})}
	go func() {
		p.readPump(r, func([]byte) {})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("readPump did not return on (0, nil) read")
	}
}

func TestSendAndCloseFailWithoutOpen(t *testing.T) {
	p := New(Config{PortName: "/dev/null", BaudRate: 1000000})
	require.ErrorIs(t, p.Send([]byte{1}), ErrNotOpen)
	require.ErrorIs(t, p.Close(), ErrNotOpen)
}

var _ io.Reader = (*chunkedReader)(nil)
