// Package serialio is a LowerTransport implementation over a real UART,
// grounded on the SerialConnection wrapper in the Thermoquad heliostat
// controller's connection layer (cmd/connection.go).
package serialio

import (
	"errors"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/nordic-semi/h5link/pkg/transport"
)

// Config describes how to open the serial port.
type Config struct {
	PortName string
	BaudRate int
}

// mode returns the fixed 8N1 framing the H5 transport expects of its line.
func (c Config) mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// ErrNotOpen is returned by Send and Close when the port was never opened.
var ErrNotOpen = errors.New("serialio: port not open")

// Port implements transport.LowerTransport over a real serial device. Open
// spawns a read-pump goroutine that feeds every chunk it reads to the
// registered DataFunc until the port is closed or read fails, at which
// point it reports StatusIOResourcesUnavailable exactly once.
type Port struct {
	cfg Config

	mu     sync.Mutex
	port   serial.Port
	status transport.StatusFunc
	done   chan struct{}
}

// New creates a Port that will open cfg when Open is called.
func New(cfg Config) *Port {
	return &Port{cfg: cfg}
}

// Open implements transport.LowerTransport.
func (p *Port) Open(status transport.StatusFunc, data transport.DataFunc) error {
	port, err := serial.Open(p.cfg.PortName, p.cfg.mode())
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.port = port
	p.status = status
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.readPump(port, data)
	return nil
}

// readPump blocks on r.Read and forwards every non-empty chunk to data,
// until a read error (including one caused by Close) ends the pump. It
// takes a plain io.Reader so the loop can be exercised in tests without a
// real serial.Port.
func (p *Port) readPump(r io.Reader, data transport.DataFunc) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 && data != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			data(chunk)
		}
		if err != nil {
			p.reportIOError(err)
			return
		}
		if n == 0 {
			// go.bug.st/serial returns (0, nil) on an explicit Close.
			return
		}
	}
}

func (p *Port) reportIOError(err error) {
	p.mu.Lock()
	status := p.status
	done := p.done
	p.mu.Unlock()

	if status != nil {
		status(transport.StatusIOResourcesUnavailable, err.Error())
	}
	if done != nil {
		close(done)
	}
}

// Send implements transport.LowerTransport.
func (p *Port) Send(b []byte) error {
	p.mu.Lock()
	port := p.port
	p.mu.Unlock()

	if port == nil {
		return ErrNotOpen
	}
	_, err := port.Write(b)
	return err
}

// Close implements transport.LowerTransport.
func (p *Port) Close() error {
	p.mu.Lock()
	port := p.port
	p.mu.Unlock()

	if port == nil {
		return ErrNotOpen
	}
	return port.Close()
}
