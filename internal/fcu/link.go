// Package fcu delivers controller output to the flight-control unit over a
// serial link. Setpoints are line-framed so the companion firmware can parse
// them with a plain scanner.
package fcu

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/skyward-robotics/quadctrl/internal/control"
)

// DefaultBaudRate is the rate the setpoint link runs at.
const DefaultBaudRate = 115200

// Porter is the minimal interface the link needs from a serial port. The
// abstraction enables unit testing without real hardware.
type Porter interface {
	io.Writer
	io.Closer
}

// Link frames attitude setpoints onto a port.
type Link struct {
	port Porter
}

// NewLink wraps an already opened port.
func NewLink(p Porter) *Link {
	return &Link{port: p}
}

// Dial opens the serial device at path and returns a link over it.
func Dial(path string, baudRate int) (*Link, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open setpoint port %s: %w", path, err)
	}
	return NewLink(port), nil
}

// WriteSetpoint frames one attitude setpoint:
//
//	SP,<unix_nanos>,<thrust>,<qw>,<qx>,<qy>,<qz>\n
func (l *Link) WriteSetpoint(out control.Output, t time.Time) error {
	_, err := fmt.Fprintf(l.port, "SP,%d,%.6f,%.7f,%.7f,%.7f,%.7f\n",
		t.UnixNano(), out.Thrust,
		out.Attitude.Real, out.Attitude.Imag, out.Attitude.Jmag, out.Attitude.Kmag)
	if err != nil {
		return fmt.Errorf("failed to write setpoint: %w", err)
	}
	return nil
}

// Close closes the underlying port.
func (l *Link) Close() error {
	return l.port.Close()
}

// MockPort is an in-memory Porter recording everything written to it.
type MockPort struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// NewMockPort returns an empty mock port.
func NewMockPort() *MockPort {
	return &MockPort{}
}

// Write appends p to the recorded data.
func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("write on closed port")
	}
	m.data = append(m.data, p...)
	return len(p), nil
}

// Close marks the port closed.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Bytes returns a copy of everything written so far.
func (m *MockPort) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}
