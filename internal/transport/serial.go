package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/skyfoundry/mount-commander/model"
)

// serialTransport drives the RS-232 hand-controller port.
type serialTransport struct {
	path    string
	baud    int
	timeout time.Duration
	port    serial.Port
}

func newSerial(cfg model.ConnectionConfig) *serialTransport {
	return &serialTransport{
		path:    cfg.SerialPort,
		baud:    cfg.BaudRate,
		timeout: cfg.IOTimeout,
	}
}

func (s *serialTransport) Open() error {
	if s.port != nil {
		return fmt.Errorf("open %s: already open", s.path)
	}
	mode := &serial.Mode{
		BaudRate: s.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.path, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if err := port.SetReadTimeout(s.timeout); err != nil {
		port.Close()
		return fmt.Errorf("set read timeout on %s: %w", s.path, err)
	}
	s.port = port
	return nil
}

func (s *serialTransport) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

func (s *serialTransport) Write(p []byte) error {
	if s.port == nil {
		return ErrClosed
	}
	for len(p) > 0 {
		n, err := s.port.Write(p)
		if err != nil {
			return fmt.Errorf("write %s: %w", s.path, err)
		}
		if n == 0 {
			return fmt.Errorf("write %s: %w", s.path, ErrTimeout)
		}
		p = p[n:]
	}
	return nil
}

func (s *serialTransport) Read(p []byte) (int, error) {
	if s.port == nil {
		return 0, ErrClosed
	}
	n, err := s.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", s.path, err)
	}
	// The serial stack reports an expired read timeout as a zero-byte
	// success; normalize it so callers see one timeout error shape.
	if n == 0 {
		return 0, fmt.Errorf("read %s: %w", s.path, ErrTimeout)
	}
	return n, nil
}
