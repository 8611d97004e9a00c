package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned for connection configurations that cannot be
// resolved to a usable transport.
var ErrInvalidConfig = errors.New("invalid connection config")

// TransportKind selects how the mount link is carried.
type TransportKind int

const (
	TransportSerial TransportKind = iota
	TransportTCP
)

func (k TransportKind) String() string {
	if k == TransportTCP {
		return "tcp"
	}
	return "serial"
}

const (
	// DefaultBaudRate is the hand-controller's fixed line speed.
	DefaultBaudRate = 9600
	// DefaultIOTimeout bounds a single read or write against the link.
	DefaultIOTimeout = 3500 * time.Millisecond
)

// ConnectionConfig is the resolved, immutable description of the mount link.
// It is a tagged variant: exactly one of the Serial or TCP field groups is
// meaningful, selected by Kind. Resolve it once at construction and never
// re-inspect per call.
type ConnectionConfig struct {
	Kind TransportKind

	// Serial fields.
	SerialPort string // device path, e.g. /dev/ttyUSB0
	BaudRate   int

	// TCP fields.
	Host string
	Port int

	// Shared fields.
	IOTimeout   time.Duration
	AutoConnect bool
}

// NewSerialConfig builds a serial-link configuration. A zero baud rate takes
// the device default.
func NewSerialConfig(port string, baud int) (ConnectionConfig, error) {
	if port == "" {
		return ConnectionConfig{}, fmt.Errorf("%w: empty serial port", ErrInvalidConfig)
	}
	if baud == 0 {
		baud = DefaultBaudRate
	}
	if baud < 0 {
		return ConnectionConfig{}, fmt.Errorf("%w: baud rate %d", ErrInvalidConfig, baud)
	}
	return ConnectionConfig{
		Kind:       TransportSerial,
		SerialPort: port,
		BaudRate:   baud,
		IOTimeout:  DefaultIOTimeout,
	}, nil
}

// NewTCPConfig builds a network-link configuration for serial-over-TCP
// bridges; the protocol bytes are identical on either transport.
func NewTCPConfig(host string, port int) (ConnectionConfig, error) {
	if host == "" {
		return ConnectionConfig{}, fmt.Errorf("%w: empty host", ErrInvalidConfig)
	}
	if port <= 0 || port > 65535 {
		return ConnectionConfig{}, fmt.Errorf("%w: port %d", ErrInvalidConfig, port)
	}
	return ConnectionConfig{
		Kind:      TransportTCP,
		Host:      host,
		Port:      port,
		IOTimeout: DefaultIOTimeout,
	}, nil
}

// WithIOTimeout returns a copy with a different per-call I/O timeout.
func (c ConnectionConfig) WithIOTimeout(d time.Duration) ConnectionConfig {
	if d > 0 {
		c.IOTimeout = d
	}
	return c
}

// WithAutoConnect returns a copy with the auto-connect flag set.
func (c ConnectionConfig) WithAutoConnect(auto bool) ConnectionConfig {
	c.AutoConnect = auto
	return c
}

// Address renders the endpoint for logging.
func (c ConnectionConfig) Address() string {
	if c.Kind == TransportTCP {
		return fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	return fmt.Sprintf("%s@%d", c.SerialPort, c.BaudRate)
}
