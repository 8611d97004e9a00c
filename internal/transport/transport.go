// Package transport carries the mount protocol bytes over a serial line or a
// serial-over-TCP bridge. Both carriers present the same half-duplex stream;
// the protocol engine above does not know which one it is talking through.
package transport

import (
	"errors"
	"fmt"

	"github.com/skyfoundry/mount-commander/model"
)

var (
	// ErrTimeout reports that a read or write did not complete within the
	// configured per-call timeout.
	ErrTimeout = errors.New("transport timeout")
	// ErrClosed reports I/O against a transport that is not open.
	ErrClosed = errors.New("transport closed")
)

// Transport is a synchronous byte stream with per-call timeouts. It is not
// safe for concurrent use; the protocol engine serializes access.
type Transport interface {
	// Open establishes the link. Opening an already-open transport is an
	// error.
	Open() error
	// Close tears the link down. Closing a closed transport is a no-op.
	Close() error
	// Write sends the whole buffer or fails within the I/O timeout.
	Write(p []byte) error
	// Read fills p with at least one byte or fails. A quiet line surfaces
	// as ErrTimeout, never as a zero-byte success.
	Read(p []byte) (int, error)
}

// New resolves a connection config to a concrete transport.
func New(cfg model.ConnectionConfig) (Transport, error) {
	switch cfg.Kind {
	case model.TransportSerial:
		return newSerial(cfg), nil
	case model.TransportTCP:
		return newTCP(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown transport kind %d", model.ErrInvalidConfig, cfg.Kind)
	}
}
