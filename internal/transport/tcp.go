package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/skyfoundry/mount-commander/model"
)

// tcpTransport talks to a serial-over-TCP bridge (for example a WiFi adapter
// plugged into the hand-controller port).
type tcpTransport struct {
	addr    string
	timeout time.Duration
	conn    net.Conn
}

func newTCP(cfg model.ConnectionConfig) *tcpTransport {
	return &tcpTransport{
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		timeout: cfg.IOTimeout,
	}
}

func (t *tcpTransport) Open() error {
	if t.conn != nil {
		return fmt.Errorf("dial %s: already open", t.addr)
	}
	conn, err := net.DialTimeout("tcp", t.addr, t.timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.addr, err)
	}
	t.conn = conn
	return nil
}

func (t *tcpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", t.addr, err)
	}
	return nil
}

func (t *tcpTransport) Write(p []byte) error {
	if t.conn == nil {
		return ErrClosed
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		return fmt.Errorf("write deadline %s: %w", t.addr, err)
	}
	if _, err := t.conn.Write(p); err != nil {
		return fmt.Errorf("write %s: %w", t.addr, normalizeNetErr(err))
	}
	return nil
}

func (t *tcpTransport) Read(p []byte) (int, error) {
	if t.conn == nil {
		return 0, ErrClosed
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return 0, fmt.Errorf("read deadline %s: %w", t.addr, err)
	}
	n, err := t.conn.Read(p)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", t.addr, normalizeNetErr(err))
	}
	return n, nil
}

// normalizeNetErr folds deadline expiries into the package timeout sentinel.
func normalizeNetErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return ErrTimeout
	}
	return err
}
