package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/skyfoundry/mount-commander/internal/logging"
	"github.com/skyfoundry/mount-commander/internal/observability"
	"github.com/skyfoundry/mount-commander/internal/transport"
)

// Link states. The engine moves between them only under its own lock.
const (
	StateClosed  = "closed"
	StateOpen    = "open"
	StateFaulted = "faulted"
)

const (
	eventOpen    = "open"
	eventFault   = "fault"
	eventRecover = "recover"
	eventClose   = "close"
)

var (
	// ErrNotConnected reports a command attempted without a live link, after
	// any permitted recovery has already been tried.
	ErrNotConnected = errors.New("mount not connected")
	// ErrProtocolMismatch reports a reply that frames correctly but carries
	// the wrong bytes, the echo handshake included.
	ErrProtocolMismatch = errors.New("protocol mismatch")
)

// Engine owns the single in-flight command slot over one transport. All
// exchanges are serialized; a faulted link gets exactly one close-and-reopen
// before the next command is resubmitted, and a second consecutive failure
// surfaces to the caller untouched.
type Engine struct {
	tr      transport.Transport
	machine *fsm.FSM

	mu      sync.Mutex
	log     logging.Logger
	metrics *observability.MountCollector
}

// NewEngine wires an engine over an already-constructed transport. The
// transport is not opened until Open is called.
func NewEngine(tr transport.Transport, log logging.Logger, metrics *observability.MountCollector) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	machine := fsm.NewFSM(
		StateClosed,
		fsm.Events{
			{Name: eventOpen, Src: []string{StateClosed}, Dst: StateOpen},
			{Name: eventFault, Src: []string{StateOpen}, Dst: StateFaulted},
			{Name: eventRecover, Src: []string{StateFaulted}, Dst: StateOpen},
			{Name: eventClose, Src: []string{StateClosed, StateOpen, StateFaulted}, Dst: StateClosed},
		},
		fsm.Callbacks{},
	)
	return &Engine{tr: tr, machine: machine, log: log, metrics: metrics}
}

// State returns the current link state.
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Current()
}

// transition fires a state event. The machine has no callbacks, so the
// transition is pure bookkeeping; it must land even when the operation that
// triggered it was already cancelled, hence the detached context.
func (e *Engine) transition(event string) error {
	return e.machine.Event(context.Background(), event)
}

// Open establishes the link and verifies it with an echo handshake. A
// mismatched echo closes the transport again and leaves the engine Closed: a
// garbled or silent line is never treated as usable.
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.machine.Is(StateOpen) {
		return nil
	}
	if err := e.openAndHandshake(ctx); err != nil {
		return err
	}
	if err := e.transition(eventOpen); err != nil {
		return fmt.Errorf("link state: %w", err)
	}
	e.metrics.SetLinkUp(true)
	e.log.Info(ctx, "mount link open")
	return nil
}

// Close tears the link down. Closing a closed engine is a no-op.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.machine.Is(StateClosed) {
		return nil
	}
	err := e.tr.Close()
	if serr := e.transition(eventClose); serr != nil {
		return fmt.Errorf("link state: %w", serr)
	}
	e.metrics.SetLinkUp(false)
	e.log.Info(ctx, "mount link closed")
	return err
}

// Do sends one command and collects its reply, returning the payload with the
// terminator stripped. From Faulted, the link is closed and reopened once
// before the command is resubmitted; a Closed engine refuses outright.
func (e *Engine) Do(ctx context.Context, cmd Command) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, log := logging.WithCommandLogger(ctx, e.log)
	ctx, span := observability.StartCommandSpan(ctx, cmd.Name)
	defer span.End()

	switch e.machine.Current() {
	case StateClosed:
		e.metrics.RecordCommand(cmd.Name, "not-connected", 0)
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, cmd.Name)
	case StateFaulted:
		if err := e.recover(ctx, log); err != nil {
			e.metrics.RecordCommand(cmd.Name, "not-connected", 0)
			return nil, fmt.Errorf("%w: recovery failed: %v", ErrNotConnected, err)
		}
	}

	start := time.Now()
	payload, err := e.exchange(cmd)
	seconds := time.Since(start).Seconds()
	if err != nil {
		if serr := e.transition(eventFault); serr != nil {
			log.Error(ctx, "link state", logging.Err(serr))
		}
		e.metrics.SetLinkUp(false)
		e.metrics.RecordCommand(cmd.Name, failureStatus(err), seconds)
		log.Warn(ctx, "command failed",
			logging.String("op", cmd.Name), logging.Err(err))
		return nil, err
	}
	e.metrics.RecordCommand(cmd.Name, "ok", seconds)
	log.Debug(ctx, "command ok",
		logging.String("op", cmd.Name), logging.Int("reply_bytes", len(payload)))
	return payload, nil
}

// recover closes and reopens a faulted transport once. Callers hold e.mu.
func (e *Engine) recover(ctx context.Context, log logging.Logger) error {
	log.Warn(ctx, "link faulted, reopening")
	e.metrics.RecordReconnect()
	if err := e.tr.Close(); err != nil {
		log.Debug(ctx, "close before reopen", logging.Err(err))
	}
	if err := e.openAndHandshake(ctx); err != nil {
		return err
	}
	if err := e.transition(eventRecover); err != nil {
		return fmt.Errorf("link state: %w", err)
	}
	e.metrics.SetLinkUp(true)
	return nil
}

// openAndHandshake opens the transport and verifies the line with an echo of
// the sentinel byte. On any failure the transport is closed again so the
// engine never holds a half-verified link. Callers hold e.mu.
func (e *Engine) openAndHandshake(ctx context.Context) error {
	if err := e.tr.Open(); err != nil {
		return fmt.Errorf("open transport: %w", err)
	}
	payload, err := e.exchange(Echo(HandshakeSentinel))
	if err != nil {
		e.tr.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	if len(payload) != 1 || payload[0] != HandshakeSentinel {
		e.tr.Close()
		return fmt.Errorf("%w: echo returned %q", ErrProtocolMismatch, payload)
	}
	e.log.Debug(ctx, "handshake ok")
	return nil
}

// exchange performs one raw write/read cycle. Callers hold e.mu.
func (e *Engine) exchange(cmd Command) ([]byte, error) {
	if err := e.tr.Write(cmd.Frame); err != nil {
		return nil, fmt.Errorf("write %s: %w", cmd.Name, err)
	}
	reply := make([]byte, cmd.ReplyLen)
	for off := 0; off < len(reply); {
		n, err := e.tr.Read(reply[off:])
		if err != nil {
			return nil, fmt.Errorf("read %s after %d of %d bytes: %w",
				cmd.Name, off, len(reply), err)
		}
		off += n
	}
	if reply[len(reply)-1] != Terminator {
		return nil, fmt.Errorf("%w: %s reply %q lacks terminator",
			ErrProtocolMismatch, cmd.Name, reply)
	}
	return bytes.TrimSuffix(reply, []byte{Terminator}), nil
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, transport.ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrProtocolMismatch):
		return "mismatch"
	default:
		return "error"
	}
}
