// Package mount exposes the telescope controller: connection lifecycle plus
// the domain operations (goto, sync, motion, tracking, location, time) built
// on the protocol engine and the coordinate converter.
package mount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skyfoundry/mount-commander/core"
	"github.com/skyfoundry/mount-commander/internal/clock"
	"github.com/skyfoundry/mount-commander/internal/logging"
	"github.com/skyfoundry/mount-commander/internal/observability"
	"github.com/skyfoundry/mount-commander/internal/protocol"
	"github.com/skyfoundry/mount-commander/internal/transport"
	"github.com/skyfoundry/mount-commander/model"
)

// ErrInvalidRate reports a motion rate outside the device's 0-9 range.
var ErrInvalidRate = errors.New("motion rate out of range")

// MoveStepDuration is how long a single nudge drives the motors.
const MoveStepDuration = 500 * time.Millisecond

// Options carries the controller's injectable collaborators. Zero values get
// sensible defaults.
type Options struct {
	Logger  logging.Logger
	Metrics *observability.MountCollector
	Clock   clock.Clock
}

// Controller drives one mount over one link. Position queries run in precise
// mode. Commands are serialized by the engine underneath; the controller
// itself holds no lock across timed motion waits, so a separate goroutine can
// still issue StopMotion mid-move.
type Controller struct {
	cfg model.ConnectionConfig
	eng *protocol.Engine
	clk clock.Clock
	log logging.Logger
}

// NewController builds a controller for the given connection. No I/O happens
// until Connect or the first operation.
func NewController(cfg model.ConnectionConfig, opts Options) (*Controller, error) {
	tr, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	return newController(cfg, tr, opts), nil
}

func newController(cfg model.ConnectionConfig, tr transport.Transport, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Controller{
		cfg: cfg,
		eng: protocol.NewEngine(tr, log, opts.Metrics),
		clk: clk,
		log: log,
	}
}

// Connect opens the link and verifies the handshake.
func (c *Controller) Connect(ctx context.Context) error {
	return c.eng.Open(ctx)
}

// Close tears the link down.
func (c *Controller) Close(ctx context.Context) error {
	return c.eng.Close(ctx)
}

// Connected reports whether the link is currently open.
func (c *Controller) Connected() bool {
	return c.eng.State() == protocol.StateOpen
}

// do runs one command, reconnecting and retrying once after an I/O failure.
// A second consecutive failure surfaces untouched.
func (c *Controller) do(ctx context.Context, cmd protocol.Command) ([]byte, error) {
	if c.eng.State() == protocol.StateClosed {
		if err := c.eng.Open(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", protocol.ErrNotConnected, err)
		}
	}
	payload, err := c.eng.Do(ctx, cmd)
	if err == nil {
		return payload, nil
	}
	if !retryable(err) {
		return nil, err
	}
	c.log.Warn(ctx, "command failed, retrying once",
		logging.String("op", cmd.Name), logging.Err(err))
	return c.eng.Do(ctx, cmd)
}

func retryable(err error) bool {
	return errors.Is(err, transport.ErrTimeout) ||
		errors.Is(err, transport.ErrClosed) ||
		errors.Is(err, protocol.ErrProtocolMismatch)
}

// GetPositionRADec reads the current equatorial position in precise mode. A
// reply that fails to decode is an error, never a default coordinate.
func (c *Controller) GetPositionRADec(ctx context.Context) (model.EquatorialCoordinates, error) {
	payload, err := c.do(ctx, protocol.GetRADec(core.PrecisionPrecise))
	if err != nil {
		return model.EquatorialCoordinates{}, err
	}
	raCounts, decCounts, err := protocol.ParseAnglePair(payload, core.PrecisionPrecise)
	if err != nil {
		return model.EquatorialCoordinates{}, err
	}
	ra, err := core.DecodeRAHours(raCounts, core.PrecisionPrecise)
	if err != nil {
		return model.EquatorialCoordinates{}, err
	}
	dec, err := core.DecodeSignedDegrees(decCounts, core.PrecisionPrecise)
	if err != nil {
		return model.EquatorialCoordinates{}, err
	}
	return model.NewEquatorial(ra, dec)
}

// GetPositionAltAz reads the current horizontal position in precise mode.
// The wire order is azimuth first.
func (c *Controller) GetPositionAltAz(ctx context.Context) (model.HorizontalCoordinates, error) {
	payload, err := c.do(ctx, protocol.GetAltAz(core.PrecisionPrecise))
	if err != nil {
		return model.HorizontalCoordinates{}, err
	}
	azmCounts, altCounts, err := protocol.ParseAnglePair(payload, core.PrecisionPrecise)
	if err != nil {
		return model.HorizontalCoordinates{}, err
	}
	azm, err := core.DecodeDegrees(azmCounts, core.PrecisionPrecise)
	if err != nil {
		return model.HorizontalCoordinates{}, err
	}
	alt, err := core.DecodeSignedDegrees(altCounts, core.PrecisionPrecise)
	if err != nil {
		return model.HorizontalCoordinates{}, err
	}
	return model.NewHorizontal(azm, alt)
}

// GotoRADec starts a slew to the given equatorial coordinate. The device
// acknowledges receipt, not arrival; poll IsSlewing for completion.
func (c *Controller) GotoRADec(ctx context.Context, raHours, decDegrees float64) error {
	cmd, err := c.equatorialCommand(protocol.GotoRADec, raHours, decDegrees)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, cmd)
	return err
}

// GotoAltAz starts a slew to the given horizontal coordinate.
func (c *Controller) GotoAltAz(ctx context.Context, azDegrees, altDegrees float64) error {
	if _, err := model.NewHorizontal(azDegrees, altDegrees); err != nil {
		return err
	}
	azm, err := core.EncodeDegrees(azDegrees, core.PrecisionPrecise)
	if err != nil {
		return err
	}
	alt, err := core.EncodeSignedDegrees(altDegrees, core.PrecisionPrecise)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, protocol.GotoAltAz(core.PrecisionPrecise, azm, alt))
	return err
}

// SyncRADec tells the mount its current pointing equals the given coordinate,
// correcting the alignment model without moving.
func (c *Controller) SyncRADec(ctx context.Context, raHours, decDegrees float64) error {
	cmd, err := c.equatorialCommand(protocol.SyncRADec, raHours, decDegrees)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, cmd)
	return err
}

func (c *Controller) equatorialCommand(
	build func(core.Precision, uint32, uint32) protocol.Command,
	raHours, decDegrees float64,
) (protocol.Command, error) {
	if _, err := model.NewEquatorial(raHours, decDegrees); err != nil {
		return protocol.Command{}, err
	}
	ra, err := core.EncodeRAHours(raHours, core.PrecisionPrecise)
	if err != nil {
		return protocol.Command{}, err
	}
	dec, err := core.EncodeSignedDegrees(decDegrees, core.PrecisionPrecise)
	if err != nil {
		return protocol.Command{}, err
	}
	return build(core.PrecisionPrecise, ra, dec), nil
}

// IsSlewing polls the goto-in-progress flag. The answer is always a fresh
// device read, never a cached value.
func (c *Controller) IsSlewing(ctx context.Context) (bool, error) {
	payload, err := c.do(ctx, protocol.SlewInProgress())
	if err != nil {
		return false, err
	}
	state, err := protocol.ParseSlewFlag(payload)
	if err != nil {
		return false, err
	}
	return state == model.Slewing, nil
}

// CancelGoto aborts an in-progress slew. Safe to call when idle.
func (c *Controller) CancelGoto(ctx context.Context) error {
	_, err := c.do(ctx, protocol.CancelGoto())
	return err
}

// MoveFixed drives one axis at a fixed rate 0-9. Rate 0 stops the axis.
func (c *Controller) MoveFixed(ctx context.Context, dir model.Direction, rate int) error {
	if rate < 0 || rate > 9 {
		return fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	_, err := c.do(ctx, protocol.FixedRateMotion(dir, rate))
	return err
}

// StopMotion halts one axis.
func (c *Controller) StopMotion(ctx context.Context, axis model.Axis) error {
	dir := model.AzimuthPositive
	if axis == model.AxisAltitude {
		dir = model.AltitudePositive
	}
	_, err := c.do(ctx, protocol.FixedRateMotion(dir, 0))
	return err
}

// MoveStep nudges one axis for a fixed short interval.
func (c *Controller) MoveStep(ctx context.Context, dir model.Direction, rate int) error {
	return c.MoveForTime(ctx, dir, rate, MoveStepDuration)
}

// MoveForTime drives one axis for the given duration, then stops it. The call
// blocks for the full duration; real motion takes real time. The stop is
// issued even when the wait is cut short by ctx, so a cancelled move never
// leaves a motor running.
func (c *Controller) MoveForTime(ctx context.Context, dir model.Direction, rate int, d time.Duration) error {
	if err := c.MoveFixed(ctx, dir, rate); err != nil {
		return err
	}
	waitErr := c.clk.Sleep(ctx, d)
	stopErr := c.StopMotion(context.WithoutCancel(ctx), dir.Axis())
	if waitErr != nil {
		return waitErr
	}
	return stopErr
}

// GetTrackingMode reads the active tracking mode from the device.
func (c *Controller) GetTrackingMode(ctx context.Context) (model.TrackingMode, error) {
	payload, err := c.do(ctx, protocol.GetTracking())
	if err != nil {
		return model.TrackingOff, err
	}
	return protocol.ParseTracking(payload)
}

// SetTrackingMode switches the device tracking mode.
func (c *Controller) SetTrackingMode(ctx context.Context, mode model.TrackingMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: tracking mode %d", model.ErrInvalidCoordinate, mode)
	}
	_, err := c.do(ctx, protocol.SetTracking(mode))
	return err
}

// GetLocation reads the observer location stored in the hand controller.
func (c *Controller) GetLocation(ctx context.Context) (model.GeoLocation, error) {
	payload, err := c.do(ctx, protocol.GetLocation())
	if err != nil {
		return model.GeoLocation{}, err
	}
	return protocol.ParseLocation(payload)
}

// SetLocation stores the observer location in the hand controller.
func (c *Controller) SetLocation(ctx context.Context, loc model.GeoLocation) error {
	if _, err := model.NewGeoLocation(loc.LatitudeDegrees, loc.LongitudeDegrees); err != nil {
		return err
	}
	_, err := c.do(ctx, protocol.SetLocation(loc))
	return err
}

// GetTime reads the hand controller's clock.
func (c *Controller) GetTime(ctx context.Context) (time.Time, error) {
	payload, err := c.do(ctx, protocol.GetTime())
	if err != nil {
		return time.Time{}, err
	}
	return protocol.ParseTime(payload)
}

// SetTime sets the hand controller's clock. The wire format carries the year
// as a single byte counted from 2000, so dates outside 2000-2255 are
// rejected before any I/O.
func (c *Controller) SetTime(ctx context.Context, t time.Time) error {
	if y := t.Year(); y < 2000 || y > 2255 {
		return fmt.Errorf("year %d is outside the representable range 2000-2255", y)
	}
	_, err := c.do(ctx, protocol.SetTime(t))
	return err
}

// GetVersion reads the firmware version as "major.minor".
func (c *Controller) GetVersion(ctx context.Context) (string, error) {
	payload, err := c.do(ctx, protocol.GetVersion())
	if err != nil {
		return "", err
	}
	if len(payload) != 2 {
		return "", fmt.Errorf("%w: version reply %q", protocol.ErrMalformedReply, payload)
	}
	return fmt.Sprintf("%d.%d", payload[0], payload[1]), nil
}

// GetModel reads the mount model identifier.
func (c *Controller) GetModel(ctx context.Context) (int, error) {
	payload, err := c.do(ctx, protocol.GetModel())
	if err != nil {
		return 0, err
	}
	if len(payload) != 1 {
		return 0, fmt.Errorf("%w: model reply %q", protocol.ErrMalformedReply, payload)
	}
	return int(payload[0]), nil
}
