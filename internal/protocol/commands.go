// Package protocol frames and exchanges hand-controller commands over a
// transport. Commands are single-character opcodes with fixed-width payloads;
// every reply is terminated by '#', so a complete frame is detected by length
// without blocking past the per-call timeout.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/skyfoundry/mount-commander/core"
	"github.com/skyfoundry/mount-commander/model"
)

// Terminator closes every device reply.
const Terminator = '#'

// HandshakeSentinel is the byte sent with the echo command when a link is
// opened. Any value works; this one is unlikely to appear in line noise that
// also produces a well-framed reply.
const HandshakeSentinel byte = 0x78

// ErrMalformedReply reports a reply that arrived whole but does not parse.
var ErrMalformedReply = errors.New("malformed device reply")

// Command is one request/reply exchange. ReplyLen counts the terminator, so
// the engine knows exactly how many bytes to collect before parsing.
type Command struct {
	Name     string
	Frame    []byte
	ReplyLen int
}

// Echo asks the device to send a byte back unchanged.
func Echo(b byte) Command {
	return Command{Name: "echo", Frame: []byte{'K', b}, ReplyLen: 2}
}

// GetVersion reads the hand-controller firmware version (major, minor).
func GetVersion() Command {
	return Command{Name: "get-version", Frame: []byte{'V'}, ReplyLen: 3}
}

// GetModel reads the mount model identifier.
func GetModel() Command {
	return Command{Name: "get-model", Frame: []byte{'m'}, ReplyLen: 2}
}

// GetRADec queries the current equatorial position.
func GetRADec(p core.Precision) Command {
	op := byte('E')
	if p == core.PrecisionPrecise {
		op = 'e'
	}
	return Command{Name: "get-ra-dec", Frame: []byte{op}, ReplyLen: pairReplyLen(p)}
}

// GotoRADec starts a slew to the encoded equatorial position. The device
// acknowledges receipt, not completion.
func GotoRADec(p core.Precision, ra, dec uint32) Command {
	op := byte('R')
	if p == core.PrecisionPrecise {
		op = 'r'
	}
	return Command{Name: "goto-ra-dec", Frame: pairFrame(op, p, ra, dec), ReplyLen: 1}
}

// GetAltAz queries the current horizontal position. The reply carries azimuth
// first, then altitude.
func GetAltAz(p core.Precision) Command {
	op := byte('Z')
	if p == core.PrecisionPrecise {
		op = 'z'
	}
	return Command{Name: "get-alt-az", Frame: []byte{op}, ReplyLen: pairReplyLen(p)}
}

// GotoAltAz starts a slew to the encoded horizontal position.
func GotoAltAz(p core.Precision, azm, alt uint32) Command {
	op := byte('B')
	if p == core.PrecisionPrecise {
		op = 'b'
	}
	return Command{Name: "goto-alt-az", Frame: pairFrame(op, p, azm, alt), ReplyLen: 1}
}

// SyncRADec tells the device its current pointing is the encoded coordinate.
// No motion results.
func SyncRADec(p core.Precision, ra, dec uint32) Command {
	op := byte('S')
	if p == core.PrecisionPrecise {
		op = 's'
	}
	return Command{Name: "sync-ra-dec", Frame: pairFrame(op, p, ra, dec), ReplyLen: 1}
}

// SlewInProgress polls the goto-in-progress flag.
func SlewInProgress() Command {
	return Command{Name: "slew-in-progress", Frame: []byte{'L'}, ReplyLen: 2}
}

// CancelGoto aborts an in-progress slew. Cancelling an idle mount is a no-op
// on the device side.
func CancelGoto() Command {
	return Command{Name: "cancel-goto", Frame: []byte{'M'}, ReplyLen: 1}
}

// FixedRateMotion drives one axis at a fixed rate 0-9 through the motor
// passthrough. Rate 0 stops the axis.
func FixedRateMotion(dir model.Direction, rate int) Command {
	dev := byte(16)
	if dir.Axis() == model.AxisAltitude {
		dev = 17
	}
	sense := byte(37)
	if dir.Positive() {
		sense = 36
	}
	frame := []byte{'P', 2, dev, sense, byte(rate), 0, 0, 0}
	return Command{Name: "fixed-rate-motion", Frame: frame, ReplyLen: 1}
}

// GetTracking reads the active tracking mode.
func GetTracking() Command {
	return Command{Name: "get-tracking", Frame: []byte{'t'}, ReplyLen: 2}
}

// SetTracking switches the tracking mode.
func SetTracking(mode model.TrackingMode) Command {
	return Command{Name: "set-tracking", Frame: []byte{'T', byte(mode)}, ReplyLen: 1}
}

// GetLocation reads the stored observer location.
func GetLocation() Command {
	return Command{Name: "get-location", Frame: []byte{'w'}, ReplyLen: 9}
}

// SetLocation stores the observer location as degree/minute/second triples
// with a hemisphere flag per axis.
func SetLocation(loc model.GeoLocation) Command {
	frame := make([]byte, 0, 9)
	frame = append(frame, 'W')
	frame = append(frame, encodeDMS(loc.LatitudeDegrees)...)
	frame = append(frame, encodeDMS(loc.LongitudeDegrees)...)
	return Command{Name: "set-location", Frame: frame, ReplyLen: 1}
}

// GetTime reads the hand controller's clock.
func GetTime() Command {
	return Command{Name: "get-time", Frame: []byte{'h'}, ReplyLen: 9}
}

// SetTime sets the hand controller's clock from t, carrying t's zone offset
// in whole hours. Daylight saving is folded into the offset rather than sent
// as a separate flag.
func SetTime(t time.Time) Command {
	_, offsetSeconds := t.Zone()
	offsetHours := offsetSeconds / 3600
	offsetByte := byte(offsetHours)
	if offsetHours < 0 {
		offsetByte = byte(256 + offsetHours)
	}
	frame := []byte{
		'H',
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Year() - 2000),
		offsetByte,
		0,
	}
	return Command{Name: "set-time", Frame: frame, ReplyLen: 1}
}

// ParseAnglePair extracts the two raw counts from a position reply payload
// (terminator already stripped), e.g. "34AB,12CE".
func ParseAnglePair(payload []byte, p core.Precision) (uint32, uint32, error) {
	digits := p.HexDigits()
	if len(payload) != 2*digits+1 || payload[digits] != ',' {
		return 0, 0, fmt.Errorf("%w: angle pair %q", ErrMalformedReply, payload)
	}
	first, err := parseHex(payload[:digits])
	if err != nil {
		return 0, 0, err
	}
	second, err := parseHex(payload[digits+1:])
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}

// ParseSlewFlag interprets a goto-in-progress reply payload.
func ParseSlewFlag(payload []byte) (model.SlewState, error) {
	if len(payload) != 1 {
		return model.SlewIdle, fmt.Errorf("%w: slew flag %q", ErrMalformedReply, payload)
	}
	switch payload[0] {
	case '0':
		return model.SlewIdle, nil
	case '1':
		return model.Slewing, nil
	default:
		return model.SlewIdle, fmt.Errorf("%w: slew flag byte 0x%02x", ErrMalformedReply, payload[0])
	}
}

// ParseTracking interprets a get-tracking reply payload.
func ParseTracking(payload []byte) (model.TrackingMode, error) {
	if len(payload) != 1 {
		return model.TrackingOff, fmt.Errorf("%w: tracking reply %q", ErrMalformedReply, payload)
	}
	mode := model.TrackingMode(payload[0])
	if !mode.Valid() {
		return model.TrackingOff, fmt.Errorf("%w: tracking mode %d", ErrMalformedReply, payload[0])
	}
	return mode, nil
}

// ParseLocation interprets a get-location reply payload.
func ParseLocation(payload []byte) (model.GeoLocation, error) {
	if len(payload) != 8 {
		return model.GeoLocation{}, fmt.Errorf("%w: location reply %q", ErrMalformedReply, payload)
	}
	lat := decodeDMS(payload[:4])
	lon := decodeDMS(payload[4:])
	return model.NewGeoLocation(lat, lon)
}

// ParseTime interprets a get-time reply payload.
func ParseTime(payload []byte) (time.Time, error) {
	if len(payload) != 8 {
		return time.Time{}, fmt.Errorf("%w: time reply %q", ErrMalformedReply, payload)
	}
	offsetHours := int(payload[6])
	if offsetHours > 127 {
		offsetHours -= 256
	}
	zone := time.FixedZone("mount", offsetHours*3600)
	return time.Date(
		2000+int(payload[5]), time.Month(payload[3]), int(payload[4]),
		int(payload[0]), int(payload[1]), int(payload[2]),
		0, zone,
	), nil
}

func pairReplyLen(p core.Precision) int {
	// two hex fields, a comma, and the terminator
	return 2*p.HexDigits() + 2
}

func pairFrame(op byte, p core.Precision, first, second uint32) []byte {
	digits := p.HexDigits()
	return []byte(fmt.Sprintf("%c%0*X,%0*X", op, digits, first, digits, second))
}

func parseHex(field []byte) (uint32, error) {
	v, err := strconv.ParseUint(string(field), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: hex field %q", ErrMalformedReply, field)
	}
	return uint32(v), nil
}

func encodeDMS(degrees float64) []byte {
	hemisphere := byte(0)
	if degrees < 0 {
		hemisphere = 1
		degrees = -degrees
	}
	total := int(degrees*3600 + 0.5)
	return []byte{byte(total / 3600), byte(total / 60 % 60), byte(total % 60), hemisphere}
}

func decodeDMS(b []byte) float64 {
	degrees := float64(b[0]) + float64(b[1])/60 + float64(b[2])/3600
	if b[3] != 0 {
		degrees = -degrees
	}
	return degrees
}
