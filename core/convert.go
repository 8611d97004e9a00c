package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/skyfoundry/mount-commander/model"
)

// The hand-controller protocol carries angles as unsigned fractions of a full
// revolution. Standard resolution packs the fraction into 16 bits, precise
// resolution into 32 bits. Declination, altitude and site coordinates travel
// in the same unsigned form and wrap: the signed value is recovered by
// subtracting a full turn when the decoded angle exceeds the half-range
// midpoint (180°).

// ErrEncodingOverflow is a defensive guard for counts that exceed the
// selected resolution's range. It should be unreachable for inputs that
// passed domain validation.
var ErrEncodingOverflow = errors.New("encoding overflow")

// Precision selects the wire resolution for angle encoding.
type Precision int

const (
	// PrecisionStandard is the legacy 16-bit resolution (≈0.0055° per count).
	PrecisionStandard Precision = iota
	// PrecisionPrecise is the 32-bit resolution (≈8.4e-8° per count).
	PrecisionPrecise
)

func (p Precision) String() string {
	if p == PrecisionPrecise {
		return "precise"
	}
	return "standard"
}

// Counts returns the number of counts in a full revolution at this precision.
func (p Precision) Counts() uint64 {
	if p == PrecisionPrecise {
		return 1 << 32
	}
	return 1 << 16
}

// QuantizationDegrees returns the angular size of one count.
func (p Precision) QuantizationDegrees() float64 {
	return 360.0 / float64(p.Counts())
}

// HexDigits returns the payload width of one encoded angle.
func (p Precision) HexDigits() int {
	if p == PrecisionPrecise {
		return 8
	}
	return 4
}

// EncodeDegrees converts an angle in [0,360) to revolution counts.
func EncodeDegrees(degrees float64, p Precision) (uint32, error) {
	if math.IsNaN(degrees) || degrees < 0 || degrees >= 360 {
		return 0, fmt.Errorf("%w: %v degrees outside [0,360)", model.ErrInvalidCoordinate, degrees)
	}
	return encodeRevolution(degrees, p)
}

// DecodeDegrees converts revolution counts back to an angle in [0,360).
func DecodeDegrees(counts uint32, p Precision) (float64, error) {
	if uint64(counts) >= p.Counts() {
		return 0, fmt.Errorf("%w: %d counts exceeds %s range", ErrEncodingOverflow, counts, p)
	}
	return float64(counts) / float64(p.Counts()) * 360.0, nil
}

// EncodeSignedDegrees converts a signed angle in [-90,90] (declination,
// altitude, site latitude) to the protocol's wrap-around unsigned form.
func EncodeSignedDegrees(degrees float64, p Precision) (uint32, error) {
	if math.IsNaN(degrees) || degrees < -90 || degrees > 90 {
		return 0, fmt.Errorf("%w: %v degrees outside [-90,90]", model.ErrInvalidCoordinate, degrees)
	}
	if degrees < 0 {
		degrees += 360
	}
	if degrees >= 360 {
		degrees = 0
	}
	return encodeRevolution(degrees, p)
}

// DecodeSignedDegrees converts wrap-around counts back to a signed angle.
// Values past the half-range midpoint come back negative.
func DecodeSignedDegrees(counts uint32, p Precision) (float64, error) {
	degrees, err := DecodeDegrees(counts, p)
	if err != nil {
		return 0, err
	}
	if degrees > 180 {
		degrees -= 360
	}
	return degrees, nil
}

// EncodeRAHours converts right ascension in [0,24) hours to counts.
func EncodeRAHours(hours float64, p Precision) (uint32, error) {
	if math.IsNaN(hours) || hours < 0 || hours >= 24 {
		return 0, fmt.Errorf("%w: RA %v hours outside [0,24)", model.ErrInvalidCoordinate, hours)
	}
	return encodeRevolution(hours*15.0, p)
}

// DecodeRAHours converts counts back to right ascension in [0,24) hours.
func DecodeRAHours(counts uint32, p Precision) (float64, error) {
	degrees, err := DecodeDegrees(counts, p)
	if err != nil {
		return 0, err
	}
	return degrees / 15.0, nil
}

// encodeRevolution rounds a [0,360) angle onto the count grid. Rounding can
// land exactly on a full revolution; that wraps to zero.
func encodeRevolution(degrees float64, p Precision) (uint32, error) {
	total := p.Counts()
	counts := uint64(math.Round(degrees / 360.0 * float64(total)))
	if counts == total {
		counts = 0
	}
	if counts > total-1 {
		return 0, fmt.Errorf("%w: %v degrees produced %d counts", ErrEncodingOverflow, degrees, counts)
	}
	return uint32(counts), nil
}
