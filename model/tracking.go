package model

// TrackingMode mirrors the mount's sidereal tracking setting. The device is
// the source of truth; values are never cached beyond a single query.
type TrackingMode int

const (
	TrackingOff TrackingMode = iota
	TrackingAltAz
	TrackingEquatorialNorth
	TrackingEquatorialSouth
)

// String returns the conventional name for the tracking mode.
func (m TrackingMode) String() string {
	switch m {
	case TrackingOff:
		return "off"
	case TrackingAltAz:
		return "alt-az"
	case TrackingEquatorialNorth:
		return "eq-north"
	case TrackingEquatorialSouth:
		return "eq-south"
	default:
		return "unknown"
	}
}

// Valid reports whether the mode is one the device understands.
func (m TrackingMode) Valid() bool {
	return m >= TrackingOff && m <= TrackingEquatorialSouth
}

// SlewState reports whether a goto is in progress. It is derived per call
// from a device poll and never memoized locally.
type SlewState int

const (
	SlewIdle SlewState = iota
	Slewing
)

func (s SlewState) String() string {
	if s == Slewing {
		return "slewing"
	}
	return "idle"
}

// Axis selects one of the mount's two motion axes.
type Axis int

const (
	// AxisAzimuth is the azimuth (or RA, on an equatorial wedge) axis.
	AxisAzimuth Axis = iota
	// AxisAltitude is the altitude (or Dec) axis.
	AxisAltitude
)

func (a Axis) String() string {
	if a == AxisAltitude {
		return "altitude"
	}
	return "azimuth"
}

// Direction is a signed motion direction on a single axis.
type Direction int

const (
	AzimuthPositive Direction = iota // right / clockwise
	AzimuthNegative                  // left / counter-clockwise
	AltitudePositive                 // up
	AltitudeNegative                 // down
)

// Axis returns the axis the direction moves on.
func (d Direction) Axis() Axis {
	if d == AltitudePositive || d == AltitudeNegative {
		return AxisAltitude
	}
	return AxisAzimuth
}

// Positive reports whether the direction is the axis' positive sense.
func (d Direction) Positive() bool {
	return d == AzimuthPositive || d == AltitudePositive
}

func (d Direction) String() string {
	switch d {
	case AzimuthPositive:
		return "azimuth+"
	case AzimuthNegative:
		return "azimuth-"
	case AltitudePositive:
		return "altitude+"
	case AltitudeNegative:
		return "altitude-"
	default:
		return "unknown"
	}
}
