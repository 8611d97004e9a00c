package model

import (
	"errors"
	"fmt"
)

// ErrInvalidCoordinate is returned whenever a coordinate value falls outside
// its documented domain. Callers can match it with errors.Is regardless of
// which concrete field was out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// EquatorialCoordinates is a right-ascension / declination pair.
// RAHours ∈ [0,24), DecDegrees ∈ [-90,90].
type EquatorialCoordinates struct {
	RAHours    float64
	DecDegrees float64
}

// NewEquatorial validates and constructs an equatorial coordinate pair.
func NewEquatorial(raHours, decDegrees float64) (EquatorialCoordinates, error) {
	if raHours < 0 || raHours >= 24 {
		return EquatorialCoordinates{}, fmt.Errorf("%w: RA %v hours outside [0,24)", ErrInvalidCoordinate, raHours)
	}
	if decDegrees < -90 || decDegrees > 90 {
		return EquatorialCoordinates{}, fmt.Errorf("%w: Dec %v degrees outside [-90,90]", ErrInvalidCoordinate, decDegrees)
	}
	return EquatorialCoordinates{RAHours: raHours, DecDegrees: decDegrees}, nil
}

// HorizontalCoordinates is an azimuth / altitude pair.
// AzimuthDegrees ∈ [0,360), AltitudeDegrees ∈ [-90,90].
type HorizontalCoordinates struct {
	AzimuthDegrees  float64
	AltitudeDegrees float64
}

// NewHorizontal validates and constructs a horizontal coordinate pair.
func NewHorizontal(azDegrees, altDegrees float64) (HorizontalCoordinates, error) {
	if azDegrees < 0 || azDegrees >= 360 {
		return HorizontalCoordinates{}, fmt.Errorf("%w: azimuth %v degrees outside [0,360)", ErrInvalidCoordinate, azDegrees)
	}
	if altDegrees < -90 || altDegrees > 90 {
		return HorizontalCoordinates{}, fmt.Errorf("%w: altitude %v degrees outside [-90,90]", ErrInvalidCoordinate, altDegrees)
	}
	return HorizontalCoordinates{AzimuthDegrees: azDegrees, AltitudeDegrees: altDegrees}, nil
}

// GeoLocation is an observer site on the Earth's surface.
// LatitudeDegrees ∈ [-90,90] (north positive), LongitudeDegrees ∈ [-180,180]
// (east positive).
type GeoLocation struct {
	LatitudeDegrees  float64
	LongitudeDegrees float64
}

// NewGeoLocation validates and constructs an observer location.
func NewGeoLocation(latDegrees, lonDegrees float64) (GeoLocation, error) {
	if latDegrees < -90 || latDegrees > 90 {
		return GeoLocation{}, fmt.Errorf("%w: latitude %v degrees outside [-90,90]", ErrInvalidCoordinate, latDegrees)
	}
	if lonDegrees < -180 || lonDegrees > 180 {
		return GeoLocation{}, fmt.Errorf("%w: longitude %v degrees outside [-180,180]", ErrInvalidCoordinate, lonDegrees)
	}
	return GeoLocation{LatitudeDegrees: latDegrees, LongitudeDegrees: lonDegrees}, nil
}
