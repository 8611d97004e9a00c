package core

import (
	"math"

	"github.com/skyfoundry/mount-commander/model"
)

// Vec3 is a unit vector on the celestial sphere in the observer's horizontal
// frame (x toward the north horizon, y toward the east horizon, z toward
// zenith).
type Vec3 struct {
	X, Y, Z float64
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product v × other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// UnitVector maps horizontal coordinates onto the unit sphere.
func UnitVector(h model.HorizontalCoordinates) Vec3 {
	alt := h.AltitudeDegrees * math.Pi / 180.0
	az := h.AzimuthDegrees * math.Pi / 180.0
	cosAlt := math.Cos(alt)
	return Vec3{
		X: cosAlt * math.Cos(az),
		Y: cosAlt * math.Sin(az),
		Z: math.Sin(alt),
	}
}

// AngularSeparationDegrees returns the great-circle angle between two sky
// positions. The dot product is clamped to [-1,1] before the inverse cosine
// so floating-point drift near identical or antipodal directions cannot
// produce NaN.
func AngularSeparationDegrees(a, b model.HorizontalCoordinates) float64 {
	cos := clampUnit(UnitVector(a).Dot(UnitVector(b)))
	return math.Acos(cos) * 180.0 / math.Pi
}

// GreatCircleDistanceDegrees returns the perpendicular angular distance of
// point c from the great circle spanned by a and b. A value near zero means
// the three points are collinear on the sky.
func GreatCircleDistanceDegrees(a, b, c model.HorizontalCoordinates) float64 {
	normal := UnitVector(a).Cross(UnitVector(b))
	n := normal.Norm()
	if n == 0 {
		// a and b coincide (or are antipodal): no plane is defined, so any
		// third point counts as collinear with them.
		return 0
	}
	sin := clampUnit(normal.Dot(UnitVector(c)) / n)
	return math.Abs(math.Asin(sin)) * 180.0 / math.Pi
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
