package model

// ObjectType classifies a catalog entry for filtering purposes.
type ObjectType string

const (
	ObjectStar      ObjectType = "star"
	ObjectPlanet    ObjectType = "planet"
	ObjectMoon      ObjectType = "moon"
	ObjectSun       ObjectType = "sun"
	ObjectSatellite ObjectType = "satellite"
	ObjectDeepSky   ObjectType = "deepsky"
)

// SolarSystem reports whether the object is a solar-system body. These bypass
// the alignment magnitude ceiling (but never the visibility filter).
func (t ObjectType) SolarSystem() bool {
	switch t {
	case ObjectPlanet, ObjectMoon, ObjectSun:
		return true
	default:
		return false
	}
}

// CatalogObject is a named sky object with its catalogued position and
// apparent magnitude. Positions for moving bodies are whatever the upstream
// ephemeris supplied for the query time.
type CatalogObject struct {
	Name      string
	Type      ObjectType
	Magnitude float64
	Position  EquatorialCoordinates
}
