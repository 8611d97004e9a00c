package align

import (
	"context"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/skyfoundry/mount-commander/model"
)

// CatalogOracle answers visibility queries for fixed objects straight from
// their catalogued equatorial position: Greenwich sidereal time gives the
// local hour angle, and the usual spherical triangle gives altitude and
// azimuth. Moving bodies need their positions refreshed in the catalog by an
// upstream ephemeris before this projection is meaningful.
type CatalogOracle struct{}

// NewCatalogOracle returns the stateless catalog projection oracle.
func NewCatalogOracle() *CatalogOracle { return &CatalogOracle{} }

// Observe implements VisibilityOracle.
func (o *CatalogOracle) Observe(_ context.Context, obj model.CatalogObject, loc model.GeoLocation, at time.Time) (Sighting, error) {
	utc := at.UTC()
	year, month, day := utc.Date()
	hour, minute, second := utc.Clock()
	gmst := satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, minute, second))

	lat := loc.LatitudeDegrees * satellite.DEG2RAD
	lst := gmst + loc.LongitudeDegrees*satellite.DEG2RAD
	ra := obj.Position.RAHours * 15 * satellite.DEG2RAD
	dec := obj.Position.DecDegrees * satellite.DEG2RAD
	hourAngle := lst - ra

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(hourAngle)
	alt := math.Asin(clampUnitRange(sinAlt))

	var az float64
	if denom := math.Cos(lat) * math.Cos(alt); denom > 1e-9 {
		az = math.Acos(clampUnitRange((math.Sin(dec) - math.Sin(lat)*sinAlt) / denom))
		if math.Sin(hourAngle) > 0 {
			az = 2*math.Pi - az
		}
	}
	// at the zenith or pole azimuth is undefined; leave it at 0

	altDegrees := alt * satellite.RAD2DEG
	sighting := Sighting{
		Position: model.HorizontalCoordinates{
			AzimuthDegrees:  normalizeDegrees(az * satellite.RAD2DEG),
			AltitudeDegrees: altDegrees,
		},
		ObservabilityScore: horizonScore(altDegrees),
	}
	if altDegrees <= 0 {
		sighting.Reasons = append(sighting.Reasons, "below horizon")
	}
	return sighting, nil
}

// horizonScore degrades near the horizon where extinction and seeing are
// worst. Anything above 30 degrees is unpenalized.
func horizonScore(altDegrees float64) float64 {
	if altDegrees <= 0 {
		return 0
	}
	return math.Min(1, 0.4+altDegrees/50)
}

func clampUnitRange(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
