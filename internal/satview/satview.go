// Package satview projects TLE-tracked satellites onto the local sky, so
// bright passes (the ISS, mainly) can serve as alignment references alongside
// stars and planets.
package satview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/skyfoundry/mount-commander/align"
	"github.com/skyfoundry/mount-commander/internal/logging"
	"github.com/skyfoundry/mount-commander/model"
)

// ErrUnknownSatellite reports an Observe call for a name with no loaded TLE.
var ErrUnknownSatellite = errors.New("no TLE loaded for satellite")

// Oracle propagates loaded TLEs with SGP4 and answers visibility queries for
// satellite-type catalog objects. Safe for concurrent use.
type Oracle struct {
	mu   sync.RWMutex
	sats map[string]satellite.Satellite
	log  logging.Logger
}

// NewOracle returns an oracle with no TLEs loaded.
func NewOracle(log logging.Logger) *Oracle {
	if log == nil {
		log = logging.Noop()
	}
	return &Oracle{sats: make(map[string]satellite.Satellite), log: log}
}

// AddTLE registers a two-line element set under the given catalog name,
// replacing any previous set for that name.
func (o *Oracle) AddTLE(name, line1, line2 string) error {
	if name == "" {
		return errors.New("satview: empty satellite name")
	}
	if len(line1) < 69 || len(line2) < 69 {
		return fmt.Errorf("satview: malformed TLE for %s", name)
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	o.mu.Lock()
	o.sats[name] = sat
	o.mu.Unlock()
	return nil
}

// Names returns the satellites currently loaded.
func (o *Oracle) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.sats))
	for name := range o.sats {
		names = append(names, name)
	}
	return names
}

// Observe implements align.VisibilityOracle for satellite objects. The
// observability score favors high passes; a satellite below the horizon
// scores zero with a reason attached.
func (o *Oracle) Observe(_ context.Context, obj model.CatalogObject, loc model.GeoLocation, at time.Time) (align.Sighting, error) {
	if obj.Type != model.ObjectSatellite {
		return align.Sighting{}, fmt.Errorf("satview: %s is not a satellite", obj.Name)
	}
	o.mu.RLock()
	sat, ok := o.sats[obj.Name]
	o.mu.RUnlock()
	if !ok {
		return align.Sighting{}, fmt.Errorf("%w: %s", ErrUnknownSatellite, obj.Name)
	}

	utc := at.UTC()
	year, month, day := utc.Date()
	hour, minute, second := utc.Clock()

	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, minute, second)
	jday := satellite.JDay(year, int(month), day, hour, minute, second)
	obs := satellite.LatLong{
		Latitude:  loc.LatitudeDegrees * satellite.DEG2RAD,
		Longitude: loc.LongitudeDegrees * satellite.DEG2RAD,
	}
	angles := satellite.ECIToLookAngles(posECI, obs, 0, jday)

	azDegrees := normalizeAzimuth(angles.Az * satellite.RAD2DEG)
	elDegrees := angles.El * satellite.RAD2DEG

	sighting := align.Sighting{
		Position: model.HorizontalCoordinates{
			AzimuthDegrees:  azDegrees,
			AltitudeDegrees: clampAltitude(elDegrees),
		},
		ObservabilityScore: passScore(elDegrees),
	}
	if elDegrees <= 0 {
		sighting.Reasons = append(sighting.Reasons, "below horizon")
	}
	return sighting, nil
}

// passScore maps elevation to a [0,1] figure of merit. Low passes sit in
// thick air and are poor references; anything above 45 degrees is as good as
// it gets.
func passScore(elDegrees float64) float64 {
	if elDegrees <= 0 {
		return 0
	}
	return math.Min(1, elDegrees/45)
}

func normalizeAzimuth(az float64) float64 {
	az = math.Mod(az, 360)
	if az < 0 {
		az += 360
	}
	return az
}

func clampAltitude(el float64) float64 {
	return math.Max(-90, math.Min(90, el))
}
