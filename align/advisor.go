// Package align recommends reference objects for mount alignment: three-star
// groups for SkyAlign and pairs for classic two-star alignment. It pulls
// candidates from a catalog, projects them through a visibility oracle, and
// hands the geometric search to the core selector.
package align

import (
	"context"
	"fmt"
	"time"

	"github.com/skyfoundry/mount-commander/core"
	"github.com/skyfoundry/mount-commander/internal/clock"
	"github.com/skyfoundry/mount-commander/internal/logging"
	"github.com/skyfoundry/mount-commander/internal/observability"
	"github.com/skyfoundry/mount-commander/model"
)

// CatalogLookup is the read-only catalog surface the advisor consumes.
type CatalogLookup interface {
	ByName(name string) (model.CatalogObject, error)
	ByType(t model.ObjectType) []model.CatalogObject
	BrighterThan(magnitude float64) []model.CatalogObject
}

// Sighting is one object's current appearance from a site. Reasons carries
// human-readable notes from the oracle (twilight, horizon obstruction, and so
// on) for display only.
type Sighting struct {
	Position           model.HorizontalCoordinates
	ObservabilityScore float64
	Reasons            []string
}

// VisibilityOracle projects a catalog object onto the local sky.
type VisibilityOracle interface {
	Observe(ctx context.Context, obj model.CatalogObject, loc model.GeoLocation, at time.Time) (Sighting, error)
}

// ConditionsProvider reports current sky conditions for a site.
type ConditionsProvider interface {
	Current(ctx context.Context, loc model.GeoLocation, at time.Time) (core.Conditions, error)
}

// Options carries the advisor's tunables. Zero values get defaults.
type Options struct {
	Selector      core.SelectorConfig
	ConditionsTTL time.Duration
	Clock         clock.Clock
	Logger        logging.Logger
	Metrics       *observability.MountCollector
}

// Advisor ties the catalog, oracle, and conditions provider to the selector.
// Suggestions are fresh snapshots per call; nothing about the sky is assumed
// stable between calls.
type Advisor struct {
	catalog    CatalogLookup
	oracle     VisibilityOracle
	conditions ConditionsProvider
	selector   *core.Selector
	cache      *conditionsCache
	log        logging.Logger
	metrics    *observability.MountCollector
}

// NewAdvisor builds an advisor over the three collaborators.
func NewAdvisor(catalog CatalogLookup, oracle VisibilityOracle, conditions ConditionsProvider, opts Options) *Advisor {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Advisor{
		catalog:    catalog,
		oracle:     oracle,
		conditions: conditions,
		selector:   core.NewSelector(opts.Selector, log),
		cache:      newConditionsCache(opts.ConditionsTTL, opts.Clock),
		log:        log,
		metrics:    opts.Metrics,
	}
}

// SuggestGroups returns the best SkyAlign triples visible right now. An empty
// list means nothing qualifies at the moment; that is an answer, not an
// error.
func (a *Advisor) SuggestGroups(ctx context.Context, loc model.GeoLocation, at time.Time) ([]core.AlignmentGroup, error) {
	candidates, cond, err := a.snapshot(ctx, loc, at)
	if err != nil {
		return nil, err
	}
	groups := a.selector.SuggestGroups(ctx, candidates, cond)
	a.metrics.RecordSuggestion("triple")
	return groups, nil
}

// SuggestPairs returns the best two-star pairs visible right now.
func (a *Advisor) SuggestPairs(ctx context.Context, loc model.GeoLocation, at time.Time) ([]core.AlignmentPair, error) {
	candidates, cond, err := a.snapshot(ctx, loc, at)
	if err != nil {
		return nil, err
	}
	pairs := a.selector.SuggestPairs(ctx, candidates, cond)
	a.metrics.RecordSuggestion("pair")
	return pairs, nil
}

// CandidateByName looks one object up and projects it onto the local sky,
// for operators who want to align on a body they chose themselves.
func (a *Advisor) CandidateByName(ctx context.Context, name string, loc model.GeoLocation, at time.Time) (core.AlignmentCandidate, error) {
	obj, err := a.catalog.ByName(name)
	if err != nil {
		return core.AlignmentCandidate{}, err
	}
	sighting, err := a.oracle.Observe(ctx, obj, loc, at)
	if err != nil {
		return core.AlignmentCandidate{}, fmt.Errorf("observe %s: %w", obj.Name, err)
	}
	return newCandidate(obj, sighting), nil
}

// CacheStats reports conditions-cache hits and misses.
func (a *Advisor) CacheStats() (hits, misses int64) {
	return a.cache.stats()
}

// snapshot assembles the candidate pool and current conditions for one call.
func (a *Advisor) snapshot(ctx context.Context, loc model.GeoLocation, at time.Time) ([]core.AlignmentCandidate, core.Conditions, error) {
	cond, err := a.currentConditions(ctx, loc, at)
	if err != nil {
		return nil, core.Conditions{}, err
	}

	pool := a.alignmentObjects()
	candidates := make([]core.AlignmentCandidate, 0, len(pool))
	for _, obj := range pool {
		sighting, err := a.oracle.Observe(ctx, obj, loc, at)
		if err != nil {
			// The oracle may not track every body; skip and move on.
			a.log.Warn(ctx, "oracle skipped object",
				logging.String("object", obj.Name), logging.Err(err))
			continue
		}
		candidates = append(candidates, newCandidate(obj, sighting))
	}
	return candidates, cond, nil
}

// alignmentObjects gathers bright stars, the solar-system bodies that bypass
// the magnitude ceiling, and any catalogued satellites. The selector applies
// the visibility filters, so a satellite below the horizon or between passes
// drops out there rather than here.
func (a *Advisor) alignmentObjects() []model.CatalogObject {
	ceiling := a.selector.MagnitudeCeiling()
	seen := make(map[string]bool)
	var pool []model.CatalogObject
	add := func(objs []model.CatalogObject) {
		for _, obj := range objs {
			if seen[obj.Name] {
				continue
			}
			seen[obj.Name] = true
			pool = append(pool, obj)
		}
	}
	for _, obj := range a.catalog.BrighterThan(ceiling) {
		if obj.Type == model.ObjectStar {
			add([]model.CatalogObject{obj})
		}
	}
	add(a.catalog.ByType(model.ObjectPlanet))
	add(a.catalog.ByType(model.ObjectMoon))
	add(a.catalog.ByType(model.ObjectSun))
	add(a.catalog.ByType(model.ObjectSatellite))
	return pool
}

func (a *Advisor) currentConditions(ctx context.Context, loc model.GeoLocation, at time.Time) (core.Conditions, error) {
	if cond, ok := a.cache.get(loc); ok {
		return cond, nil
	}
	cond, err := a.conditions.Current(ctx, loc, at)
	if err != nil {
		return core.Conditions{}, fmt.Errorf("sky conditions: %w", err)
	}
	a.cache.put(loc, cond)
	return cond, nil
}

func newCandidate(obj model.CatalogObject, sighting Sighting) core.AlignmentCandidate {
	return core.AlignmentCandidate{
		Object:             obj,
		Position:           sighting.Position,
		ObservabilityScore: sighting.ObservabilityScore,
		Label: fmt.Sprintf("%s (alt %.0f, az %.0f)",
			obj.Name, sighting.Position.AltitudeDegrees, sighting.Position.AzimuthDegrees),
	}
}
