package align

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/skyfoundry/mount-commander/catalog"
	"github.com/skyfoundry/mount-commander/core"
	"github.com/skyfoundry/mount-commander/internal/clock"
	"github.com/skyfoundry/mount-commander/model"
)

type fakeOracle struct {
	sightings map[string]Sighting
}

func (f *fakeOracle) Observe(_ context.Context, obj model.CatalogObject, _ model.GeoLocation, _ time.Time) (Sighting, error) {
	s, ok := f.sightings[obj.Name]
	if !ok {
		return Sighting{}, fmt.Errorf("no ephemeris for %s", obj.Name)
	}
	return s, nil
}

type fakeConditions struct {
	cond  core.Conditions
	calls int
	err   error
}

func (f *fakeConditions) Current(context.Context, model.GeoLocation, time.Time) (core.Conditions, error) {
	f.calls++
	if f.err != nil {
		return core.Conditions{}, f.err
	}
	return f.cond, nil
}

func sighting(az, alt, score float64) Sighting {
	return Sighting{
		Position:           model.HorizontalCoordinates{AzimuthDegrees: az, AltitudeDegrees: alt},
		ObservabilityScore: score,
	}
}

func testCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	s := catalog.NewStore()
	objects := []model.CatalogObject{
		{Name: "Vega", Type: model.ObjectStar, Magnitude: 0.03},
		{Name: "Rigel", Type: model.ObjectStar, Magnitude: 0.13},
		{Name: "Capella", Type: model.ObjectStar, Magnitude: 0.08},
		{Name: "Faint Star", Type: model.ObjectStar, Magnitude: 4.5},
	}
	for _, obj := range objects {
		if err := s.Add(obj); err != nil {
			t.Fatalf("Add %s: %v", obj.Name, err)
		}
	}
	return s
}

func site(t *testing.T) model.GeoLocation {
	t.Helper()
	loc, err := model.NewGeoLocation(40, -105)
	if err != nil {
		t.Fatalf("NewGeoLocation: %v", err)
	}
	return loc
}

func TestSuggestGroups(t *testing.T) {
	oracle := &fakeOracle{sightings: map[string]Sighting{
		"Vega":    sighting(300, 70, 0.9),
		"Rigel":   sighting(120, 50, 0.9),
		"Capella": sighting(30, 60, 0.9),
	}}
	provider := &fakeConditions{cond: core.ClearSky()}
	advisor := NewAdvisor(testCatalog(t), oracle, provider, Options{})

	groups, err := advisor.SuggestGroups(context.Background(), site(t), time.Now())
	if err != nil {
		t.Fatalf("SuggestGroups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].ConditionsScore != 1.0 {
		t.Fatalf("conditions score = %v, want 1.0", groups[0].ConditionsScore)
	}
}

func TestOracleFailuresSkipObjects(t *testing.T) {
	// No sighting for Rigel: the advisor drops it and the remaining pool is
	// too small for a triple, which is an empty answer rather than an error.
	oracle := &fakeOracle{sightings: map[string]Sighting{
		"Vega":    sighting(300, 70, 0.9),
		"Capella": sighting(30, 60, 0.9),
	}}
	provider := &fakeConditions{cond: core.ClearSky()}
	advisor := NewAdvisor(testCatalog(t), oracle, provider, Options{})

	groups, err := advisor.SuggestGroups(context.Background(), site(t), time.Now())
	if err != nil {
		t.Fatalf("SuggestGroups: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("groups = %d, want 0", len(groups))
	}

	pairs, err := advisor.SuggestPairs(context.Background(), site(t), time.Now())
	if err != nil {
		t.Fatalf("SuggestPairs: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
}

func TestSolarSystemBypassesMagnitudeCeiling(t *testing.T) {
	store := catalog.NewStore()
	for _, obj := range []model.CatalogObject{
		{Name: "Vega", Type: model.ObjectStar, Magnitude: 0.03},
		{Name: "Rigel", Type: model.ObjectStar, Magnitude: 0.13},
		{Name: "Uranus", Type: model.ObjectPlanet, Magnitude: 5.7},
	} {
		if err := store.Add(obj); err != nil {
			t.Fatalf("Add %s: %v", obj.Name, err)
		}
	}
	oracle := &fakeOracle{sightings: map[string]Sighting{
		"Vega":   sighting(300, 70, 0.9),
		"Rigel":  sighting(120, 50, 0.9),
		"Uranus": sighting(30, 60, 0.9),
	}}
	advisor := NewAdvisor(store, oracle, &fakeConditions{cond: core.ClearSky()}, Options{})

	groups, err := advisor.SuggestGroups(context.Background(), site(t), time.Now())
	if err != nil {
		t.Fatalf("SuggestGroups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1 (planet must bypass the magnitude ceiling)", len(groups))
	}
	found := false
	for _, c := range groups[0].Candidates {
		if c.Object.Name == "Uranus" {
			found = true
		}
	}
	if !found {
		t.Fatal("Uranus missing from the suggested triple")
	}
}

func TestSatellitesJoinThePool(t *testing.T) {
	store := catalog.NewStore()
	for _, obj := range []model.CatalogObject{
		{Name: "Vega", Type: model.ObjectStar, Magnitude: 0.03},
		{Name: "Rigel", Type: model.ObjectStar, Magnitude: 0.13},
		{Name: "ISS", Type: model.ObjectSatellite, Magnitude: -1.8},
	} {
		if err := store.Add(obj); err != nil {
			t.Fatalf("Add %s: %v", obj.Name, err)
		}
	}
	oracle := &fakeOracle{sightings: map[string]Sighting{
		"Vega":  sighting(300, 70, 0.9),
		"Rigel": sighting(120, 50, 0.9),
		"ISS":   sighting(30, 60, 0.9),
	}}
	advisor := NewAdvisor(store, oracle, &fakeConditions{cond: core.ClearSky()}, Options{})

	groups, err := advisor.SuggestGroups(context.Background(), site(t), time.Now())
	if err != nil {
		t.Fatalf("SuggestGroups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1 (satellite should join the pool)", len(groups))
	}
	found := false
	for _, c := range groups[0].Candidates {
		if c.Object.Name == "ISS" {
			found = true
		}
	}
	if !found {
		t.Fatal("ISS missing from the suggested triple")
	}
}

func TestConditionsCache(t *testing.T) {
	oracle := &fakeOracle{sightings: map[string]Sighting{
		"Vega":    sighting(300, 70, 0.9),
		"Rigel":   sighting(120, 50, 0.9),
		"Capella": sighting(30, 60, 0.9),
	}}
	provider := &fakeConditions{cond: core.ClearSky()}
	fake := clock.NewFake(time.Unix(1000, 0))
	advisor := NewAdvisor(testCatalog(t), oracle, provider, Options{
		ConditionsTTL: time.Minute,
		Clock:         fake,
	})

	loc := site(t)
	if _, err := advisor.SuggestGroups(context.Background(), loc, time.Now()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := advisor.SuggestPairs(context.Background(), loc, time.Now()); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1 (second call served from cache)", provider.calls)
	}

	fake.Advance(2 * time.Minute)
	if _, err := advisor.SuggestGroups(context.Background(), loc, time.Now()); err != nil {
		t.Fatalf("post-expiry call: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2 after TTL expiry", provider.calls)
	}

	hits, misses := advisor.CacheStats()
	if hits != 1 || misses != 2 {
		t.Fatalf("cache stats = %d hits, %d misses; want 1, 2", hits, misses)
	}
}

func TestConditionsProviderErrorSurfaces(t *testing.T) {
	provider := &fakeConditions{err: errors.New("upstream down")}
	advisor := NewAdvisor(testCatalog(t), &fakeOracle{}, provider, Options{})

	if _, err := advisor.SuggestGroups(context.Background(), site(t), time.Now()); err == nil {
		t.Fatal("expected the provider error to surface")
	}
}

func TestCandidateByName(t *testing.T) {
	oracle := &fakeOracle{sightings: map[string]Sighting{
		"Vega": sighting(300, 70, 0.9),
	}}
	advisor := NewAdvisor(testCatalog(t), oracle, &fakeConditions{cond: core.ClearSky()}, Options{})

	candidate, err := advisor.CandidateByName(context.Background(), "vega", site(t), time.Now())
	if err != nil {
		t.Fatalf("CandidateByName: %v", err)
	}
	if candidate.Object.Name != "Vega" || candidate.Position.AltitudeDegrees != 70 {
		t.Fatalf("candidate = %+v", candidate)
	}
	if candidate.Label == "" {
		t.Fatal("candidate label must be populated")
	}

	if _, err := advisor.CandidateByName(context.Background(), "Nibiru", site(t), time.Now()); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("unknown name error = %v, want catalog.ErrNotFound", err)
	}
}
