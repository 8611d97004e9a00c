package core

import (
	"context"
	"math"
	"sort"

	"github.com/skyfoundry/mount-commander/internal/logging"
	"github.com/skyfoundry/mount-commander/model"
)

// AlignmentCandidate is one currently-visible object the operator could
// center during alignment: the catalog entry, its horizontal position at the
// query instant, and the oracle's observability score. Candidates are built
// fresh per selection call; the sky does not hold still.
type AlignmentCandidate struct {
	Object             model.CatalogObject
	Position           model.HorizontalCoordinates
	ObservabilityScore float64
	Label              string
}

// AlignmentGroup is a scored SkyAlign triple. It is a computed snapshot and
// must not be reused across calls.
type AlignmentGroup struct {
	Candidates [3]AlignmentCandidate

	MinSeparationDegrees float64
	AvgSeparationDegrees float64
	SeparationScore      float64
	ConditionsScore      float64
	ObservabilityScore   float64
	Score                float64
}

// AlignmentPair is a scored two-star pair.
type AlignmentPair struct {
	Candidates [2]AlignmentCandidate

	SeparationDegrees  float64
	SeparationScore    float64
	ConditionsScore    float64
	ObservabilityScore float64
	Score              float64
}

// SelectorConfig bounds the combinatorial search and tunes its filters.
// A zero field takes its default; set a floor negative to disable it, since
// every score is non-negative and no usable candidate sits below the
// horizon.
type SelectorConfig struct {
	// MagnitudeCeiling filters stars; solar-system bodies bypass it.
	MagnitudeCeiling float64
	// MinObservability is the oracle-score floor for any candidate.
	// Negative accepts every score.
	MinObservability float64
	// MinAltitudeDegrees keeps candidates out of the murk near the horizon.
	// Negative accepts anything above it, horizon included.
	MinAltitudeDegrees float64
	// TriplePoolCap and PairPoolCap bound the pools before enumeration
	// (C(20,3)=1140, C(30,2)=435).
	TriplePoolCap int
	PairPoolCap   int
	// MinSeparationDegrees is the pairwise floor below which a combination
	// is rejected outright.
	MinSeparationDegrees float64
	// CollinearityFloorDegrees rejects triples whose third member sits
	// within this angle of the great circle through the first two.
	CollinearityFloorDegrees float64
	// PeakSeparationDegrees is the average separation the quality score
	// peaks at.
	PeakSeparationDegrees float64
	// MaxResults caps the returned list.
	MaxResults int
}

// DefaultSelectorConfig returns the documented defaults.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MagnitudeCeiling:         2.5,
		MinObservability:         0.5,
		MinAltitudeDegrees:       20,
		TriplePoolCap:            20,
		PairPoolCap:              30,
		MinSeparationDegrees:     30,
		CollinearityFloorDegrees: 10,
		PeakSeparationDegrees:    60,
		MaxResults:               5,
	}
}

// Selector performs the constrained combinatorial search over already-fetched
// candidates. It does no I/O and is safe to run from any goroutine; each call
// produces an immutable snapshot.
type Selector struct {
	cfg SelectorConfig
	log logging.Logger
}

// NewSelector builds a selector. A zero-value config field falls back to its
// default, so callers can override selectively.
func NewSelector(cfg SelectorConfig, log logging.Logger) *Selector {
	def := DefaultSelectorConfig()
	if cfg.MagnitudeCeiling == 0 {
		cfg.MagnitudeCeiling = def.MagnitudeCeiling
	}
	if cfg.MinObservability == 0 {
		cfg.MinObservability = def.MinObservability
	}
	if cfg.MinAltitudeDegrees == 0 {
		cfg.MinAltitudeDegrees = def.MinAltitudeDegrees
	}
	if cfg.TriplePoolCap == 0 {
		cfg.TriplePoolCap = def.TriplePoolCap
	}
	if cfg.PairPoolCap == 0 {
		cfg.PairPoolCap = def.PairPoolCap
	}
	if cfg.MinSeparationDegrees == 0 {
		cfg.MinSeparationDegrees = def.MinSeparationDegrees
	}
	if cfg.CollinearityFloorDegrees == 0 {
		cfg.CollinearityFloorDegrees = def.CollinearityFloorDegrees
	}
	if cfg.PeakSeparationDegrees == 0 {
		cfg.PeakSeparationDegrees = def.PeakSeparationDegrees
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = def.MaxResults
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Selector{cfg: cfg, log: log}
}

// MagnitudeCeiling returns the resolved magnitude ceiling, so callers
// assembling a candidate pool can pre-filter their catalog.
func (s *Selector) MagnitudeCeiling() float64 { return s.cfg.MagnitudeCeiling }

// SuggestGroups runs the SkyAlign triple search and returns the top
// combinations by combined score. Fewer than three qualifying candidates is
// an expected outcome and yields an empty list, not an error.
func (s *Selector) SuggestGroups(ctx context.Context, candidates []AlignmentCandidate, cond Conditions) []AlignmentGroup {
	pool := s.filterPool(candidates, s.cfg.TriplePoolCap)
	if len(pool) < 3 {
		s.log.Warn(ctx, "not enough qualifying candidates for a three-object alignment",
			logging.Int("qualifying", len(pool)),
			logging.Int("offered", len(candidates)),
		)
		return nil
	}

	var groups []AlignmentGroup
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			sepIJ := AngularSeparationDegrees(pool[i].Position, pool[j].Position)
			if sepIJ < s.cfg.MinSeparationDegrees {
				continue
			}
			for k := j + 1; k < len(pool); k++ {
				g, ok := s.scoreTriple(pool[i], pool[j], pool[k], sepIJ, cond)
				if ok {
					groups = append(groups, g)
				}
			}
		}
	}

	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Score > groups[b].Score })
	if len(groups) > s.cfg.MaxResults {
		groups = groups[:s.cfg.MaxResults]
	}
	return groups
}

// SuggestPairs runs the two-star search: the same pool and scoring as the
// triple search minus the collinearity test, over a larger cap.
func (s *Selector) SuggestPairs(ctx context.Context, candidates []AlignmentCandidate, cond Conditions) []AlignmentPair {
	pool := s.filterPool(candidates, s.cfg.PairPoolCap)
	if len(pool) < 2 {
		s.log.Warn(ctx, "not enough qualifying candidates for a two-object alignment",
			logging.Int("qualifying", len(pool)),
			logging.Int("offered", len(candidates)),
		)
		return nil
	}

	var pairs []AlignmentPair
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			sep := AngularSeparationDegrees(pool[i].Position, pool[j].Position)
			if sep < s.cfg.MinSeparationDegrees {
				continue
			}
			condScore := ConditionsScore(cond, []model.HorizontalCoordinates{pool[i].Position, pool[j].Position})
			sepScore := s.separationQuality(sep)
			obsScore := (pool[i].ObservabilityScore + pool[j].ObservabilityScore) / 2
			pairs = append(pairs, AlignmentPair{
				Candidates:         [2]AlignmentCandidate{pool[i], pool[j]},
				SeparationDegrees:  sep,
				SeparationScore:    sepScore,
				ConditionsScore:    condScore,
				ObservabilityScore: obsScore,
				Score:              combineScores(obsScore, sepScore, condScore),
			})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].Score > pairs[b].Score })
	if len(pairs) > s.cfg.MaxResults {
		pairs = pairs[:s.cfg.MaxResults]
	}
	return pairs
}

// scoreTriple applies the geometric gates and scoring to one combination.
// sepIJ is passed in because the outer loops already computed it.
func (s *Selector) scoreTriple(a, b, c AlignmentCandidate, sepIJ float64, cond Conditions) (AlignmentGroup, bool) {
	sepIK := AngularSeparationDegrees(a.Position, c.Position)
	sepJK := AngularSeparationDegrees(b.Position, c.Position)

	minSep := math.Min(sepIJ, math.Min(sepIK, sepJK))
	if minSep < s.cfg.MinSeparationDegrees {
		return AlignmentGroup{}, false
	}
	if GreatCircleDistanceDegrees(a.Position, b.Position, c.Position) < s.cfg.CollinearityFloorDegrees {
		return AlignmentGroup{}, false
	}

	avgSep := (sepIJ + sepIK + sepJK) / 3
	sepScore := s.separationQuality(avgSep)
	condScore := ConditionsScore(cond, []model.HorizontalCoordinates{a.Position, b.Position, c.Position})
	obsScore := (a.ObservabilityScore + b.ObservabilityScore + c.ObservabilityScore) / 3

	return AlignmentGroup{
		Candidates:           [3]AlignmentCandidate{a, b, c},
		MinSeparationDegrees: minSep,
		AvgSeparationDegrees: avgSep,
		SeparationScore:      sepScore,
		ConditionsScore:      condScore,
		ObservabilityScore:   obsScore,
		Score:                combineScores(obsScore, sepScore, condScore),
	}, true
}

// separationQuality peaks at the configured ideal average separation and
// falls off linearly toward the 30° floor on one side and toward very wide
// spreads on the other.
func (s *Selector) separationQuality(avgSeparation float64) float64 {
	return clamp01(1 - math.Abs(avgSeparation-s.cfg.PeakSeparationDegrees)/s.cfg.PeakSeparationDegrees)
}

// combineScores applies the documented weights.
func combineScores(observability, separation, conditions float64) float64 {
	return 0.5*observability + 0.3*separation + 0.2*conditions
}

// filterPool applies the common candidate filter, orders by observability
// score descending, and caps the pool to bound the combinatorial cost.
func (s *Selector) filterPool(candidates []AlignmentCandidate, limit int) []AlignmentCandidate {
	pool := make([]AlignmentCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Object.Type.SolarSystem() && c.Object.Magnitude > s.cfg.MagnitudeCeiling {
			continue
		}
		if c.ObservabilityScore < s.cfg.MinObservability {
			continue
		}
		if c.Position.AltitudeDegrees < s.cfg.MinAltitudeDegrees {
			continue
		}
		pool = append(pool, c)
	}
	sort.SliceStable(pool, func(a, b int) bool {
		return pool[a].ObservabilityScore > pool[b].ObservabilityScore
	})
	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool
}
