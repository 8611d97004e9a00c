package core

import "github.com/skyfoundry/mount-commander/model"

// Conditions is an immutable snapshot of the environmental inputs to
// alignment scoring. It is assembled by a ConditionsProvider collaborator and
// consumed here; nothing in this package computes weather or moon phase.
type Conditions struct {
	// CloudCoverPercent ∈ [0,100].
	CloudCoverPercent float64

	// MoonPosition is the moon's current horizontal position, nil when the
	// moon is below the horizon or the provider has no moon data.
	MoonPosition *model.HorizontalCoordinates

	// MoonIlluminationPercent ∈ [0,100].
	MoonIlluminationPercent float64

	// SeeingScore ∈ [0,1]; 0.5 is average seeing.
	SeeingScore float64
}

// ClearSky is a neutral snapshot: no clouds, no moon, average seeing.
// Scoring it yields exactly 1.0.
func ClearSky() Conditions {
	return Conditions{SeeingScore: 0.5}
}

// ConditionsScore collapses a snapshot into a single [0,1] multiplier for a
// set of candidate positions. It starts at 1.0 and is reduced by cloud-cover
// bands, moon interference near the candidates, and poor seeing; good seeing
// can push intermediate values up to 20% before the final clamp.
func ConditionsScore(cond Conditions, positions []model.HorizontalCoordinates) float64 {
	score := 1.0

	switch {
	case cond.CloudCoverPercent > 80:
		score *= 0.3
	case cond.CloudCoverPercent > 50:
		score *= 0.6
	case cond.CloudCoverPercent > 20:
		score *= 0.85
	}

	// Moon interference only matters once the disc is meaningfully lit.
	if cond.MoonPosition != nil && cond.MoonIlluminationPercent > 30 && len(positions) > 0 {
		sum := 0.0
		for _, pos := range positions {
			sum += moonProximityFactor(AngularSeparationDegrees(pos, *cond.MoonPosition))
		}
		avg := sum / float64(len(positions))
		// Scale the penalty by illumination: a thin crescent barely matters.
		illum := clamp01(cond.MoonIlluminationPercent / 100)
		score *= avg + (1-avg)*(1-illum)
	}

	// Seeing modifier, ±20% around neutral.
	score *= 0.8 + 0.4*clamp01(cond.SeeingScore)

	return clamp01(score)
}

// moonProximityFactor penalizes candidates close to the moon.
func moonProximityFactor(separationDegrees float64) float64 {
	switch {
	case separationDegrees < 20:
		return 0.5
	case separationDegrees < 45:
		return 0.75
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
