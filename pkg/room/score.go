package room

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ScoreInput is what a run's score is computed from.
type ScoreInput struct {
	Base      int
	Remaining int
	Limit     int
	Members   int
	Defeated  int
}

// Curve maps the remaining share of the time limit to a score multiplier.
// Factor must not increase as remaining decreases.
type Curve interface {
	Factor(remaining, limit int) float64
}

// Scorer settles the score of a finished run.
type Scorer struct {
	Curve Curve
}

// DefaultScorer rewards early clears with up to double the base score.
func DefaultScorer() Scorer {
	return Scorer{Curve: LinearCurve{Bonus: 1}}
}

// Score returns 0 for a group with no members or with every member defeated.
// Otherwise it scales the base score by the curve, clamped to zero.
func (s Scorer) Score(in ScoreInput) int {
	if in.Members <= 0 || in.Defeated >= in.Members {
		return 0
	}
	factor := 1.0
	if s.Curve != nil {
		factor = s.Curve.Factor(max(in.Remaining, 0), in.Limit)
	}
	score := math.Round(float64(in.Base) * factor)
	if score < 0 || math.IsNaN(score) {
		return 0
	}
	return int(score)
}

// LinearCurve grants Bonus extra multiples of the base score, scaled by the
// remaining share of the time limit.
type LinearCurve struct {
	Bonus float64
}

func (c LinearCurve) Factor(remaining, limit int) float64 {
	if limit <= 0 {
		return 1
	}
	ratio := min(float64(remaining)/float64(limit), 1)
	return 1 + c.Bonus*ratio
}

// Tier applies Multiplier when at least MinRemaining of the time limit is left.
type Tier struct {
	MinRemaining float64 `json:"min_remaining" yaml:"min_remaining" mapstructure:"min_remaining"`
	Multiplier   float64 `json:"multiplier" yaml:"multiplier" mapstructure:"multiplier"`
}

// TieredCurve picks the multiplier of the first tier the remaining share reaches.
type TieredCurve struct {
	tiers []Tier
	floor float64
}

// NewTieredCurve validates tiers and orders them by threshold, highest first.
// Multipliers must not increase as thresholds decrease, and none may be negative.
// floor applies when no tier is reached.
func NewTieredCurve(tiers []Tier, floor float64) (*TieredCurve, error) {
	sorted := append([]Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinRemaining > sorted[j].MinRemaining })

	prev := math.Inf(1)
	for _, t := range sorted {
		if t.MinRemaining < 0 || t.MinRemaining > 1 {
			return nil, fmt.Errorf("tier threshold %v outside [0, 1]", t.MinRemaining)
		}
		if t.Multiplier < 0 {
			return nil, fmt.Errorf("tier multiplier %v is negative", t.Multiplier)
		}
		if t.Multiplier > prev {
			return nil, errors.New("tier multipliers must not increase as thresholds decrease")
		}
		prev = t.Multiplier
	}
	if floor < 0 || floor > prev {
		return nil, fmt.Errorf("floor multiplier %v must be within [0, %v]", floor, prev)
	}
	return &TieredCurve{tiers: sorted, floor: floor}, nil
}

func (c *TieredCurve) Factor(remaining, limit int) float64 {
	ratio := 1.0
	if limit > 0 {
		ratio = float64(remaining) / float64(limit)
	}
	for _, t := range c.tiers {
		if ratio >= t.MinRemaining {
			return t.Multiplier
		}
	}
	return c.floor
}
