// Package autoscore derives an objective composite score for a skill from
// its usage telemetry alone. It never reads reviews: the social signal and
// the behavioral signal stay separate so neither can mask manipulation of
// the other.
package autoscore

import (
	"errors"
	"fmt"

	"github.com/skillsarena/arena/internal/ledger"
)

// ErrInsufficientData is returned below the sample floor.
var ErrInsufficientData = errors.New("insufficient usage data")

// Scoring targets. A skill at exactly these numbers scores 100 on the
// corresponding dimension.
const (
	MinSamples = 5

	targetTimeSeconds = 2.0
	targetCPUPct      = 30.0
	targetMemMB       = 128.0
)

// CompositeScore is the dimension breakdown plus the blended score, all on
// a 0–100 scale.
type CompositeScore struct {
	SkillID   string
	Samples   int64
	Success   float64
	Speed     float64
	Resource  float64
	Stability float64
	Composite float64
}

// Scorer computes composite scores over the cross-agent ledger aggregate.
type Scorer struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Scorer {
	return &Scorer{ledger: l}
}

// Compute scores one skill. Requires at least MinSamples recorded
// invocations across all agents.
func (s *Scorer) Compute(skillID string) (CompositeScore, error) {
	agg, err := s.ledger.SkillAggregate(skillID)
	if errors.Is(err, ledger.ErrNoRecord) {
		return CompositeScore{}, fmt.Errorf("%w: no samples for %s", ErrInsufficientData, skillID)
	}
	if err != nil {
		return CompositeScore{}, err
	}
	if agg.Invocations < MinSamples {
		return CompositeScore{}, fmt.Errorf("%w: %d of %d samples", ErrInsufficientData, agg.Invocations, MinSamples)
	}
	return Score(agg), nil
}

// Score applies the dimension formulas to an aggregate. Degenerate zero
// denominators (all-zero timings or resources) score the dimension at 100:
// the skill is at or beyond target.
func Score(agg ledger.Aggregate) CompositeScore {
	c := CompositeScore{SkillID: agg.SkillID, Samples: agg.Invocations}

	c.Success = float64(agg.Successes) / float64(agg.Invocations) * 100

	c.Speed = 100
	if agg.TimeMean > 0 {
		c.Speed = min(100, targetTimeSeconds/agg.TimeMean*100)
	}

	c.Resource = 100
	if denom := agg.CPUMean*100 + agg.MemMean; denom > 0 {
		c.Resource = min(100, (targetCPUPct*100+targetMemMB)/denom*100)
	}

	c.Stability = 100
	if agg.TimeMean > 0 {
		c.Stability = max(0, 100-agg.TimeStddev/agg.TimeMean*100)
	}

	c.Composite = c.Success*0.4 + c.Speed*0.3 + c.Resource*0.2 + c.Stability*0.1
	return c
}
