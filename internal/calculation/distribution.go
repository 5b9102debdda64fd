package calculation

import (
	"math"
	"sort"

	"github.com/marblesim/marble-game/internal/domain"
	"github.com/shopspring/decimal"
)

// Probability sums are checked in exact decimal arithmetic. A sum may exceed
// 100 by up to ProbabilitySumTolerance points. A shortfall larger than
// probabilityShortfallTolerance is rejected, since the missing mass would be
// absorbed by the last outcome through the sampling fallback.
var (
	ProbabilitySumTolerance       = decimal.NewFromFloat(0.1)
	probabilityShortfallTolerance = decimal.NewFromFloat(0.01)
	hundred                       = decimal.NewFromInt(100)
)

// Distribution is a validated, ordered set of outcomes. Outcome order defines
// the cumulative ranges used by Sample. The zero value is not usable; build
// one with ValidateDistribution.
type Distribution struct {
	outcomes []domain.Outcome
	ends     []float64 // cumulative range end of each outcome, as a fraction of 1
}

// ValidateDistribution checks outcomes and returns a distribution ready for sampling.
// The input slice is copied.
//
// The probability sum must lie in [100-0.01, 100+0.1]. The bound is
// asymmetric: a sum up to 0.1 points over 100 is accepted, but a shortfall
// of more than 0.01 (99.95, 99.98) fails with ProbabilitySumInvalid, since
// sampling would hand the missing mass to the last outcome.
func ValidateDistribution(outcomes []domain.Outcome) (*Distribution, error) {
	if len(outcomes) == 0 {
		return nil, domain.NewConfigError(domain.EmptyDistribution, "outcomes", 0, "distribution has no outcomes")
	}

	sum := decimal.Zero
	for i, o := range outcomes {
		p := o.ProbabilityPercent
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 100 {
			return nil, domain.NewConfigError(domain.InvalidProbability, "probability_percent", p,
				"outcome %d (%s): probability %g must be between 0 and 100", i, o.Label, p)
		}
		if math.IsNaN(o.Multiplier) || math.IsInf(o.Multiplier, 0) {
			return nil, domain.NewConfigError(domain.InvalidMultiplier, "multiplier", o.Multiplier,
				"outcome %d (%s): multiplier must be finite", i, o.Label)
		}
		sum = sum.Add(decimal.NewFromFloat(p))
	}

	diff := sum.Sub(hundred)
	if diff.GreaterThan(ProbabilitySumTolerance) || diff.LessThan(probabilityShortfallTolerance.Neg()) {
		total := sum.InexactFloat64()
		return nil, domain.NewConfigError(domain.ProbabilitySumInvalid, "probability_percent", total,
			"probabilities must sum to 100%%, got %s%%", sum.StringFixed(2))
	}

	d := &Distribution{
		outcomes: append([]domain.Outcome(nil), outcomes...),
		ends:     make([]float64, len(outcomes)),
	}
	cumulative := 0.0
	for i, o := range d.outcomes {
		cumulative += o.ProbabilityPercent / 100
		d.ends[i] = cumulative
	}
	return d, nil
}

// FromFractions converts outcomes whose probabilities are 0-1 fractions into
// the percent form expected by ValidateDistribution.
func FromFractions(outcomes []domain.Outcome) []domain.Outcome {
	out := make([]domain.Outcome, len(outcomes))
	for i, o := range outcomes {
		o.ProbabilityPercent = decimal.NewFromFloat(o.ProbabilityPercent).Mul(hundred).InexactFloat64()
		out[i] = o
	}
	return out
}

// Len returns the number of outcomes.
func (d *Distribution) Len() int { return len(d.outcomes) }

// Outcomes returns a copy of the outcomes in stored order.
func (d *Distribution) Outcomes() []domain.Outcome {
	return append([]domain.Outcome(nil), d.outcomes...)
}

// Range returns the half-open cumulative range [start, end) of outcome i.
func (d *Distribution) Range(i int) (start, end float64) {
	if i > 0 {
		start = d.ends[i-1]
	}
	return start, d.ends[i]
}

// SampleIndex returns the index of the outcome whose range contains u.
// When floating-point drift leaves u past the final range end, the last
// outcome is returned.
func (d *Distribution) SampleIndex(u float64) int {
	i := sort.Search(len(d.ends), func(i int) bool { return d.ends[i] > u })
	if i == len(d.ends) {
		return len(d.ends) - 1
	}
	return i
}

// Sample maps a uniform value in [0,1) to an outcome. It is a pure function
// of the distribution and u.
func (d *Distribution) Sample(u float64) domain.Outcome {
	return d.outcomes[d.SampleIndex(u)]
}

// TheoreticalExpectancy is the probability-weighted mean multiplier (in R).
func (d *Distribution) TheoreticalExpectancy() float64 {
	e := 0.0
	for _, o := range d.outcomes {
		e += o.ProbabilityPercent / 100 * o.Multiplier
	}
	return e
}

// WinProbabilityPercent is the total probability of outcomes with a positive multiplier.
func (d *Distribution) WinProbabilityPercent() float64 {
	p := 0.0
	for _, o := range d.outcomes {
		if o.IsWin() {
			p += o.ProbabilityPercent
		}
	}
	return p
}

// ExpectedReturnPercent is the exact mean total return of a run, compounding
// the per-draw expectancy over params.DrawCount draws.
func (d *Distribution) ExpectedReturnPercent(params domain.RunParameters) float64 {
	growth := 1 + params.RiskFraction*d.TheoreticalExpectancy()
	return (math.Pow(growth, float64(params.DrawCount)) - 1) * 100
}
