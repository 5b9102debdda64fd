package calculation

import (
	"math"

	"github.com/marblesim/marble-game/internal/domain"
)

// SingleRunSimulator draws marbles for one path and tracks the equity that results.
type SingleRunSimulator struct {
	// RecordDraws keeps a DrawEvent per draw in the result.
	RecordDraws bool
}

// NewSingleRunSimulator returns a simulator that records the full draw history.
func NewSingleRunSimulator() *SingleRunSimulator {
	return &SingleRunSimulator{RecordDraws: true}
}

// ValidateRunParameters rejects non-positive equity, a risk fraction outside
// (0,1] and a non-positive draw count.
func ValidateRunParameters(p domain.RunParameters) error {
	if !(p.StartingEquity > 0) || math.IsInf(p.StartingEquity, 0) {
		return domain.NewConfigError(domain.NonPositiveParameter, "starting_equity", p.StartingEquity,
			"starting equity must be positive, got %g", p.StartingEquity)
	}
	if !(p.RiskFraction > 0) || p.RiskFraction > 1 {
		return domain.NewConfigError(domain.NonPositiveParameter, "risk_fraction", p.RiskFraction,
			"risk fraction must be in (0, 1], got %g", p.RiskFraction)
	}
	if p.DrawCount <= 0 {
		return domain.NewConfigError(domain.NonPositiveParameter, "draw_count", float64(p.DrawCount),
			"draw count must be positive, got %d", p.DrawCount)
	}
	return nil
}

// Run simulates params.DrawCount draws from dist using source for randomness.
// Equity is never floored: losses larger than the current equity drive it
// negative and the run continues.
func (s *SingleRunSimulator) Run(dist *Distribution, params domain.RunParameters, source RandomSource) (*domain.SingleRunResult, error) {
	if dist == nil {
		return nil, domain.NewConfigError(domain.EmptyDistribution, "outcomes", 0, "distribution is required")
	}
	if err := ValidateRunParameters(params); err != nil {
		return nil, err
	}
	result := simulatePath(params, func(int) domain.Outcome {
		return dist.Sample(source.Float64())
	}, s.RecordDraws)
	return &result, nil
}

// simulatePath runs the draw loop. draw returns the outcome for the 1-based
// draw index. Parameters are assumed valid.
func simulatePath(params domain.RunParameters, draw func(index int) domain.Outcome, recordDraws bool) domain.SingleRunResult {
	n := params.DrawCount
	equity := params.StartingEquity

	trajectory := make([]float64, 0, n+1)
	trajectory = append(trajectory, equity)
	var draws []domain.DrawEvent
	if recordDraws {
		draws = make([]domain.DrawEvent, 0, n)
	}

	peak := equity
	maxDrawdown := 0.0
	wins := 0
	sumMultiple := 0.0

	for i := 1; i <= n; i++ {
		risked := equity * params.RiskFraction
		outcome := draw(i)
		signed := risked * outcome.Multiplier
		before := equity
		equity += signed

		sumMultiple += outcome.Multiplier
		if outcome.IsWin() {
			wins++
		}

		trajectory = append(trajectory, equity)
		if recordDraws {
			draws = append(draws, domain.DrawEvent{
				Index:                  i,
				Outcome:                outcome,
				RiskedAmount:           risked,
				SignedResult:           signed,
				EquityBefore:           before,
				EquityAfter:            equity,
				RunningAverageMultiple: sumMultiple / float64(i),
			})
		}

		// peak starts at the (positive) starting equity and never decreases
		if equity > peak {
			peak = equity
		}
		if dd := (peak - equity) / peak * 100; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	totalReturn := equity - params.StartingEquity
	return domain.SingleRunResult{
		StartingEquity:     params.StartingEquity,
		RiskFraction:       params.RiskFraction,
		DrawCount:          n,
		FinalEquity:        equity,
		TotalReturn:        totalReturn,
		TotalReturnPercent: totalReturn / params.StartingEquity * 100,
		WinCount:           wins,
		LossCount:          n - wins,
		WinRatePercent:     float64(wins) / float64(n) * 100,
		AverageMultiple:    sumMultiple / float64(n),
		MaxDrawdownPercent: maxDrawdown,
		EquityTrajectory:   trajectory,
		Draws:              draws,
	}
}
