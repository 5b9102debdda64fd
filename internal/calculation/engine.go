package calculation

import (
	"context"

	"github.com/marblesim/marble-game/internal/domain"
)

// CalculationEngine orchestrates the single-run, Monte Carlo and comparison
// simulations for the CLI and HTTP server.
type CalculationEngine struct {
	BatchSize int
	Workers   int
	Debug     bool // log every draw of single and comparison runs
	Logger    Logger
}

// NewCalculationEngine creates a new calculation engine
func NewCalculationEngine() *CalculationEngine {
	return &CalculationEngine{
		BatchSize: DefaultBatchSize,
		Workers:   1,
		Logger:    NopLogger{},
	}
}

// SetLogger sets the logger for the calculation engine. If nil is provided, a no-op logger is used.
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

// resolveSeed returns seed, or a fresh seed from the seed provider when seed is zero.
func resolveSeed(seed int64) int64 {
	if seed == 0 {
		return seedFunc()
	}
	return seed
}

// RunSingle plays one game and records every draw.
func (ce *CalculationEngine) RunSingle(dist *Distribution, params domain.RunParameters, seed int64) (*domain.SingleRunResult, error) {
	seed = resolveSeed(seed)
	result, err := NewSingleRunSimulator().Run(dist, params, NewRandomSource(seed))
	if err != nil {
		return nil, err
	}
	ce.Logger.Infof("single run (seed %d): %d draws, final equity %.2f (%.2f%%)",
		seed, params.DrawCount, result.FinalEquity, result.TotalReturnPercent)
	if ce.Debug {
		for _, ev := range result.Draws {
			ce.Logger.Debugf("draw %d: %s x%.2f risked %.2f -> %.2f",
				ev.Index, ev.Outcome.Label, ev.Outcome.Multiplier, ev.RiskedAmount, ev.EquityAfter)
		}
	}
	return result, nil
}

// RunMonteCarlo runs simulationCount games. progress may be nil.
func (ce *CalculationEngine) RunMonteCarlo(ctx context.Context, dist *Distribution, params domain.RunParameters, simulationCount, bucketCount int, seed int64, progress ProgressFunc) (*domain.MonteCarloResult, error) {
	engine := NewMonteCarloEngine(EngineConfig{BatchSize: ce.BatchSize, Workers: ce.Workers})
	engine.SetLogger(ce.Logger)
	engine.OnProgress(progress)
	return engine.RunBatch(ctx, dist, params, simulationCount, bucketCount, SeededSourceFactory(resolveSeed(seed)))
}

// RunComparison plays one shared draw sequence for every player.
func (ce *CalculationEngine) RunComparison(dist *Distribution, startingEquity float64, drawCount int, players []domain.Player, seed int64) (*domain.ComparisonResult, error) {
	seed = resolveSeed(seed)
	result, err := RunComparison(dist, startingEquity, drawCount, players, NewRandomSource(seed))
	if err != nil {
		return nil, err
	}
	ce.Logger.Infof("comparison (seed %d): best return %s, best sharpe %s, lowest drawdown %s",
		seed, result.BestReturn, result.BestSharpe, result.LowestDrawdown)
	if ce.Debug {
		for _, pr := range result.Players {
			ce.Logger.Debugf("%s: risk %.1f%%, final equity %.2f, max drawdown %.2f%%",
				pr.Player.Name, pr.Player.RiskFraction*100, pr.Result.FinalEquity, pr.Result.MaxDrawdownPercent)
		}
	}
	return result, nil
}
