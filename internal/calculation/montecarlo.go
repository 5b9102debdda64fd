package calculation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/alitto/pond"
	"github.com/marblesim/marble-game/internal/domain"
)

// DefaultBatchSize is the number of runs executed between cancellation checks
// and progress callbacks.
const DefaultBatchSize = 100

// ErrSimulationCancelled is returned when the context is done before all runs
// finish. Partially computed runs are discarded.
var ErrSimulationCancelled = errors.New("monte carlo simulation cancelled")

// ProgressFunc receives the number of completed runs after each batch.
type ProgressFunc func(completed, total int)

// EngineConfig holds scheduling options. They never change the statistical result.
type EngineConfig struct {
	BatchSize int
	Workers   int // runs executed concurrently within a batch; <= 1 runs sequentially
}

// MonteCarloEngine runs many independent single runs and aggregates them.
type MonteCarloEngine struct {
	BatchSize int
	Workers   int

	logger   Logger
	progress ProgressFunc
}

// NewMonteCarloEngine creates an engine with defaults applied.
func NewMonteCarloEngine(config EngineConfig) *MonteCarloEngine {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &MonteCarloEngine{
		BatchSize: config.BatchSize,
		Workers:   config.Workers,
		logger:    NopLogger{},
	}
}

// SetLogger sets the engine logger. A nil logger disables logging.
func (e *MonteCarloEngine) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	e.logger = l
}

// OnProgress registers a callback invoked after every batch.
func (e *MonteCarloEngine) OnProgress(fn ProgressFunc) { e.progress = fn }

// RunBatch executes simulationCount independent runs and aggregates them.
// Every run gets its own source from factory; a nil factory uses a seeded
// factory from the default seed provider. The context is checked between
// batches only; on cancellation RunBatch returns ErrSimulationCancelled.
func (e *MonteCarloEngine) RunBatch(ctx context.Context, dist *Distribution, params domain.RunParameters, simulationCount, bucketCount int, factory SourceFactory) (*domain.MonteCarloResult, error) {
	if dist == nil {
		return nil, domain.NewConfigError(domain.EmptyDistribution, "outcomes", 0, "distribution is required")
	}
	if err := ValidateRunParameters(params); err != nil {
		return nil, err
	}
	if simulationCount <= 0 {
		return nil, domain.NewConfigError(domain.NonPositiveParameter, "simulation_count", float64(simulationCount),
			"simulation count must be positive, got %d", simulationCount)
	}
	if bucketCount <= 0 {
		return nil, domain.NewConfigError(domain.NonPositiveParameter, "bucket_count", float64(bucketCount),
			"histogram bucket count must be positive, got %d", bucketCount)
	}
	if factory == nil {
		factory = SeededSourceFactory(seedFunc())
	}

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var pool *pond.WorkerPool
	if e.Workers > 1 {
		pool = pond.New(e.Workers, batchSize,
			pond.MinWorkers(1),
			pond.PanicHandler(func(p interface{}) {
				e.logger.Errorf("monte carlo worker panic: %v", p)
			}),
		)
		defer pool.StopAndWait()
	}

	// draw histories are not kept across a batch
	runOne := func(i int) domain.SingleRunResult {
		src := factory(i)
		return simulatePath(params, func(int) domain.Outcome {
			return dist.Sample(src.Float64())
		}, false)
	}

	e.logger.Debugf("monte carlo: %d runs x %d draws, batch=%d workers=%d", simulationCount, params.DrawCount, batchSize, e.Workers)

	runs := make([]domain.SingleRunResult, simulationCount)
	for start := 0; start < simulationCount; start += batchSize {
		if err := ctx.Err(); err != nil {
			e.logger.Warnf("monte carlo cancelled after %d of %d runs", start, simulationCount)
			return nil, fmt.Errorf("%w after %d of %d runs: %w", ErrSimulationCancelled, start, simulationCount, err)
		}

		end := min(start+batchSize, simulationCount)
		if pool != nil {
			group := pool.Group()
			for i := start; i < end; i++ {
				i := i
				group.Submit(func() { runs[i] = runOne(i) })
			}
			group.Wait()
		} else {
			for i := start; i < end; i++ {
				runs[i] = runOne(i)
			}
		}

		if e.progress != nil {
			e.progress(end, simulationCount)
		}
	}

	result := aggregateRuns(dist, params, runs, bucketCount)
	e.logger.Infof("monte carlo complete: mean return %.2f%%, profit probability %.1f%%",
		result.Summary.MeanReturn, result.Summary.ProbabilityOfProfit)
	return result, nil
}

// aggregateRuns computes the cross-run statistics once every run has completed.
// All runs share params.DrawCount, so every trajectory has the same length.
func aggregateRuns(dist *Distribution, params domain.RunParameters, runs []domain.SingleRunResult, bucketCount int) *domain.MonteCarloResult {
	n := len(runs)
	returns := make([]float64, n)
	finals := make([]float64, n)
	drawdowns := make([]float64, n)
	summaries := make([]domain.RunSummary, n)
	profitable := 0

	for i, r := range runs {
		returns[i] = r.TotalReturnPercent
		finals[i] = r.FinalEquity
		drawdowns[i] = r.MaxDrawdownPercent
		if r.TotalReturn > 0 {
			profitable++
		}
		summaries[i] = domain.RunSummary{
			Run:                i + 1,
			ReturnPercent:      r.TotalReturnPercent,
			MaxDrawdownPercent: r.MaxDrawdownPercent,
			FinalEquity:        r.FinalEquity,
			WinRatePercent:     r.WinRatePercent,
		}
	}

	sortedReturns := SortedCopy(returns)
	sortedFinals := SortedCopy(finals)
	sortedDrawdowns := SortedCopy(drawdowns)

	return &domain.MonteCarloResult{
		SimulationCount:       n,
		DrawCount:             params.DrawCount,
		StartingEquity:        params.StartingEquity,
		RiskFraction:          params.RiskFraction,
		BucketCount:           bucketCount,
		TheoreticalExpectancy: dist.TheoreticalExpectancy(),
		ExpectedReturnPercent: dist.ExpectedReturnPercent(params),
		Summary: domain.MonteCarloSummary{
			MeanReturn:          Mean(returns),
			MedianReturn:        Percentile(sortedReturns, 50),
			ReturnVolatility:    StdDev(returns),
			ProbabilityOfProfit: float64(profitable) / float64(n) * 100,
			MeanMaxDrawdown:     Mean(drawdowns),
		},
		Percentiles: domain.MonteCarloPercentiles{
			Returns:     PercentileTableOf(sortedReturns),
			FinalEquity: PercentileTableOf(sortedFinals),
			Drawdowns:   PercentileTableOf(sortedDrawdowns),
		},
		Histogram:   Histogram(returns, bucketCount),
		EquityCurve: equityBands(runs, params.DrawCount),
		Runs:        summaries,
	}
}

// equityBands computes the average, p10 and p90 equity at every draw index.
func equityBands(runs []domain.SingleRunResult, drawCount int) []domain.EquityBand {
	bands := make([]domain.EquityBand, drawCount+1)
	column := make([]float64, len(runs))
	for k := 0; k <= drawCount; k++ {
		for i, r := range runs {
			column[i] = r.EquityTrajectory[k]
		}
		avg := Mean(column)
		sort.Float64s(column)
		bands[k] = domain.EquityBand{
			Draw:    k,
			Average: avg,
			P10:     Percentile(column, 10),
			P90:     Percentile(column, 90),
		}
	}
	return bands
}
