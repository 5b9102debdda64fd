package domain

// PercentileTable holds nearest-rank-lower percentiles of one metric.
type PercentileTable struct {
	P5  float64 `json:"p5"`
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
}

// MonteCarloSummary holds the headline statistics of a batch. All values are percentages.
type MonteCarloSummary struct {
	MeanReturn          float64 `json:"mean_return"`
	MedianReturn        float64 `json:"median_return"`
	ReturnVolatility    float64 `json:"return_volatility"`
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
	MeanMaxDrawdown     float64 `json:"mean_max_drawdown"`
}

// MonteCarloPercentiles groups the percentile tables of a batch.
type MonteCarloPercentiles struct {
	Returns     PercentileTable `json:"returns"`
	FinalEquity PercentileTable `json:"final_equity"`
	Drawdowns   PercentileTable `json:"drawdowns"`
}

// HistogramBucket is one bin of a histogram. The last bucket of a histogram
// is closed on the right; all others are half-open.
type HistogramBucket struct {
	RangeStart       float64 `json:"range_start"`
	RangeEnd         float64 `json:"range_end"`
	Count            int     `json:"count"`
	FrequencyPercent float64 `json:"frequency_percent"`
}

// EquityBand is the cross-run equity envelope at one draw index.
type EquityBand struct {
	Draw    int     `json:"draw"`
	Average float64 `json:"average"`
	P10     float64 `json:"p10"`
	P90     float64 `json:"p90"`
}

// RunSummary is the per-run record kept for scatter plots.
type RunSummary struct {
	Run                int     `json:"run"`
	ReturnPercent      float64 `json:"return_percent"`
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"`
	FinalEquity        float64 `json:"final_equity"`
	WinRatePercent     float64 `json:"win_rate_percent"`
}

// MonteCarloResult aggregates a completed batch of independent runs.
type MonteCarloResult struct {
	SimulationCount       int                   `json:"simulation_count"`
	DrawCount             int                   `json:"draw_count"`
	StartingEquity        float64               `json:"starting_equity"`
	RiskFraction          float64               `json:"risk_fraction"`
	BucketCount           int                   `json:"bucket_count"`
	TheoreticalExpectancy float64               `json:"theoretical_expectancy"`
	ExpectedReturnPercent float64               `json:"expected_return_percent"`
	Summary               MonteCarloSummary     `json:"summary"`
	Percentiles           MonteCarloPercentiles `json:"percentiles"`
	Histogram             []HistogramBucket     `json:"histogram"`
	EquityCurve           []EquityBand          `json:"equity_curve"`
	Runs                  []RunSummary          `json:"runs"`
}
