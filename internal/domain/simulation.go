package domain

// Outcome is one marble in the bag: a weighted result applied to the risked amount.
type Outcome struct {
	Label              string  `json:"label"`
	DisplayColor       string  `json:"display_color,omitempty"`
	ProbabilityPercent float64 `json:"probability_percent"`
	Multiplier         float64 `json:"multiplier"`
}

// IsWin reports whether drawing this outcome grows equity.
// A zero multiplier is not a win and is counted with the losses.
func (o Outcome) IsWin() bool { return o.Multiplier > 0 }

// RunParameters configures a single simulated path.
type RunParameters struct {
	StartingEquity float64 `json:"starting_equity"`
	RiskFraction   float64 `json:"risk_fraction"`
	DrawCount      int     `json:"draw_count"`
}

// DrawEvent records a single draw of a run. Index is 1-based.
type DrawEvent struct {
	Index                  int     `json:"index"`
	Outcome                Outcome `json:"outcome"`
	RiskedAmount           float64 `json:"risked_amount"`
	SignedResult           float64 `json:"signed_result"`
	EquityBefore           float64 `json:"equity_before"`
	EquityAfter            float64 `json:"equity_after"`
	RunningAverageMultiple float64 `json:"running_average_multiple"`
}

// SingleRunResult is the outcome of one simulated path.
// EquityTrajectory holds DrawCount+1 values; index 0 is the starting equity.
type SingleRunResult struct {
	StartingEquity     float64     `json:"starting_equity"`
	RiskFraction       float64     `json:"risk_fraction"`
	DrawCount          int         `json:"draw_count"`
	FinalEquity        float64     `json:"final_equity"`
	TotalReturn        float64     `json:"total_return"`
	TotalReturnPercent float64     `json:"total_return_percent"`
	WinCount           int         `json:"win_count"`
	LossCount          int         `json:"loss_count"`
	WinRatePercent     float64     `json:"win_rate_percent"`
	AverageMultiple    float64     `json:"average_multiple"`
	MaxDrawdownPercent float64     `json:"max_drawdown_percent"`
	EquityTrajectory   []float64   `json:"equity_trajectory"`
	Draws              []DrawEvent `json:"draws,omitempty"`
}

// PerformanceStats are trajectory-derived trading metrics for a single run.
// Ratios that would divide by zero are left nil.
type PerformanceStats struct {
	Expectancy            float64  `json:"expectancy"`
	GrossProfit           float64  `json:"gross_profit"`
	GrossLoss             float64  `json:"gross_loss"`
	WinningDraws          int      `json:"winning_draws"`
	LosingDraws           int      `json:"losing_draws"`
	AverageWin            float64  `json:"average_win"`
	AverageLoss           float64  `json:"average_loss"`
	MeanDrawReturn        float64  `json:"mean_draw_return"`
	DrawReturnStdDev      float64  `json:"draw_return_std_dev"`
	SharpeRatio           float64  `json:"sharpe_ratio"`
	VolatilityPercent     float64  `json:"volatility_percent"`
	MaxDrawdownAmount     float64  `json:"max_drawdown_amount"`
	MaxDrawdownOfStartPct float64  `json:"max_drawdown_of_start_percent"`
	ProfitFactor          *float64 `json:"profit_factor,omitempty"`
	RecoveryFactor        *float64 `json:"recovery_factor,omitempty"`
	CalmarRatio           *float64 `json:"calmar_ratio,omitempty"`
}

// Player is a participant in a shared-draw comparison.
type Player struct {
	Name         string  `json:"name"`
	Objective    string  `json:"objective,omitempty"`
	RiskFraction float64 `json:"risk_fraction"`
}

// SharedDraw is one marble drawn for every player in a comparison.
type SharedDraw struct {
	Index   int     `json:"index"`
	Outcome Outcome `json:"outcome"`
}

// PlayerResult pairs a player with the path produced by the shared draws.
type PlayerResult struct {
	Player      Player           `json:"player"`
	Result      SingleRunResult  `json:"result"`
	Performance PerformanceStats `json:"performance"`
}

// ComparisonResult is the outcome of applying one draw sequence to several players.
type ComparisonResult struct {
	StartingEquity float64        `json:"starting_equity"`
	DrawCount      int            `json:"draw_count"`
	Draws          []SharedDraw   `json:"draws"`
	Players        []PlayerResult `json:"players"`
	BestReturn     string         `json:"best_return"`
	BestSharpe     string         `json:"best_sharpe"`
	LowestDrawdown string         `json:"lowest_drawdown"`
}
