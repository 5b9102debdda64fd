package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/marblesim/marble-game/internal/domain"
)

// ConsoleFormatter renders a human-readable report for any result kind.
type ConsoleFormatter struct {
	// HideDraws omits the per-draw table of single runs.
	HideDraws bool
}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	title := report.Title
	if title == "" {
		title = "MARBLE GAME SIMULATION"
	}
	fmt.Fprintln(&buf, strings.Repeat("=", 72))
	fmt.Fprintln(&buf, strings.ToUpper(title))
	fmt.Fprintln(&buf, strings.Repeat("=", 72))
	if report.Seed != 0 {
		fmt.Fprintf(&buf, "Seed: %d\n", report.Seed)
	}
	fmt.Fprintln(&buf)

	if len(report.Outcomes) > 0 {
		writeOutcomes(&buf, report.Outcomes)
	}
	if report.Single != nil {
		c.writeSingle(&buf, report.Single, report.Performance)
	}
	if report.MonteCarlo != nil {
		writeMonteCarlo(&buf, report.MonteCarlo)
	}
	if report.Comparison != nil {
		writeComparison(&buf, report.Comparison)
	}

	fmt.Fprintln(&buf, "ASSUMPTIONS:")
	for _, a := range DefaultAssumptions {
		fmt.Fprintf(&buf, "• %s\n", a)
	}
	return buf.Bytes(), nil
}

func writeOutcomes(w io.Writer, outcomes []domain.Outcome) {
	fmt.Fprintln(w, "MARBLE BAG")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "%-10s %12s %12s\n", "Marble", "Probability", "Multiple")
	expectancy := 0.0
	for _, o := range outcomes {
		fmt.Fprintf(w, "%-10s %12s %11sR\n", o.Label, Percent(o.ProbabilityPercent), Fixed(o.Multiplier, 2))
		expectancy += o.ProbabilityPercent / 100 * o.Multiplier
	}
	fmt.Fprintf(w, "Theoretical expectancy: %sR (%s)\n\n", Fixed(expectancy, 3), EdgeVerdict(expectancy))
}

func (c ConsoleFormatter) writeSingle(w io.Writer, r *domain.SingleRunResult, perf *domain.PerformanceStats) {
	fmt.Fprintln(w, "SINGLE RUN")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Starting equity:   %s\n", Money(r.StartingEquity))
	fmt.Fprintf(w, "Risk per draw:     %s\n", Percent(r.RiskFraction*100))
	fmt.Fprintf(w, "Draws:             %d\n", r.DrawCount)
	fmt.Fprintf(w, "Final equity:      %s\n", Money(r.FinalEquity))
	fmt.Fprintf(w, "Total return:      %s (%s)\n", Money(r.TotalReturn), Percent(r.TotalReturnPercent))
	fmt.Fprintf(w, "Wins / losses:     %d / %d (win rate %s)\n", r.WinCount, r.LossCount, Percent(r.WinRatePercent))
	fmt.Fprintf(w, "Average multiple:  %sR\n", Fixed(r.AverageMultiple, 3))
	fmt.Fprintf(w, "Max drawdown:      %s\n", Percent(r.MaxDrawdownPercent))
	fmt.Fprintln(w)

	if perf != nil {
		writePerformance(w, *perf)
	}

	if !c.HideDraws && len(r.Draws) > 0 {
		fmt.Fprintf(w, "%5s  %-8s %8s %14s %14s %14s\n", "Draw", "Marble", "Multiple", "Risked", "Result", "Equity")
		for _, ev := range r.Draws {
			fmt.Fprintf(w, "%5d  %-8s %7sR %14s %14s %14s\n", ev.Index, ev.Outcome.Label, Fixed(ev.Outcome.Multiplier, 2),
				Money(ev.RiskedAmount), Money(ev.SignedResult), Money(ev.EquityAfter))
		}
		fmt.Fprintln(w)
	}
}

func writePerformance(w io.Writer, p domain.PerformanceStats) {
	fmt.Fprintln(w, "PERFORMANCE")
	fmt.Fprintf(w, "  Expectancy per draw: %s\n", Money(p.Expectancy))
	fmt.Fprintf(w, "  Average win / loss:  %s / %s\n", Money(p.AverageWin), Money(p.AverageLoss))
	fmt.Fprintf(w, "  Sharpe ratio:        %s (%s)\n", Fixed(p.SharpeRatio, 3), SharpeRating(p.SharpeRatio))
	fmt.Fprintf(w, "  Volatility:          %s\n", Percent(p.VolatilityPercent))
	fmt.Fprintf(w, "  Profit factor:       %s\n", Ratio(p.ProfitFactor))
	fmt.Fprintf(w, "  Recovery factor:     %s\n", Ratio(p.RecoveryFactor))
	fmt.Fprintf(w, "  Calmar ratio:        %s\n", Ratio(p.CalmarRatio))
	fmt.Fprintln(w)
}

func writeMonteCarlo(w io.Writer, r *domain.MonteCarloResult) {
	fmt.Fprintln(w, "MONTE CARLO")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Simulations: %d x %d draws, risk %s, starting equity %s\n",
		r.SimulationCount, r.DrawCount, Percent(r.RiskFraction*100), Money(r.StartingEquity))
	fmt.Fprintf(w, "Theoretical expectancy: %sR, expected return %s\n", Fixed(r.TheoreticalExpectancy, 3), Percent(r.ExpectedReturnPercent))
	fmt.Fprintln(w)

	s := r.Summary
	fmt.Fprintf(w, "Mean return:            %s\n", Percent(s.MeanReturn))
	fmt.Fprintf(w, "Median return:          %s\n", Percent(s.MedianReturn))
	fmt.Fprintf(w, "Return volatility:      %s\n", Percent(s.ReturnVolatility))
	fmt.Fprintf(w, "Probability of profit:  %s\n", Percent(s.ProbabilityOfProfit))
	fmt.Fprintf(w, "Mean max drawdown:      %s\n", Percent(s.MeanMaxDrawdown))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-6s %12s %14s %12s\n", "Pctl", "Return", "Final equity", "Drawdown")
	for _, row := range percentileRows(r.Percentiles) {
		fmt.Fprintf(w, "%-6s %12s %14s %12s\n", row.label, Percent(row.ret), Money(row.equity), Percent(row.drawdown))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "RETURN DISTRIBUTION")
	maxCount := 0
	for _, b := range r.Histogram {
		maxCount = max(maxCount, b.Count)
	}
	for _, b := range r.Histogram {
		bar := 0
		if maxCount > 0 {
			bar = b.Count * 40 / maxCount
		}
		fmt.Fprintf(w, "%9s .. %9s | %-40s %5d\n", Percent(b.RangeStart), Percent(b.RangeEnd), strings.Repeat("#", bar), b.Count)
	}
	fmt.Fprintln(w)
}

type percentileRow struct {
	label                 string
	ret, equity, drawdown float64
}

func percentileRows(p domain.MonteCarloPercentiles) []percentileRow {
	return []percentileRow{
		{"P5", p.Returns.P5, p.FinalEquity.P5, p.Drawdowns.P5},
		{"P10", p.Returns.P10, p.FinalEquity.P10, p.Drawdowns.P10},
		{"P25", p.Returns.P25, p.FinalEquity.P25, p.Drawdowns.P25},
		{"P50", p.Returns.P50, p.FinalEquity.P50, p.Drawdowns.P50},
		{"P75", p.Returns.P75, p.FinalEquity.P75, p.Drawdowns.P75},
		{"P90", p.Returns.P90, p.FinalEquity.P90, p.Drawdowns.P90},
		{"P95", p.Returns.P95, p.FinalEquity.P95, p.Drawdowns.P95},
	}
}

func writeComparison(w io.Writer, r *domain.ComparisonResult) {
	fmt.Fprintln(w, "PLAYER COMPARISON")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Shared draws: %d, starting equity %s\n\n", r.DrawCount, Money(r.StartingEquity))
	fmt.Fprintf(w, "%-12s %8s %14s %10s %10s %8s %8s\n", "Player", "Risk", "Final", "Return", "Drawdown", "Sharpe", "PF")
	for _, pr := range r.Players {
		fmt.Fprintf(w, "%-12s %8s %14s %10s %10s %8s %8s\n",
			pr.Player.Name,
			Percent(pr.Player.RiskFraction*100),
			Money(pr.Result.FinalEquity),
			Percent(pr.Result.TotalReturnPercent),
			Percent(pr.Result.MaxDrawdownPercent),
			Fixed(pr.Performance.SharpeRatio, 3),
			Ratio(pr.Performance.ProfitFactor),
		)
	}
	fmt.Fprintln(w)
	for _, h := range ComparisonHighlights(r) {
		fmt.Fprintf(w, "%s: %s (%s)\n", h.Label, h.Player, h.Value)
	}
	fmt.Fprintln(w)
}
