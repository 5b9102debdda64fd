package output

import (
	"bytes"
	"encoding/csv"
)

// CSVSummarizer writes the headline numbers of a report as CSV.
// Comparisons produce one row per player; other results produce Metric,Value rows.
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	var rows [][]string
	switch {
	case report.Comparison != nil:
		rows = append(rows, []string{"Player", "RiskPercent", "FinalEquity", "ReturnPercent", "MaxDrawdownPercent", "WinRatePercent", "SharpeRatio", "ProfitFactor"})
		for _, pr := range report.Comparison.Players {
			rows = append(rows, []string{
				pr.Player.Name,
				Fixed(pr.Player.RiskFraction*100, 2),
				Fixed(pr.Result.FinalEquity, 2),
				Fixed(pr.Result.TotalReturnPercent, 2),
				Fixed(pr.Result.MaxDrawdownPercent, 2),
				Fixed(pr.Result.WinRatePercent, 2),
				Fixed(pr.Performance.SharpeRatio, 4),
				Ratio(pr.Performance.ProfitFactor),
			})
		}
	case report.MonteCarlo != nil:
		rows = append(rows, []string{"Metric", "Value"})
		rows = append(rows, monteCarloSummaryRows(report.MonteCarlo)...)
	case report.Single != nil:
		r := report.Single
		rows = append(rows, []string{"Metric", "Value"},
			[]string{"StartingEquity", Fixed(r.StartingEquity, 2)},
			[]string{"RiskPercent", Fixed(r.RiskFraction*100, 2)},
			[]string{"Draws", intToString(r.DrawCount)},
			[]string{"FinalEquity", Fixed(r.FinalEquity, 2)},
			[]string{"TotalReturn", Fixed(r.TotalReturn, 2)},
			[]string{"TotalReturnPercent", Fixed(r.TotalReturnPercent, 2)},
			[]string{"Wins", intToString(r.WinCount)},
			[]string{"Losses", intToString(r.LossCount)},
			[]string{"WinRatePercent", Fixed(r.WinRatePercent, 2)},
			[]string{"AverageMultiple", Fixed(r.AverageMultiple, 4)},
			[]string{"MaxDrawdownPercent", Fixed(r.MaxDrawdownPercent, 2)},
		)
		if p := report.Performance; p != nil {
			rows = append(rows,
				[]string{"SharpeRatio", Fixed(p.SharpeRatio, 4)},
				[]string{"ProfitFactor", Ratio(p.ProfitFactor)},
				[]string{"RecoveryFactor", Ratio(p.RecoveryFactor)},
				[]string{"CalmarRatio", Ratio(p.CalmarRatio)},
			)
		}
	default:
		rows = append(rows, []string{"Metric", "Value"})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
