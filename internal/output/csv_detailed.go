package output

import (
	"bytes"
	"encoding/csv"
)

// CSVDetailedExporter writes row-level detail: draws of a single run, one row
// per Monte Carlo run, or every player's draws in a comparison.
type CSVDetailedExporter struct{}

func (c CSVDetailedExporter) Name() string { return "detailed-csv" }

func (c CSVDetailedExporter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	switch {
	case report.Comparison != nil:
		if err := w.Write([]string{"Player", "Draw", "Marble", "Multiple", "Risked", "Result", "Equity"}); err != nil {
			return nil, err
		}
		for _, pr := range report.Comparison.Players {
			for _, ev := range pr.Result.Draws {
				if err := w.Write(append([]string{pr.Player.Name}, drawRow(ev.Index, ev.Outcome.Label, ev.Outcome.Multiplier, ev.RiskedAmount, ev.SignedResult, ev.EquityAfter)...)); err != nil {
					return nil, err
				}
			}
		}
	case report.MonteCarlo != nil:
		if err := writeRunRows(w, report.MonteCarlo); err != nil {
			return nil, err
		}
	case report.Single != nil:
		if err := w.Write([]string{"Draw", "Marble", "Multiple", "Risked", "Result", "Equity"}); err != nil {
			return nil, err
		}
		for _, ev := range report.Single.Draws {
			if err := w.Write(drawRow(ev.Index, ev.Outcome.Label, ev.Outcome.Multiplier, ev.RiskedAmount, ev.SignedResult, ev.EquityAfter)); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawRow(index int, label string, multiple, risked, result, equity float64) []string {
	return []string{
		intToString(index),
		label,
		Fixed(multiple, 2),
		Fixed(risked, 2),
		Fixed(result, 2),
		Fixed(equity, 2),
	}
}
