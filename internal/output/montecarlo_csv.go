package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/marblesim/marble-game/internal/domain"
)

// MonteCarloCSVReport generates CSV exports for Monte Carlo results
type MonteCarloCSVReport struct {
	Result *domain.MonteCarloResult
}

func monteCarloSummaryRows(r *domain.MonteCarloResult) [][]string {
	return [][]string{
		{"Simulations", strconv.Itoa(r.SimulationCount)},
		{"DrawsPerRun", strconv.Itoa(r.DrawCount)},
		{"StartingEquity", Fixed(r.StartingEquity, 2)},
		{"RiskPercent", Fixed(r.RiskFraction*100, 2)},
		{"TheoreticalExpectancy", Fixed(r.TheoreticalExpectancy, 4)},
		{"ExpectedReturnPercent", Fixed(r.ExpectedReturnPercent, 2)},
		{"MeanReturnPercent", Fixed(r.Summary.MeanReturn, 2)},
		{"MedianReturnPercent", Fixed(r.Summary.MedianReturn, 2)},
		{"ReturnVolatility", Fixed(r.Summary.ReturnVolatility, 2)},
		{"ProbabilityOfProfit", Fixed(r.Summary.ProbabilityOfProfit, 2)},
		{"MeanMaxDrawdownPercent", Fixed(r.Summary.MeanMaxDrawdown, 2)},
	}
}

func writeRunRows(w *csv.Writer, r *domain.MonteCarloResult) error {
	if err := w.Write([]string{"Run", "ReturnPercent", "MaxDrawdownPercent", "FinalEquity", "WinRatePercent"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, run := range r.Runs {
		row := []string{
			strconv.Itoa(run.Run),
			Fixed(run.ReturnPercent, 4),
			Fixed(run.MaxDrawdownPercent, 4),
			Fixed(run.FinalEquity, 2),
			Fixed(run.WinRatePercent, 2),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write run row: %w", err)
		}
	}
	return nil
}

// writeCSV creates path and lets fill write its rows.
func writeCSV(path string, fill func(w *csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := fill(writer); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// GenerateSummaryCSV creates a summary CSV with aggregate statistics
func (m *MonteCarloCSVReport) GenerateSummaryCSV(outputPath string) error {
	return writeCSV(outputPath, func(w *csv.Writer) error {
		if err := w.Write([]string{"Metric", "Value"}); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for _, row := range monteCarloSummaryRows(m.Result) {
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write data row: %w", err)
			}
		}
		return nil
	})
}

// GenerateDetailedCSV creates a detailed CSV with individual simulation results
func (m *MonteCarloCSVReport) GenerateDetailedCSV(outputPath string) error {
	return writeCSV(outputPath, func(w *csv.Writer) error { return writeRunRows(w, m.Result) })
}

// GeneratePercentileCSV creates a CSV with the percentile tables
func (m *MonteCarloCSVReport) GeneratePercentileCSV(outputPath string) error {
	return writeCSV(outputPath, func(w *csv.Writer) error {
		if err := w.Write([]string{"Percentile", "ReturnPercent", "FinalEquity", "MaxDrawdownPercent"}); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for _, row := range percentileRows(m.Result.Percentiles) {
			if err := w.Write([]string{row.label, Fixed(row.ret, 4), Fixed(row.equity, 2), Fixed(row.drawdown, 4)}); err != nil {
				return fmt.Errorf("failed to write percentile row: %w", err)
			}
		}
		return nil
	})
}

// GenerateHistogramCSV writes one row per return bucket.
func (m *MonteCarloCSVReport) GenerateHistogramCSV(outputPath string) error {
	return writeCSV(outputPath, func(w *csv.Writer) error {
		if err := w.Write([]string{"RangeStart", "RangeEnd", "Count", "FrequencyPercent"}); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for _, b := range m.Result.Histogram {
			if err := w.Write([]string{Fixed(b.RangeStart, 4), Fixed(b.RangeEnd, 4), strconv.Itoa(b.Count), Fixed(b.FrequencyPercent, 2)}); err != nil {
				return fmt.Errorf("failed to write histogram row: %w", err)
			}
		}
		return nil
	})
}

// GenerateEquityCurveCSV writes the average, p10 and p90 equity at every draw.
func (m *MonteCarloCSVReport) GenerateEquityCurveCSV(outputPath string) error {
	return writeCSV(outputPath, func(w *csv.Writer) error {
		if err := w.Write([]string{"Draw", "Average", "P10", "P90"}); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for _, band := range m.Result.EquityCurve {
			if err := w.Write([]string{strconv.Itoa(band.Draw), Fixed(band.Average, 2), Fixed(band.P10, 2), Fixed(band.P90, 2)}); err != nil {
				return fmt.Errorf("failed to write equity row: %w", err)
			}
		}
		return nil
	})
}

// GenerateAllCSVReports creates all CSV reports in a single directory
// and returns the paths written.
func (m *MonteCarloCSVReport) GenerateAllCSVReports(outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	reports := []struct {
		name string
		gen  func(string) error
	}{
		{"monte_carlo_summary.csv", m.GenerateSummaryCSV},
		{"monte_carlo_percentiles.csv", m.GeneratePercentileCSV},
		{"monte_carlo_detailed.csv", m.GenerateDetailedCSV},
		{"monte_carlo_histogram.csv", m.GenerateHistogramCSV},
		{"monte_carlo_equity_curve.csv", m.GenerateEquityCurveCSV},
	}

	paths := make([]string, 0, len(reports))
	for _, r := range reports {
		path := filepath.Join(outputDir, r.name)
		if err := r.gen(path); err != nil {
			return paths, fmt.Errorf("failed to generate %s: %w", r.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
