package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marblesim/marble-game/internal/calculation"
	"github.com/marblesim/marble-game/internal/domain"
)

func testOutcomes() []domain.Outcome {
	return []domain.Outcome{
		{Label: "Blue", ProbabilityPercent: 40, Multiplier: 2},
		{Label: "Red", ProbabilityPercent: 60, Multiplier: -1},
	}
}

func buildSingleReport(t *testing.T) *Report {
	t.Helper()
	dist, err := calculation.ValidateDistribution(testOutcomes())
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	res, err := calculation.NewSingleRunSimulator().Run(dist, domain.RunParameters{StartingEquity: 1000, RiskFraction: 0.1, DrawCount: 5}, calculation.NewRandomSource(1))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	perf := calculation.Analyze(*res)
	return &Report{Title: "single", Seed: 1, Outcomes: testOutcomes(), Single: res, Performance: &perf}
}

func buildMonteCarloReport(t *testing.T) *Report {
	t.Helper()
	dist, err := calculation.ValidateDistribution(testOutcomes())
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	res, err := calculation.NewMonteCarloEngine(calculation.EngineConfig{}).RunBatch(context.Background(), dist,
		domain.RunParameters{StartingEquity: 1000, RiskFraction: 0.02, DrawCount: 20}, 50, 8, calculation.SeededSourceFactory(4))
	if err != nil {
		t.Fatalf("monte carlo: %v", err)
	}
	return &Report{Seed: 4, MonteCarlo: res}
}

func buildComparisonReport(t *testing.T) *Report {
	t.Helper()
	dist, err := calculation.ValidateDistribution(testOutcomes())
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	players := []domain.Player{{Name: "Vic", RiskFraction: 0.2}, {Name: "Cassie", RiskFraction: 0.05}}
	res, err := calculation.RunComparison(dist, 1000, 10, players, calculation.NewRandomSource(2))
	if err != nil {
		t.Fatalf("comparison: %v", err)
	}
	return &Report{Comparison: res}
}

func TestConsoleFormatter_Single(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildSingleReport(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := string(out)
	for _, want := range []string{"SINGLE", "MARBLE BAG", "SINGLE RUN", "PERFORMANCE", "Theoretical expectancy: 0.200R", "ASSUMPTIONS:"} {
		if !strings.Contains(content, want) {
			t.Errorf("console output missing %q", want)
		}
	}
	if !strings.Contains(content, "Draw  Marble") {
		t.Errorf("expected draw table, got: %s", content)
	}

	out, err = ConsoleFormatter{HideDraws: true}.Format(buildSingleReport(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), "Draw  Marble") {
		t.Errorf("draw table should be hidden")
	}
}

func TestConsoleFormatter_MonteCarlo(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildMonteCarloReport(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := string(out)
	for _, want := range []string{"MONTE CARLO", "Probability of profit", "P95", "RETURN DISTRIBUTION", "Seed: 4"} {
		if !strings.Contains(content, want) {
			t.Errorf("console output missing %q", want)
		}
	}
}

func TestConsoleFormatter_Comparison(t *testing.T) {
	report := buildComparisonReport(t)
	out, err := ConsoleFormatter{}.Format(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := string(out)
	if !strings.Contains(content, "Best return: "+report.Comparison.BestReturn) {
		t.Fatalf("expected best return highlight, got: %s", content)
	}
	if !strings.Contains(content, "Lowest drawdown: "+report.Comparison.LowestDrawdown) {
		t.Fatalf("expected lowest drawdown highlight, got: %s", content)
	}
}

func TestJSONFormatter(t *testing.T) {
	report := buildMonteCarloReport(t)
	out, err := JSONFormatter{}.Format(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	mc, ok := decoded["monte_carlo"].(map[string]any)
	if !ok {
		t.Fatalf("monte_carlo section missing: %s", out)
	}
	if got := mc["simulation_count"]; got != float64(50) {
		t.Errorf("simulation_count = %v, want 50", got)
	}
	if _, present := decoded["single_run"]; present {
		t.Errorf("single_run should be omitted")
	}
}

func TestCSVSummarizer_Comparison(t *testing.T) {
	out, err := CSVSummarizer{}.Format(buildComparisonReport(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 lines (header+2 rows), got %d", len(records))
	}
	if records[1][0] != "Vic" || records[2][0] != "Cassie" {
		t.Fatalf("rows should keep player order: %v", records)
	}
}

func TestCSVSummarizer_Single(t *testing.T) {
	report := buildSingleReport(t)
	out, err := CSVSummarizer{}.Format(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "FinalEquity,"+Fixed(report.Single.FinalEquity, 2)) {
		t.Errorf("missing final equity row: %s", out)
	}
	if !strings.Contains(string(out), "SharpeRatio,") {
		t.Errorf("missing performance rows: %s", out)
	}
}

func TestCSVDetailedExporter(t *testing.T) {
	tests := []struct {
		name  string
		build func(*testing.T) *Report
		rows  int
	}{
		{"single", buildSingleReport, 1 + 5},
		{"monte carlo", buildMonteCarloReport, 1 + 50},
		{"comparison", buildComparisonReport, 1 + 2*10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := CSVDetailedExporter{}.Format(tt.build(t))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
			if err != nil {
				t.Fatalf("invalid CSV: %v", err)
			}
			if len(records) != tt.rows {
				t.Errorf("got %d records, want %d", len(records), tt.rows)
			}
		})
	}
}

func TestFormatterRegistry(t *testing.T) {
	for _, name := range []string{"console", "TEXT", "verbose", "json", "json-pretty", "csv", "csv-summary", "detailed-csv", "csv-detailed"} {
		if GetFormatterByName(name) == nil {
			t.Errorf("formatter %q not found", name)
		}
	}
	if GetFormatterByName("html") != nil {
		t.Errorf("html should not be registered")
	}

	_, err := Lookup("xml")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "detailed-csv") {
		t.Errorf("error should list formats: %v", err)
	}

	names := AvailableFormatterNames()
	if strings.Join(names, ",") != "console,csv,detailed-csv,json" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestGenerateReport_WritesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := GenerateReport(buildSingleReport(t), "csv-summary", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(path) != ".csv" || filepath.Dir(path) != dir {
		t.Errorf("unexpected path %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report not written: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, buildSingleReport(t), "json"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Errorf("render produced invalid JSON")
	}
}

func TestMonteCarloCSVReport_All(t *testing.T) {
	report := buildMonteCarloReport(t)
	dir := filepath.Join(t.TempDir(), "csv")

	paths, err := (&MonteCarloCSVReport{Result: report.MonteCarlo}).GenerateAllCSVReports(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 5 {
		t.Fatalf("expected 5 files, got %d", len(paths))
	}

	data, err := os.ReadFile(filepath.Join(dir, "monte_carlo_equity_curve.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 1+21 {
		t.Errorf("equity curve rows = %d, want 22", len(records))
	}
	if records[1][1] != "1000.00" {
		t.Errorf("first average = %s, want 1000.00", records[1][1])
	}

	data, err = os.ReadFile(filepath.Join(dir, "monte_carlo_histogram.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 1+8 {
		t.Errorf("histogram lines = %d, want 9", lines)
	}
}
