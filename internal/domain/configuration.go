package domain

import "github.com/shopspring/decimal"

// Probability scales accepted in configuration files.
const (
	ScalePercent  = "percent"
	ScaleFraction = "fraction"
)

// Configuration is the top-level simulation input file.
type Configuration struct {
	Name             string           `yaml:"name,omitempty" json:"name,omitempty"`
	Preset           string           `yaml:"preset,omitempty" json:"preset,omitempty"`
	ProbabilityScale string           `yaml:"probability_scale,omitempty" json:"probability_scale,omitempty"`
	Outcomes         []OutcomeConfig  `yaml:"outcomes,omitempty" json:"outcomes,omitempty"`
	Run              RunConfig        `yaml:"run" json:"run"`
	MonteCarlo       MonteCarloConfig `yaml:"monte_carlo" json:"monte_carlo"`
	Players          []PlayerConfig   `yaml:"players,omitempty" json:"players,omitempty"`
}

// OutcomeConfig is a marble as written in a configuration file.
// Probability is read according to Configuration.ProbabilityScale.
type OutcomeConfig struct {
	Label       string          `yaml:"label" json:"label"`
	Color       string          `yaml:"color,omitempty" json:"color,omitempty"`
	Probability decimal.Decimal `yaml:"probability" json:"probability"`
	Multiplier  decimal.Decimal `yaml:"multiplier" json:"multiplier"`
}

// RunConfig holds single-path settings. RiskPercent is 0-100.
type RunConfig struct {
	StartingEquity decimal.Decimal `yaml:"starting_equity" json:"starting_equity"`
	RiskPercent    decimal.Decimal `yaml:"risk_percent" json:"risk_percent"`
	Draws          int             `yaml:"draws" json:"draws"`
}

// MonteCarloConfig holds batch settings.
type MonteCarloConfig struct {
	Simulations      int   `yaml:"simulations" json:"simulations"`
	HistogramBuckets int   `yaml:"histogram_buckets" json:"histogram_buckets"`
	BatchSize        int   `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
	Workers          int   `yaml:"workers,omitempty" json:"workers,omitempty"`
	Seed             int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// PlayerConfig is a comparison participant as written in a configuration file.
type PlayerConfig struct {
	Name        string          `yaml:"name" json:"name"`
	Objective   string          `yaml:"objective,omitempty" json:"objective,omitempty"`
	RiskPercent decimal.Decimal `yaml:"risk_percent" json:"risk_percent"`
}

// RunParameters converts the run section into engine parameters.
func (c RunConfig) RunParameters() RunParameters {
	return RunParameters{
		StartingEquity: c.StartingEquity.InexactFloat64(),
		RiskFraction:   c.RiskPercent.Div(decimal.NewFromInt(100)).InexactFloat64(),
		DrawCount:      c.Draws,
	}
}

// Player converts a configured player into a comparison participant.
func (p PlayerConfig) Player() Player {
	return Player{
		Name:         p.Name,
		Objective:    p.Objective,
		RiskFraction: p.RiskPercent.Div(decimal.NewFromInt(100)).InexactFloat64(),
	}
}
