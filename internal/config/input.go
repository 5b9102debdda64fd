package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/marblesim/marble-game/internal/calculation"
	"github.com/marblesim/marble-game/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Defaults applied to settings a configuration leaves unset.
const (
	DefaultStartingEquity   = 10000
	DefaultRiskPercent      = 2
	DefaultDraws            = 100
	DefaultSimulations      = 1000
	DefaultHistogramBuckets = 20
)

// InputParser handles parsing of simulation configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads configuration from a YAML (or JSON) file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes, defaults and validates a configuration document.
func (ip *InputParser) Parse(data []byte) (*domain.Configuration, error) {
	var config domain.Configuration
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ApplyDefaults(&config)

	if err := ip.ValidateConfiguration(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// ApplyDefaults fills zero-valued settings.
func ApplyDefaults(config *domain.Configuration) {
	if config.ProbabilityScale == "" {
		config.ProbabilityScale = domain.ScalePercent
	}
	if len(config.Outcomes) == 0 && config.Preset == "" {
		config.Preset = DefaultPresetName
	}
	if config.Run.StartingEquity.IsZero() {
		config.Run.StartingEquity = decimalFromInt(DefaultStartingEquity)
	}
	if config.Run.RiskPercent.IsZero() {
		config.Run.RiskPercent = decimalFromInt(DefaultRiskPercent)
	}
	if config.Run.Draws == 0 {
		config.Run.Draws = DefaultDraws
	}
	if config.MonteCarlo.Simulations == 0 {
		config.MonteCarlo.Simulations = DefaultSimulations
	}
	if config.MonteCarlo.HistogramBuckets == 0 {
		config.MonteCarlo.HistogramBuckets = DefaultHistogramBuckets
	}
	if config.MonteCarlo.BatchSize == 0 {
		config.MonteCarlo.BatchSize = calculation.DefaultBatchSize
	}
}

// ValidateConfiguration validates the loaded configuration
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if _, err := BuildDistribution(config); err != nil {
		return fmt.Errorf("outcomes: %w", err)
	}

	if err := calculation.ValidateRunParameters(config.Run.RunParameters()); err != nil {
		return fmt.Errorf("run settings: %w", err)
	}

	mc := config.MonteCarlo
	if mc.Simulations <= 0 {
		return domain.NewConfigError(domain.NonPositiveParameter, "simulations", float64(mc.Simulations),
			"monte carlo simulations must be positive, got %d", mc.Simulations)
	}
	if mc.HistogramBuckets <= 0 {
		return domain.NewConfigError(domain.NonPositiveParameter, "histogram_buckets", float64(mc.HistogramBuckets),
			"histogram buckets must be positive, got %d", mc.HistogramBuckets)
	}
	if mc.BatchSize < 0 || mc.Workers < 0 {
		return domain.NewConfigError(domain.NonPositiveParameter, "batch_size", float64(mc.BatchSize),
			"batch size and workers cannot be negative")
	}

	if len(config.Players) > 0 {
		if err := calculation.ValidatePlayers(Players(config)); err != nil {
			return fmt.Errorf("players: %w", err)
		}
	}
	return nil
}

// BuildDistribution resolves the configured outcomes (or preset) into a
// validated distribution. Explicit outcomes take precedence over a preset.
func BuildDistribution(config *domain.Configuration) (*calculation.Distribution, error) {
	outcomes, err := Outcomes(config)
	if err != nil {
		return nil, err
	}
	return calculation.ValidateDistribution(outcomes)
}

// Outcomes returns the configured outcomes with probabilities in percent.
func Outcomes(config *domain.Configuration) ([]domain.Outcome, error) {
	if len(config.Outcomes) == 0 {
		if config.Preset == "" {
			return nil, domain.NewConfigError(domain.EmptyDistribution, "outcomes", 0, "no outcomes or preset provided")
		}
		preset, err := PresetByName(config.Preset)
		if err != nil {
			return nil, err
		}
		return preset.Outcomes, nil
	}

	scale := strings.ToLower(strings.TrimSpace(config.ProbabilityScale))
	if scale != "" && scale != domain.ScalePercent && scale != domain.ScaleFraction {
		return nil, fmt.Errorf("unsupported probability_scale %q (use %q or %q)", config.ProbabilityScale, domain.ScalePercent, domain.ScaleFraction)
	}

	outcomes := make([]domain.Outcome, len(config.Outcomes))
	for i, oc := range config.Outcomes {
		outcomes[i] = domain.Outcome{
			Label:              oc.Label,
			DisplayColor:       oc.Color,
			ProbabilityPercent: oc.Probability.InexactFloat64(),
			Multiplier:         oc.Multiplier.InexactFloat64(),
		}
	}
	if scale == domain.ScaleFraction {
		outcomes = calculation.FromFractions(outcomes)
	}
	return outcomes, nil
}

// Players returns the configured players, or the default roster when none are set.
func Players(config *domain.Configuration) []domain.Player {
	cfgs := config.Players
	if len(cfgs) == 0 {
		cfgs = DefaultPlayers()
	}
	players := make([]domain.Player, len(cfgs))
	for i, pc := range cfgs {
		players[i] = pc.Player()
	}
	return players
}

// DefaultConfiguration returns a complete configuration built from the default preset.
func DefaultConfiguration() *domain.Configuration {
	config, _ := ConfigurationFromPreset(DefaultPresetName)
	return config
}

// ConfigurationFromPreset expands a preset into explicit outcomes with every
// default filled in, ready to be edited and saved.
func ConfigurationFromPreset(name string) (*domain.Configuration, error) {
	preset, err := PresetByName(name)
	if err != nil {
		return nil, err
	}
	config := &domain.Configuration{
		Name:             preset.Name,
		ProbabilityScale: domain.ScalePercent,
		Players:          DefaultPlayers(),
	}
	for _, o := range preset.Outcomes {
		config.Outcomes = append(config.Outcomes, domain.OutcomeConfig{
			Label:       o.Label,
			Color:       o.DisplayColor,
			Probability: decimal.NewFromFloat(o.ProbabilityPercent),
			Multiplier:  decimal.NewFromFloat(o.Multiplier),
		})
	}
	ApplyDefaults(config)
	return config, nil
}

// SaveConfiguration writes a configuration as YAML.
func SaveConfiguration(config *domain.Configuration, filename string) error {
	b, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

func decimalFromInt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
