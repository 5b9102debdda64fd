package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marblesim/marble-game/internal/domain"
)

// Preset is a built-in trading-system profile.
type Preset struct {
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	WinRatePercent float64          `json:"win_rate_percent"`
	Expectancy     float64          `json:"expectancy"`
	Outcomes       []domain.Outcome `json:"outcomes"`
}

// marbles builds the standard seven-colour bag from probability/multiplier pairs.
func marbles(pairs ...float64) []domain.Outcome {
	names := []string{"Blue", "Green", "Silver", "Pearl", "Orange", "Red", "Black"}
	colors := []string{"#3B82F6", "#10B981", "#6B7280", "#F3F4F6", "#F97316", "#EF4444", "#1F2937"}
	out := make([]domain.Outcome, len(names))
	for i := range names {
		out[i] = domain.Outcome{
			Label:              names[i],
			DisplayColor:       colors[i],
			ProbabilityPercent: pairs[2*i],
			Multiplier:         pairs[2*i+1],
		}
	}
	return out
}

var presets = []Preset{
	{
		Name:           "Undisciplined Trader",
		Description:    "Poor risk management with potential for large losses. Represents emotional trading without proper stops.",
		WinRatePercent: 50,
		Expectancy:     0.450,
		Outcomes:       marbles(20, 1, 15, 3, 10, 4, 5, 7, 25, -1, 15, -2, 10, -4),
	},
	{
		Name:           "Professional Momentum",
		Description:    "Low win rate but high reward system. Cuts losses quickly and lets winners run with trend following.",
		WinRatePercent: 35,
		Expectancy:     0.830,
		Outcomes:       marbles(10, 2, 15, 4, 8, 6, 2, 10, 40, -1, 20, -1, 5, -1),
	},
	{
		Name:           "Mean Reversion Master",
		Description:    "High win rate system targeting oversold/overbought conditions. Small consistent profits with controlled losses.",
		WinRatePercent: 75,
		Expectancy:     0.580,
		Outcomes:       marbles(35, 1, 25, 1.5, 15, 2, 0, 0, 15, -1.5, 8, -2, 2, -3),
	},
	{
		Name:           "Breakout Specialist",
		Description:    "Moderate win rate focusing on volatility expansion and range breakouts.",
		WinRatePercent: 45,
		Expectancy:     0.760,
		Outcomes:       marbles(15, 2, 20, 3, 8, 5, 2, 8, 30, -1, 20, -1.5, 5, -2),
	},
	{
		Name:           "Conservative Swing",
		Description:    "Balanced approach with good risk management. Targets multi-day trends with reasonable risk-reward ratios.",
		WinRatePercent: 60,
		Expectancy:     0.835,
		Outcomes:       marbles(25, 1.5, 20, 2.5, 15, 3, 0, 0, 25, -1, 12, -1.5, 3, -2),
	},
	{
		Name:           "Aggressive Scalper",
		Description:    "Very high win rate with small profits. Quick entries and exits with tight risk control.",
		WinRatePercent: 85,
		Expectancy:     0.425,
		Outcomes:       marbles(45, 0.5, 30, 0.8, 10, 1.2, 0, 0, 10, -0.8, 4, -1.5, 1, -2),
	},
	{
		Name:           "Trend Following Pro",
		Description:    "Low win rate but captures major trends. Waits for strong directional moves.",
		WinRatePercent: 40,
		Expectancy:     1.600,
		Outcomes:       marbles(12, 3, 18, 5, 8, 8, 2, 15, 35, -1, 20, -1, 5, -1),
	},
	{
		Name:           "Statistical Arbitrage",
		Description:    "High frequency system with very high win rate. Exploits small statistical edges.",
		WinRatePercent: 80,
		Expectancy:     0.455,
		Outcomes:       marbles(40, 0.6, 25, 1, 15, 1.5, 0, 0, 12, -1, 6, -1.5, 2, -2.5),
	},
	{
		Name:           "News/Event Trader",
		Description:    "Moderate win rate with high volatility outcomes. Trades around earnings, news and market events.",
		WinRatePercent: 55,
		Expectancy:     1.150,
		Outcomes:       marbles(20, 2, 15, 4, 15, 6, 5, 10, 20, -2, 15, -3, 10, -4),
	},
	{
		Name:           "Novice Trader",
		Description:    "Poor performance with inconsistent results: no stops, revenge trading and FOMO.",
		WinRatePercent: 35,
		Expectancy:     -1.060,
		Outcomes:       marbles(15, 1, 10, 2, 8, 3, 2, 5, 25, -1.5, 25, -2.5, 15, -5),
	},
}

// DefaultPresetName is used when a configuration names neither outcomes nor a preset.
const DefaultPresetName = "Undisciplined Trader"

// Presets returns the built-in trading-system profiles in catalog order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		p.Outcomes = append([]domain.Outcome(nil), p.Outcomes...)
		out[i] = p
	}
	return out
}

// PresetByName finds a preset by case-insensitive name.
func PresetByName(name string) (Preset, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Presets() {
		if strings.ToLower(p.Name) == n {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown preset %q. Try one of: %s", name, strings.Join(PresetNames(), ", "))
}

// PresetNames returns the preset names sorted alphabetically.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// DefaultPlayers is the four-player roster used by comparisons when none is configured.
func DefaultPlayers() []domain.PlayerConfig {
	return []domain.PlayerConfig{
		{Name: "Vic", Objective: "Shoot for the moon!", RiskPercent: decimalFromInt(20)},
		{Name: "Cassie", Objective: "No losses strategy", RiskPercent: decimalFromInt(5)},
		{Name: "William", Objective: "Balanced 30% target", RiskPercent: decimalFromInt(10)},
		{Name: "Alex", Objective: "Conservative growth", RiskPercent: decimalFromInt(8)},
	}
}
