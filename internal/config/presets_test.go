package config

import (
	"sort"
	"testing"

	"github.com/marblesim/marble-game/internal/calculation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets_AreValidDistributions(t *testing.T) {
	presets := Presets()
	require.Len(t, presets, 10)

	for _, p := range presets {
		t.Run(p.Name, func(t *testing.T) {
			dist, err := calculation.ValidateDistribution(p.Outcomes)
			require.NoError(t, err)
			assert.Equal(t, 7, dist.Len())
			assert.InDelta(t, p.Expectancy, dist.TheoreticalExpectancy(), 1e-9)
			assert.InDelta(t, p.WinRatePercent, dist.WinProbabilityPercent(), 1e-9)
			assert.NotEmpty(t, p.Description)
		})
	}
}

func TestPresets_ReturnsCopy(t *testing.T) {
	first := Presets()
	first[0].Outcomes[0].Multiplier = 1000

	again := Presets()
	assert.NotEqual(t, 1000.0, again[0].Outcomes[0].Multiplier)
}

func TestPresetByName(t *testing.T) {
	p, err := PresetByName("  trend following PRO ")
	require.NoError(t, err)
	assert.Equal(t, "Trend Following Pro", p.Name)

	_, err = PresetByName("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultPresetName)

	_, err = PresetByName(DefaultPresetName)
	assert.NoError(t, err)
}

func TestPresetNames_Sorted(t *testing.T) {
	names := PresetNames()
	assert.Len(t, names, 10)
	assert.True(t, sort.StringsAreSorted(names))
}

func TestDefaultPlayers(t *testing.T) {
	players := DefaultPlayers()
	require.Len(t, players, 4)
	assert.Equal(t, "Vic", players[0].Name)
	assert.InDelta(t, 0.2, players[0].Player().RiskFraction, 1e-12)
	assert.NoError(t, calculation.ValidatePlayers(Players(DefaultConfiguration())))
}

func TestConfigurationFromPreset(t *testing.T) {
	cfg, err := ConfigurationFromPreset("novice trader")
	require.NoError(t, err)
	assert.Equal(t, "Novice Trader", cfg.Name)
	assert.Empty(t, cfg.Preset)
	require.Len(t, cfg.Outcomes, 7)
	assert.Equal(t, DefaultDraws, cfg.Run.Draws)
	assert.NoError(t, NewInputParser().ValidateConfiguration(cfg))

	_, err = ConfigurationFromPreset("Day Dreamer")
	assert.Error(t, err)
}
