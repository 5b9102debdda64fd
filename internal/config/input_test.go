package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marblesim/marble-game/internal/calculation"
	"github.com/marblesim/marble-game/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marbles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
}

func TestLoadFromFile_Success(t *testing.T) {
	path := writeConfig(t, `name: Coin flip
outcomes:
  - label: Heads
    color: blue
    probability: 50
    multiplier: 2
  - label: Tails
    color: red
    probability: 50
    multiplier: -1
run:
  starting_equity: 1000
  risk_percent: 10
  draws: 25
monte_carlo:
  simulations: 200
  histogram_buckets: 10
  workers: 4
  seed: 42
players:
  - name: Bold
    risk_percent: 25
  - name: Careful
    risk_percent: 2.5
`)

	cfg, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Coin flip", cfg.Name)
	assert.Equal(t, domain.ScalePercent, cfg.ProbabilityScale)
	require.Len(t, cfg.Outcomes, 2)
	assert.True(t, cfg.Outcomes[0].Multiplier.Equal(decimal.NewFromInt(2)))

	params := cfg.Run.RunParameters()
	assert.Equal(t, domain.RunParameters{StartingEquity: 1000, RiskFraction: 0.1, DrawCount: 25}, params)

	assert.Equal(t, 200, cfg.MonteCarlo.Simulations)
	assert.Equal(t, calculation.DefaultBatchSize, cfg.MonteCarlo.BatchSize)
	assert.Equal(t, int64(42), cfg.MonteCarlo.Seed)

	players := Players(cfg)
	require.Len(t, players, 2)
	assert.InDelta(t, 0.025, players[1].RiskFraction, 1e-12)

	dist, err := BuildDistribution(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, dist.TheoreticalExpectancy(), 1e-12)
}

func TestLoadFromFile_PresetOnly(t *testing.T) {
	path := writeConfig(t, "preset: mean reversion master\nrun:\n  draws: 10\n")

	cfg, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)

	outcomes, err := Outcomes(cfg)
	require.NoError(t, err)
	preset, err := PresetByName("Mean Reversion Master")
	require.NoError(t, err)
	assert.Equal(t, preset.Outcomes, outcomes)
	assert.Equal(t, 10, cfg.Run.Draws)
}

func TestLoadFromFile_FractionScale(t *testing.T) {
	path := writeConfig(t, `probability_scale: fraction
outcomes:
  - label: Up
    probability: 0.25
    multiplier: 3
  - label: Down
    probability: 0.75
    multiplier: -1
`)

	cfg, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)

	outcomes, err := Outcomes(cfg)
	require.NoError(t, err)
	assert.Equal(t, 25.0, outcomes[0].ProbabilityPercent)
	assert.Equal(t, 75.0, outcomes[1].ProbabilityPercent)
}

func TestLoadFromFile_InvalidProbabilitySum(t *testing.T) {
	path := writeConfig(t, `outcomes:
  - label: A
    probability: 50
    multiplier: 1
  - label: B
    probability: 49.95
    multiplier: -1
`)

	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProbabilitySumInvalid)
	assert.Contains(t, err.Error(), "outcomes:")
}

func TestLoadFromFile_InvalidRunSettings(t *testing.T) {
	path := writeConfig(t, "run:\n  risk_percent: 150\n")

	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNonPositiveParameter)
	assert.Contains(t, err.Error(), "run settings:")
}

func TestLoadFromFile_InvalidPlayer(t *testing.T) {
	path := writeConfig(t, "players:\n  - name: \"\"\n    risk_percent: 5\n")

	_, err := NewInputParser().LoadFromFile(path)
	assert.ErrorIs(t, err, domain.ErrInvalidPlayer)
}

func TestLoadFromFile_UnknownPreset(t *testing.T) {
	path := writeConfig(t, "preset: Lucky Guesser\n")

	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lucky Guesser")
}

func TestLoadFromFile_BadScale(t *testing.T) {
	path := writeConfig(t, "probability_scale: odds\noutcomes:\n  - label: A\n    probability: 100\n    multiplier: 1\n")

	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probability_scale")
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	_, err := NewInputParser().LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromFile_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "outcomes: [unclosed\n")

	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestApplyDefaults(t *testing.T) {
	cfg := &domain.Configuration{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultPresetName, cfg.Preset)
	assert.Equal(t, domain.ScalePercent, cfg.ProbabilityScale)
	assert.True(t, cfg.Run.StartingEquity.Equal(decimal.NewFromInt(DefaultStartingEquity)))
	assert.True(t, cfg.Run.RiskPercent.Equal(decimal.NewFromInt(DefaultRiskPercent)))
	assert.Equal(t, DefaultDraws, cfg.Run.Draws)
	assert.Equal(t, DefaultSimulations, cfg.MonteCarlo.Simulations)
	assert.Equal(t, DefaultHistogramBuckets, cfg.MonteCarlo.HistogramBuckets)

	assert.Len(t, Players(cfg), len(DefaultPlayers()))
}

func TestSaveConfiguration_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	original := DefaultConfiguration()
	require.NoError(t, SaveConfiguration(original, path))

	loaded, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, original.Name, loaded.Name)
	require.Len(t, loaded.Outcomes, len(original.Outcomes))
	for i := range original.Outcomes {
		assert.Equal(t, original.Outcomes[i].Label, loaded.Outcomes[i].Label)
		assert.True(t, original.Outcomes[i].Probability.Equal(loaded.Outcomes[i].Probability), "outcome %d", i)
		assert.True(t, original.Outcomes[i].Multiplier.Equal(loaded.Outcomes[i].Multiplier), "outcome %d", i)
	}
	assert.Equal(t, original.Run.RunParameters(), loaded.Run.RunParameters())
	assert.Equal(t, Players(original), Players(loaded))
}
