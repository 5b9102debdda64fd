package calculation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/marblesim/marble-game/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) add(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(format string, args ...any) { l.add("DEBUG", format, args...) }
func (l *recordingLogger) Infof(format string, args ...any)  { l.add("INFO", format, args...) }
func (l *recordingLogger) Warnf(format string, args ...any)  { l.add("WARN", format, args...) }
func (l *recordingLogger) Errorf(format string, args ...any) { l.add("ERROR", format, args...) }

func TestCalculationEngine_RunSingleSeeded(t *testing.T) {
	d := mustDistribution(t, coinFlip())
	ce := NewCalculationEngine()
	params := defaultParams()

	a, err := ce.RunSingle(d, params, 99)
	require.NoError(t, err)
	b, err := NewSingleRunSimulator().Run(d, params, NewRandomSource(99))
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestCalculationEngine_ZeroSeedUsesProvider(t *testing.T) {
	orig := seedFunc
	defer SetSeedFunc(orig)
	SetSeedFunc(func() int64 { return 31 })

	d := mustDistribution(t, coinFlip())
	ce := NewCalculationEngine()

	a, err := ce.RunSingle(d, defaultParams(), 0)
	require.NoError(t, err)
	b, err := ce.RunSingle(d, defaultParams(), 31)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalculationEngine_DebugLogging(t *testing.T) {
	d := mustDistribution(t, coinFlip())
	log := &recordingLogger{}
	ce := NewCalculationEngine()
	ce.SetLogger(log)
	ce.Debug = true

	_, err := ce.RunSingle(d, domain.RunParameters{StartingEquity: 100, RiskFraction: 0.1, DrawCount: 3}, 5)
	require.NoError(t, err)

	require.Len(t, log.lines, 4)
	assert.Contains(t, log.lines[0], "single run (seed 5)")
	assert.Contains(t, log.lines[1], "DEBUG draw 1:")

	ce.SetLogger(nil)
	assert.IsType(t, NopLogger{}, ce.Logger)
}

func TestCalculationEngine_RunMonteCarlo(t *testing.T) {
	d := mustDistribution(t, coinFlip())
	ce := NewCalculationEngine()
	ce.Workers = 3
	ce.BatchSize = 25

	calls := 0
	res, err := ce.RunMonteCarlo(context.Background(), d, defaultParams(), 100, 8, 17, func(int, int) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	direct, err := NewMonteCarloEngine(EngineConfig{}).RunBatch(context.Background(), d, defaultParams(), 100, 8, SeededSourceFactory(17))
	require.NoError(t, err)
	assert.Equal(t, direct, res)
}

func TestCalculationEngine_RunComparison(t *testing.T) {
	d := mustDistribution(t, coinFlip())
	ce := NewCalculationEngine()

	res, err := ce.RunComparison(d, 1000, 20, []domain.Player{{Name: "A", RiskFraction: 0.1}, {Name: "B", RiskFraction: 0.3}}, 8)
	require.NoError(t, err)
	assert.Len(t, res.Players, 2)

	_, err = ce.RunComparison(d, 1000, 20, nil, 8)
	assert.ErrorIs(t, err, domain.ErrInvalidPlayer)
}
