package calculation

import (
	"math"
	"strings"

	"github.com/marblesim/marble-game/internal/domain"
)

// ValidatePlayers rejects an empty roster, unnamed players and risk fractions outside (0,1].
func ValidatePlayers(players []domain.Player) error {
	if len(players) == 0 {
		return domain.NewConfigError(domain.InvalidPlayer, "players", 0, "at least one player is required")
	}
	for i, p := range players {
		if strings.TrimSpace(p.Name) == "" {
			return domain.NewConfigError(domain.InvalidPlayer, "name", float64(i), "player %d has no name", i)
		}
		if !(p.RiskFraction > 0) || p.RiskFraction > 1 {
			return domain.NewConfigError(domain.NonPositiveParameter, "risk_fraction", p.RiskFraction,
				"player %s: risk fraction must be in (0, 1], got %g", p.Name, p.RiskFraction)
		}
	}
	return nil
}

// RunComparison draws one marble sequence and applies it to every player,
// each risking their own fraction of their own equity.
func RunComparison(dist *Distribution, startingEquity float64, drawCount int, players []domain.Player, source RandomSource) (*domain.ComparisonResult, error) {
	if dist == nil {
		return nil, domain.NewConfigError(domain.EmptyDistribution, "outcomes", 0, "distribution is required")
	}
	if err := ValidatePlayers(players); err != nil {
		return nil, err
	}
	// validate the shared parameters once with a representative risk fraction
	if err := ValidateRunParameters(domain.RunParameters{StartingEquity: startingEquity, RiskFraction: 1, DrawCount: drawCount}); err != nil {
		return nil, err
	}

	shared := make([]domain.SharedDraw, drawCount)
	for i := range shared {
		shared[i] = domain.SharedDraw{Index: i + 1, Outcome: dist.Sample(source.Float64())}
	}
	drawn := func(index int) domain.Outcome { return shared[index-1].Outcome }

	result := &domain.ComparisonResult{
		StartingEquity: startingEquity,
		DrawCount:      drawCount,
		Draws:          shared,
		Players:        make([]domain.PlayerResult, len(players)),
	}
	for i, p := range players {
		params := domain.RunParameters{StartingEquity: startingEquity, RiskFraction: p.RiskFraction, DrawCount: drawCount}
		run := simulatePath(params, drawn, true)
		result.Players[i] = domain.PlayerResult{Player: p, Result: run, Performance: Analyze(run)}
	}

	rankPlayers(result)
	return result, nil
}

// rankPlayers names the best-return, best-Sharpe and lowest-drawdown players.
// Ties go to the earlier player.
func rankPlayers(result *domain.ComparisonResult) {
	if len(result.Players) == 0 {
		return
	}
	bestReturn, bestSharpe, lowestDD := 0, 0, 0
	for i, pr := range result.Players {
		if pr.Result.TotalReturnPercent > result.Players[bestReturn].Result.TotalReturnPercent {
			bestReturn = i
		}
		if pr.Performance.SharpeRatio > result.Players[bestSharpe].Performance.SharpeRatio {
			bestSharpe = i
		}
		if math.Abs(pr.Result.MaxDrawdownPercent) < math.Abs(result.Players[lowestDD].Result.MaxDrawdownPercent) {
			lowestDD = i
		}
	}
	result.BestReturn = result.Players[bestReturn].Player.Name
	result.BestSharpe = result.Players[bestSharpe].Player.Name
	result.LowestDrawdown = result.Players[lowestDD].Player.Name
}
