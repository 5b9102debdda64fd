package output

import "github.com/marblesim/marble-game/internal/domain"

// SharpeRating grades a per-draw Sharpe ratio.
func SharpeRating(sharpe float64) string {
	switch {
	case sharpe >= 2:
		return "excellent"
	case sharpe >= 1:
		return "good"
	case sharpe > 0:
		return "weak"
	default:
		return "poor"
	}
}

// EdgeVerdict describes the long-run outlook implied by the theoretical expectancy.
func EdgeVerdict(expectancy float64) string {
	switch {
	case expectancy > 0:
		return "positive expectancy: profitable over many draws"
	case expectancy < 0:
		return "negative expectancy: loses money over many draws"
	default:
		return "zero expectancy: breaks even over many draws"
	}
}

// Highlight is one ranked fact about a comparison.
type Highlight struct {
	Label  string
	Player string
	Value  string
}

// ComparisonHighlights lists the best-return, best-Sharpe and lowest-drawdown players.
func ComparisonHighlights(result *domain.ComparisonResult) []Highlight {
	find := func(name string) *domain.PlayerResult {
		for i := range result.Players {
			if result.Players[i].Player.Name == name {
				return &result.Players[i]
			}
		}
		return nil
	}

	var out []Highlight
	if pr := find(result.BestReturn); pr != nil {
		out = append(out, Highlight{"Best return", pr.Player.Name, Percent(pr.Result.TotalReturnPercent)})
	}
	if pr := find(result.BestSharpe); pr != nil {
		out = append(out, Highlight{"Best Sharpe ratio", pr.Player.Name, Fixed(pr.Performance.SharpeRatio, 3)})
	}
	if pr := find(result.LowestDrawdown); pr != nil {
		out = append(out, Highlight{"Lowest drawdown", pr.Player.Name, Percent(pr.Result.MaxDrawdownPercent)})
	}
	return out
}
