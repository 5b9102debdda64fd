package calculation

import (
	"math"
	"sort"

	"github.com/marblesim/marble-game/internal/domain"
)

// Percentile returns the p-th percentile (p in [0,100]) of an ascending slice
// using the nearest-rank-lower convention: index = floor(p/100 * len),
// clamped to the last element. No interpolation is performed.
// An empty slice yields 0.
func Percentile(sortedAscending []float64, p float64) float64 {
	n := len(sortedAscending)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(p / 100 * float64(n)))
	if idx > n-1 {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sortedAscending[idx]
}

// PercentileTableOf fills the standard percentile table from an ascending slice.
func PercentileTableOf(sortedAscending []float64) domain.PercentileTable {
	return domain.PercentileTable{
		P5:  Percentile(sortedAscending, 5),
		P10: Percentile(sortedAscending, 10),
		P25: Percentile(sortedAscending, 25),
		P50: Percentile(sortedAscending, 50),
		P75: Percentile(sortedAscending, 75),
		P90: Percentile(sortedAscending, 90),
		P95: Percentile(sortedAscending, 95),
	}
}

// SortedCopy returns an ascending copy of values.
func SortedCopy(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	return out
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation (divides by N).
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// Histogram bins values into bucketCount equal-width buckets spanning
// [min, max]. Buckets are half-open except the last, which also holds max.
// When every value is equal they all land in the first bucket.
func Histogram(values []float64, bucketCount int) []domain.HistogramBucket {
	if len(values) == 0 || bucketCount <= 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / float64(bucketCount)

	buckets := make([]domain.HistogramBucket, bucketCount)
	for i := range buckets {
		start := lo + float64(i)*width
		end := start + width
		if i == bucketCount-1 {
			end = hi
		}
		buckets[i].RangeStart = start
		buckets[i].RangeEnd = end
	}

	for _, v := range values {
		idx := 0
		if width > 0 {
			idx = int(math.Floor((v - lo) / width))
			if idx > bucketCount-1 {
				idx = bucketCount - 1
			}
			if idx < 0 {
				idx = 0
			}
		}
		buckets[idx].Count++
	}

	total := float64(len(values))
	for i := range buckets {
		buckets[i].FrequencyPercent = float64(buckets[i].Count) / total * 100
	}
	return buckets
}

// MaxDrawdownPercent returns the largest decline from a running peak,
// as a percentage of that peak, in a single pass. Points are skipped while
// the running peak is not positive.
func MaxDrawdownPercent(equityTrajectory []float64) float64 {
	if len(equityTrajectory) == 0 {
		return 0
	}
	peak := equityTrajectory[0]
	maxDD := 0.0
	for _, v := range equityTrajectory {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// MaxDrawdownAmount returns the largest peak-to-trough decline in currency units.
func MaxDrawdownAmount(equityTrajectory []float64) float64 {
	if len(equityTrajectory) == 0 {
		return 0
	}
	peak := equityTrajectory[0]
	maxDD := 0.0
	for _, v := range equityTrajectory {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Analyze derives trading performance metrics from a run's equity trajectory.
// Winning and losing draws here are classified by the sign of the equity
// change, unlike SingleRunResult.WinCount which classifies by multiplier.
func Analyze(result domain.SingleRunResult) domain.PerformanceStats {
	traj := result.EquityTrajectory
	n := len(traj) - 1
	if n <= 0 {
		return domain.PerformanceStats{}
	}

	var stats domain.PerformanceStats
	net := 0.0
	returns := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		delta := traj[i] - traj[i-1]
		net += delta
		switch {
		case delta > 0:
			stats.WinningDraws++
			stats.GrossProfit += delta
		case delta < 0:
			stats.LosingDraws++
			stats.GrossLoss -= delta
		}
		if traj[i-1] != 0 {
			returns = append(returns, delta/traj[i-1])
		}
	}

	stats.Expectancy = net / float64(n)
	if stats.WinningDraws > 0 {
		stats.AverageWin = stats.GrossProfit / float64(stats.WinningDraws)
	}
	if stats.LosingDraws > 0 {
		stats.AverageLoss = -stats.GrossLoss / float64(stats.LosingDraws)
	}

	stats.MeanDrawReturn = Mean(returns)
	stats.DrawReturnStdDev = StdDev(returns)
	if stats.DrawReturnStdDev != 0 {
		stats.SharpeRatio = stats.MeanDrawReturn / stats.DrawReturnStdDev
	}
	stats.VolatilityPercent = stats.DrawReturnStdDev * math.Sqrt(float64(len(returns))) * 100

	start := traj[0]
	totalReturn := traj[n] - start
	stats.MaxDrawdownAmount = MaxDrawdownAmount(traj)
	if start != 0 {
		stats.MaxDrawdownOfStartPct = stats.MaxDrawdownAmount / start * 100
	}

	if stats.GrossLoss != 0 {
		stats.ProfitFactor = ratio(stats.GrossProfit, stats.GrossLoss)
	}
	if stats.MaxDrawdownAmount != 0 {
		stats.RecoveryFactor = ratio(totalReturn, stats.MaxDrawdownAmount)
	}
	if stats.MaxDrawdownOfStartPct != 0 && start != 0 {
		stats.CalmarRatio = ratio(totalReturn/start*100, math.Abs(stats.MaxDrawdownOfStartPct))
	}
	return stats
}

func ratio(num, den float64) *float64 {
	r := num / den
	return &r
}
