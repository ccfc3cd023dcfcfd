package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/perpwatch/perpwatch-api/internal/aggregate"
	"github.com/perpwatch/perpwatch-api/internal/types"
)

// stopLossFraction is the assumed stop distance below entry used to
// approximate a risk/reward ratio from realized outcomes. The trader never
// actually set stops or targets; this is a labeled estimation, not a
// reconstruction of intent.
const stopLossFraction = 0.02

// SummarizeInput carries everything Summarize needs. It is a pure function
// over this input; Now fixes the rolling-window anchor so results are
// reproducible.
type SummarizeInput struct {
	Fills      []types.Fill
	Positions  []types.Position
	MarkPrices map[string]float64
	Now        time.Time
}

// Summarize derives the daily summaries and overall statistics for a
// wallet's fill history. All date bucketing and window cutoffs use UTC.
func Summarize(in SummarizeInput) TimeseriesResponse {
	orders := aggregate.ByOrder(in.Fills, nil)
	unrealized := markToMarket(in.Positions, in.MarkPrices)

	cum7 := windowNetPnl(orders, in.Now.Add(-7*24*time.Hour))
	cum30 := windowNetPnl(orders, in.Now.Add(-30*24*time.Hour))
	cum90 := windowNetPnl(orders, in.Now.Add(-90*24*time.Hour))

	return TimeseriesResponse{
		DailySummary: dailySummaries(orders, cum7, cum30, cum90),
		OverallStats: overallStats(orders, unrealized),
		CumPnl7d:     cum7,
		CumPnl30d:    cum30,
		CumPnl90d:    cum90,
	}
}

// markToMarket computes unrealized PnL from open positions and current mid
// prices. Positions with zero size, zero entry price, or no known mark
// price contribute zero.
func markToMarket(positions []types.Position, marks map[string]float64) float64 {
	var total float64
	for _, pos := range positions {
		if pos.Size == 0 || pos.EntryPrice == 0 {
			continue
		}
		mark, ok := marks[pos.Coin]
		if !ok {
			continue
		}
		total += (mark - pos.EntryPrice) * pos.Size * pos.Leverage
	}
	return total
}

// windowNetPnl sums order net PnL for orders at or after the cutoff.
func windowNetPnl(orders []aggregate.OrderAggregate, cutoff time.Time) float64 {
	cutoffMs := cutoff.UnixMilli()
	var total float64
	for _, o := range orders {
		if o.FirstTime >= cutoffMs {
			total += o.NetPnl
		}
	}
	return total
}

func dailySummaries(orders []aggregate.OrderAggregate, cum7, cum30, cum90 float64) []DailySummary {
	byDate := make(map[string][]aggregate.OrderAggregate)
	for _, o := range orders {
		date := time.UnixMilli(o.FirstTime).UTC().Format("2006-01-02")
		byDate[date] = append(byDate[date], o)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	summaries := make([]DailySummary, 0, len(dates))
	for _, date := range dates {
		group := byDate[date]

		var netPnl float64
		var winners int
		coins := make(map[string]struct{})
		notionals := make([]float64, 0, len(group))
		for _, o := range group {
			netPnl += o.NetPnl
			if o.NetPnl > 0 {
				winners++
			}
			coins[o.Coin] = struct{}{}
			notionals = append(notionals, math.Abs(o.TotalSize)*o.VWAP)
		}

		coinList := make([]string, 0, len(coins))
		for coin := range coins {
			coinList = append(coinList, coin)
		}
		sort.Strings(coinList)

		summaries = append(summaries, DailySummary{
			Date:               date,
			NumTrades:          len(group),
			Winrate:            winrate(winners, len(group)),
			CoinsTraded:        coinList,
			MedianTradeSizeUSD: median(notionals),
			NetPnl:             netPnl,
			CumPnl7d:           cum7,
			CumPnl30d:          cum30,
			CumPnl90d:          cum90,
		})
	}
	return summaries
}

func overallStats(orders []aggregate.OrderAggregate, unrealized float64) OverallStats {
	var totalNet float64
	var winners int
	var wins, losses []float64
	for _, o := range orders {
		totalNet += o.NetPnl
		switch {
		case o.NetPnl > 0:
			winners++
			wins = append(wins, o.NetPnl)
		case o.NetPnl < 0:
			losses = append(losses, o.NetPnl)
		}
	}

	stats := OverallStats{
		TotalPnl:           totalNet + unrealized,
		OverallWinrate:     winrate(winners, len(orders)),
		TotalTrades:        len(orders),
		WinningTrades:      winners,
		AvgRiskRewardRatio: avgRiskReward(orders),
	}

	// The ratio needs both a winning and a losing sample; Kelly inherits
	// its undefinedness.
	if len(wins) > 0 && len(losses) > 0 {
		ratio := mean(wins) / math.Abs(mean(losses))
		stats.ProfitLossRatio = &ratio

		w := float64(winners) / float64(len(orders))
		kelly := (w - (1-w)/ratio) * 100
		stats.KellyFraction = &kelly
	}

	return stats
}

// avgRiskReward approximates a risk/reward ratio per order by assuming a
// fixed 2% stop below entry and deriving the implied take-profit from the
// realized per-unit net PnL, then averages across orders.
func avgRiskReward(orders []aggregate.OrderAggregate) float64 {
	var sum float64
	var count int
	for _, o := range orders {
		size := math.Abs(o.TotalSize)
		if o.VWAP == 0 || size == 0 {
			continue
		}
		perUnit := o.NetPnl / size
		takeProfit := o.VWAP + perUnit
		stopLoss := o.VWAP * (1 - stopLossFraction)
		sum += math.Abs((takeProfit - o.VWAP) / (o.VWAP - stopLoss))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// RealizedPnl sums raw closed PnL across fills, without fee adjustment.
func RealizedPnl(fills []types.Fill) float64 {
	var total float64
	for _, f := range fills {
		total += f.ClosedPnl
	}
	return total
}

// FundingPnl sums funding deltas across records.
func FundingPnl(records []types.FundingRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.Amount
	}
	return total
}

// ReportedUnrealizedPnl sums the exchange-reported unrealized PnL across
// open positions, as used by the cumulative decomposition.
func ReportedUnrealizedPnl(positions []types.Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.UnrealizedPnl
	}
	return total
}

// winrate returns the percentage of winners, rounded to two decimals.
// Zero trades is a defined case, not an error.
func winrate(winners, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(winners) / float64(total) * 100)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median computes the population median; an empty set is 0.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
