package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/perpwatch/perpwatch-api/internal/aggregate"
	"github.com/perpwatch/perpwatch-api/internal/types"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fillAt(tid, oid int64, coin string, size, price, pnl, fee float64, ts time.Time) types.Fill {
	return types.Fill{
		TradeID:   tid,
		OrderID:   oid,
		Coin:      coin,
		Size:      size,
		Price:     price,
		ClosedPnl: pnl,
		Fee:       fee,
		Time:      ts.UnixMilli(),
	}
}

func TestSummarizeEmptyFills(t *testing.T) {
	result := Summarize(SummarizeInput{Now: testNow})

	if len(result.DailySummary) != 0 {
		t.Fatalf("expected no daily rows, got %d", len(result.DailySummary))
	}
	if result.OverallStats.OverallWinrate != 0 {
		t.Fatalf("expected winrate 0 for empty input, got %f", result.OverallStats.OverallWinrate)
	}
	if result.OverallStats.ProfitLossRatio != nil {
		t.Fatal("expected undefined profit/loss ratio for empty input")
	}
	if result.OverallStats.KellyFraction != nil {
		t.Fatal("expected undefined kelly fraction for empty input")
	}
}

func TestSummarizeDailyBuckets(t *testing.T) {
	day1 := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)
	fills := []types.Fill{
		fillAt(1, 1, "BTC", 1, 100, 10, 1, day1),
		fillAt(2, 2, "ETH", 2, 50, -5, 1, day1),
		fillAt(3, 3, "BTC", 1, 110, 20, 1, day2),
	}

	result := Summarize(SummarizeInput{Fills: fills, Now: testNow})

	if len(result.DailySummary) != 2 {
		t.Fatalf("expected 2 daily rows, got %d", len(result.DailySummary))
	}

	first := result.DailySummary[0]
	if first.Date != "2024-06-10" {
		t.Fatalf("expected rows sorted by date, first was %s", first.Date)
	}
	if first.NumTrades != 2 {
		t.Fatalf("expected 2 trades on day 1, got %d", first.NumTrades)
	}
	// One winner of two orders.
	if first.Winrate != 50.0 {
		t.Fatalf("expected winrate 50.0, got %f", first.Winrate)
	}
	if len(first.CoinsTraded) != 2 || first.CoinsTraded[0] != "BTC" || first.CoinsTraded[1] != "ETH" {
		t.Fatalf("expected alphabetical coins [BTC ETH], got %v", first.CoinsTraded)
	}
	// Notionals 100 and 100: median 100.
	if first.MedianTradeSizeUSD != 100 {
		t.Fatalf("expected median notional 100, got %f", first.MedianTradeSizeUSD)
	}
	// Net for day 1: (10-1) + (-5-1) = 3.
	if math.Abs(first.NetPnl-3) > 1e-9 {
		t.Fatalf("expected day-1 net pnl 3, got %f", first.NetPnl)
	}

	// Rolling windows are identical across rows.
	second := result.DailySummary[1]
	if first.CumPnl7d != second.CumPnl7d || first.CumPnl30d != second.CumPnl30d || first.CumPnl90d != second.CumPnl90d {
		t.Fatal("rolling windows must repeat identically on every row")
	}
}

func TestRollingWindowsAreNested(t *testing.T) {
	fills := []types.Fill{
		fillAt(1, 1, "BTC", 1, 100, 10, 0, testNow.Add(-2*24*time.Hour)),
		fillAt(2, 2, "BTC", 1, 100, 20, 0, testNow.Add(-20*24*time.Hour)),
		fillAt(3, 3, "BTC", 1, 100, 40, 0, testNow.Add(-60*24*time.Hour)),
		fillAt(4, 4, "BTC", 1, 100, 80, 0, testNow.Add(-120*24*time.Hour)),
	}

	result := Summarize(SummarizeInput{Fills: fills, Now: testNow})

	// The 7d set is a subset of 30d, which is a subset of 90d.
	if result.CumPnl7d != 10 {
		t.Fatalf("expected 7d window 10, got %f", result.CumPnl7d)
	}
	if result.CumPnl30d != 30 {
		t.Fatalf("expected 30d window 30, got %f", result.CumPnl30d)
	}
	if result.CumPnl90d != 70 {
		t.Fatalf("expected 90d window 70, got %f", result.CumPnl90d)
	}
}

func TestOverallStatsKelly(t *testing.T) {
	// 3 winners of +4, 2 losers of -2: winrate 0.6, profit/loss ratio 2.0.
	ts := testNow.Add(-time.Hour)
	fills := []types.Fill{
		fillAt(1, 1, "BTC", 1, 100, 4, 0, ts),
		fillAt(2, 2, "BTC", 1, 100, 4, 0, ts),
		fillAt(3, 3, "BTC", 1, 100, 4, 0, ts),
		fillAt(4, 4, "BTC", 1, 100, -2, 0, ts),
		fillAt(5, 5, "BTC", 1, 100, -2, 0, ts),
	}

	result := Summarize(SummarizeInput{Fills: fills, Now: testNow})
	stats := result.OverallStats

	if stats.OverallWinrate != 60.0 {
		t.Fatalf("expected winrate 60.0, got %f", stats.OverallWinrate)
	}
	if stats.ProfitLossRatio == nil || math.Abs(*stats.ProfitLossRatio-2.0) > 1e-9 {
		t.Fatalf("expected profit/loss ratio 2.0, got %v", stats.ProfitLossRatio)
	}
	// kelly = 0.6 - 0.4/2.0 = 0.4 -> 40%.
	if stats.KellyFraction == nil || math.Abs(*stats.KellyFraction-40.0) > 1e-9 {
		t.Fatalf("expected kelly 40.0, got %v", stats.KellyFraction)
	}
}

func TestOverallStatsUndefinedRatios(t *testing.T) {
	ts := testNow.Add(-time.Hour)

	onlyWinners := Summarize(SummarizeInput{
		Fills: []types.Fill{fillAt(1, 1, "BTC", 1, 100, 5, 0, ts)},
		Now:   testNow,
	})
	if onlyWinners.OverallStats.ProfitLossRatio != nil || onlyWinners.OverallStats.KellyFraction != nil {
		t.Fatal("expected undefined ratios with no losing orders")
	}

	onlyLosers := Summarize(SummarizeInput{
		Fills: []types.Fill{fillAt(1, 1, "BTC", 1, 100, -5, 0, ts)},
		Now:   testNow,
	})
	if onlyLosers.OverallStats.ProfitLossRatio != nil || onlyLosers.OverallStats.KellyFraction != nil {
		t.Fatal("expected undefined ratios with no winning orders")
	}
}

func TestMarkToMarket(t *testing.T) {
	positions := []types.Position{
		{Coin: "BTC", Size: 2, EntryPrice: 100, Leverage: 3},
		{Coin: "ETH", Size: -1, EntryPrice: 50, Leverage: 2},
		{Coin: "SOL", Size: 5, EntryPrice: 10, Leverage: 1}, // no mark: skipped
		{Coin: "DOGE", Size: 0, EntryPrice: 1, Leverage: 1}, // zero size: skipped
	}
	marks := map[string]float64{"BTC": 110, "ETH": 40, "DOGE": 2}

	got := markToMarket(positions, marks)
	// BTC: (110-100)*2*3 = 60; ETH: (40-50)*-1*2 = 20.
	if math.Abs(got-80) > 1e-9 {
		t.Fatalf("expected unrealized 80, got %f", got)
	}
}

func TestTotalPnlIncludesUnrealized(t *testing.T) {
	ts := testNow.Add(-time.Hour)
	result := Summarize(SummarizeInput{
		Fills:      []types.Fill{fillAt(1, 1, "BTC", 1, 100, 10, 1, ts)},
		Positions:  []types.Position{{Coin: "BTC", Size: 1, EntryPrice: 100, Leverage: 1}},
		MarkPrices: map[string]float64{"BTC": 105},
		Now:        testNow,
	})

	// Realized net 9 + unrealized 5.
	if math.Abs(result.OverallStats.TotalPnl-14) > 1e-9 {
		t.Fatalf("expected total pnl 14, got %f", result.OverallStats.TotalPnl)
	}
}

func TestAvgRiskReward(t *testing.T) {
	// One order: entry 100, size 1, net pnl 4. Per-unit profit 4, stop
	// distance 2% of 100 = 2, so ratio = 4/2 = 2.
	orders := []aggregate.OrderAggregate{
		{OrderID: 1, VWAP: 100, TotalSize: 1, NetPnl: 4},
		{OrderID: 2, VWAP: 0, TotalSize: 1, NetPnl: 4}, // zero entry: skipped
	}

	got := avgRiskReward(orders)
	if math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("expected avg risk/reward 2.0, got %f", got)
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		values []float64
		want   float64
	}{
		{nil, 0},
		{[]float64{5}, 5},
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, tc := range cases {
		if got := median(tc.values); got != tc.want {
			t.Errorf("median(%v): expected %f, got %f", tc.values, tc.want, got)
		}
	}
}

func TestCumulativeDecomposition(t *testing.T) {
	fills := []types.Fill{
		{TradeID: 1, ClosedPnl: 10, Fee: 3}, // fees must NOT reduce realized
		{TradeID: 2, ClosedPnl: -4},
	}
	funding := []types.FundingRecord{{Amount: 1.5}, {Amount: -0.5}}
	positions := []types.Position{{UnrealizedPnl: 7}, {UnrealizedPnl: -2}}

	realized := RealizedPnl(fills)
	if math.Abs(realized-6) > 1e-9 {
		t.Fatalf("expected realized 6, got %f", realized)
	}
	fundingPnl := FundingPnl(funding)
	if math.Abs(fundingPnl-1.0) > 1e-9 {
		t.Fatalf("expected funding 1.0, got %f", fundingPnl)
	}
	unrealized := ReportedUnrealizedPnl(positions)
	if math.Abs(unrealized-5) > 1e-9 {
		t.Fatalf("expected unrealized 5, got %f", unrealized)
	}
}
