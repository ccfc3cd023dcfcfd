package analytics

// DailySummary is the per-calendar-date (UTC) rollup of a wallet's orders.
// The three rolling cumulative PnL windows are anchored at request time, so
// they repeat identically on every row of one response.
type DailySummary struct {
	Date               string   `json:"date"`
	NumTrades          int      `json:"num_trades"`
	Winrate            float64  `json:"winrate"`
	CoinsTraded        []string `json:"coins_traded"`
	MedianTradeSizeUSD float64  `json:"median_trade_size_usd"`
	NetPnl             float64  `json:"net_pnl"`
	CumPnl7d           float64  `json:"cum_pnl_7d"`
	CumPnl30d          float64  `json:"cum_pnl_30d"`
	CumPnl90d          float64  `json:"cum_pnl_90d"`
}

// OverallStats covers the whole queried period. ProfitLossRatio and
// KellyFraction are null when undefined (no losing or no winning orders)
// rather than forced to a numeric sentinel.
type OverallStats struct {
	TotalPnl           float64  `json:"total_pnl"` // realized net + current unrealized
	OverallWinrate     float64  `json:"overall_winrate"`
	TotalTrades        int      `json:"total_trades"`
	WinningTrades      int      `json:"winning_trades"`
	AvgRiskRewardRatio float64  `json:"avg_risk_reward_ratio"`
	ProfitLossRatio    *float64 `json:"profit_loss_ratio"`
	KellyFraction      *float64 `json:"kelly_fraction"` // percentage
}

// TimeseriesResponse is the full analytics payload for a wallet.
type TimeseriesResponse struct {
	DailySummary []DailySummary `json:"daily_summary"`
	OverallStats OverallStats   `json:"overall_stats"`
	CumPnl7d     float64        `json:"cum_pnl_7d"`
	CumPnl30d    float64        `json:"cum_pnl_30d"`
	CumPnl90d    float64        `json:"cum_pnl_90d"`
}

// CumulativePnl decomposes a point-in-time PnL snapshot into independently
// sourced parts. Realized uses raw closed PnL, not fee-adjusted net PnL.
type CumulativePnl struct {
	RealizedPnl        float64 `json:"realized_pnl"`
	FundingPnl         float64 `json:"funding_pnl"`
	UnrealizedPnl      float64 `json:"unrealized_pnl"`
	TotalCumulativePnl float64 `json:"total_cumulative_pnl"`
}
