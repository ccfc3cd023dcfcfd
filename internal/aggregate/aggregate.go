package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/perpwatch/perpwatch-api/internal/types"
)

// PageSize is the fixed page size for the paginated trade-history view.
const PageSize = 20

// Window bounds a fill set by millisecond timestamps, inclusive.
type Window struct {
	Start int64
	End   int64
}

// Contains reports whether a fill timestamp falls inside the window.
func (w Window) Contains(ts int64) bool {
	return ts >= w.Start && ts <= w.End
}

// OrderAggregate is an order-level rollup of its fills. Derived fresh per
// request, never persisted or incrementally updated.
type OrderAggregate struct {
	OrderID   int64   `json:"order_id"`
	Coin      string  `json:"coin"`
	Direction string  `json:"dir"`
	TotalSize float64 `json:"total_size"`
	VWAP      float64 `json:"vwap"`
	ClosedPnl float64 `json:"closed_pnl"`
	FeeTotal  float64 `json:"fee_total"`
	NetPnl    float64 `json:"net_pnl"`
	FirstTime int64   `json:"first_time"`
}

// ByOrder groups fills by order ID. VWAP weights price by absolute fill
// size; with zero total weight the VWAP is zero. NetPnl is realized PnL
// minus total fees. A nil window includes every fill.
func ByOrder(fills []types.Fill, window *Window) []OrderAggregate {
	type acc struct {
		agg       OrderAggregate
		weightSum float64
		priceSum  float64 // sum of price * |size|
	}

	groups := make(map[int64]*acc)
	for _, fill := range fills {
		if window != nil && !window.Contains(fill.Time) {
			continue
		}

		a, ok := groups[fill.OrderID]
		if !ok {
			a = &acc{agg: OrderAggregate{
				OrderID:   fill.OrderID,
				Coin:      fill.Coin,
				Direction: fill.Direction,
				FirstTime: fill.Time,
			}}
			groups[fill.OrderID] = a
		}

		weight := math.Abs(fill.Size)
		a.weightSum += weight
		a.priceSum += fill.Price * weight
		a.agg.TotalSize += fill.Size
		a.agg.ClosedPnl += fill.ClosedPnl
		a.agg.FeeTotal += fill.Fee
		if fill.Time < a.agg.FirstTime {
			a.agg.FirstTime = fill.Time
		}
	}

	out := make([]OrderAggregate, 0, len(groups))
	for _, a := range groups {
		if a.weightSum > 0 {
			a.agg.VWAP = a.priceSum / a.weightSum
		}
		a.agg.NetPnl = a.agg.ClosedPnl - a.agg.FeeTotal
		out = append(out, a.agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstTime != out[j].FirstTime {
			return out[i].FirstTime > out[j].FirstTime
		}
		return out[i].OrderID > out[j].OrderID
	})
	return out
}

// HourlyTrade is a merged view of fills sharing coin, direction and the
// hour their timestamps floor to. Used by the paginated trade-history view.
type HourlyTrade struct {
	Timestamp string  `json:"timestamp"` // formatted bucket hour, UTC
	Coin      string  `json:"coin"`
	Side      string  `json:"side"`
	Direction string  `json:"dir"`
	TotalSize float64 `json:"sz"`
	AvgPrice  float64 `json:"px"`
	ClosedPnl float64 `json:"closed_pnl"`
	FeeTotal  float64 `json:"fee"`
	Count     int     `json:"count"`
	LastTime  int64   `json:"last_time"`
}

// ByHour groups fills by (coin, direction, hour bucket), merging each group
// into one record. Results sort by numeric LastTime descending.
func ByHour(fills []types.Fill) []HourlyTrade {
	type key struct {
		coin   string
		dir    string
		bucket int64
	}
	type acc struct {
		trade     HourlyTrade
		weightSum float64
		priceSum  float64
	}

	groups := make(map[key]*acc)
	for _, fill := range fills {
		bucket := fill.Timestamp().Truncate(time.Hour).UnixMilli()
		k := key{coin: fill.Coin, dir: fill.Direction, bucket: bucket}

		a, ok := groups[k]
		if !ok {
			a = &acc{trade: HourlyTrade{
				Timestamp: time.UnixMilli(bucket).UTC().Format("2006-01-02 15:04:05"),
				Coin:      fill.Coin,
				Side:      fill.Side,
				Direction: fill.Direction,
			}}
			groups[k] = a
		}

		weight := math.Abs(fill.Size)
		a.weightSum += weight
		a.priceSum += fill.Price * weight
		a.trade.TotalSize += fill.Size
		a.trade.ClosedPnl += fill.ClosedPnl
		a.trade.FeeTotal += fill.Fee
		a.trade.Count++
		if fill.Time > a.trade.LastTime {
			a.trade.LastTime = fill.Time
		}
	}

	out := make([]HourlyTrade, 0, len(groups))
	for _, a := range groups {
		if a.weightSum > 0 {
			a.trade.AvgPrice = a.priceSum / a.weightSum
		}
		out = append(out, a.trade)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastTime != out[j].LastTime {
			return out[i].LastTime > out[j].LastTime
		}
		return out[i].Coin < out[j].Coin
	})
	return out
}

// Page is one page of the trade-history view.
type Page struct {
	Trades []HourlyTrade `json:"trades"`
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Pages  int           `json:"pages"`
}

// Paginate slices the trade list into fixed-size pages. Pages are 1-based;
// a page past the end returns an empty list, not an error.
func Paginate(trades []HourlyTrade, page int) Page {
	if page < 1 {
		page = 1
	}

	total := len(trades)
	pages := (total + PageSize - 1) / PageSize

	start := (page - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}

	out := make([]HourlyTrade, end-start)
	copy(out, trades[start:end])

	return Page{
		Trades: out,
		Total:  total,
		Page:   page,
		Pages:  pages,
	}
}
