package types

import "time"

// Fill is a single executed trade leg reported by the exchange, normalized
// from the upstream wire format. TradeID is the identity key for dedup.
type Fill struct {
	TradeID   int64   `json:"tid"`
	OrderID   int64   `json:"oid"`
	Coin      string  `json:"coin"`
	Side      string  `json:"side"`
	Direction string  `json:"dir"` // e.g. "Open Long", "Close Short"
	Size      float64 `json:"sz"`
	Price     float64 `json:"px"`
	ClosedPnl float64 `json:"closed_pnl"`
	Fee       float64 `json:"fee"`
	FeeToken  string  `json:"fee_token"`
	Time      int64   `json:"time"` // millisecond epoch
	Crossed   bool    `json:"crossed"`
	Hash      string  `json:"hash"`
}

// Timestamp returns the fill time as UTC.
func (f Fill) Timestamp() time.Time {
	return time.UnixMilli(f.Time).UTC()
}

// Position is an open perpetual position for a wallet.
type Position struct {
	Coin          string  `json:"coin"`
	Size          float64 `json:"size"` // signed: negative = short
	EntryPrice    float64 `json:"entry_price"`
	Leverage      float64 `json:"leverage"`
	UnrealizedPnl float64 `json:"unrealized_pnl"` // as reported by the exchange
}

// UserState is the normalized clearinghouse state for a wallet.
type UserState struct {
	AccountValue float64    `json:"account_value"`
	Positions    []Position `json:"positions"`
}

// FundingRecord is a single funding payment (or charge) applied to a wallet.
type FundingRecord struct {
	Coin   string  `json:"coin"`
	Amount float64 `json:"amount"` // USDC delta, signed
	Time   int64   `json:"time"`
}
