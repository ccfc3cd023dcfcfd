package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/perpwatch/perpwatch-api/internal/types"
)

// Client queries the exchange info endpoint for fills, positions, funding
// history and mark prices. All numeric fields arrive as decimal strings on
// the wire and are normalized into the internal types here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an info API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// wireFill mirrors the upstream fill record shape.
type wireFill struct {
	Coin      string `json:"coin"`
	Px        string `json:"px"`
	Sz        string `json:"sz"`
	Side      string `json:"side"`
	Dir       string `json:"dir"`
	Time      int64  `json:"time"`
	ClosedPnl string `json:"closedPnl"`
	Hash      string `json:"hash"`
	Oid       int64  `json:"oid"`
	Tid       int64  `json:"tid"`
	Crossed   bool   `json:"crossed"`
	Fee       string `json:"fee"`
	FeeToken  string `json:"feeToken"`
}

type wireUserState struct {
	MarginSummary struct {
		AccountValue string `json:"accountValue"`
	} `json:"marginSummary"`
	AssetPositions []struct {
		Position struct {
			Coin     string `json:"coin"`
			Szi      string `json:"szi"`
			EntryPx  string `json:"entryPx"`
			Leverage struct {
				Value float64 `json:"value"`
			} `json:"leverage"`
			UnrealizedPnl string `json:"unrealizedPnl"`
		} `json:"position"`
	} `json:"assetPositions"`
}

type wireFundingRecord struct {
	Delta struct {
		Coin string `json:"coin"`
		Usdc string `json:"usdc"`
	} `json:"delta"`
	Time int64 `json:"time"`
}

// Fills returns the full fill history the upstream API retains for a wallet,
// normalized and unordered.
func (c *Client) Fills(ctx context.Context, address string) ([]types.Fill, error) {
	body := map[string]interface{}{"type": "userFills", "user": address}

	var wire []wireFill
	if err := c.post(ctx, body, &wire); err != nil {
		return nil, fmt.Errorf("fetching fills: %w", err)
	}
	return normalizeFills(wire)
}

// FillsByTime returns fills within [start, end] millisecond bounds. A zero
// end leaves the upper bound open; the upstream API then defaults it to now.
func (c *Client) FillsByTime(ctx context.Context, address string, start, end int64) ([]types.Fill, error) {
	body := map[string]interface{}{
		"type":      "userFillsByTime",
		"user":      address,
		"startTime": start,
	}
	if end > 0 {
		body["endTime"] = end
	}

	var wire []wireFill
	if err := c.post(ctx, body, &wire); err != nil {
		return nil, fmt.Errorf("fetching fills by time: %w", err)
	}
	return normalizeFills(wire)
}

// UserState returns the wallet's current clearinghouse state: open positions
// and account value.
func (c *Client) UserState(ctx context.Context, address string) (*types.UserState, error) {
	body := map[string]interface{}{"type": "clearinghouseState", "user": address}

	var wire wireUserState
	if err := c.post(ctx, body, &wire); err != nil {
		return nil, fmt.Errorf("fetching user state: %w", err)
	}

	p := &decimalParser{}
	state := &types.UserState{
		AccountValue: p.parse("accountValue", wire.MarginSummary.AccountValue),
		Positions:    make([]types.Position, 0, len(wire.AssetPositions)),
	}
	for _, ap := range wire.AssetPositions {
		state.Positions = append(state.Positions, types.Position{
			Coin:          ap.Position.Coin,
			Size:          p.parse("szi", ap.Position.Szi),
			EntryPrice:    p.parse("entryPx", ap.Position.EntryPx),
			Leverage:      ap.Position.Leverage.Value,
			UnrealizedPnl: p.parse("unrealizedPnl", ap.Position.UnrealizedPnl),
		})
	}
	if p.err != nil {
		return nil, fmt.Errorf("fetching user state: %w", p.err)
	}
	return state, nil
}

// Funding returns the funding payments applied to a wallet within
// [start, end] millisecond bounds.
func (c *Client) Funding(ctx context.Context, address string, start, end int64) ([]types.FundingRecord, error) {
	body := map[string]interface{}{
		"type":      "userFunding",
		"user":      address,
		"startTime": start,
		"endTime":   end,
	}

	var wire []wireFundingRecord
	if err := c.post(ctx, body, &wire); err != nil {
		return nil, fmt.Errorf("fetching funding history: %w", err)
	}

	p := &decimalParser{}
	records := make([]types.FundingRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, types.FundingRecord{
			Coin:   w.Delta.Coin,
			Amount: p.parse("usdc", w.Delta.Usdc),
			Time:   w.Time,
		})
	}
	if p.err != nil {
		return nil, fmt.Errorf("fetching funding history: %w", p.err)
	}
	return records, nil
}

// AllMids returns the current mid price per coin.
func (c *Client) AllMids(ctx context.Context) (map[string]float64, error) {
	body := map[string]interface{}{"type": "allMids"}

	var wire map[string]string
	if err := c.post(ctx, body, &wire); err != nil {
		return nil, fmt.Errorf("fetching mid prices: %w", err)
	}

	mids := make(map[string]float64, len(wire))
	for coin, px := range wire {
		mid, err := parseFloat(px)
		if err != nil {
			return nil, fmt.Errorf("fetching mid prices: %s: %w", coin, err)
		}
		mids[coin] = mid
	}
	return mids, nil
}

func (c *Client) post(ctx context.Context, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("info request failed with status %d: %s", resp.StatusCode, data)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func normalizeFills(wire []wireFill) ([]types.Fill, error) {
	fills := make([]types.Fill, 0, len(wire))
	for _, w := range wire {
		fill, err := normalizeFill(w)
		if err != nil {
			return nil, err
		}
		fills = append(fills, fill)
	}
	return fills, nil
}

func normalizeFill(w wireFill) (types.Fill, error) {
	p := &decimalParser{}
	fill := types.Fill{
		TradeID:   w.Tid,
		OrderID:   w.Oid,
		Coin:      w.Coin,
		Side:      w.Side,
		Direction: w.Dir,
		Size:      p.parse("sz", w.Sz),
		Price:     p.parse("px", w.Px),
		ClosedPnl: p.parse("closedPnl", w.ClosedPnl),
		Fee:       p.parse("fee", w.Fee),
		FeeToken:  w.FeeToken,
		Time:      w.Time,
		Crossed:   w.Crossed,
		Hash:      w.Hash,
	}
	if p.err != nil {
		return types.Fill{}, fmt.Errorf("fill %d: %w", w.Tid, p.err)
	}
	return fill, nil
}

// decimalParser converts a sequence of upstream decimal strings, keeping the
// first failure. Absent fields decode as empty strings and are zero.
type decimalParser struct {
	err error
}

func (p *decimalParser) parse(field, s string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := parseFloat(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return v
}

// parseFloat converts an upstream decimal string. An empty string is zero
// (optional fields); a present but unparseable value is an error, so a
// corrupt response fails the whole request instead of skewing the numbers.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed decimal %q", s)
	}
	return f, nil
}
