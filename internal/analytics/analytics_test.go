package analytics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/perpwatch/perpwatch-api/internal/types"
)

// fakeSource serves canned upstream data, optionally failing one call.
type fakeSource struct {
	fills    []types.Fill
	state    *types.UserState
	funding  []types.FundingRecord
	mids     map[string]float64
	failCall string
}

var errUpstream = errors.New("upstream unavailable")

func (f *fakeSource) Fills(ctx context.Context, address string) ([]types.Fill, error) {
	if f.failCall == "fills" {
		return nil, errUpstream
	}
	return f.fills, nil
}

func (f *fakeSource) FillsByTime(ctx context.Context, address string, start, end int64) ([]types.Fill, error) {
	if f.failCall == "fillsByTime" {
		return nil, errUpstream
	}
	var out []types.Fill
	for _, fill := range f.fills {
		if fill.Time >= start && fill.Time <= end {
			out = append(out, fill)
		}
	}
	return out, nil
}

func (f *fakeSource) UserState(ctx context.Context, address string) (*types.UserState, error) {
	if f.failCall == "userState" {
		return nil, errUpstream
	}
	return f.state, nil
}

func (f *fakeSource) Funding(ctx context.Context, address string, start, end int64) ([]types.FundingRecord, error) {
	if f.failCall == "funding" {
		return nil, errUpstream
	}
	return f.funding, nil
}

func (f *fakeSource) AllMids(ctx context.Context) (map[string]float64, error) {
	if f.failCall == "mids" {
		return nil, errUpstream
	}
	return f.mids, nil
}

func newTestService(source *fakeSource) *Service {
	svc := NewService(source)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestCumulativeWindowsSource(t *testing.T) {
	inWindow := testNow.Add(-10 * 24 * time.Hour).UnixMilli()
	outOfWindow := testNow.Add(-40 * 24 * time.Hour).UnixMilli()

	source := &fakeSource{
		fills: []types.Fill{
			{TradeID: 1, ClosedPnl: 10, Time: inWindow},
			{TradeID: 2, ClosedPnl: 99, Time: outOfWindow},
		},
		funding: []types.FundingRecord{{Amount: 2}},
		state:   &types.UserState{Positions: []types.Position{{UnrealizedPnl: 3}}},
	}

	result, err := newTestService(source).Cumulative(context.Background(), "0xwallet", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(result.RealizedPnl-10) > 1e-9 {
		t.Fatalf("expected realized 10 (only in-window fill), got %f", result.RealizedPnl)
	}
	if math.Abs(result.TotalCumulativePnl-15) > 1e-9 {
		t.Fatalf("expected total 15, got %f", result.TotalCumulativePnl)
	}
}

func TestTimeseriesFailsWholeRequestOnUpstreamError(t *testing.T) {
	for _, failCall := range []string{"fills", "userState", "mids"} {
		source := &fakeSource{
			failCall: failCall,
			state:    &types.UserState{},
			mids:     map[string]float64{},
		}
		if _, err := newTestService(source).Timeseries(context.Background(), "0xwallet"); err == nil {
			t.Errorf("expected error when %s fails", failCall)
		}
	}
}

func TestCumulativeFailsWholeRequestOnUpstreamError(t *testing.T) {
	for _, failCall := range []string{"fillsByTime", "funding", "userState"} {
		source := &fakeSource{
			failCall: failCall,
			state:    &types.UserState{},
		}
		if _, err := newTestService(source).Cumulative(context.Background(), "0xwallet", 30); err == nil {
			t.Errorf("expected error when %s fails", failCall)
		}
	}
}
