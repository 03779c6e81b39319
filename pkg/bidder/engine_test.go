// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/bidder/pkg/ctr"
	"github.com/adxyz/bidder/pkg/exchange"
	"github.com/adxyz/bidder/pkg/log"
	"github.com/adxyz/bidder/pkg/metric"
)

func testRequest(imps ...exchange.Imp) *exchange.BidRequest {
	return &exchange.BidRequest{
		ID:   "req-1",
		TMax: 200,
		Imp:  imps,
	}
}

func TestEngineBids(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(t, "conservative", flatModel(0.015))
	req := testRequest(*testImp("PHONE", "iOS", "USA", 2.0))

	resp, err := e.HandleBidRequest(context.Background(), req)
	require.NoError(err)
	require.NotNil(resp)

	require.Equal("req-1", resp.ID)
	require.Equal("USD", resp.Cur)
	require.Len(resp.SeatBid, 1)
	require.Equal("conservative-bidder", resp.SeatBid[0].Seat)
	require.Len(resp.SeatBid[0].Bid, 1)

	bid := resp.SeatBid[0].Bid[0]
	require.Equal("imp-1", bid.ImpID)
	require.InDelta(2.86, bid.Price, 1e-9)
	require.NotEmpty(bid.AdM)
	require.Equal([]string{"example.com"}, bid.ADomain)

	var ext exchange.BidExt
	require.NoError(json.Unmarshal(bid.Ext, &ext))
	require.InDelta(0.015, ext.PredictedCTR, 1e-4)

	stats := e.Stats()
	require.True(stats.TotalSpent.Equal(decimal.NewFromFloat(2.86)), "spent = %s", stats.TotalSpent)
	require.Equal(int64(1), stats.BidCount)
}

func TestEngineNoBidWrongCountry(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(t, "conservative", flatModel(0.015))
	req := testRequest(*testImp("PHONE", "iOS", "GER", 2.0))

	resp, err := e.HandleBidRequest(context.Background(), req)
	require.NoError(err)
	require.Nil(resp)

	// Budget untouched on a no-bid
	stats := e.Stats()
	require.True(stats.TotalSpent.IsZero())
	require.Equal(int64(0), stats.BidCount)
}

func TestEngineBudgetCapAcrossImpressions(t *testing.T) {
	require := require.New(t)

	s := Strategy{
		ID:            "test-bidder",
		TargetCountry: "USA",
		TargetDevices: []string{"PHONE"},
		TargetOS:      []string{"iOS"},
		MinBidPrice:   decimal.NewFromFloat(2.00),
		Markup:        decimal.NewFromFloat(0.20),
		WindowStart:   0,
		WindowEnd:     24,
		DailyBudget:   decimal.NewFromFloat(15.00),
	}
	// Near-zero CTR keeps the multiplier at 1x: each bid prices at exactly
	// max(5.80, 2.00) + 0.20 = 6.00
	model := &ctr.Model{Weights: make([]float64, ctr.FeatureCount), Bias: -50}
	e := NewEngine(s, model, metric.New("test"), nil, log.NoOp())
	e.SetClock(func() time.Time { return businessHours })

	imp := *testImp("PHONE", "iOS", "USA", 5.80)
	imp2, imp3 := imp, imp
	imp2.ID, imp3.ID = "imp-2", "imp-3"

	resp, err := e.HandleBidRequest(context.Background(), testRequest(imp, imp2, imp3))
	require.NoError(err)
	require.NotNil(resp)

	// First two fit under the 15.00 cap; the third would overspend
	require.Len(resp.SeatBid[0].Bid, 2)
	stats := e.Stats()
	require.True(stats.TotalSpent.Equal(decimal.NewFromFloat(12.00)), "spent = %s", stats.TotalSpent)
	require.Equal(int64(2), stats.BidCount)
}

func TestEngineRejectsInvalidRequests(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(t, "conservative", flatModel(0.015))

	_, err := e.HandleBidRequest(context.Background(), &exchange.BidRequest{Imp: []exchange.Imp{{ID: "i"}}})
	require.ErrorIs(err, exchange.ErrMissingID)

	_, err = e.HandleBidRequest(context.Background(), &exchange.BidRequest{ID: "req-1"})
	require.ErrorIs(err, exchange.ErrNoImpressions)

	require.True(e.Stats().TotalSpent.IsZero())
}

func TestEnginePredictionFailureFallsBack(t *testing.T) {
	require := require.New(t)

	// A malformed model errors on every predict; the engine bids anyway at
	// the default 1.5% CTR
	broken := &ctr.Model{Weights: []float64{1, 2, 3}, Bias: 0}
	s, err := StrategyByName("conservative")
	require.NoError(err)
	e := NewEngine(s, broken, metric.New("test"), nil, log.NoOp())
	e.SetClock(func() time.Time { return businessHours })

	resp, err := e.HandleBidRequest(context.Background(), testRequest(*testImp("PHONE", "iOS", "USA", 2.0)))
	require.NoError(err)
	require.NotNil(resp)
	require.InDelta(2.86, resp.SeatBid[0].Bid[0].Price, 1e-9)
}

func TestEngineDeviceFallback(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(t, "conservative", flatModel(0.015))

	req := &exchange.BidRequest{
		ID:  "req-1",
		Imp: []exchange.Imp{{ID: "imp-1", BidFloor: 2.0}},
		Device: &exchange.Device{
			DeviceType: "PHONE",
			OS:         "iOS",
			Geo:        &exchange.Geo{Country: "USA"},
		},
	}

	resp, err := e.HandleBidRequest(context.Background(), req)
	require.NoError(err)
	require.NotNil(resp)
}

func TestEnginePredictOnly(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(t, "conservative", flatModel(0.015))
	imp := testImp("PHONE", "iOS", "USA", 2.0)

	q, err := e.PredictOnly(testRequest(*imp), imp)
	require.NoError(err)
	require.Equal("imp-1", q.ImpID)
	require.InDelta(0.015, q.PredictedCTR, 1e-4)

	// Prediction pricing skips the markup: max(2.00, 2.00) * 1.3 = 2.60
	require.True(q.SuggestedBid.Equal(decimal.NewFromFloat(2.60)), "bid = %s", q.SuggestedBid)

	// No ledger side effects
	require.True(e.Stats().TotalSpent.IsZero())
}

func TestEngineResetBudget(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(t, "conservative", flatModel(0.015))
	_, err := e.HandleBidRequest(context.Background(), testRequest(*testImp("PHONE", "iOS", "USA", 2.0)))
	require.NoError(err)
	require.False(e.Stats().TotalSpent.IsZero())

	e.ResetBudget()
	stats := e.Stats()
	require.True(stats.TotalSpent.IsZero())
	require.Equal(int64(0), stats.BidCount)
}
