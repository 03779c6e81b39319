// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidder

import (
	"context"
	"time"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/shopspring/decimal"

	"github.com/adxyz/bidder/pkg/budget"
	"github.com/adxyz/bidder/pkg/ctr"
	"github.com/adxyz/bidder/pkg/exchange"
	"github.com/adxyz/bidder/pkg/log"
	"github.com/adxyz/bidder/pkg/metric"
)

// defaultTmax applies when a request carries no latency hint.
const defaultTmax = 200 * time.Millisecond

// Recorder is the fire-and-forget analytics sink. Implementations must never
// block the decision path.
type Recorder interface {
	RecordRequest(requestID string, imp *exchange.Imp, dev *exchange.Device)
	RecordResponse(requestID string, status string, price decimal.Decimal, predictedCTR float64)
}

// Engine decides bids for one strategy. The ledger is the only mutable
// state; the model is shared read-only, so one engine serves concurrent
// requests without further locking.
type Engine struct {
	strategy Strategy
	ledger   *budget.Ledger
	model    *ctr.Model
	metrics  *metric.Metrics
	recorder Recorder
	log      log.Logger
	nowFn    func() time.Time
}

// NewEngine builds an engine with a fresh ledger for the strategy's daily
// budget. recorder may be nil when analytics is disabled.
func NewEngine(s Strategy, model *ctr.Model, metrics *metric.Metrics, recorder Recorder, logger log.Logger) *Engine {
	return &Engine{
		strategy: s,
		ledger:   budget.NewLedger(s.DailyBudget),
		model:    model,
		metrics:  metrics,
		recorder: recorder,
		log:      logger.With("bidder", s.ID),
		nowFn:    time.Now,
	}
}

// Strategy returns the engine's configuration.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// SetClock overrides the engine clock (and the ledger's). Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.nowFn = now
	e.ledger.SetClock(now)
}

// HandleBidRequest evaluates every impression in the request and returns a
// bid response covering the accepted ones. A nil response with a nil error
// means no bid. A non-nil error means the request was invalid; the ledger is
// untouched in that case.
func (e *Engine) HandleBidRequest(ctx context.Context, req *exchange.BidRequest) (*openrtb2.BidResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := e.nowFn()
	e.metrics.RequestsReceived.Inc()

	var entries []exchange.BidEntry
	for i := range req.Imp {
		imp := &req.Imp[i]
		dev := req.DeviceFor(imp)

		if e.recorder != nil {
			e.recorder.RecordRequest(req.ID, imp, dev)
		}

		if entry, reason := e.decide(imp, dev); reason == ReasonNone {
			entries = append(entries, entry)
			e.metrics.BidsEmitted.Inc()
			e.metrics.PredictedCTR.Observe(entry.PredictedCTR)
			e.log.Info("bidding on impression",
				"request", req.ID,
				"imp", imp.ID,
				"price", entry.Price,
				"predicted_ctr", entry.PredictedCTR)
			if e.recorder != nil {
				e.recorder.RecordResponse(req.ID, "ACCEPTED", entry.Price, entry.PredictedCTR)
			}
		} else {
			e.metrics.NoBids.WithLabelValues(string(reason)).Inc()
			e.log.Debug("not bidding on impression",
				"request", req.ID,
				"imp", imp.ID,
				"reason", reason)
			if e.recorder != nil {
				e.recorder.RecordResponse(req.ID, "REJECTED", decimal.Zero, 0)
			}
		}
	}

	snap := e.ledger.Stats()
	spent, _ := snap.Spent.Float64()
	e.metrics.SpendCurrent.Set(spent)
	e.metrics.BidCount.Set(float64(snap.Bids))

	elapsed := e.nowFn().Sub(start)
	e.metrics.DecisionDuration.Observe(elapsed.Seconds())

	tmax := defaultTmax
	if req.TMax > 0 {
		tmax = time.Duration(req.TMax) * time.Millisecond
	}
	if elapsed > tmax {
		e.metrics.TmaxExceeded.Inc()
		e.log.Warn("decision exceeded tmax", "request", req.ID, "elapsed", elapsed, "tmax", tmax)
	}

	return exchange.BuildResponse(req, e.strategy.ID, entries), nil
}

// decide runs one impression through filter, prediction, pricing and debit.
func (e *Engine) decide(imp *exchange.Imp, dev *exchange.Device) (exchange.BidEntry, NoBidReason) {
	now := e.nowFn()

	if reason := e.shouldBid(imp, dev, now); reason != ReasonNone {
		return exchange.BidEntry{}, reason
	}

	predicted := e.predictCTR(imp, dev, now)
	price := computePrice(imp.BidFloor, e.strategy, predicted)

	// The admission check above is only advisory; the debit re-checks the
	// cap atomically and can lose to a concurrent decision.
	if !e.ledger.TryDebit(price) {
		return exchange.BidEntry{}, ReasonDebitLost
	}

	return exchange.BidEntry{
		ImpID:        imp.ID,
		Price:        price,
		PredictedCTR: predicted,
	}, ReasonNone
}

// predictCTR runs model inference, falling back to the default CTR when the
// model misbehaves. Prediction failure never aborts a bid decision.
func (e *Engine) predictCTR(imp *exchange.Imp, dev *exchange.Device, now time.Time) float64 {
	features := ctr.Extract(dev, imp.BidFloor, now)
	predicted, err := e.model.Predict(features)
	if err != nil {
		e.metrics.PredictionFailures.Inc()
		e.log.Error("ctr prediction failed, using default", "imp", imp.ID, "error", err)
		return ctr.DefaultCTR
	}
	return predicted
}

// Stats reports the engine's configuration and budget state.
type Stats struct {
	BidderID        string          `json:"bidder_id"`
	Description     string          `json:"description"`
	TargetCountry   string          `json:"target_country"`
	TargetDevices   []string        `json:"target_devices"`
	TargetOS        []string        `json:"target_os"`
	MinBidPrice     decimal.Decimal `json:"min_bid_price"`
	DailyBudget     decimal.Decimal `json:"daily_budget"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	BidCount        int64           `json:"bid_count"`
	RemainingBudget decimal.Decimal `json:"remaining_budget"`
}

// Stats returns a snapshot for the admin surface.
func (e *Engine) Stats() Stats {
	snap := e.ledger.Stats()
	return Stats{
		BidderID:        e.strategy.ID,
		Description:     e.strategy.Description,
		TargetCountry:   e.strategy.TargetCountry,
		TargetDevices:   e.strategy.TargetDevices,
		TargetOS:        e.strategy.TargetOS,
		MinBidPrice:     e.strategy.MinBidPrice,
		DailyBudget:     e.strategy.DailyBudget,
		TotalSpent:      snap.Spent.Round(2),
		BidCount:        snap.Bids,
		RemainingBudget: snap.Remaining.Round(2),
	}
}

// Quote is a prediction-only result: no budget is touched and no bid is
// placed.
type Quote struct {
	ImpID        string          `json:"impid"`
	PredictedCTR float64         `json:"predicted_ctr"`
	SuggestedBid decimal.Decimal `json:"suggested_bid"`
}

// PredictOnly estimates CTR and a suggested price for an impression without
// the markup or any ledger side effects.
func (e *Engine) PredictOnly(req *exchange.BidRequest, imp *exchange.Imp) (Quote, error) {
	now := e.nowFn()
	dev := req.DeviceFor(imp)

	features := ctr.Extract(dev, imp.BidFloor, now)
	predicted, err := e.model.Predict(features)
	if err != nil {
		return Quote{}, err
	}

	floor := imp.BidFloor
	if floor <= 0 {
		floor = 1.0
	}
	base := decimal.Max(decimal.NewFromFloat(floor), e.strategy.MinBidPrice)

	multiplier := 1.0 + predicted/ctrScale
	if multiplier > 2.0 {
		multiplier = 2.0
	}

	return Quote{
		ImpID:        imp.ID,
		PredictedCTR: roundTo(predicted, 4),
		SuggestedBid: base.Mul(decimal.NewFromFloat(multiplier)).Round(2),
	}, nil
}

// ResetBudget zeroes the ledger outside the daily rollover.
func (e *Engine) ResetBudget() {
	e.ledger.Reset()
	e.metrics.SpendCurrent.Set(0)
	e.metrics.BidCount.Set(0)
	e.log.Info("budget manually reset")
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
