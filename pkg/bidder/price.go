// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidder

import (
	"github.com/shopspring/decimal"
)

// ctrScale maps predicted CTR to the price multiplier: 1x at CTR 0, 2x at
// CTR 5% and above.
const ctrScale = 0.05

// computePrice turns a bid floor and a predicted CTR into a final CPM price:
// base = max(floor, minBid) + markup, scaled by a multiplier in [1.0, 2.0],
// rounded to cents. Monotonic non-decreasing in CTR by construction.
func computePrice(bidfloor float64, s Strategy, predictedCTR float64) decimal.Decimal {
	floor := decimal.NewFromFloat(bidfloor)
	base := decimal.Max(floor, s.MinBidPrice).Add(s.Markup)

	multiplier := 1.0 + predictedCTR/ctrScale
	if multiplier > 2.0 {
		multiplier = 2.0
	} else if multiplier < 1.0 {
		multiplier = 1.0
	}

	return base.Mul(decimal.NewFromFloat(multiplier)).Round(2)
}
