// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidder

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputePrice(t *testing.T) {
	require := require.New(t)

	conservative := Strategies["conservative"]

	// floor 2.00, minBid 2.00, markup 0.20 -> base 2.20; CTR 1.5% -> 1.3x
	price := computePrice(2.0, conservative, 0.015)
	require.True(price.Equal(decimal.NewFromFloat(2.86)), "price = %s", price)
}

func TestComputePriceFloorBelowMin(t *testing.T) {
	require := require.New(t)

	conservative := Strategies["conservative"]

	// floor under the strategy minimum: base comes from minBid
	price := computePrice(0.10, conservative, 0)
	require.True(price.Equal(decimal.NewFromFloat(2.20)), "price = %s", price)
}

func TestComputePriceMultiplierCap(t *testing.T) {
	require := require.New(t)

	conservative := Strategies["conservative"]

	// CTR at or above 5% caps the multiplier at 2x
	atCap := computePrice(2.0, conservative, 0.05)
	aboveCap := computePrice(2.0, conservative, 0.80)
	require.True(atCap.Equal(decimal.NewFromFloat(4.40)), "price = %s", atCap)
	require.True(aboveCap.Equal(atCap))
}

func TestComputePriceMonotonicInCTR(t *testing.T) {
	require := require.New(t)

	balanced := Strategies["balanced"]

	prev := decimal.Zero
	for ctr := 0.0; ctr <= 1.0; ctr += 0.01 {
		price := computePrice(1.5, balanced, ctr)
		require.True(price.GreaterThanOrEqual(prev), "ctr=%f price=%s prev=%s", ctr, price, prev)
		require.False(price.IsNegative())
		prev = price
	}
}

func TestComputePriceNeverNegative(t *testing.T) {
	require := require.New(t)

	for name, s := range Strategies {
		price := computePrice(0, s, 0)
		require.False(price.IsNegative(), "strategy %s", name)
	}
}
