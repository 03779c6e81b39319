// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidder

import (
	"time"

	"github.com/adxyz/bidder/pkg/exchange"
)

// NoBidReason classifies why an impression was filtered out.
type NoBidReason string

const (
	ReasonNone            NoBidReason = ""
	ReasonBudgetExhausted NoBidReason = "budget_exhausted"
	ReasonNoBidFloor      NoBidReason = "no_bidfloor"
	ReasonOutsideWindow   NoBidReason = "outside_window"
	ReasonDeviceMismatch  NoBidReason = "device_mismatch"
	ReasonOSMismatch      NoBidReason = "os_mismatch"
	ReasonCountryMismatch NoBidReason = "country_mismatch"
	ReasonDebitLost       NoBidReason = "debit_lost"
)

// shouldBid runs the targeting checks for one impression. The evaluation
// order is a contract: budget exhaustion must short-circuit before any
// targeting reason is reported, then bidfloor, window, device, OS, country.
func (e *Engine) shouldBid(imp *exchange.Imp, dev *exchange.Device, now time.Time) NoBidReason {
	if !e.ledger.Admit() {
		return ReasonBudgetExhausted
	}

	if imp.BidFloor <= 0 {
		return ReasonNoBidFloor
	}

	if !e.strategy.inWindow(now.Hour()) {
		return ReasonOutsideWindow
	}

	if !e.strategy.targetsDevice(dev.NormalizedType()) {
		return ReasonDeviceMismatch
	}

	if !e.strategy.targetsOS(osOf(dev)) {
		return ReasonOSMismatch
	}

	if dev.Country() != e.strategy.TargetCountry {
		return ReasonCountryMismatch
	}

	return ReasonNone
}

func osOf(dev *exchange.Device) string {
	if dev == nil {
		return ""
	}
	return dev.OS
}
