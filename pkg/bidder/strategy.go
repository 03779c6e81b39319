// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Strategy is an immutable per-instance bidding configuration: targeting,
// pricing and budget parameters. One Engine runs one Strategy; running
// several strategies means running several engines.
type Strategy struct {
	ID            string
	Description   string
	TargetCountry string
	TargetDevices []string
	TargetOS      []string
	MinBidPrice   decimal.Decimal
	Markup        decimal.Decimal
	WindowStart   int // inclusive hour
	WindowEnd     int // exclusive hour
	DailyBudget   decimal.Decimal
}

// Strategies are the built-in profiles.
var Strategies = map[string]Strategy{
	"conservative": {
		ID:            "conservative-bidder",
		Description:   "Conservative: High quality, narrow targeting",
		TargetCountry: "USA",
		TargetDevices: []string{"PHONE"},
		TargetOS:      []string{"iOS"},
		MinBidPrice:   decimal.NewFromFloat(2.00),
		Markup:        decimal.NewFromFloat(0.20),
		WindowStart:   9,
		WindowEnd:     17,
		DailyBudget:   decimal.NewFromFloat(15.00),
	},
	"aggressive": {
		ID:            "aggressive-bidder",
		Description:   "Aggressive: Maximize volume, lower barriers",
		TargetCountry: "USA",
		TargetDevices: []string{"PHONE", "TABLET", "DESKTOP"},
		TargetOS:      []string{"iOS", "Android"},
		MinBidPrice:   decimal.NewFromFloat(0.50),
		Markup:        decimal.NewFromFloat(0.01),
		WindowStart:   8,
		WindowEnd:     22,
		DailyBudget:   decimal.NewFromFloat(25.00),
	},
	"balanced": {
		ID:            "balanced-bidder",
		Description:   "Balanced: Moderate targeting and pricing",
		TargetCountry: "USA",
		TargetDevices: []string{"PHONE", "TABLET"},
		TargetOS:      []string{"iOS"},
		MinBidPrice:   decimal.NewFromFloat(1.00),
		Markup:        decimal.NewFromFloat(0.05),
		WindowStart:   9,
		WindowEnd:     17,
		DailyBudget:   decimal.NewFromFloat(20.00),
	},
}

// StrategyByName looks up a built-in strategy.
func StrategyByName(name string) (Strategy, error) {
	s, ok := Strategies[strings.ToLower(name)]
	if !ok {
		return Strategy{}, fmt.Errorf("unknown strategy %q", name)
	}
	return s, nil
}

func (s Strategy) targetsDevice(deviceType string) bool {
	for _, d := range s.TargetDevices {
		if d == deviceType {
			return true
		}
	}
	return false
}

func (s Strategy) targetsOS(os string) bool {
	for _, o := range s.TargetOS {
		if strings.EqualFold(o, os) {
			return true
		}
	}
	return false
}

func (s Strategy) inWindow(hour int) bool {
	return hour >= s.WindowStart && hour < s.WindowEnd
}
