// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctr

import (
	"strings"
	"time"

	"github.com/adxyz/bidder/pkg/exchange"
)

// FeatureCount is the length of the model input vector.
const FeatureCount = 8

// Feature vector layout. Device type is one-hot over three slots with
// desktop and unknown sharing the last; an OS outside {iOS, Android} leaves
// both OS slots zero.
const (
	featDevicePhone = iota
	featDeviceTablet
	featDeviceDesktop
	featOSiOS
	featOSAndroid
	featCountryUSA
	featHourOfDay
	featBidFloor
)

// referenceCountry is the country the model was trained against. The country
// feature compares to this literal, not to a strategy's target country, so
// that inference matches the training distribution.
const referenceCountry = "USA"

const maxFloorNorm = 3.0

// Extract maps an impression's device context, bid floor and wall-clock hour
// into the model input vector. Pure and deterministic for a fixed now.
func Extract(dev *exchange.Device, bidfloor float64, now time.Time) []float64 {
	features := make([]float64, FeatureCount)

	switch dev.NormalizedType() {
	case "PHONE":
		features[featDevicePhone] = 1
	case "TABLET":
		features[featDeviceTablet] = 1
	default:
		features[featDeviceDesktop] = 1
	}

	if dev != nil {
		switch strings.ToLower(dev.OS) {
		case "ios":
			features[featOSiOS] = 1
		case "android":
			features[featOSAndroid] = 1
		}
	}

	if strings.EqualFold(dev.Country(), referenceCountry) {
		features[featCountryUSA] = 1
	}

	features[featHourOfDay] = float64(now.Hour()) / 23.0

	floor := bidfloor
	if floor > maxFloorNorm {
		floor = maxFloorNorm
	}
	features[featBidFloor] = floor / maxFloorNorm

	return features
}
