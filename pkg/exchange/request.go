// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package exchange

import (
	"errors"
	"strings"
)

var (
	ErrMissingID     = errors.New("bid request missing id")
	ErrNoImpressions = errors.New("bid request has no impressions")
)

// BidRequest is the OpenRTB-like subset the bidder accepts. The device block
// can appear per-impression (as the upstream generator emits) or once at the
// request level; impressions without one inherit the request device.
type BidRequest struct {
	ID     string  `json:"id"`
	AT     int     `json:"at,omitempty"`
	TMax   int64   `json:"tmax,omitempty"`
	Imp    []Imp   `json:"imp"`
	Site   *Site   `json:"site,omitempty"`
	Device *Device `json:"device,omitempty"`
	User   *User   `json:"user,omitempty"`
}

// Imp is a single bid opportunity within a request
type Imp struct {
	ID       string   `json:"id"`
	BidFloor float64  `json:"bidfloor,omitempty"`
	Banner   *Banner  `json:"banner,omitempty"`
	Device   *Device  `json:"device,omitempty"`
	BCat     []string `json:"bcat,omitempty"`
	BAdv     []string `json:"badv,omitempty"`
}

// Banner geometry
type Banner struct {
	W   int64 `json:"w,omitempty"`
	H   int64 `json:"h,omitempty"`
	Pos int8  `json:"pos,omitempty"`
}

// Device context for an impression or request
type Device struct {
	DeviceType string `json:"devicetype,omitempty"`
	OS         string `json:"os,omitempty"`
	UA         string `json:"ua,omitempty"`
	IP         string `json:"ip,omitempty"`
	Geo        *Geo   `json:"geo,omitempty"`
}

// Geo location
type Geo struct {
	Country string `json:"country,omitempty"`
}

// Site context
type Site struct {
	Domain string `json:"domain,omitempty"`
	Page   string `json:"page,omitempty"`
	Ref    string `json:"ref,omitempty"`
}

// User identity
type User struct {
	ID string `json:"id,omitempty"`
}

// Validate checks the request for the fields the engine cannot work without.
func (r *BidRequest) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if len(r.Imp) == 0 {
		return ErrNoImpressions
	}
	return nil
}

// DeviceFor resolves the device context for an impression, falling back to
// the request-level device.
func (r *BidRequest) DeviceFor(imp *Imp) *Device {
	if imp.Device != nil {
		return imp.Device
	}
	return r.Device
}

// NormalizedType returns the device type uppercased ("PHONE", "TABLET", ...).
func (d *Device) NormalizedType() string {
	if d == nil {
		return ""
	}
	return strings.ToUpper(d.DeviceType)
}

// Country returns the geo country code, or "" when absent.
func (d *Device) Country() string {
	if d == nil || d.Geo == nil {
		return ""
	}
	return d.Geo.Country
}
