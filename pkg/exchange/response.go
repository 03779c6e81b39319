// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/shopspring/decimal"
)

const placeholderAdm = "<div style='width:320px;height:50px;background:#4CAF50;color:white;text-align:center;line-height:50px;'>Your Ad Here</div>"

// BidExt carries bidder metadata alongside the price
type BidExt struct {
	PredictedCTR float64 `json:"predicted_ctr"`
}

// BidEntry is one priced impression ready to be packed into a response
type BidEntry struct {
	ImpID        string
	Price        decimal.Decimal
	PredictedCTR float64
}

// BuildResponse packs accepted impressions into an OpenRTB bid response with
// a single seat. Returns nil when there is nothing to bid on.
func BuildResponse(req *BidRequest, seat string, entries []BidEntry) *openrtb2.BidResponse {
	if len(entries) == 0 {
		return nil
	}

	bids := make([]openrtb2.Bid, 0, len(entries))
	for _, e := range entries {
		ext, _ := json.Marshal(BidExt{PredictedCTR: roundCTR(e.PredictedCTR)})
		price, _ := e.Price.Round(2).Float64()
		bids = append(bids, openrtb2.Bid{
			ID:      fmt.Sprintf("%s-bid-%s", seat, uuid.NewString()),
			ImpID:   e.ImpID,
			Price:   price,
			AdM:     placeholderAdm,
			ADomain: []string{"example.com"},
			CrID:    seat + "-creative-1",
			Ext:     ext,
		})
	}

	return &openrtb2.BidResponse{
		ID:    req.ID,
		BidID: fmt.Sprintf("%s-%s", seat, uuid.NewString()),
		Cur:   "USD",
		SeatBid: []openrtb2.SeatBid{
			{
				Seat: seat,
				Bid:  bids,
			},
		},
	}
}

func roundCTR(ctr float64) float64 {
	d := decimal.NewFromFloat(ctr).Round(4)
	f, _ := d.Float64()
	return f
}
