// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/bidder/pkg/exchange"
	"github.com/adxyz/bidder/pkg/log"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "bidder.db"), log.NoOp())
	require.NoError(t, err)
	return r
}

func sampleImp() *exchange.Imp {
	return &exchange.Imp{
		ID:       "imp-1",
		BidFloor: 1.5,
		Device: &exchange.Device{
			DeviceType: "PHONE",
			OS:         "iOS",
			Geo:        &exchange.Geo{Country: "USA"},
		},
	}
}

func waitForWrites(t *testing.T, r *Recorder, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s, err := r.Summary()
		require.NoError(t, err)
		if s.TotalRequests >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("recorder did not persist %d requests in time", want)
}

func TestRecorderSummary(t *testing.T) {
	require := require.New(t)

	r := openTestRecorder(t)
	defer r.Close()

	imp := sampleImp()
	r.RecordRequest("req-1", imp, imp.Device)
	r.RecordResponse("req-1", "ACCEPTED", decimal.NewFromFloat(2.86), 0.015)
	r.RecordRequest("req-2", imp, imp.Device)
	r.RecordResponse("req-2", "REJECTED", decimal.Zero, 0)

	waitForWrites(t, r, 2)

	s, err := r.Summary()
	require.NoError(err)
	require.Equal(int64(2), s.TotalRequests)
	require.Equal(int64(1), s.TotalBids)
	require.InDelta(50.0, s.BidRate, 1e-9)
	require.InDelta(2.86, s.TotalSpent, 1e-9)
	require.InDelta(2.86, s.AvgBidPrice, 1e-9)
	require.InDelta(0.015, s.AvgPredictedCTR, 1e-9)
}

func TestRecorderCloseDrains(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "bidder.db")
	r, err := Open(path, log.NoOp())
	require.NoError(err)

	imp := sampleImp()
	for i := 0; i < 20; i++ {
		r.RecordRequest("req", imp, imp.Device)
	}
	require.NoError(r.Close())

	// Reopen and verify everything buffered before Close landed
	r2, err := Open(path, log.NoOp())
	require.NoError(err)
	defer r2.Close()

	s, err := r2.Summary()
	require.NoError(err)
	require.Equal(int64(20), s.TotalRequests)
}

func TestRecorderNeverBlocks(t *testing.T) {
	r := openTestRecorder(t)
	defer r.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Far more events than the buffer holds; extras are dropped, the
		// caller never stalls
		for i := 0; i < eventBuffer*10; i++ {
			r.RecordResponse("req", "REJECTED", decimal.Zero, 0)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder blocked the caller")
	}
}
