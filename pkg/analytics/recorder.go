// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package analytics

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/adxyz/bidder/pkg/exchange"
	"github.com/adxyz/bidder/pkg/log"
)

const eventBuffer = 1024

// Recorder persists bid traffic to SQLite off the decision path. Events go
// through a buffered channel drained by a single writer goroutine; when the
// buffer is full events are dropped rather than blocking a bid decision.
type Recorder struct {
	db        *sql.DB
	events    chan event
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
	log       log.Logger
}

type eventKind int

const (
	kindRequest eventKind = iota
	kindResponse
)

type event struct {
	kind eventKind
	at   time.Time

	requestID  string
	country    string
	deviceType string
	os         string
	bidfloor   float64

	status       string
	price        float64
	predictedCTR float64
}

// Open opens (creating if needed) the SQLite database at path and starts the
// writer goroutine.
func Open(path string, logger log.Logger) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	r := &Recorder{
		db:     db,
		events: make(chan event, eventBuffer),
		done:   make(chan struct{}),
		log:    logger,
	}
	go r.run()
	return r, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS bid_requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	country TEXT,
	device_type TEXT,
	os TEXT,
	bidfloor REAL,
	received_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS bid_responses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	bid_price REAL,
	response_status TEXT,
	predicted_ctr REAL,
	responded_at TIMESTAMP
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init analytics schema: %w", err)
	}
	return nil
}

// RecordRequest enqueues a request event. Never blocks.
func (r *Recorder) RecordRequest(requestID string, imp *exchange.Imp, dev *exchange.Device) {
	e := event{
		kind:       kindRequest,
		at:         time.Now().UTC(),
		requestID:  requestID,
		country:    dev.Country(),
		deviceType: dev.NormalizedType(),
		bidfloor:   imp.BidFloor,
	}
	if dev != nil {
		e.os = dev.OS
	}
	r.enqueue(e)
}

// RecordResponse enqueues a response event. Never blocks.
func (r *Recorder) RecordResponse(requestID string, status string, price decimal.Decimal, predictedCTR float64) {
	p, _ := price.Float64()
	r.enqueue(event{
		kind:         kindResponse,
		at:           time.Now().UTC(),
		requestID:    requestID,
		status:       status,
		price:        p,
		predictedCTR: predictedCTR,
	})
}

func (r *Recorder) enqueue(e event) {
	select {
	case r.events <- e:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.events {
		var err error
		switch e.kind {
		case kindRequest:
			_, err = r.db.Exec(
				`INSERT INTO bid_requests (request_id, country, device_type, os, bidfloor, received_at) VALUES (?, ?, ?, ?, ?, ?)`,
				e.requestID, e.country, e.deviceType, e.os, e.bidfloor, e.at)
		case kindResponse:
			_, err = r.db.Exec(
				`INSERT INTO bid_responses (request_id, bid_price, response_status, predicted_ctr, responded_at) VALUES (?, ?, ?, ?, ?)`,
				e.requestID, e.price, e.status, e.predictedCTR, e.at)
		}
		if err != nil {
			r.log.Error("analytics write failed", "error", err)
		}
	}
}

// Summary aggregates recorded traffic.
type Summary struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalBids       int64   `json:"total_bids"`
	BidRate         float64 `json:"bid_rate_percent"`
	TotalSpent      float64 `json:"total_spent"`
	AvgBidPrice     float64 `json:"avg_bid_price"`
	AvgPredictedCTR float64 `json:"avg_predicted_ctr"`
	DroppedEvents   uint64  `json:"dropped_events"`
}

// Summary runs the aggregate queries over everything recorded so far.
func (r *Recorder) Summary() (Summary, error) {
	var s Summary

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM bid_requests`).Scan(&s.TotalRequests); err != nil {
		return s, err
	}

	row := r.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(bid_price), 0), COALESCE(AVG(bid_price), 0), COALESCE(AVG(predicted_ctr), 0)
		 FROM bid_responses WHERE response_status = 'ACCEPTED'`)
	if err := row.Scan(&s.TotalBids, &s.TotalSpent, &s.AvgBidPrice, &s.AvgPredictedCTR); err != nil {
		return s, err
	}

	if s.TotalRequests > 0 {
		s.BidRate = float64(s.TotalBids) / float64(s.TotalRequests) * 100
	}
	s.DroppedEvents = r.dropped.Load()
	return s, nil
}

// Close drains pending events and closes the database.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.events)
	})
	<-r.done
	return r.db.Close()
}
