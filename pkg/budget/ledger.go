// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package budget

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger tracks a strategy's spend against its daily cap. All decisions for
// one engine instance serialize through the ledger mutex: the cap check and
// the debit happen inside a single critical section so concurrent requests
// cannot jointly overspend. Spend and bid count reset once per calendar day.
type Ledger struct {
	mu           sync.Mutex
	cap          decimal.Decimal
	spent        decimal.Decimal
	bids         int64
	lastResetDay int

	nowFn func() time.Time
}

// Snapshot is a point-in-time view of the ledger for the stats surface.
type Snapshot struct {
	Spent     decimal.Decimal
	Bids      int64
	Remaining decimal.Decimal
}

// NewLedger creates a ledger with the given daily cap.
func NewLedger(dailyCap decimal.Decimal) *Ledger {
	return &Ledger{
		cap:          dailyCap,
		spent:        decimal.Zero,
		lastResetDay: time.Now().YearDay(),
		nowFn:        time.Now,
	}
}

// SetClock overrides the ledger's clock. Test hook.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nowFn = now
}

// Admit reports whether the day's spend is still below the cap. It does not
// reserve anything; TryDebit re-checks before committing.
func (l *Ledger) Admit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked()
	return l.spent.LessThan(l.cap)
}

// TryDebit commits amount against the cap. Returns false, leaving the ledger
// untouched, when the debit would push spend past the cap.
func (l *Ledger) TryDebit(amount decimal.Decimal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked()
	if l.spent.Add(amount).GreaterThan(l.cap) {
		return false
	}

	l.spent = l.spent.Add(amount)
	l.bids++
	return true
}

// Reset zeroes spend and bid count outside the day-rollover path.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.spent = decimal.Zero
	l.bids = 0
}

// Stats returns the current spend, bid count and remaining budget.
func (l *Ledger) Stats() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked()
	remaining := l.cap.Sub(l.spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return Snapshot{
		Spent:     l.spent,
		Bids:      l.bids,
		Remaining: remaining,
	}
}

// rolloverLocked resets the counters on the first touch of a new calendar
// day. Caller must hold l.mu.
func (l *Ledger) rolloverLocked() {
	day := l.nowFn().YearDay()
	if day != l.lastResetDay {
		l.spent = decimal.Zero
		l.bids = 0
		l.lastResetDay = day
	}
}
