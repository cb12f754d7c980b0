package services

import (
	"errors"
	"fmt"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

// MaxAddonUnits caps the summed add-on quantity per order.
const MaxAddonUnits = 6

var (
	// ErrAddonUnavailable rejects increments of out-of-stock or low-stock add-ons.
	ErrAddonUnavailable = errors.New("addons: add-on unavailable")
	// ErrAddonCapReached rejects increments past the global per-order cap.
	ErrAddonCapReached = errors.New("addons: per-order cap reached")
	// ErrAddonStockExceeded rejects increments past the machine's remaining stock.
	ErrAddonStockExceeded = errors.New("addons: remaining stock exceeded")
)

// AddonLedger tracks add-on quantities for the in-progress order. Rejected
// updates leave the ledger unchanged. Not safe for concurrent use; the
// owning session serialises access.
type AddonLedger struct {
	lines []domain.AddonLine
}

// NewAddonLedger returns an empty ledger.
func NewAddonLedger() *AddonLedger {
	return &AddonLedger{}
}

// Increment raises the add-on's quantity by one, creating the entry on
// first touch.
func (l *AddonLedger) Increment(opt domain.AddonOption) error {
	if opt.ID == "" {
		return fmt.Errorf("%w: add-on id is required", ErrRecipeInvalidInput)
	}
	if !opt.Available || opt.LowStock {
		return fmt.Errorf("%w: %s", ErrAddonUnavailable, opt.ID)
	}
	if l.TotalQuantity() >= MaxAddonUnits {
		return fmt.Errorf("%w: limit %d", ErrAddonCapReached, MaxAddonUnits)
	}

	idx := l.indexOf(opt.ID)
	current := 0
	if idx >= 0 {
		current = l.lines[idx].Quantity
	}
	// Zero remaining stock means not addable, not uncapped.
	if current+1 > opt.QtyAvailable {
		return fmt.Errorf("%w: %s has %d left", ErrAddonStockExceeded, opt.ID, opt.QtyAvailable)
	}

	if idx >= 0 {
		l.lines[idx].Quantity = current + 1
		return nil
	}
	l.lines = append(l.lines, domain.AddonLine{Option: opt, Quantity: 1})
	return nil
}

// Decrement lowers the add-on's quantity by one, dropping the entry at
// zero. Absent add-ons are a no-op.
func (l *AddonLedger) Decrement(id string) {
	idx := l.indexOf(id)
	if idx < 0 {
		return
	}
	if l.lines[idx].Quantity <= 1 {
		l.lines = append(l.lines[:idx], l.lines[idx+1:]...)
		return
	}
	l.lines[idx].Quantity--
}

// Quantity reports the selected quantity for one add-on.
func (l *AddonLedger) Quantity(id string) int {
	if idx := l.indexOf(id); idx >= 0 {
		return l.lines[idx].Quantity
	}
	return 0
}

// TotalQuantity sums quantities across all add-ons.
func (l *AddonLedger) TotalQuantity() int {
	total := 0
	for _, line := range l.lines {
		total += line.Quantity
	}
	return total
}

// Totals derives the ledger's price and calorie contribution.
func (l *AddonLedger) Totals() (price, calories float64) {
	for _, line := range l.lines {
		price += line.Option.PricePerUnit * float64(line.Quantity)
		calories += line.Option.CaloriesPerUnit * float64(line.Quantity)
	}
	return price, calories
}

// Lines returns a copy of the ledger entries in insertion order.
func (l *AddonLedger) Lines() []domain.AddonLine {
	out := make([]domain.AddonLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Clear empties the ledger.
func (l *AddonLedger) Clear() {
	l.lines = nil
}

func (l *AddonLedger) indexOf(id string) int {
	for i, line := range l.lines {
		if line.Option.ID == id {
			return i
		}
	}
	return -1
}
