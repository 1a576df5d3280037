package consistency

import (
	"time"

	"github.com/shopspring/decimal"
	"muabook/pkg/models"
)

// tolerance is the largest difference between two amounts still treated as equal.
var tolerance = decimal.New(1, -2)

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// TotalPaid sums the client's payment history.
func TotalPaid(c models.Client) decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.PaymentHistory {
		total = total.Add(p.Amount.Decimal())
	}
	return total
}

// RemainingAmount is what the client still owes, never negative.
func RemainingAmount(c models.Client) decimal.Decimal {
	remaining := c.TotalAmount.Decimal().Sub(TotalPaid(c))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ExpectedStatus derives the payment status from amounts alone.
//
// A client without a total amount is paid once anything was paid and pending
// otherwise. It never returns overdue; lateness is tracked by IsLate.
func ExpectedStatus(c models.Client) models.PaymentStatus {
	paid := TotalPaid(c)
	total := c.TotalAmount.Decimal()

	if !total.IsPositive() {
		if paid.IsPositive() {
			return models.StatusPaid
		}
		return models.StatusPending
	}
	switch {
	case paid.GreaterThanOrEqual(total):
		return models.StatusPaid
	case paid.IsPositive():
		return models.StatusPartial
	default:
		return models.StatusPending
	}
}

// StatusConsistent reports whether a cached status agrees with the derived one.
// Overdue is pending plus lateness, so it agrees with an expected pending.
func StatusConsistent(cached, expected models.PaymentStatus) bool {
	if cached == expected {
		return true
	}
	return cached == models.StatusOverdue && expected == models.StatusPending
}

// ReconciledStatus is the status a repair pass should store: the cached one
// when it is consistent, the derived one otherwise.
func ReconciledStatus(c models.Client) models.PaymentStatus {
	expected := ExpectedStatus(c)
	if StatusConsistent(c.PaymentStatus, expected) {
		return c.PaymentStatus
	}
	return expected
}

// IsLate reports whether any unpaid invoice of the client was due before now.
func IsLate(c models.Client, invoices []models.Invoice, now time.Time) bool {
	_, late := firstLateInvoice(c, invoices, now)
	return late
}

func firstLateInvoice(c models.Client, invoices []models.Invoice, now time.Time) (models.Invoice, bool) {
	today := truncateDay(now)
	for _, inv := range invoices {
		if inv.IsPaid() || !invoiceBelongsTo(inv, c) {
			continue
		}
		due, ok := parseDate(inv.DueDate)
		if !ok {
			continue
		}
		if due.Before(today) {
			return inv, true
		}
	}
	return models.Invoice{}, false
}
