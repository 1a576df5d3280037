package consistency

import (
	"strings"

	"github.com/shopspring/decimal"
	"muabook/pkg/models"
)

// ValidateClient checks one client against the invoices of the snapshot.
func ValidateClient(c models.Client, snap *models.Snapshot) Result {
	res := newResult()

	if strings.TrimSpace(c.Name) == "" {
		res.errorf("Client name is required")
	}
	if strings.TrimSpace(c.Phone) == "" && strings.TrimSpace(c.Email) == "" {
		res.warnf("No contact information (phone or email)")
	}
	if !c.TotalAmount.Decimal().IsPositive() {
		res.warnf("Total amount is not set")
	}

	// The derivation must agree with a plain sum of the history.
	var recorded float64
	for _, p := range c.PaymentHistory {
		recorded += p.Amount.Float64()
	}
	if derived := TotalPaid(c); !withinTolerance(derived, decimal.NewFromFloat(recorded)) {
		res.errorf("Payment total mismatch: derived %s, recorded %.2f", fmtMoney(derived), recorded)
	}

	for _, link := range classifyPayments(snap, c) {
		e := c.PaymentHistory[link.entry]
		switch link.kind {
		case linkOrphan:
			res.errorf("Payment #%d of %s on %s has no invoice", link.entry+1, fmtAmount(e.Amount), dateOrUnknown(e.Date))
		case linkDangling:
			res.warnf("Payment #%d references missing invoice %s", link.entry+1, entryReference(e))
		}
	}

	res.Errors = append(res.Errors, CheckPaymentConsistency(c)...)

	for i, ev := range c.Events {
		if strings.TrimSpace(ev.EventDate) == "" {
			res.warnf("Event #%d is missing a date", i+1)
		}
		if strings.TrimSpace(ev.ServiceType) == "" {
			res.warnf("Event #%d is missing a service type", i+1)
		}
	}

	return res.done()
}

// CheckPaymentConsistency returns an error message when the cached payment
// status disagrees with the status derived from the payment history.
func CheckPaymentConsistency(c models.Client) []string {
	expected := ExpectedStatus(c)
	if StatusConsistent(c.PaymentStatus, expected) {
		return nil
	}
	return []string{sprintf("Payment status is %q but payments imply %q (paid %s of %s)",
		c.PaymentStatus, expected, fmtMoney(TotalPaid(c)), fmtAmount(c.TotalAmount))}
}

func dateOrUnknown(d string) string {
	if strings.TrimSpace(d) == "" {
		return "unknown date"
	}
	return d
}

func entryReference(e models.PaymentEntry) string {
	if e.InvoiceNumber != "" {
		return e.InvoiceNumber
	}
	if e.InvoiceID != nil {
		return sprintf("#%d", *e.InvoiceID)
	}
	return "?"
}
