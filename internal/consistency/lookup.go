package consistency

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"muabook/pkg/models"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sameDay compares two stored dates by calendar day, falling back to the raw
// strings when either does not parse.
func sameDay(a, b string) bool {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	if okA && okB {
		return ta.Equal(tb)
	}
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && a == b
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sameName(a, b string) bool {
	na := normalizeName(a)
	return na != "" && na == normalizeName(b)
}

func findClientByName(snap *models.Snapshot, name string) int {
	for i := range snap.Clients {
		if sameName(snap.Clients[i].Name, name) {
			return i
		}
	}
	return -1
}

func findClientByID(snap *models.Snapshot, id int64) int {
	for i := range snap.Clients {
		if snap.Clients[i].ID == id {
			return i
		}
	}
	return -1
}

func findProjectByID(snap *models.Snapshot, id int64) int {
	for i := range snap.Projects {
		if snap.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

func findInvoiceByID(snap *models.Snapshot, id int64) int {
	for i := range snap.Invoices {
		if snap.Invoices[i].ID == id {
			return i
		}
	}
	return -1
}

func findInvoiceByNumber(snap *models.Snapshot, number string) int {
	number = strings.TrimSpace(number)
	if number == "" {
		return -1
	}
	for i := range snap.Invoices {
		if strings.TrimSpace(snap.Invoices[i].InvoiceNumber) == number {
			return i
		}
	}
	return -1
}

// linkedInvoice resolves the invoice an entry points at, by id first.
func linkedInvoice(snap *models.Snapshot, e models.PaymentEntry) int {
	if e.InvoiceID != nil {
		if i := findInvoiceByID(snap, *e.InvoiceID); i >= 0 {
			return i
		}
	}
	return findInvoiceByNumber(snap, e.InvoiceNumber)
}

func teamMemberExists(snap *models.Snapshot, id int64) bool {
	for _, m := range snap.Team {
		if m.ID == id {
			return true
		}
	}
	return false
}

func invoiceBelongsTo(inv models.Invoice, c models.Client) bool {
	if inv.ClientID != nil {
		return *inv.ClientID == c.ID
	}
	return sameName(inv.Client, c.Name)
}

func amountsEqual(a, b models.Money) bool {
	return withinTolerance(a.Decimal(), b.Decimal())
}

// itemsTotal is Σ amount × quantity; a missing quantity counts as one.
func itemsTotal(items []models.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		qty := it.Quantity.Decimal()
		if !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}
		total = total.Add(it.Amount.Decimal().Mul(qty))
	}
	return total
}

func int64Ptr(v int64) *int64 { return &v }
