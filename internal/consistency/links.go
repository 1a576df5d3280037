package consistency

import "muabook/pkg/models"

type linkKind int

const (
	// linkIgnored entries carry no positive amount and need no invoice.
	linkIgnored linkKind = iota
	// linkOK entries reference an invoice that exists.
	linkOK
	// linkDangling entries reference an invoice id or number that does not exist.
	linkDangling
	// linkMatchable entries carry no reference but an unclaimed invoice of the
	// client matches their date and amount.
	linkMatchable
	// linkOrphan entries carry no reference and nothing matches.
	linkOrphan
)

type paymentLink struct {
	entry   int
	kind    linkKind
	invoice int // index into snap.Invoices for linkOK and linkMatchable
}

// claimedInvoices returns the ids of invoices some payment entry already
// points at. The stored copy of c is replaced by c itself.
func claimedInvoices(snap *models.Snapshot, c models.Client) map[int64]bool {
	claimed := make(map[int64]bool)
	claim := func(history []models.PaymentEntry) {
		for _, e := range history {
			if !e.Linked() {
				continue
			}
			if i := linkedInvoice(snap, e); i >= 0 {
				claimed[snap.Invoices[i].ID] = true
			}
		}
	}
	for _, other := range snap.Clients {
		if other.ID != c.ID {
			claim(other.PaymentHistory)
		}
	}
	claim(c.PaymentHistory)
	return claimed
}

// classifyPayments sorts the payment history of c by invoice linkage. Each
// unclaimed invoice matches at most one entry.
func classifyPayments(snap *models.Snapshot, c models.Client) []paymentLink {
	claimed := claimedInvoices(snap, c)
	links := make([]paymentLink, 0, len(c.PaymentHistory))

	for ei, e := range c.PaymentHistory {
		link := paymentLink{entry: ei, kind: linkIgnored, invoice: -1}
		switch {
		case !e.Amount.Decimal().IsPositive():
		case e.Linked():
			if i := linkedInvoice(snap, e); i >= 0 {
				link.kind, link.invoice = linkOK, i
			} else {
				link.kind = linkDangling
			}
		default:
			if i := matchPaymentInvoice(snap, c, e, claimed); i >= 0 {
				link.kind, link.invoice = linkMatchable, i
				claimed[snap.Invoices[i].ID] = true
			} else {
				link.kind = linkOrphan
			}
		}
		links = append(links, link)
	}
	return links
}

// matchPaymentInvoice finds an unclaimed invoice of c settled on the entry's
// date for the entry's amount.
func matchPaymentInvoice(snap *models.Snapshot, c models.Client, e models.PaymentEntry, claimed map[int64]bool) int {
	for i, inv := range snap.Invoices {
		if claimed[inv.ID] || !invoiceBelongsTo(inv, c) {
			continue
		}
		if !amountsEqual(inv.GrandTotal, e.Amount) {
			continue
		}
		settled := inv.PaidDate
		if settled == "" {
			settled = inv.Date
		}
		if sameDay(settled, e.Date) {
			return i
		}
	}
	return -1
}
