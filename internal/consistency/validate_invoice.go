package consistency

import (
	"strings"

	"muabook/pkg/models"
)

// ValidateInvoice checks an invoice's required fields, its arithmetic and its client link.
func ValidateInvoice(inv models.Invoice, snap *models.Snapshot) Result {
	res := newResult()

	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		res.errorf("Invoice number is required")
	}
	if strings.TrimSpace(inv.Client) == "" {
		res.errorf("Client name is required")
	}
	if strings.TrimSpace(inv.Date) == "" {
		res.errorf("Invoice date is required")
	}
	if len(inv.Items) == 0 {
		res.errorf("Invoice has no items")
	}

	items := itemsTotal(inv.Items)
	expected := items.Add(inv.Tax.Decimal()).Sub(inv.Discount.Decimal())
	if !withinTolerance(inv.GrandTotal.Decimal(), expected) {
		res.errorf("Grand total %s does not match items + tax - discount = %s",
			fmtAmount(inv.GrandTotal), fmtMoney(expected))
	}
	if len(inv.Items) > 0 && !withinTolerance(inv.Subtotal.Decimal(), items) {
		res.warnf("Subtotal %s differs from item sum %s", fmtAmount(inv.Subtotal), fmtMoney(items))
	}

	if inv.ClientID != nil {
		ci := findClientByID(snap, *inv.ClientID)
		switch {
		case ci < 0:
			res.warnf("Linked client #%d does not exist", *inv.ClientID)
		case !sameName(snap.Clients[ci].Name, inv.Client):
			res.warnf("Linked client name %q differs from invoice client %q", snap.Clients[ci].Name, inv.Client)
		}
	} else {
		res.warnf("Invoice is not linked to a client record")
	}

	return res.done()
}
