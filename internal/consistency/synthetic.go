package consistency

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"muabook/pkg/models"
)

// pass carries the mutable state of one repair or synchronization pass over a snapshot.
type pass struct {
	snap    *models.Snapshot
	now     time.Time
	ids     *idAllocator
	changes ChangeSet
	log     zerolog.Logger
}

func newPass(snap *models.Snapshot, now time.Time, log zerolog.Logger) *pass {
	return &pass{
		snap: snap,
		now:  now,
		ids:  newIDAllocator(snap.Invoices),
		log:  log,
	}
}

// OrphanRepair counts what the orphan scan did.
type OrphanRepair struct {
	// Linked entries were attached to an existing invoice with the same date and amount.
	Linked int `json:"linked"`
	// Created entries got a synthetic invoice.
	Created int `json:"created"`
}

// Total is the number of repaired payment entries.
func (r OrphanRepair) Total() int { return r.Linked + r.Created }

// repairOrphans links or synthesizes an invoice for every positive payment
// entry that carries no invoice reference. With includeDangling, entries whose
// reference points at a missing invoice are repaired too.
func (ps *pass) repairOrphans(includeDangling bool) OrphanRepair {
	var out OrphanRepair
	for ci := range ps.snap.Clients {
		r := ps.repairClientPayments(ci, includeDangling)
		out.Linked += r.Linked
		out.Created += r.Created
	}
	return out
}

func (ps *pass) repairClientPayments(ci int, includeDangling bool) OrphanRepair {
	var out OrphanRepair
	c := &ps.snap.Clients[ci]

	for _, link := range classifyPayments(ps.snap, *c) {
		entry := &c.PaymentHistory[link.entry]
		switch link.kind {
		case linkMatchable:
			inv := ps.snap.Invoices[link.invoice]
			attachInvoice(entry, inv)
			ps.changes.touchClient(c.ID)
			out.Linked++
			ps.log.Info().
				Int64("client_id", c.ID).
				Int("entry", link.entry).
				Str("invoice_number", inv.InvoiceNumber).
				Msg("Linked payment to existing invoice")
		case linkOrphan, linkDangling:
			if link.kind == linkDangling && !includeDangling {
				continue
			}
			inv := ps.synthesizeInvoice(*c, *entry)
			ps.snap.Invoices = append(ps.snap.Invoices, inv)
			ps.changes.created(inv.ID)
			attachInvoice(entry, inv)
			ps.changes.touchClient(c.ID)
			out.Created++
			ps.log.Info().
				Int64("client_id", c.ID).
				Int("entry", link.entry).
				Int64("invoice_id", inv.ID).
				Str("invoice_number", inv.InvoiceNumber).
				Float64("amount", entry.Amount.Float64()).
				Msg("Created synthetic invoice for payment")
		}
	}
	return out
}

// synthesizeInvoice builds a paid invoice mirroring a payment entry.
func (ps *pass) synthesizeInvoice(c models.Client, e models.PaymentEntry) models.Invoice {
	id := ps.ids.allocate()

	date := strings.TrimSpace(e.Date)
	if date == "" {
		date = ps.now.Format("2006-01-02")
	}
	description := strings.TrimSpace(e.Description)
	if description == "" {
		description = "Payment received"
	}
	serviceType := ""
	if len(c.Events) > 0 {
		serviceType = c.Events[0].ServiceType
	}

	return models.Invoice{
		ID:            id,
		InvoiceNumber: synthesizeNumber(ps.now, c.ID, id),
		Client:        c.Name,
		ClientID:      int64Ptr(c.ID),
		Date:          date,
		DueDate:       date,
		PaidDate:      e.Date,
		Items: []models.InvoiceItem{{
			Description: description,
			Quantity:    1,
			Amount:      e.Amount,
			ServiceType: serviceType,
		}},
		Subtotal:      e.Amount,
		GrandTotal:    e.Amount,
		Status:        models.InvoicePaid,
		PaymentMethod: e.Method,
		Notes:         "Generated from payment history",
		Source:        models.SourceReconciliation,
	}
}

// synthesizeNumber derives an invoice number from the pass date, the client
// and the invoice id; the id keeps it unique.
func synthesizeNumber(now time.Time, clientID, invoiceID int64) string {
	return fmt.Sprintf("INV-%s-%d-%d", now.Format("20060102"), clientID, invoiceID)
}

func attachInvoice(e *models.PaymentEntry, inv models.Invoice) {
	e.InvoiceID = int64Ptr(inv.ID)
	e.InvoiceNumber = inv.InvoiceNumber
}
