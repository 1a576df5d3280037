package consistency

import (
	"fmt"

	"muabook/pkg/models"
)

// FixOutcome is the result of AutoFix together with the records it touched.
type FixOutcome struct {
	Result  FixResult
	Orphans OrphanRepair
	Changes ChangeSet
}

// AutoFix repairs snap in place. It is best effort and idempotent: a second
// run over its own output reports zero fixes.
//
// Steps run in order: orphaned payments get invoices, inconsistent client
// statuses are recomputed, projects are linked to clients by name, and
// invoices are linked to clients by name. A failing orphan repair is logged
// and counted as zero fixes; later steps still run.
func AutoFix(snap *models.Snapshot, opts PassOptions) FixOutcome {
	now, log := opts.resolve("autofix")
	ps := newPass(snap, now, log)

	orphans, err := safeRepair(ps, func() OrphanRepair { return ps.repairOrphans(false) })
	if err != nil {
		log.Error().Err(err).Msg("Orphan payment repair failed")
	}
	fixed := orphans.Total()

	fixed += ps.fixClientStatuses()
	fixed += ps.linkProjects()
	fixed += ps.linkInvoices()

	log.Info().
		Int("fixed", fixed).
		Int("invoices_created", orphans.Created).
		Int("payments_linked", orphans.Linked).
		Msg("Auto-fix completed")

	return FixOutcome{
		Result: FixResult{
			Success:         true,
			FixedCount:      fixed,
			InvoicesCreated: orphans.Created,
			Message:         fmt.Sprintf("Auto-fix completed: %d fixes applied (%d invoices created)", fixed, orphans.Created),
		},
		Orphans: orphans,
		Changes: ps.changes,
	}
}

// safeRepair runs fn against a checkpoint of the pass. A panic restores the
// checkpoint and is returned as an error.
func safeRepair(ps *pass, fn func() OrphanRepair) (out OrphanRepair, err error) {
	checkpoint := cloneSnapshot(ps.snap)
	changes := ps.changes.clone()
	next := ps.ids.next

	defer func() {
		if r := recover(); r != nil {
			*ps.snap = checkpoint
			ps.changes = changes
			ps.ids.next = next
			out = OrphanRepair{}
			err = fmt.Errorf("orphan repair: %v", r)
		}
	}()
	return fn(), nil
}

// fixClientStatuses stores the derived status on every client that fails
// validation. Only real changes count.
func (ps *pass) fixClientStatuses() int {
	fixed := 0
	for i := range ps.snap.Clients {
		c := &ps.snap.Clients[i]
		if ValidateClient(*c, ps.snap).IsValid {
			continue
		}
		if ps.setStatus(c, ReconciledStatus(*c)) {
			fixed++
		}
	}
	return fixed
}

func (ps *pass) setStatus(c *models.Client, status models.PaymentStatus) bool {
	if c.PaymentStatus == status {
		return false
	}
	ps.log.Info().
		Int64("client_id", c.ID).
		Str("from", string(c.PaymentStatus)).
		Str("to", string(status)).
		Msg("Updated payment status")
	c.PaymentStatus = status
	ps.changes.touchClient(c.ID)
	return true
}

// linkProjects backfills clientId on projects whose client is found by name,
// and the client's total amount from the project budget when it has none.
func (ps *pass) linkProjects() int {
	fixed := 0
	for i := range ps.snap.Projects {
		p := &ps.snap.Projects[i]
		ci := findClientByName(ps.snap, p.Client)
		if ci < 0 {
			continue
		}
		c := &ps.snap.Clients[ci]

		if p.ClientID == nil {
			p.ClientID = int64Ptr(c.ID)
			ps.changes.touchProject(p.ID)
			fixed++
			ps.log.Info().Int64("project_id", p.ID).Int64("client_id", c.ID).Msg("Linked project to client")
		}
		if ps.backfillTotal(c, p) {
			fixed++
		}
	}
	return fixed
}

// backfillTotal copies a project budget onto a client without a total and
// re-derives the client's status against the new total.
func (ps *pass) backfillTotal(c *models.Client, p *models.Project) bool {
	if c.TotalAmount.Decimal().IsPositive() || !p.Budget.Decimal().IsPositive() {
		return false
	}
	c.TotalAmount = p.Budget
	ps.changes.touchClient(c.ID)
	ps.log.Info().
		Int64("client_id", c.ID).
		Int64("project_id", p.ID).
		Float64("total_amount", p.Budget.Float64()).
		Msg("Backfilled client total from project budget")
	ps.setStatus(c, ReconciledStatus(*c))
	return true
}

// linkInvoices backfills clientId on invoices whose client is found by name.
func (ps *pass) linkInvoices() int {
	fixed := 0
	for i := range ps.snap.Invoices {
		inv := &ps.snap.Invoices[i]
		if inv.ClientID != nil {
			continue
		}
		ci := findClientByName(ps.snap, inv.Client)
		if ci < 0 {
			continue
		}
		inv.ClientID = int64Ptr(ps.snap.Clients[ci].ID)
		ps.changes.touchInvoice(inv.ID)
		fixed++
		ps.log.Info().
			Int64("invoice_id", inv.ID).
			Int64("client_id", *inv.ClientID).
			Msg("Linked invoice to client")
	}
	return fixed
}
