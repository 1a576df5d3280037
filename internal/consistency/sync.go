package consistency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"muabook/pkg/models"
)

// SyncOutcome is a synchronization result together with the records it touched.
type SyncOutcome struct {
	Result  SyncResult
	Changes ChangeSet
}

// SyncClientPaymentsToInvoices makes sure every paid entry in the client's
// history points at an invoice, linking a matching one or creating a paid
// invoice that mirrors the entry. References to missing invoices are repaired
// the same way.
func SyncClientPaymentsToInvoices(snap *models.Snapshot, clientID int64, opts PassOptions) (SyncOutcome, error) {
	const op = "SyncClientPaymentsToInvoices"

	now, log := opts.resolve("sync")
	ci := findClientByID(snap, clientID)
	if ci < 0 {
		return SyncOutcome{}, fmt.Errorf("%s: client %d: %w", op, clientID, ErrUnknownClient)
	}

	ps := newPass(snap, now, log)
	r := ps.repairClientPayments(ci, true)
	return SyncOutcome{
		Result: SyncResult{
			Success:  true,
			Fixed:    r.Total(),
			Errors:   []string{},
			Warnings: []string{},
			Message:  fmt.Sprintf("Synced payments of %s: %d linked, %d invoices created", clientLabel(snap.Clients[ci]), r.Linked, r.Created),
		},
		Changes: ps.changes,
	}, nil
}

// SyncProjectWithClient links a project to its client, reconciles the project
// budget with the client total and recomputes the paid amount from payroll.
func SyncProjectWithClient(snap *models.Snapshot, projectID int64, opts PassOptions) (SyncOutcome, error) {
	const op = "SyncProjectWithClient"

	now, log := opts.resolve("sync")
	pi := findProjectByID(snap, projectID)
	if pi < 0 {
		return SyncOutcome{}, fmt.Errorf("%s: project %d: %w", op, projectID, ErrUnknownProject)
	}

	ps := newPass(snap, now, log)
	res := SyncResult{Success: true, Errors: []string{}, Warnings: []string{}}
	fixed, linked := ps.syncProject(pi, &res.Warnings)
	if !linked {
		res.Warnings = append(res.Warnings, unlinkedProject(snap.Projects[pi]))
	}
	res.Fixed = fixed
	res.Message = fmt.Sprintf("Synced project %q: %d fixes applied", snap.Projects[pi].Title, fixed)
	return SyncOutcome{Result: res, Changes: ps.changes}, nil
}

// SyncAll is the glue pass run after a fix. Clients with an inconsistent
// status are corrected and reported as errors, every payment is linked to an
// invoice, and every project is synchronized with its client. Projects left
// without a client are reported as warnings.
func SyncAll(snap *models.Snapshot, opts PassOptions) SyncOutcome {
	now, log := opts.resolve("sync")
	ps := newPass(snap, now, log)
	res := SyncResult{Success: true, Errors: []string{}, Warnings: []string{}}

	for ci := range snap.Clients {
		c := &snap.Clients[ci]
		if errs := CheckPaymentConsistency(*c); len(errs) > 0 {
			for _, msg := range errs {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", clientLabel(*c), msg))
				log.Error().Int64("client_id", c.ID).Msg(msg)
			}
			if ps.setStatus(c, ReconciledStatus(*c)) {
				res.Fixed++
			}
		}
		res.Fixed += ps.repairClientPayments(ci, true).Total()
	}

	for pi := range snap.Projects {
		fixed, linked := ps.syncProject(pi, &res.Warnings)
		res.Fixed += fixed
		if !linked {
			res.Warnings = append(res.Warnings, unlinkedProject(snap.Projects[pi]))
		}
	}

	res.Message = fmt.Sprintf("Sync completed: %d fixes applied, %d errors, %d warnings",
		res.Fixed, len(res.Errors), len(res.Warnings))
	log.Info().
		Int("fixed", res.Fixed).
		Int("errors", len(res.Errors)).
		Int("warnings", len(res.Warnings)).
		Msg("Sync completed")
	return SyncOutcome{Result: res, Changes: ps.changes}
}

func unlinkedProject(p models.Project) string {
	return fmt.Sprintf("Project %q (#%d) is not linked to a client", p.Title, p.ID)
}

// syncProject returns the number of fixes and whether the project ended up
// linked to a client.
func (ps *pass) syncProject(pi int, warnings *[]string) (int, bool) {
	p := &ps.snap.Projects[pi]

	ci := -1
	if p.ClientID != nil {
		ci = findClientByID(ps.snap, *p.ClientID)
	}
	if ci < 0 {
		ci = findClientByName(ps.snap, p.Client)
	}
	if ci < 0 {
		return 0, false
	}
	c := &ps.snap.Clients[ci]

	fixed := 0
	if p.ClientID == nil || *p.ClientID != c.ID {
		p.ClientID = int64Ptr(c.ID)
		ps.changes.touchProject(p.ID)
		fixed++
	}
	if strings.TrimSpace(p.Client) == "" {
		p.Client = c.Name
		ps.changes.touchProject(p.ID)
		fixed++
	}

	budget := p.Budget.Decimal()
	total := c.TotalAmount.Decimal()
	switch {
	case !total.IsPositive() && budget.IsPositive():
		if ps.backfillTotal(c, p) {
			fixed++
		}
	case !budget.IsPositive() && total.IsPositive():
		p.Budget = c.TotalAmount
		ps.changes.touchProject(p.ID)
		fixed++
		ps.log.Info().
			Int64("project_id", p.ID).
			Float64("budget", p.Budget.Float64()).
			Msg("Backfilled project budget from client total")
	case budget.IsPositive() && !withinTolerance(budget, total):
		*warnings = append(*warnings, fmt.Sprintf("Project %q budget %s differs from %s total %s",
			p.Title, fmtMoney(budget), clientLabel(*c), fmtMoney(total)))
	}

	if paid, ok := payrollPaid(ps.snap, p.ID); ok && !withinTolerance(paid, p.Paid.Decimal()) {
		ps.log.Info().
			Int64("project_id", p.ID).
			Float64("from", p.Paid.Float64()).
			Str("to", fmtMoney(paid)).
			Msg("Recomputed project paid amount")
		p.Paid = models.MoneyFromDecimal(paid)
		ps.changes.touchProject(p.ID)
		fixed++
	}
	return fixed, true
}

// payrollPaid sums the settled payroll payments tagged with the project. The
// flag is false when there are none.
func payrollPaid(snap *models.Snapshot, projectID int64) (decimal.Decimal, bool) {
	total := decimal.Zero
	found := false
	for _, pay := range snap.Payments {
		if pay.ProjectID != projectID || pay.Status != models.PaymentPaid {
			continue
		}
		total = total.Add(pay.Amount.Decimal())
		found = true
	}
	return total, found
}
