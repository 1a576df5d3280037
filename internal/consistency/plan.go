package consistency

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"muabook/pkg/models"
)

// RepairPlan describes invoices known to be missing for specific clients,
// optionally with a status override. It is applied by ApplyPlan.
type RepairPlan struct {
	Clients []ClientRepair `json:"clients" validate:"dive"`
}

// ClientRepair is the part of a plan for one client.
type ClientRepair struct {
	ClientID      int64                `json:"clientId" validate:"required,gt=0"`
	Invoices      []PlannedInvoice     `json:"invoices" validate:"dive"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,oneof=pending partial paid overdue"`
}

// PlannedInvoice is one invoice to create. When PaidDate is set, the payment
// entry recorded on that date is linked to the invoice.
type PlannedInvoice struct {
	Amount      models.Money `json:"amount" validate:"gt=0"`
	Description string       `json:"description"`
	DueDate     string       `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Status      string       `json:"status,omitempty" validate:"omitempty,oneof=draft sent paid overdue"`
	PaidDate    string       `json:"paidDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PlanResult summarizes ApplyPlan.
type PlanResult struct {
	Success         bool     `json:"success"`
	InvoicesCreated int      `json:"invoicesCreated"`
	PaymentsLinked  int      `json:"paymentsLinked"`
	Skipped         int      `json:"skipped"`
	StatusOverrides int      `json:"statusOverrides"`
	Warnings        []string `json:"warnings"`
	Message         string   `json:"message"`
}

// PlanOutcome is a plan result together with the records it touched.
type PlanOutcome struct {
	Result  PlanResult
	Changes ChangeSet
}

var planValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the plan's field constraints.
func (p RepairPlan) Validate() error {
	const op = "RepairPlan.Validate"

	if err := planValidator.Struct(p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DecodePlan reads a JSON repair plan and validates it.
func DecodePlan(r io.Reader) (RepairPlan, error) {
	const op = "DecodePlan"

	var plan RepairPlan
	if err := json.NewDecoder(r).Decode(&plan); err != nil {
		return RepairPlan{}, fmt.Errorf("%s: failed to decode plan: %w", op, err)
	}
	if err := plan.Validate(); err != nil {
		return RepairPlan{}, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// ApplyPlan creates the planned invoices in snap and links them to the
// payment entries recorded on their paid date. Invoices the client already
// has, by amount and date, are skipped, so a plan can be applied repeatedly.
// Unknown clients are reported as warnings.
func ApplyPlan(snap *models.Snapshot, plan RepairPlan, opts PassOptions) (PlanOutcome, error) {
	const op = "ApplyPlan"

	if err := plan.Validate(); err != nil {
		return PlanOutcome{}, fmt.Errorf("%s: %w", op, err)
	}

	now, log := opts.resolve("plan")
	ps := newPass(snap, now, log)
	res := PlanResult{Success: true, Warnings: []string{}}

	for _, cr := range plan.Clients {
		ci := findClientByID(snap, cr.ClientID)
		if ci < 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Client #%d not found, skipped", cr.ClientID))
			log.Warn().Int64("client_id", cr.ClientID).Msg("Plan targets unknown client")
			continue
		}

		for _, planned := range cr.Invoices {
			inv, created := ps.plannedInvoice(ci, planned)
			if created {
				res.InvoicesCreated++
			} else {
				res.Skipped++
			}
			if planned.PaidDate != "" && ps.linkEntryOn(ci, planned.PaidDate, inv) {
				res.PaymentsLinked++
			}
		}

		if cr.PaymentStatus != "" && ps.setStatus(&snap.Clients[ci], cr.PaymentStatus) {
			res.StatusOverrides++
		}
	}

	res.Message = fmt.Sprintf("Plan applied: %d invoices created, %d skipped, %d payments linked",
		res.InvoicesCreated, res.Skipped, res.PaymentsLinked)
	log.Info().
		Int("created", res.InvoicesCreated).
		Int("skipped", res.Skipped).
		Int("linked", res.PaymentsLinked).
		Msg("Plan applied")
	return PlanOutcome{Result: res, Changes: ps.changes}, nil
}

// plannedInvoice returns the client's existing invoice for the planned one,
// or creates it.
func (ps *pass) plannedInvoice(ci int, planned PlannedInvoice) (models.Invoice, bool) {
	c := ps.snap.Clients[ci]
	if i := findPlannedInvoice(ps.snap, c, planned); i >= 0 {
		return ps.snap.Invoices[i], false
	}

	id := ps.ids.allocate()
	date := planned.PaidDate
	if date == "" {
		date = ps.now.Format("2006-01-02")
	}
	status := planned.Status
	if status == "" {
		status = models.InvoiceSent
		if planned.PaidDate != "" {
			status = models.InvoicePaid
		}
	}
	serviceType := ""
	if len(c.Events) > 0 {
		serviceType = c.Events[0].ServiceType
	}

	inv := models.Invoice{
		ID:            id,
		InvoiceNumber: synthesizeNumber(ps.now, c.ID, id),
		Client:        c.Name,
		ClientID:      int64Ptr(c.ID),
		Date:          date,
		DueDate:       planned.DueDate,
		PaidDate:      planned.PaidDate,
		Items: []models.InvoiceItem{{
			Description: strings.TrimSpace(planned.Description),
			Quantity:    1,
			Amount:      planned.Amount,
			ServiceType: serviceType,
		}},
		Subtotal:   planned.Amount,
		GrandTotal: planned.Amount,
		Status:     status,
		Notes:      "Generated from repair plan",
		Source:     models.SourceReconciliation,
	}
	ps.snap.Invoices = append(ps.snap.Invoices, inv)
	ps.changes.created(inv.ID)
	ps.log.Info().
		Int64("client_id", c.ID).
		Int64("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Msg("Created planned invoice")
	return inv, true
}

func findPlannedInvoice(snap *models.Snapshot, c models.Client, planned PlannedInvoice) int {
	for i, inv := range snap.Invoices {
		if !invoiceBelongsTo(inv, c) || !amountsEqual(inv.GrandTotal, planned.Amount) {
			continue
		}
		if planned.PaidDate != "" && sameDay(inv.PaidDate, planned.PaidDate) {
			return i
		}
		if planned.PaidDate == "" && sameDay(inv.DueDate, planned.DueDate) {
			return i
		}
	}
	return -1
}

// linkEntryOn attaches inv to the first unlinked payment entry of the client
// recorded on date.
func (ps *pass) linkEntryOn(ci int, date string, inv models.Invoice) bool {
	c := &ps.snap.Clients[ci]
	for i := range c.PaymentHistory {
		e := &c.PaymentHistory[i]
		if e.Linked() || !sameDay(e.Date, date) {
			continue
		}
		attachInvoice(e, inv)
		ps.changes.touchClient(c.ID)
		return true
	}
	return false
}
