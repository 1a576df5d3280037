package models

// Invoice is a bill issued to a client.
type Invoice struct {
	// Core identifiers
	ID            int64  `json:"id"`
	InvoiceNumber string `json:"invoiceNumber"`

	// Party; ClientID may be missing on invoices created before clients were linked.
	Client   string `json:"client"`
	ClientID *int64 `json:"clientId,omitempty"`

	// Dates are stored as the browser wrote them (YYYY-MM-DD or RFC 3339).
	Date     string `json:"date"`
	DueDate  string `json:"dueDate,omitempty"`
	PaidDate string `json:"paidDate,omitempty"`

	Items      []InvoiceItem `json:"items"`
	Subtotal   Money         `json:"subtotal"`
	Tax        Money         `json:"tax"`
	Discount   Money         `json:"discount"`
	GrandTotal Money         `json:"grandTotal"`

	Status        string `json:"status,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	Notes         string `json:"notes,omitempty"`
	// Source is "reconciliation" for invoices synthesized by the repair engine.
	Source string `json:"source,omitempty"`
}

// InvoiceItem is one billed service line.
type InvoiceItem struct {
	Description string `json:"description"`
	Quantity    Money  `json:"quantity"`
	Amount      Money  `json:"amount"`
	ServiceType string `json:"serviceType,omitempty"`
}

// Invoice statuses.
const (
	InvoiceDraft   = "draft"
	InvoiceSent    = "sent"
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"

	SourceReconciliation = "reconciliation"
)

// IsPaid reports whether the invoice has been settled.
func (inv Invoice) IsPaid() bool {
	return inv.Status == InvoicePaid || inv.PaidDate != ""
}
