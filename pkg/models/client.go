package models

// PaymentStatus is the cached payment state of a client or booking.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
	// StatusOverdue is assigned manually or by a lateness check; it refines pending.
	StatusOverdue PaymentStatus = "overdue"
)

// Client is a customer of the studio together with the money it owes and has paid.
type Client struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone,omitempty"`
	Email          string         `json:"email,omitempty"`
	Instagram      string         `json:"instagram,omitempty"`
	Address        string         `json:"address,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	TotalAmount    Money          `json:"totalAmount"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	PaymentHistory []PaymentEntry `json:"paymentHistory"`
	Events         []Booking      `json:"events"`
	CreatedAt      string         `json:"createdAt,omitempty"`
}

// PaymentEntry is one incoming payment recorded on a client.
type PaymentEntry struct {
	Date          string `json:"date"`
	Amount        Money  `json:"amount"`
	Description   string `json:"description,omitempty"`
	Method        string `json:"method,omitempty"`
	InvoiceID     *int64 `json:"invoiceId,omitempty"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
}

// Linked reports whether the entry carries an invoice reference.
func (e PaymentEntry) Linked() bool {
	return e.InvoiceID != nil || e.InvoiceNumber != ""
}

// Booking is a service booked by a client (wedding, graduation, photoshoot...).
type Booking struct {
	EventDate     string        `json:"eventDate"`
	ServiceType   string        `json:"serviceType"`
	Venue         string        `json:"venue,omitempty"`
	TotalAmount   Money         `json:"totalAmount"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
}
