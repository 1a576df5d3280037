package models

// Project is a job for a client, staffed by assistants from the team.
type Project struct {
	ID         int64       `json:"id"`
	Title      string      `json:"title"`
	Client     string      `json:"client"`
	ClientID   *int64      `json:"clientId,omitempty"`
	Date       string      `json:"date"`
	Budget     Money       `json:"budget"`
	Paid       Money       `json:"paid"`
	Status     string      `json:"status,omitempty"`
	Assistants []Assistant `json:"assistants"`
	Team       []string    `json:"team"`
}

// Assistant is a team member assigned to a project.
type Assistant struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role,omitempty"`
	PaymentAmount Money  `json:"paymentAmount"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

// TeamMember is an assistant or artist on the studio roster.
type TeamMember struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Phone string `json:"phone,omitempty"`
	Rate  Money  `json:"rate,omitempty"`
}

// Payment is outgoing payroll to an assistant for a project.
type Payment struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"projectId"`
	AssistantID int64  `json:"assistantId"`
	Amount      Money  `json:"amount"`
	Status      string `json:"status"`
	Type        string `json:"type,omitempty"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// Payroll statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)
