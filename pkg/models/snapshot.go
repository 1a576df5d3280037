package models

// Snapshot is a full copy of every collection at one point in time.
type Snapshot struct {
	Clients  []Client     `json:"clients"`
	Projects []Project    `json:"projects"`
	Invoices []Invoice    `json:"invoices"`
	Payments []Payment    `json:"payments"`
	Team     []TeamMember `json:"team"`
}
