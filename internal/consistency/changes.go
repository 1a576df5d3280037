package consistency

import (
	"slices"

	"muabook/pkg/models"
)

// ChangeSet records which records a pass modified so they can be written back
// one by one. Created invoices are new records; the others are updates.
type ChangeSet struct {
	Clients         []int64 `json:"clients"`
	Projects        []int64 `json:"projects"`
	Invoices        []int64 `json:"invoices"`
	CreatedInvoices []int64 `json:"createdInvoices"`
}

// Empty reports whether nothing changed.
func (cs ChangeSet) Empty() bool {
	return len(cs.Clients) == 0 && len(cs.Projects) == 0 &&
		len(cs.Invoices) == 0 && len(cs.CreatedInvoices) == 0
}

// Merge folds other into cs.
func (cs *ChangeSet) Merge(other ChangeSet) {
	for _, id := range other.Clients {
		cs.touchClient(id)
	}
	for _, id := range other.Projects {
		cs.touchProject(id)
	}
	for _, id := range other.CreatedInvoices {
		cs.created(id)
	}
	for _, id := range other.Invoices {
		cs.touchInvoice(id)
	}
}

func (cs ChangeSet) clone() ChangeSet {
	return ChangeSet{
		Clients:         slices.Clone(cs.Clients),
		Projects:        slices.Clone(cs.Projects),
		Invoices:        slices.Clone(cs.Invoices),
		CreatedInvoices: slices.Clone(cs.CreatedInvoices),
	}
}

func (cs *ChangeSet) touchClient(id int64) {
	if !slices.Contains(cs.Clients, id) {
		cs.Clients = append(cs.Clients, id)
	}
}

func (cs *ChangeSet) touchProject(id int64) {
	if !slices.Contains(cs.Projects, id) {
		cs.Projects = append(cs.Projects, id)
	}
}

// touchInvoice marks an existing invoice as updated. Invoices created in the
// same pass are written whole and are not tracked twice.
func (cs *ChangeSet) touchInvoice(id int64) {
	if slices.Contains(cs.CreatedInvoices, id) || slices.Contains(cs.Invoices, id) {
		return
	}
	cs.Invoices = append(cs.Invoices, id)
}

func (cs *ChangeSet) created(id int64) {
	if slices.Contains(cs.CreatedInvoices, id) {
		return
	}
	cs.CreatedInvoices = append(cs.CreatedInvoices, id)
	cs.Invoices = slices.DeleteFunc(cs.Invoices, func(v int64) bool { return v == id })
}

// idAllocator hands out invoice ids above every id in the snapshot. It is
// monotonic for the lifetime of a pass.
type idAllocator struct {
	next int64
}

func newIDAllocator(invoices []models.Invoice) *idAllocator {
	var maxID int64
	for _, inv := range invoices {
		if inv.ID > maxID {
			maxID = inv.ID
		}
	}
	return &idAllocator{next: maxID + 1}
}

func (a *idAllocator) allocate() int64 {
	id := a.next
	a.next++
	return id
}

// cloneSnapshot deep-copies the parts of a snapshot repair passes mutate.
func cloneSnapshot(snap *models.Snapshot) models.Snapshot {
	out := models.Snapshot{
		Clients:  make([]models.Client, len(snap.Clients)),
		Projects: slices.Clone(snap.Projects),
		Invoices: slices.Clone(snap.Invoices),
		Payments: slices.Clone(snap.Payments),
		Team:     slices.Clone(snap.Team),
	}
	for i, c := range snap.Clients {
		c.PaymentHistory = slices.Clone(c.PaymentHistory)
		c.Events = slices.Clone(c.Events)
		out.Clients[i] = c
	}
	return out
}
