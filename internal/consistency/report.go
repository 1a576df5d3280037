package consistency

import (
	"time"

	"muabook/pkg/models"
)

// ValidateAll runs every record of every entity type through its validator.
// It never mutates snap; records are visited in store order. Clients with an
// unpaid invoice past due on now also get a lateness warning.
func ValidateAll(snap *models.Snapshot, now time.Time) Report {
	report := Report{
		Clients:   newEntityReport(),
		Projects:  newEntityReport(),
		Invoices:  newEntityReport(),
		CheckedAt: now,
	}

	for _, c := range snap.Clients {
		res := ValidateClient(c, snap)
		if inv, late := firstLateInvoice(c, snap.Invoices, now); late {
			res.warnf("Invoice %s was due on %s and is unpaid", inv.InvoiceNumber, inv.DueDate)
		}
		report.Clients.add(c.ID, c.Name, res)
	}
	for _, p := range snap.Projects {
		report.Projects.add(p.ID, p.Title, ValidateProject(p, snap))
	}
	for _, inv := range snap.Invoices {
		report.Invoices.add(inv.ID, inv.InvoiceNumber, ValidateInvoice(inv, snap))
	}

	for _, er := range []EntityReport{report.Clients, report.Projects, report.Invoices} {
		report.Summary.TotalErrors += len(er.Errors)
		report.Summary.TotalWarnings += len(er.Warnings)
	}
	report.Summary.IsValid = report.Summary.TotalErrors == 0
	return report
}

func newEntityReport() EntityReport {
	return EntityReport{Errors: []Issue{}, Warnings: []Issue{}}
}

func (er *EntityReport) add(id int64, name string, res Result) {
	if res.IsValid {
		er.Valid++
	} else {
		er.Errors = append(er.Errors, Issue{ID: id, Name: name, Messages: res.Errors})
	}
	if len(res.Warnings) > 0 {
		er.Warnings = append(er.Warnings, Issue{ID: id, Name: name, Messages: res.Warnings})
	}
}
