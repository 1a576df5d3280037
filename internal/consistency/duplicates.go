package consistency

import (
	"strings"

	"muabook/pkg/models"
)

// DuplicateGroup lists the ids of records sharing a key, in store order.
type DuplicateGroup struct {
	Key string  `json:"key"`
	IDs []int64 `json:"ids"`
}

// Duplicates holds the duplicate groups per entity type.
type Duplicates struct {
	Clients  []DuplicateGroup `json:"clients"`
	Invoices []DuplicateGroup `json:"invoices"`
}

// DuplicateReport is the outcome of FindDuplicates.
type DuplicateReport struct {
	HasDuplicates bool       `json:"hasDuplicates"`
	Duplicates    Duplicates `json:"duplicates"`
}

// FindDuplicates groups clients by trimmed, case-insensitive name and
// invoices by trimmed number. Records with an empty key are ignored.
func FindDuplicates(snap *models.Snapshot) DuplicateReport {
	clientKeys := make([]string, len(snap.Clients))
	clientIDs := make([]int64, len(snap.Clients))
	for i, c := range snap.Clients {
		clientKeys[i], clientIDs[i] = normalizeName(c.Name), c.ID
	}
	invoiceKeys := make([]string, len(snap.Invoices))
	invoiceIDs := make([]int64, len(snap.Invoices))
	for i, inv := range snap.Invoices {
		invoiceKeys[i], invoiceIDs[i] = strings.TrimSpace(inv.InvoiceNumber), inv.ID
	}

	report := DuplicateReport{
		Duplicates: Duplicates{
			Clients:  groupDuplicates(clientKeys, clientIDs),
			Invoices: groupDuplicates(invoiceKeys, invoiceIDs),
		},
	}
	report.HasDuplicates = len(report.Duplicates.Clients) > 0 || len(report.Duplicates.Invoices) > 0
	return report
}

func groupDuplicates(keys []string, ids []int64) []DuplicateGroup {
	index := make(map[string]int)
	var groups []DuplicateGroup
	for i, key := range keys {
		if key == "" {
			continue
		}
		if g, ok := index[key]; ok {
			groups[g].IDs = append(groups[g].IDs, ids[i])
			continue
		}
		index[key] = len(groups)
		groups = append(groups, DuplicateGroup{Key: key, IDs: []int64{ids[i]}})
	}

	out := []DuplicateGroup{}
	for _, g := range groups {
		if len(g.IDs) > 1 {
			out = append(out, g)
		}
	}
	return out
}
