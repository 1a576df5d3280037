package consistency

import (
	"strings"

	"muabook/pkg/models"
)

// ValidateProject checks one project against clients and the team roster.
func ValidateProject(p models.Project, snap *models.Snapshot) Result {
	res := newResult()

	if strings.TrimSpace(p.Title) == "" {
		res.errorf("Project title is required")
	}
	if strings.TrimSpace(p.Client) == "" {
		res.warnf("No client name")
	}
	if strings.TrimSpace(p.Date) == "" {
		res.warnf("No project date")
	}

	budget, paid := p.Budget.Decimal(), p.Paid.Decimal()
	if !budget.IsPositive() {
		res.warnf("Budget is not set")
	}
	if paid.Sub(budget).GreaterThan(tolerance) {
		res.errorf("Paid amount %s exceeds budget %s", fmtMoney(paid), fmtMoney(budget))
	}

	if ci := projectClient(snap, p); ci >= 0 {
		c := snap.Clients[ci]
		if p.ClientID == nil {
			res.warnf("Client %q exists but the project is not linked to it", c.Name)
		}
		if total := c.TotalAmount.Decimal(); total.IsPositive() && !withinTolerance(budget, total) {
			res.warnf("Budget %s differs from client total %s", fmtMoney(budget), fmtMoney(total))
		}
	} else if strings.TrimSpace(p.Client) != "" {
		res.warnf("Client %q not found in database", p.Client)
	}

	for _, a := range p.Assistants {
		if !teamMemberExists(snap, a.ID) {
			res.warnf("Assistant %q (#%d) is not on the team", a.Name, a.ID)
		}
	}

	return res.done()
}

// projectClient finds the client of p by name, falling back to its client id.
func projectClient(snap *models.Snapshot, p models.Project) int {
	if ci := findClientByName(snap, p.Client); ci >= 0 {
		return ci
	}
	if p.ClientID != nil {
		return findClientByID(snap, *p.ClientID)
	}
	return -1
}
