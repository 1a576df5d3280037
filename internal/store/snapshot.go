package store

import (
	"context"

	"muabook/pkg/models"
)

// Load reads every collection.
func (r *Repository) Load(ctx context.Context) (models.Snapshot, error) {
	var (
		snap models.Snapshot
		err  error
	)
	if snap.Clients, err = r.Clients(ctx); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Projects, err = r.Projects(ctx); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Invoices, err = r.Invoices(ctx); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Payments, err = r.Payments(ctx); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Team, err = r.TeamMembers(ctx); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// Replace bulk-replaces every collection with the contents of snap. It is
// meant for imports and seeding, not for incremental repairs.
func (r *Repository) Replace(ctx context.Context, snap models.Snapshot) error {
	if err := r.SetClients(ctx, snap.Clients); err != nil {
		return err
	}
	if err := r.SetProjects(ctx, snap.Projects); err != nil {
		return err
	}
	if err := r.SetInvoices(ctx, snap.Invoices); err != nil {
		return err
	}
	if err := r.SetPayments(ctx, snap.Payments); err != nil {
		return err
	}
	if err := r.SetTeamMembers(ctx, snap.Team); err != nil {
		return err
	}
	r.log.Info().
		Int("clients", len(snap.Clients)).
		Int("projects", len(snap.Projects)).
		Int("invoices", len(snap.Invoices)).
		Int("payments", len(snap.Payments)).
		Int("team", len(snap.Team)).
		Msg("Store replaced from snapshot")
	return nil
}
