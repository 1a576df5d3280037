// Package store is the entity store: typed access to the client, project,
// invoice, payroll and team collections kept in a key-value store.
//
// Each collection is one JSON list under a fixed key, the same layout the
// browser client writes to local storage, so a snapshot exported from the
// browser can be seeded verbatim. The store enforces no cross-collection
// integrity; that is the job of the consistency engine.
package store

import (
	"context"

	"github.com/rs/zerolog"
	"muabook/internal/kvstore"
	"muabook/internal/logger"
	"muabook/pkg/models"
)

// Collection keys, as used by the browser client.
const (
	KeyClients  = "mua_clients"
	KeyProjects = "mua_projects"
	KeyInvoices = "mua_invoices"
	KeyPayments = "mua_payments"
	KeyTeam     = "mua_team"
)

var (
	clients = collection[models.Client]{
		key:   KeyClients,
		id:    func(c *models.Client) int64 { return c.ID },
		setID: func(c *models.Client, id int64) { c.ID = id },
	}
	projects = collection[models.Project]{
		key:   KeyProjects,
		id:    func(p *models.Project) int64 { return p.ID },
		setID: func(p *models.Project, id int64) { p.ID = id },
	}
	invoices = collection[models.Invoice]{
		key:   KeyInvoices,
		id:    func(i *models.Invoice) int64 { return i.ID },
		setID: func(i *models.Invoice, id int64) { i.ID = id },
	}
	payments = collection[models.Payment]{
		key:   KeyPayments,
		id:    func(p *models.Payment) int64 { return p.ID },
		setID: func(p *models.Payment, id int64) { p.ID = id },
	}
	team = collection[models.TeamMember]{
		key:   KeyTeam,
		id:    func(m *models.TeamMember) int64 { return m.ID },
		setID: func(m *models.TeamMember, id int64) { m.ID = id },
	}
)

// Repository is the entity store over a key-value backend.
type Repository struct {
	kv  kvstore.Store
	log zerolog.Logger
}

// New creates a repository over kv.
func New(kv kvstore.Store) *Repository {
	return &Repository{
		kv:  kv,
		log: logger.WithComponent("store"),
	}
}

// KV exposes the underlying key-value store.
func (r *Repository) KV() kvstore.Store { return r.kv }

func (r *Repository) Clients(ctx context.Context) ([]models.Client, error) {
	return clients.list(ctx, r.kv)
}

func (r *Repository) Projects(ctx context.Context) ([]models.Project, error) {
	return projects.list(ctx, r.kv)
}

func (r *Repository) Invoices(ctx context.Context) ([]models.Invoice, error) {
	return invoices.list(ctx, r.kv)
}

func (r *Repository) Payments(ctx context.Context) ([]models.Payment, error) {
	return payments.list(ctx, r.kv)
}

func (r *Repository) TeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	return team.list(ctx, r.kv)
}

func (r *Repository) AddClient(ctx context.Context, c models.Client) (models.Client, error) {
	return clients.add(ctx, r.kv, c)
}

func (r *Repository) AddProject(ctx context.Context, p models.Project) (models.Project, error) {
	return projects.add(ctx, r.kv, p)
}

// AddInvoice appends inv. An invoice that already carries an id keeps it; the
// repair engine pre-allocates ids so it can link payments before writing.
func (r *Repository) AddInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	return invoices.add(ctx, r.kv, inv)
}

func (r *Repository) AddPayment(ctx context.Context, p models.Payment) (models.Payment, error) {
	return payments.add(ctx, r.kv, p)
}

func (r *Repository) AddTeamMember(ctx context.Context, m models.TeamMember) (models.TeamMember, error) {
	return team.add(ctx, r.kv, m)
}

// UpdateClient applies fn to the client with the given id and persists it.
func (r *Repository) UpdateClient(ctx context.Context, id int64, fn func(*models.Client)) error {
	r.log.Debug().Int64("client_id", id).Msg("Updating client")
	return clients.update(ctx, r.kv, id, fn)
}

func (r *Repository) UpdateProject(ctx context.Context, id int64, fn func(*models.Project)) error {
	r.log.Debug().Int64("project_id", id).Msg("Updating project")
	return projects.update(ctx, r.kv, id, fn)
}

func (r *Repository) UpdateInvoice(ctx context.Context, id int64, fn func(*models.Invoice)) error {
	r.log.Debug().Int64("invoice_id", id).Msg("Updating invoice")
	return invoices.update(ctx, r.kv, id, fn)
}

func (r *Repository) UpdatePayment(ctx context.Context, id int64, fn func(*models.Payment)) error {
	return payments.update(ctx, r.kv, id, fn)
}

func (r *Repository) SetClients(ctx context.Context, list []models.Client) error {
	return clients.set(ctx, r.kv, list)
}

func (r *Repository) SetProjects(ctx context.Context, list []models.Project) error {
	return projects.set(ctx, r.kv, list)
}

func (r *Repository) SetInvoices(ctx context.Context, list []models.Invoice) error {
	return invoices.set(ctx, r.kv, list)
}

func (r *Repository) SetPayments(ctx context.Context, list []models.Payment) error {
	return payments.set(ctx, r.kv, list)
}

func (r *Repository) SetTeamMembers(ctx context.Context, list []models.TeamMember) error {
	return team.set(ctx, r.kv, list)
}
