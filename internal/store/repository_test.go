package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"muabook/internal/kvstore"
	"muabook/pkg/models"
)

type failingKV struct{ kvstore.Store }

func (failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestRepository_EmptyCollections(t *testing.T) {
	repo := New(kvstore.NewMemory())
	ctx := context.Background()

	clients, err := repo.Clients(ctx)
	require.NoError(t, err)
	assert.NotNil(t, clients)
	assert.Empty(t, clients)
}

func TestRepository_AddAssignsSequentialIDs(t *testing.T) {
	repo := New(kvstore.NewMemory())
	ctx := context.Background()

	a, err := repo.AddClient(ctx, models.Client{Name: "Ana"})
	require.NoError(t, err)
	b, err := repo.AddClient(ctx, models.Client{Name: "Dewi"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	inv, err := repo.AddInvoice(ctx, models.Invoice{ID: 40, InvoiceNumber: "INV-40"})
	require.NoError(t, err)
	assert.Equal(t, int64(40), inv.ID, "preassigned ids are kept")

	next, err := repo.AddInvoice(ctx, models.Invoice{InvoiceNumber: "INV-41"})
	require.NoError(t, err)
	assert.Equal(t, int64(41), next.ID)
}

func TestRepository_Update(t *testing.T) {
	repo := New(kvstore.NewMemory())
	ctx := context.Background()

	c, err := repo.AddClient(ctx, models.Client{Name: "Ana", PaymentStatus: models.StatusPaid})
	require.NoError(t, err)

	err = repo.UpdateClient(ctx, c.ID, func(c *models.Client) {
		c.PaymentStatus = models.StatusPartial
		c.ID = 99
	})
	require.NoError(t, err)

	clients, err := repo.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, c.ID, clients[0].ID, "mutator cannot change the id")
	assert.Equal(t, models.StatusPartial, clients[0].PaymentStatus)

	err = repo.UpdateProject(ctx, 12, func(*models.Project) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_LoadReplace(t *testing.T) {
	repo := New(kvstore.NewMemory())
	ctx := context.Background()

	clientID := int64(7)
	snap := models.Snapshot{
		Clients:  []models.Client{{ID: 7, Name: "Dewi", TotalAmount: 5000000}},
		Projects: []models.Project{{ID: 1, Title: "Wedding", Client: "Dewi", ClientID: &clientID}},
		Invoices: []models.Invoice{{ID: 1, InvoiceNumber: "INV-1"}},
		Payments: []models.Payment{{ID: 1, ProjectID: 1, AssistantID: 2, Amount: 250000}},
		Team:     []models.TeamMember{{ID: 2, Name: "Rina"}},
	}
	require.NoError(t, repo.Replace(ctx, snap))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	keys, err := repo.KV().Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeyClients, KeyProjects, KeyInvoices, KeyPayments, KeyTeam}, keys)
}

func TestRepository_LenientAmounts(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, KeyClients, []byte(
		`[{"id":1,"name":"Ana","totalAmount":"1500000","paymentHistory":[{"date":"2024-01-02","amount":"abc"},{"date":"2024-01-03","amount":null},{"date":"2024-01-04","amount":250000}]}]`)))

	clients, err := New(kv).Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, models.Money(1500000), clients[0].TotalAmount)
	assert.Equal(t, models.Money(0), clients[0].PaymentHistory[0].Amount)
	assert.Equal(t, models.Money(0), clients[0].PaymentHistory[1].Amount)
	assert.Equal(t, models.Money(250000), clients[0].PaymentHistory[2].Amount)
}

func TestRepository_ReadFailureIsWrapped(t *testing.T) {
	repo := New(failingKV{kvstore.NewMemory()})

	_, err := repo.Invoices(context.Background())
	require.Error(t, err)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KeyInvoices, se.Key)
	assert.Equal(t, "list", se.Op)
}
