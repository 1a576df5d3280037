package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqlite, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		BackendMemory: NewMemory(),
		BackendSQLite: sqlite,
	}
}

func TestStore_GetSetKeys(t *testing.T) {
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "clients")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "clients", []byte(`[{"id":1}]`)))
			require.NoError(t, store.Set(ctx, "invoices", []byte(`[]`)))

			v, err := store.Get(ctx, "clients")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":1}]`, string(v))

			require.NoError(t, store.Set(ctx, "clients", []byte(`[{"id":2}]`)))
			v, err = store.Get(ctx, "clients")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":2}]`, string(v))

			keys, err := store.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"clients", "invoices"}, keys)
		})
	}
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))

	v[1] = 'y'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "projects", []byte(`[{"id":3}]`)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "projects")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":3}]`, string(v))
	assert.Equal(t, path, reopened.Path())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
