package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSQLiteMemory opens an in-memory SQLite store and closes it on cleanup.
func openSQLiteMemory(t testing.TB, origin string) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:", origin)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "surveyData")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "surveyData", `{"a":1}`))
	v, ok, err := s.Get(ctx, "surveyData")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, v)

	require.NoError(t, s.Set(ctx, "surveyData", `{"a":2}`))
	v, _, err = s.Get(ctx, "surveyData")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, v)

	require.NoError(t, s.Remove(ctx, "surveyData"))
	_, ok, err = s.Get(ctx, "surveyData")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing twice is fine
	require.NoError(t, s.Remove(ctx, "surveyData"))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	assert.Equal(t, 0, m.Len())
}

func TestSQLite_Memory(t *testing.T) {
	exerciseStore(t, openSQLiteMemory(t, "origin-a"))
}

func TestSQLite_OriginsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv", "survey.db")
	ctx := context.Background()

	a, err := OpenSQLite(path, "https://a.example")
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLite(path, "https://b.example")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set(ctx, "dataType", "remote-sensing"))

	_, ok, err := b.Get(ctx, "dataType")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := a.Get(ctx, "dataType")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "remote-sensing", v)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, DefaultOrigin)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "pixelSize", "10"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, DefaultOrigin)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "pixelSize")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10", v)
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()

	h, err := Open(ctx, Options{})
	require.NoError(t, err)
	_, isMemory := h.Store.(*Memory)
	assert.True(t, isMemory)
	assert.NoError(t, h.Close())

	h, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	_, isSQLite := h.Store.(*SQLite)
	assert.True(t, isSQLite)
	assert.NoError(t, h.Close())

	_, err = Open(ctx, Options{Backend: BackendSQLite})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: BackendPostgres})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "redis"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}

func TestPostgres_Integration(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	p, err := ConnectPostgres(ctx, databaseURL, "kvstore-test")
	require.NoError(t, err)
	defer p.Close()

	exerciseStore(t, p)
}
