package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	db, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "store_times", []byte(`[{"day_of_week":0}]`)))

			val, err := store.Get(ctx, "store_times")
			require.NoError(t, err)
			assert.Equal(t, []byte(`[{"day_of_week":0}]`), val)

			// Overwrite replaces wholesale.
			require.NoError(t, store.Set(ctx, "store_times", []byte(`[]`)))
			val, err = store.Get(ctx, "store_times")
			require.NoError(t, err)
			assert.Equal(t, []byte(`[]`), val)

			require.NoError(t, store.Delete(ctx, "store_times"))
			_, err = store.Get(ctx, "store_times")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error.
			assert.NoError(t, store.Delete(ctx, "missing"))
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	db, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "selected_slot", []byte(`{"month":3,"day":1,"time_slot":"10:00"}`)))
	require.NoError(t, db.Close())

	db, err = NewSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	val, err := db.Get(ctx, "selected_slot")
	require.NoError(t, err)
	assert.Contains(t, string(val), `"time_slot":"10:00"`)
}
