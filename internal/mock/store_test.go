package mock

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiplay/internal/model"
)

func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, kind := range []string{"memory", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			s, err := NewStore(kind, DefaultUsers())
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func TestStore_ListSeed(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		users, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, DefaultUsers(), users)
	})
}

func TestStore_CreateUsesCountPlusOne(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		u, err := s.Create(ctx, "X", "Y")
		require.NoError(t, err)
		assert.Equal(t, model.User{ID: 3, FirstName: "X", LastName: "Y"}, u)

		found, err := s.Delete(ctx, 1)
		require.NoError(t, err)
		assert.True(t, found)

		// count is back to 2, so the next id collides with the record created above
		u, err = s.Create(ctx, "A", "B")
		require.NoError(t, err)
		assert.Equal(t, 3, u.ID)

		got, ok, err := s.Get(ctx, 3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "X", got.FirstName, "lookups return the first record with the id")
	})
}

func TestStore_UpdateAndDelete(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		u, ok, err := s.Update(ctx, model.User{ID: 2, FirstName: "Janet", LastName: "Roe"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Janet", u.FirstName)

		got, ok, err := s.Get(ctx, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Roe", got.LastName)

		_, ok, err = s.Update(ctx, model.User{ID: 999})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.Delete(ctx, 999)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.Delete(ctx, 2)
		require.NoError(t, err)
		assert.True(t, ok)

		users, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

func TestMemoryStore_ListReturnsCopy(t *testing.T) {
	s := NewMemoryStore(DefaultUsers())
	users, _ := s.List(context.Background())
	users[0].FirstName = "changed"

	got, _, _ := s.Get(context.Background(), 1)
	assert.Equal(t, "John", got.FirstName)
}

func TestNewStore_Unknown(t *testing.T) {
	_, err := NewStore("redis", nil)
	assert.Error(t, err)
}

func TestLoadSeed(t *testing.T) {
	users, err := LoadSeed("")
	require.NoError(t, err)
	assert.Equal(t, DefaultUsers(), users)

	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":7,"firstName":"Ada","lastName":"Lovelace"}]`), 0o600))

	users, err = LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, []model.User{{ID: 7, FirstName: "Ada", LastName: "Lovelace"}}, users)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
