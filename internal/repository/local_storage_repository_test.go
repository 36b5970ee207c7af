package repository

import (
	"context"
	"testing"

	"vjezbajmo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRepository(t *testing.T) {
	ctx := context.Background()
	db := setupSQLite(t)
	repo := NewGormLocalStorageRepository()

	_, err := repo.Get(ctx, db, "d1", "k")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, repo.Put(ctx, db, "d1", "k", `{"a":1}`))
	require.NoError(t, repo.Put(ctx, db, "d2", "k", `{"b":2}`))
	require.NoError(t, repo.Put(ctx, db, "d1", "k", `{"a":2}`))

	v, err := repo.Get(ctx, db, "d1", "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, v)

	require.NoError(t, repo.Delete(ctx, db, "d1", "k"))
	_, err = repo.Get(ctx, db, "d1", "k")
	assert.ErrorIs(t, err, model.ErrNotFound)

	v, err = repo.Get(ctx, db, "d2", "k")
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, v)
}
