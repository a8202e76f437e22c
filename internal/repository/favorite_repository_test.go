package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-planner/internal/model"
)

func newFavoriteRepo(t *testing.T) (*FavoriteRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFavoriteRepo(rdb, "fav"), mr
}

func TestFavoriteRepoAddIsIdempotent(t *testing.T) {
	repo, _ := newFavoriteRepo(t)
	ctx := context.Background()
	ref := model.FavoriteRef{ID: "tm-1", Name: "Rock Fest", Location: "Oslo"}

	stored, added, err := repo.Add(ctx, 7, ref)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, ref, stored)

	ref.Name = "Renamed"
	stored, added, err = repo.Add(ctx, 7, ref)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "Rock Fest", stored.Name)

	list, err := repo.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rock Fest", list[0].Name)
}

func TestFavoriteRepoKeepsInsertionOrder(t *testing.T) {
	repo, _ := newFavoriteRepo(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		_, _, err := repo.Add(ctx, 7, model.FavoriteRef{ID: id})
		require.NoError(t, err)
	}
	list, err := repo.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestFavoriteRepoRemove(t *testing.T) {
	repo, mr := newFavoriteRepo(t)
	ctx := context.Background()
	_, _, err := repo.Add(ctx, 7, model.FavoriteRef{ID: "x"})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, 7, "x"))
	require.NoError(t, repo.Remove(ctx, 7, "never-added"))

	list, err := repo.List(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.False(t, mr.Exists("fav:7:items"))
}

func TestFavoriteRepoIsolatesUsers(t *testing.T) {
	repo, _ := newFavoriteRepo(t)
	ctx := context.Background()
	_, _, err := repo.Add(ctx, 1, model.FavoriteRef{ID: "x"})
	require.NoError(t, err)

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}
