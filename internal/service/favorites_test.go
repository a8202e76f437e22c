package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/model"
	"github.com/iliyamo/event-planner/internal/repository/inmem"
)

func TestFavoritesAddIsIdempotent(t *testing.T) {
	svc := NewFavoriteService(inmem.NewFavorites(), zap.NewNop())
	ctx := context.Background()
	ref := model.FavoriteRef{ID: "tm-1", Name: "Rock Fest", Location: "Oslo Spektrum"}

	stored, added, err := svc.Add(ctx, buyer, ref)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, ref, stored)

	again := ref
	again.Name = "Rock Fest (updated)"
	stored, added, err = svc.Add(ctx, buyer, again)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "Rock Fest", stored.Name)

	res, err := svc.List(ctx, buyer, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, res.Favorites, 1)
	assert.Equal(t, "Rock Fest", res.Favorites[0].Name)
}

func TestFavoritesRemoveAbsentIsNoop(t *testing.T) {
	svc := NewFavoriteService(inmem.NewFavorites(), zap.NewNop())
	assert.NoError(t, svc.Remove(context.Background(), buyer, "missing"))
}

func TestFavoritesFilterAndOrder(t *testing.T) {
	svc := NewFavoriteService(inmem.NewFavorites(), zap.NewNop())
	ctx := context.Background()
	for _, r := range []model.FavoriteRef{
		{ID: "1", Name: "Rock Fest", Location: "Oslo"},
		{ID: "2", Name: "Opera Gala", Location: "Bergen"},
		{ID: "3", Name: "Jazz", Location: "OSLO Concert Hall"},
	} {
		_, _, err := svc.Add(ctx, buyer, r)
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, buyer, "oslo", 0, 0)
	require.NoError(t, err)
	list := res.Favorites
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "3", list[1].ID)

	res, err = svc.List(ctx, buyer, "GALA", 0, 0)
	require.NoError(t, err)
	list = res.Favorites
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].ID)

	require.NoError(t, svc.Remove(ctx, buyer, "1"))
	res, err = svc.List(ctx, buyer, "", 0, 0)
	require.NoError(t, err)
	list = res.Favorites
	assert.Equal(t, []string{"2", "3"}, []string{list[0].ID, list[1].ID})

	other, err := svc.List(ctx, owner, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, other.Favorites)
}

func TestFavoritesRequireIDAndSession(t *testing.T) {
	svc := NewFavoriteService(inmem.NewFavorites(), zap.NewNop())
	_, _, err := svc.Add(context.Background(), buyer, model.FavoriteRef{})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	_, err = svc.List(context.Background(), Session{}, "", 0, 0)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestFavoritesPagination(t *testing.T) {
	svc := NewFavoriteService(inmem.NewFavorites(), zap.NewNop())
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		_, _, err := svc.Add(ctx, buyer, model.FavoriteRef{ID: id, Name: "Show " + id})
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, buyer, "", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Favorites, 2)
	assert.Equal(t, "f", res.Favorites[0].ID)
	assert.Equal(t, "g", res.Favorites[1].ID)

	res, err = svc.List(ctx, buyer, "", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Favorites, 5)

	res, err = svc.List(ctx, buyer, "", 1<<62, 100)
	require.NoError(t, err)
	assert.Empty(t, res.Favorites)
	assert.NotNil(t, res.Favorites)

	res, err = svc.List(ctx, buyer, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, res.Favorites, 7)
	assert.Equal(t, 1, res.TotalPages)

	_, err = svc.List(ctx, buyer, "", -1, 101)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "page")
	assert.Contains(t, ve.Fields, "size")
}
