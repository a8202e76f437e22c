package inmem

import (
	"context"
	"sync"

	"github.com/iliyamo/event-planner/internal/model"
)

// Favorites is an insertion-ordered favorites set per user.
type Favorites struct {
	mu    sync.Mutex
	byUID map[uint64][]model.FavoriteRef
}

func NewFavorites() *Favorites {
	return &Favorites{byUID: make(map[uint64][]model.FavoriteRef)}
}

func (f *Favorites) Add(_ context.Context, userID uint64, ref model.FavoriteRef) (model.FavoriteRef, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byUID[userID] {
		if r.ID == ref.ID {
			return r, false, nil
		}
	}
	f.byUID[userID] = append(f.byUID[userID], ref)
	return ref, true, nil
}

func (f *Favorites) Remove(_ context.Context, userID uint64, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.byUID[userID]
	for i, r := range list {
		if r.ID == id {
			f.byUID[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *Favorites) List(_ context.Context, userID uint64) ([]model.FavoriteRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.FavoriteRef, len(f.byUID[userID]))
	copy(out, f.byUID[userID])
	return out, nil
}
