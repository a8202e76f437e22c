package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/model"
)

// FavoriteService manages each user's set of saved search results.
type FavoriteService struct {
	store FavoriteStore
	log   *zap.Logger
}

func NewFavoriteService(store FavoriteStore, log *zap.Logger) *FavoriteService {
	return &FavoriteService{store: store, log: log.Named("favorites")}
}

// Add saves ref for the session user.  Saving an id twice keeps the first
// snapshot; the stored ref is returned either way with whether this call
// wrote it.
func (s *FavoriteService) Add(ctx context.Context, sess Session, ref model.FavoriteRef) (model.FavoriteRef, bool, error) {
	if err := sess.require(); err != nil {
		return model.FavoriteRef{}, false, err
	}
	ref.ID = strings.TrimSpace(ref.ID)
	if ref.ID == "" {
		return model.FavoriteRef{}, false, &ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	stored, added, err := s.store.Add(ctx, sess.UserID, ref)
	if err != nil {
		return model.FavoriteRef{}, false, classify("add favorite", err)
	}
	return stored, added, nil
}

// Remove deletes a favorite.  Unknown ids are ignored.
func (s *FavoriteService) Remove(ctx context.Context, sess Session, id string) error {
	if err := sess.require(); err != nil {
		return err
	}
	return classify("remove favorite", s.store.Remove(ctx, sess.UserID, id))
}

// MaxFavoritePageSize caps the size of one favorites page.
const MaxFavoritePageSize = 100

// List returns the session user's favorites in the order they were saved,
// keeping only those whose name or location contains q, ignoring case.
// page is 1-based and defaults to 1; size 0 returns every match at once.
// A page past the end is empty.
func (s *FavoriteService) List(ctx context.Context, sess Session, q string, page, size int) (model.FavoritePage, error) {
	if err := sess.require(); err != nil {
		return model.FavoritePage{}, err
	}
	fe := fieldErrors{}
	if page < 0 {
		fe.add("page", "must be a positive whole number")
	}
	if size < 0 || size > MaxFavoritePageSize {
		fe.add("size", "must be between 0 and 100")
	}
	if err := fe.err(); err != nil {
		return model.FavoritePage{}, err
	}
	all, err := s.store.List(ctx, sess.UserID)
	if err != nil {
		return model.FavoritePage{}, classify("list favorites", err)
	}
	return Paginate(FilterFavorites(all, q), page, size), nil
}

// Paginate cuts refs into the requested page.
func Paginate(refs []model.FavoriteRef, page, size int) model.FavoritePage {
	if page < 1 {
		page = 1
	}
	out := model.FavoritePage{Page: page, Size: size, Total: len(refs)}
	if size == 0 {
		out.Favorites = refs
		if len(refs) > 0 {
			out.TotalPages = 1
		}
		if page > 1 {
			out.Favorites = []model.FavoriteRef{}
		}
		return out
	}
	out.TotalPages = (len(refs) + size - 1) / size
	if page > out.TotalPages {
		out.Favorites = []model.FavoriteRef{}
		return out
	}
	start := (page - 1) * size
	end := start + size
	if end > len(refs) {
		end = len(refs)
	}
	out.Favorites = refs[start:end]
	return out
}

// FilterFavorites keeps refs whose name or location contains q
// case-insensitively.  An empty q keeps everything.
func FilterFavorites(refs []model.FavoriteRef, q string) []model.FavoriteRef {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]model.FavoriteRef, 0, len(refs))
	for _, r := range refs {
		if q == "" || strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Location), q) {
			out = append(out, r)
		}
	}
	return out
}
