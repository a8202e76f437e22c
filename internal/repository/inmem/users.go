package inmem

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/event-planner/internal/model"
	"github.com/iliyamo/event-planner/internal/repository"
	"github.com/iliyamo/event-planner/internal/utils"
)

// Users mirrors repository.UserRepo.
type Users struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User
}

func NewUsers() *Users { return &Users{byID: make(map[uint64]model.User)} }

func (u *Users) Create(_ context.Context, email, username, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.byID {
		if existing.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	u.nextID++
	now := time.Now().UTC()
	u.byID[u.nextID] = model.User{
		ID:           u.nextID,
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return u.nextID, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, usr := range u.byID {
		if usr.Email == email {
			return usr, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (u *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	usr, ok := u.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return usr, nil
}

// Tokens mirrors repository.TokenRepo.
type Tokens struct {
	mu     sync.Mutex
	byHash map[string]model.RefreshToken
}

func NewTokens() *Tokens { return &Tokens{byHash: make(map[string]model.RefreshToken)} }

func (t *Tokens) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byHash[tokenHash] = model.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (t *Tokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rt, ok := t.byHash[tokenHash]
	if !ok || rt.RevokedAt.Valid || time.Now().UTC().After(rt.ExpiresAt) {
		return 0, repository.ErrTokenInvalid
	}
	return rt.UserID, nil
}

func (t *Tokens) RevokeByHash(_ context.Context, tokenHash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rt, ok := t.byHash[tokenHash]; ok && !rt.RevokedAt.Valid {
		rt.RevokedAt.Time, rt.RevokedAt.Valid = time.Now().UTC(), true
		t.byHash[tokenHash] = rt
	}
	return nil
}

func (t *Tokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UTC()
	for h, rt := range t.byHash {
		if rt.UserID == userID && !rt.RevokedAt.Valid {
			rt.RevokedAt.Time, rt.RevokedAt.Valid = now, true
			t.byHash[h] = rt
		}
	}
	return nil
}
