package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-planner/internal/model"
)

// FavoriteRepo keeps each user's favorites in Redis.  Two keys per user:
// a hash of id -> JSON ref and a sorted set of ids scored by the time they
// were first saved, which preserves insertion order.
type FavoriteRepo struct {
	rdb    *redis.Client
	prefix string
}

// NewFavoriteRepo returns a FavoriteRepo using keys under prefix.
func NewFavoriteRepo(rdb *redis.Client, prefix string) *FavoriteRepo {
	if prefix == "" {
		prefix = "fav"
	}
	return &FavoriteRepo{rdb: rdb, prefix: prefix}
}

func (r *FavoriteRepo) itemsKey(userID uint64) string {
	return r.prefix + ":" + strconv.FormatUint(userID, 10) + ":items"
}

func (r *FavoriteRepo) orderKey(userID uint64) string {
	return r.prefix + ":" + strconv.FormatUint(userID, 10) + ":order"
}

// Add saves ref unless a favorite with the same id already exists.  It
// returns the snapshot held in Redis afterwards and whether it was written
// by this call.
func (r *FavoriteRepo) Add(ctx context.Context, userID uint64, ref model.FavoriteRef) (model.FavoriteRef, bool, error) {
	payload, err := json.Marshal(ref)
	if err != nil {
		return model.FavoriteRef{}, false, err
	}
	var (
		added  *redis.BoolCmd
		stored *redis.StringCmd
	)
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		added = p.HSetNX(ctx, r.itemsKey(userID), ref.ID, payload)
		p.ZAddNX(ctx, r.orderKey(userID), redis.Z{
			Score:  float64(time.Now().UnixNano()),
			Member: ref.ID,
		})
		stored = p.HGet(ctx, r.itemsKey(userID), ref.ID)
		return nil
	})
	if err != nil {
		return model.FavoriteRef{}, false, errors.Wrap(err, "add favorite")
	}
	var out model.FavoriteRef
	if err := json.Unmarshal([]byte(stored.Val()), &out); err != nil {
		return model.FavoriteRef{}, false, errors.Wrap(err, "decode favorite")
	}
	return out, added.Val(), nil
}

// Remove deletes the favorite with id.  Absent ids are not an error.
func (r *FavoriteRepo) Remove(ctx context.Context, userID uint64, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, r.itemsKey(userID), id)
		p.ZRem(ctx, r.orderKey(userID), id)
		return nil
	})
	return errors.Wrap(err, "remove favorite")
}

// List returns the user's favorites in the order they were added.
func (r *FavoriteRepo) List(ctx context.Context, userID uint64) ([]model.FavoriteRef, error) {
	ids, err := r.rdb.ZRange(ctx, r.orderKey(userID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list favorite ids")
	}
	if len(ids) == 0 {
		return []model.FavoriteRef{}, nil
	}
	vals, err := r.rdb.HMGet(ctx, r.itemsKey(userID), ids...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "load favorites")
	}
	out := make([]model.FavoriteRef, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var ref model.FavoriteRef
		if err := json.Unmarshal([]byte(s), &ref); err != nil {
			return nil, errors.Wrap(err, "decode favorite")
		}
		out = append(out, ref)
	}
	return out, nil
}
