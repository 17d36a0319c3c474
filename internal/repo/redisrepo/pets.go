package redisrepo

import (
	"context"
	"encoding/json"

	"github.com/geocoder89/dogwalker/internal/domain/pet"
	"github.com/redis/go-redis/v9"
)

// PetsRepo keeps one list per owner.
type PetsRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewPetsRepo(rdb *redis.Client, prefix string) *PetsRepo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &PetsRepo{rdb: rdb, prefix: prefix}
}

func (r *PetsRepo) key(owner string) string {
	return r.prefix + "pets:" + owner
}

func (r *PetsRepo) Create(ctx context.Context, p pet.Pet) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.rdb.RPush(ctx, r.key(p.Owner), payload).Err()
}

func (r *PetsRepo) ListByOwner(ctx context.Context, owner string) ([]pet.Pet, error) {
	raws, err := r.rdb.LRange(ctx, r.key(owner), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]pet.Pet, 0, len(raws))
	for _, raw := range raws {
		var p pet.Pet
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
