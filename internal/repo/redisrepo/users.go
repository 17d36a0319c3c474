package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/geocoder89/dogwalker/internal/domain/user"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "dogwalker:"

	maxWatchRetries = 5
)

// userRecord is the stored JSON value; user.User hides the hash from JSON.
type userRecord struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	IsWalker     bool      `json:"is_walker"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UsersRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewUsersRepo(rdb *redis.Client, prefix string) *UsersRepo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &UsersRepo{rdb: rdb, prefix: prefix}
}

func (r *UsersRepo) key(email string) string {
	return r.prefix + "user:" + email
}

// Create uses SET NX: the key is written whole or not at all, and only one
// concurrent writer can win.
func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	payload, err := json.Marshal(userRecord{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsWalker:     u.IsWalker,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	if err != nil {
		return err
	}

	ok, err := r.rdb.SetNX(ctx, r.key(u.Email), payload, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return user.ErrEmailTaken
	}
	return nil
}

func (r *UsersRepo) Exists(ctx context.Context, email string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	rec, err := r.get(ctx, r.rdb, email)
	if err != nil {
		return user.User{}, err
	}

	return user.User{
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		IsWalker:     rec.IsWalker,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

// SetWalkerFlag is an optimistic read-modify-write under WATCH.
func (r *UsersRepo) SetWalkerFlag(ctx context.Context, email string, isWalker bool) error {
	key := r.key(email)

	txf := func(tx *redis.Tx) error {
		rec, err := r.get(ctx, tx, email)
		if err != nil {
			return err
		}

		rec.IsWalker = isWalker
		rec.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return redis.TxFailedErr
}

func (r *UsersRepo) get(ctx context.Context, c redis.Cmdable, email string) (userRecord, error) {
	raw, err := c.Get(ctx, r.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return userRecord{}, user.ErrNotFound
		}
		return userRecord{}, err
	}

	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return userRecord{}, err
	}
	return rec, nil
}
