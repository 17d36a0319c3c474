package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/dogwalker/internal/domain/user"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // email -> user
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

// Create checks and inserts under one lock, so concurrent duplicates lose.
func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.Email]; ok {
		return user.ErrEmailTaken
	}
	r.items[u.Email] = u

	return nil
}

func (r *UsersRepo) Exists(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	_, ok := r.items[email]
	r.mu.RUnlock()

	return ok, nil
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	u, ok := r.items[email]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) SetWalkerFlag(ctx context.Context, email string, isWalker bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[email]
	if !ok {
		return user.ErrNotFound
	}
	u.IsWalker = isWalker
	u.UpdatedAt = time.Now().UTC()
	r.items[email] = u

	return nil
}

func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}
