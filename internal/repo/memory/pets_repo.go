package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/dogwalker/internal/domain/pet"
)

type PetsRepo struct {
	mu    sync.RWMutex
	items []pet.Pet
}

func NewPetsRepo() *PetsRepo {
	return &PetsRepo{}
}

func (r *PetsRepo) Create(ctx context.Context, p pet.Pet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.items = append(r.items, p)
	r.mu.Unlock()

	return nil
}

// ListByOwner scans every pet; there is no owner index.
func (r *PetsRepo) ListByOwner(ctx context.Context, owner string) ([]pet.Pet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pet.Pet, 0)
	for _, p := range r.items {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PetsRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
