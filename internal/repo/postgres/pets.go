package postgres

import (
	"context"

	"github.com/geocoder89/dogwalker/internal/domain/pet"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PetsRepo struct {
	pool *pgxpool.Pool
}

func NewPetsRepo(pool *pgxpool.Pool) *PetsRepo {
	return &PetsRepo{pool: pool}
}

func (r *PetsRepo) Create(ctx context.Context, p pet.Pet) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO pets (id, owner, name, breed, age, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Owner, p.Name, p.Breed, p.Age, p.CreatedAt,
	)
	return err
}

// ListByOwner returns every pet for owner, unordered and unpaginated.
func (r *PetsRepo) ListByOwner(ctx context.Context, owner string) ([]pet.Pet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner, name, breed, age, created_at
		FROM pets
		WHERE owner = $1`,
		owner,
	)
	if err != nil {
		return nil, err
	}

	pets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (pet.Pet, error) {
		var p pet.Pet
		err := row.Scan(&p.ID, &p.Owner, &p.Name, &p.Breed, &p.Age, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, err
	}

	if pets == nil {
		pets = make([]pet.Pet, 0)
	}
	return pets, nil
}
