package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/dogwalker/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usersEmailConstraint = "users_pkey"

type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{pool: pool}
}

// Create relies on the primary key on email; the loser of a concurrent
// insert gets 23505 and maps to user.ErrEmailTaken.
func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (email, password_hash, is_walker, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		`,
		u.Email, u.PasswordHash, u.IsWalker, u.CreatedAt, u.UpdatedAt,
	)

	if err != nil {
		if isEmailConflict(err) {
			return user.ErrEmailTaken
		}
		return err
	}

	return nil
}

func (r *UsersRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool

	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)

	return exists, err
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.pool.QueryRow(
		ctx,
		`SELECT email, password_hash, is_walker, created_at, updated_at
         FROM users
         WHERE email = $1`,
		email,
	).Scan(
		&u.Email,
		&u.PasswordHash,
		&u.IsWalker,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {

			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) SetWalkerFlag(ctx context.Context, email string, isWalker bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET is_walker = $2, updated_at = NOW()
		WHERE email = $1
	`, email, isWalker)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

func isEmailConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	// an unnamed constraint still means the only unique key on users
	return pgErr.ConstraintName == "" || pgErr.ConstraintName == usersEmailConstraint
}
