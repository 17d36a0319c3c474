package user

import (
	"errors"
	"time"
)

// User is keyed by Email exactly as received; no case folding is applied.
type User struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	IsWalker     bool      `json:"isWalker"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

func New(email, passwordHash string, isWalker bool) User {
	now := time.Now().UTC()
	return User{
		Email:        email,
		PasswordHash: passwordHash,
		IsWalker:     isWalker,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
