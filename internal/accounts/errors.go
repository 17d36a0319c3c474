package accounts

import (
	"errors"
	"fmt"
	"strings"
)

// Every error returned by this package matches exactly one of these with
// errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("account not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrPartialWrite       = errors.New("account saved but some pets were not")
)

type FieldIssue struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ValidationError lists every rejected field. No store was touched.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+" ("+is.Rule+")")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type PetFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Err   error  `json:"-"`
}

// PartialWriteError is returned together with a valid Session when the user
// write (or login) succeeded but one or more pet writes did not. Callers may
// resubmit only the failed pets through a later login.
type PartialWriteError struct {
	Saved  int
	Failed []PetFailure
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%d pet(s) saved, %d failed", e.Saved, len(e.Failed))
}

// Per-pet causes stay in Failed and are not unwrapped.
func (e *PartialWriteError) Is(target error) bool { return target == ErrPartialWrite }
