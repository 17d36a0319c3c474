package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/dogwalker/internal/domain/pet"
	"github.com/geocoder89/dogwalker/internal/domain/user"
	"github.com/geocoder89/dogwalker/internal/observability"
	"github.com/geocoder89/dogwalker/internal/security"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/dogwalker/internal/accounts")

// CredentialStore must detect duplicates atomically: of two concurrent
// Create calls for one email exactly one succeeds and the other returns
// user.ErrEmailTaken.
type CredentialStore interface {
	Create(ctx context.Context, u user.User) error
	Exists(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	SetWalkerFlag(ctx context.Context, email string, isWalker bool) error
}

type PetStore interface {
	Create(ctx context.Context, p pet.Pet) error
	ListByOwner(ctx context.Context, owner string) ([]pet.Pet, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
	CheckDummy(plain string)
}

type TokenIssuer interface {
	Issue(email string) (token string, expiresAt time.Time, err error)
}

type Session struct {
	Email     string
	Token     string
	ExpiresAt time.Time
	PetsSaved int
}

type Profile struct {
	Email    string        `json:"email"`
	IsWalker bool          `json:"isWalker"`
	Pets     []pet.Summary `json:"pets"`
}

type Options struct {
	StoreTimeout time.Duration
	Logger       *slog.Logger
	Prom         *observability.Prom
}

type Service struct {
	users        CredentialStore
	pets         PetStore
	hasher       PasswordHasher
	tokens       TokenIssuer
	validator    *validator.Validate
	storeTimeout time.Duration
	log          *slog.Logger
	prom         *observability.Prom
}

func NewService(users CredentialStore, pets PetStore, hasher PasswordHasher, tokens TokenIssuer, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:        users,
		pets:         pets,
		hasher:       hasher,
		tokens:       tokens,
		validator:    newValidator(),
		storeTimeout: timeoutOr(opts.StoreTimeout),
		log:          log,
		prom:         opts.Prom,
	}
}

// Register creates the account, then each supplied pet, then a session.
// A duplicate email fails before any write. Pet failures do not undo the
// account; they come back as *PartialWriteError next to a usable Session.
func (s *Service) Register(ctx context.Context, req Request) (sess Session, err error) {
	ctx, span := tracer.Start(ctx, "accounts.Register", trace.WithAttributes(
		attribute.Int("pets.requested", len(req.Pets)),
	))
	defer func() { s.finishSpan(span, "register", err) }()

	if err = s.validate(req); err != nil {
		return
	}

	email := req.User.Email

	hash, err := s.hasher.Hash(req.User.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w: %w", ErrStoreUnavailable, err)
		return
	}

	err = s.call(ctx, "users.create", func(ctx context.Context) error {
		return s.users.Create(ctx, user.New(email, hash, req.User.IsWalker))
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			s.log.InfoContext(ctx, "register_duplicate")
			err = ErrAccountExists
		}
		return
	}

	s.log.InfoContext(ctx, "account_registered", "is_walker", req.User.IsWalker, "pets", len(req.Pets))

	return s.completeSession(ctx, email, req.Pets)
}

// Login verifies the password, overwrites the walker flag with the submitted
// value, adds any supplied pets and returns a fresh session. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req Request) (sess Session, err error) {
	ctx, span := tracer.Start(ctx, "accounts.Login", trace.WithAttributes(
		attribute.Int("pets.requested", len(req.Pets)),
	))
	defer func() { s.finishSpan(span, "login", err) }()

	if err = s.validate(req); err != nil {
		return
	}

	email := req.User.Email

	found, err := callValue(s, ctx, "users.find_by_email", func(ctx context.Context) (user.User, error) {
		return s.users.FindByEmail(ctx, email)
	})

	if errors.Is(err, user.ErrNotFound) {
		s.hasher.CheckDummy(req.User.Password)
		s.log.InfoContext(ctx, "login_failed", "reason", "unknown_account")
		err = ErrInvalidCredentials
		return
	}
	if err != nil {
		return
	}

	if cerr := s.hasher.Check(found.PasswordHash, req.User.Password); cerr != nil {
		if !errors.Is(cerr, security.ErrPasswordMismatch) {
			s.log.ErrorContext(ctx, "stored password hash unusable", "err", cerr)
		}
		s.log.InfoContext(ctx, "login_failed", "reason", "password_mismatch")
		err = ErrInvalidCredentials
		return
	}

	err = s.setWalkerFlag(ctx, email, req.User.IsWalker)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	return s.completeSession(ctx, email, req.Pets)
}

// setWalkerFlag is the single place a login rewrites the stored role.
func (s *Service) setWalkerFlag(ctx context.Context, email string, isWalker bool) error {
	return s.call(ctx, "users.set_walker_flag", func(ctx context.Context) error {
		return s.users.SetWalkerFlag(ctx, email, isWalker)
	})
}

func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, &ValidationError{Issues: []FieldIssue{{Field: "email", Rule: "required"}}}
	}

	return callValue(s, ctx, "users.exists", func(ctx context.Context) (bool, error) {
		return s.users.Exists(ctx, email)
	})
}

// Profile returns the account and a projection of every pet it owns.
func (s *Service) Profile(ctx context.Context, email string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "accounts.Profile")
	defer span.End()

	found, err := callValue(s, ctx, "users.find_by_email", func(ctx context.Context) (user.User, error) {
		return s.users.FindByEmail(ctx, email)
	})

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}

	pets, err := callValue(s, ctx, "pets.list_by_owner", func(ctx context.Context) ([]pet.Pet, error) {
		return s.pets.ListByOwner(ctx, email)
	})

	if err != nil {
		return Profile{}, err
	}

	return Profile{
		Email:    found.Email,
		IsWalker: found.IsWalker,
		Pets:     pet.Summaries(pets),
	}, nil
}

func (s *Service) completeSession(ctx context.Context, email string, inputs []PetInput) (Session, error) {
	saved, failed := s.savePets(ctx, email, inputs)

	token, expiresAt, err := s.tokens.Issue(email)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w: %w", ErrStoreUnavailable, err)
	}

	sess := Session{
		Email:     email,
		Token:     token,
		ExpiresAt: expiresAt,
		PetsSaved: saved,
	}

	if len(failed) > 0 {
		return sess, &PartialWriteError{Saved: saved, Failed: failed}
	}

	return sess, nil
}

// savePets writes each pet independently; owner is always the account email.
func (s *Service) savePets(ctx context.Context, email string, inputs []PetInput) (int, []PetFailure) {
	saved := 0
	var failed []PetFailure

	for i, in := range inputs {
		p := pet.New(email, in.Name, in.Breed, in.Age)

		err := s.call(ctx, "pets.create", func(ctx context.Context) error {
			return s.pets.Create(ctx, p)
		})

		if err != nil {
			s.log.WarnContext(ctx, "pet_write_failed", "index", i, "err", err)
			failed = append(failed, PetFailure{Index: i, Name: in.Name, Err: err})
			continue
		}
		saved++
	}

	return saved, failed
}

func (s *Service) finishSpan(span trace.Span, op string, err error) {
	result := resultLabel(err)

	if err != nil {
		span.RecordError(err)
		if result != "partial" {
			span.SetStatus(codes.Error, result)
		}
	}
	span.SetAttributes(attribute.String("result", result))
	span.End()

	if s.prom != nil {
		s.prom.AuthResults.WithLabelValues(op, result).Inc()
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrAccountExists):
		return "exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrPartialWrite):
		return "partial"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
