package accounts

import (
	"log/slog"
	"strings"
)

type TokenVerifier interface {
	Verify(token string) (email string, err error)
}

// Guard turns an inbound session token into the caller's email. Every
// failure, whatever the cause, is reported as ErrUnauthorized.
type Guard struct {
	tokens TokenVerifier
	log    *slog.Logger
}

func NewGuard(tokens TokenVerifier, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{tokens: tokens, log: log}
}

func (g *Guard) Authenticate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthorized
	}

	email, err := g.tokens.Verify(token)
	if err != nil {
		g.log.Debug("session_rejected", "reason", err.Error())
		return "", ErrUnauthorized
	}

	return email, nil
}
