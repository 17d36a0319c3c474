package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/dogwalker/internal/accounts"
	"github.com/geocoder89/dogwalker/internal/auth"
	"github.com/geocoder89/dogwalker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, req accounts.Request) (accounts.Session, error)
	Login(ctx context.Context, req accounts.Request) (accounts.Session, error)
	Exists(ctx context.Context, email string) (bool, error)
	Profile(ctx context.Context, email string) (accounts.Profile, error)
}

type AccountsHandler struct {
	svc          AccountService
	secureCookie bool
	log          *slog.Logger
}

func NewAccountsHandler(svc AccountService, secureCookie bool, log *slog.Logger) *AccountsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AccountsHandler{svc: svc, secureCookie: secureCookie, log: log}
}

// Register handles POST /register.
func (h *AccountsHandler) Register(ctx *gin.Context) {
	var req accounts.Request

	if !BindJSON(ctx, &req) {
		return
	}

	sess, err := h.svc.Register(ctx.Request.Context(), req)
	h.respondSession(ctx, sess, err)
}

// Login handles POST /login.
func (h *AccountsHandler) Login(ctx *gin.Context) {
	var req accounts.Request

	if !BindJSON(ctx, &req) {
		return
	}

	sess, err := h.svc.Login(ctx.Request.Context(), req)
	h.respondSession(ctx, sess, err)
}

// CheckUserExists answers with a bare JSON boolean.
func (h *AccountsHandler) CheckUserExists(ctx *gin.Context) {
	exists, err := h.svc.Exists(ctx.Request.Context(), ctx.Query("email"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, exists)
}

// Profile returns the caller's account and pets. Requires RequireAuth.
func (h *AccountsHandler) Profile(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	profile, err := h.svc.Profile(ctx.Request.Context(), email)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

func (h *AccountsHandler) respondSession(ctx *gin.Context, sess accounts.Session, err error) {
	var partial *accounts.PartialWriteError

	switch {
	case err == nil:
		h.setSessionCookie(ctx, sess.Token)
		ctx.JSON(http.StatusOK, gin.H{"access_token_cookie": sess.Token})

	case errors.As(err, &partial):
		h.setSessionCookie(ctx, sess.Token)
		ctx.JSON(http.StatusMultiStatus, gin.H{
			"access_token_cookie": sess.Token,
			"savedDogs":           partial.Saved,
			"failedDogs":          partial.Failed,
		})

	default:
		h.respondError(ctx, err)
	}
}

func (h *AccountsHandler) respondError(ctx *gin.Context, err error) {
	var verr *accounts.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": fieldErrors(verr)})
	case errors.Is(err, accounts.ErrAccountExists):
		RespondConflict(ctx, "account_exists", "An account with this email already exists.")
	case errors.Is(err, accounts.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, accounts.ErrUnauthorized):
		RespondUnAuthorized(ctx, "unauthorized", "Invalid or expired session")
	case errors.Is(err, accounts.ErrNotFound):
		RespondNotFound(ctx, "Account not found")
	case errors.Is(err, accounts.ErrStoreUnavailable):
		h.log.ErrorContext(ctx.Request.Context(), "store_unavailable", "err", err)
		RespondUnavailable(ctx, "Service temporarily unavailable, please retry.")
	default:
		h.log.ErrorContext(ctx.Request.Context(), "unhandled_error", "err", err)
		RespondInternal(ctx, "Something went wrong")
	}
}

func fieldErrors(verr *accounts.ValidationError) []FieldError {
	out := make([]FieldError, 0, len(verr.Issues))
	for _, is := range verr.Issues {
		out = append(out, FieldError{
			Field:   is.Field,
			Rule:    is.Rule,
			Param:   is.Param,
			Message: validationMessage(is.Rule, is.Param),
		})
	}
	return out
}

func (h *AccountsHandler) setSessionCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		middlewares.SessionCookie,
		token,
		int(auth.SessionTTL.Seconds()),
		"/",
		"",
		h.secureCookie,
		true, // HttpOnly.
	)
}
