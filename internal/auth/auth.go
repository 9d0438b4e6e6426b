// Package auth verifies tengecash web-site credentials.
package auth

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"gitlab.com/yelinaung/tengecash-bot/internal/models"
	"gitlab.com/yelinaung/tengecash-bot/internal/repository"
)

// Authentication failures.
var (
	ErrUnknownUser     = errors.New("unknown username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInactive        = errors.New("account is inactive")
)

// dummyHash is checked when the username is unknown so both failure paths cost the same.
const dummyHash = "pbkdf2_sha256$600000$timingsalt$2nmtFVZzWPuHr0Bz0WyPbIMDi8ZsAfZ8b0CmuhCE0w0="

// AccountFinder looks up web-site accounts by username.
type AccountFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
}

// Authenticator checks a username/password pair against stored accounts.
type Authenticator struct {
	accounts AccountFinder
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(accounts AccountFinder) *Authenticator {
	return &Authenticator{accounts: accounts}
}

// Authenticate returns the account when the credentials are valid.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	acc, err := a.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = CheckPassword(password, dummyHash)
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	ok, err := CheckPassword(password, acc.PasswordHash)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUsername(username)).Msg("Cannot verify stored password")
		return nil, fmt.Errorf("%w: %w", ErrInvalidPassword, err)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	if !acc.IsActive {
		return nil, ErrInactive
	}

	return acc, nil
}
