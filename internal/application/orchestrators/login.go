package orchestrators

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid email or password")

// TokenIssuer mints bearer tokens for an authenticated admin.
type TokenIssuer interface {
	Issue(subject string) (token string, expiresAt time.Time, err error)
}

// AdminCredentials is the single configured administrator.
type AdminCredentials struct {
	Email        string
	PasswordHash string // bcrypt
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Admin  AdminCredentials
	Tokens TokenIssuer
}

// ExecuteLogin checks the admin credentials and issues a bearer token.
// PRE: none
// POST: Returns a token on success; ErrInvalidCredentials for any mismatch
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" || deps.Admin.PasswordHash == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(deps.Admin.Email))) == 1
	// Always run bcrypt so a wrong email costs the same as a wrong password.
	pwErr := bcrypt.CompareHashAndPassword([]byte(deps.Admin.PasswordHash), []byte(input.Password))
	if !emailMatch || pwErr != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email)
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := deps.Tokens.Issue(email)
	if err != nil {
		return LoginResult{}, err
	}
	slog.Info("auth_event", "event", "login_success", "email", email)
	return LoginResult{Token: token, ExpiresAt: exp}, nil
}
