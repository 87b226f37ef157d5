package auth

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/prueba/login-api/internal/model"
	"github.com/prueba/login-api/internal/repository"
	"github.com/prueba/login-api/internal/utils"
)

// UserFinder is the slice of the user repository the authenticator
// needs: a lookup by email (the username).
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// dummyHash is a bcrypt hash of an unguessable value. It is compared
// against the supplied password when the username does not exist so
// the unknown-user and wrong-password paths take comparable time.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthResult is the outcome of a successful authentication, shared by
// the credential and social login paths.
type AuthResult struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	Token    string `json:"jwt"`
	Success  bool   `json:"success"`
}

// Authenticator verifies local username/password credentials and
// issues access tokens for them.
type Authenticator struct {
	users  UserFinder
	tokens *TokenService
}

func NewAuthenticator(users UserFinder, tokens *TokenService) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// Authenticate looks the user up by email and verifies the password
// against the stored bcrypt hash. Unknown user and wrong password
// produce the same error value and the same log line.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a bcrypt compare anyway to keep latency in line
			// with the wrong-password path.
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			log.Printf("auth: login rejected for %q: bad credentials", email)
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		log.Printf("auth: login rejected for %q: bad credentials", email)
		return nil, ErrBadCredentials
	}
	if !u.Enabled {
		log.Printf("auth: login rejected for %q: account disabled", email)
		return nil, ErrUserDisabled
	}
	return u, nil
}

// LoginUser composes Authenticate with token issuance. It is the sole
// effect of a credential login; no session state is created anywhere.
func (a *Authenticator) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := a.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, err := a.tokens.CreateToken(u.Email, AuthoritiesOf(u.Roles))
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Username: u.Email,
		Message:  "login successful",
		Token:    token,
		Success:  true,
	}, nil
}
