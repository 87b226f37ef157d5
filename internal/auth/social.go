package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/prueba/login-api/internal/model"
	"github.com/prueba/login-api/internal/repository"
)

// SocialUserStore is the slice of the user repository the linker
// needs to reconcile a provider profile with the local store.
type SocialUserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Update(ctx context.Context, u *model.User) (*model.User, error)
}

// RoleFinder resolves role names, used to attach the default role to
// users created on first social login.
type RoleFinder interface {
	FindByName(ctx context.Context, name string) (*model.Role, error)
}

// SocialLinker reconciles an external identity provider profile with
// the local user store: create on first login, link when the email is
// already registered locally, reuse when already linked.
type SocialLinker struct {
	users       SocialUserStore
	roles       RoleFinder
	defaultRole string
}

func NewSocialLinker(users SocialUserStore, roles RoleFinder, defaultRole string) *SocialLinker {
	return &SocialLinker{users: users, roles: roles, defaultRole: defaultRole}
}

// socialIDClaim maps a provider name to the profile field carrying
// the provider's unique user identifier. An unmapped provider is a
// configuration error.
func socialIDClaim(provider string) (string, error) {
	switch provider {
	case "google":
		return "sub", nil
	case "facebook":
		return "id", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// Reconcile applies the three-case linking state machine keyed by the
// provider-supplied email:
//
//  1. no local user           -> create enabled user, default role, no hash
//  2. local user, not linked  -> attach provider + social id
//  3. local user, linked      -> return unchanged (idempotent)
//
// A create that loses the race against a concurrent first login for
// the same email hits the UNIQUE(email) index; the resulting
// ErrEmailExists is absorbed by re-reading the row and continuing as
// case 2/3 instead of surfacing a storage error.
func (l *SocialLinker) Reconcile(ctx context.Context, provider string, claims map[string]any) (*model.User, error) {
	idClaim, err := socialIDClaim(provider)
	if err != nil {
		return nil, err
	}
	email := stringClaim(claims, "email")
	socialID := stringClaim(claims, idClaim)
	if email == "" || socialID == "" {
		return nil, fmt.Errorf("%w: provider %s profile lacks email or %s", ErrMissingClaim, provider, idClaim)
	}

	u, err := l.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		created, err := l.createFromProfile(ctx, provider, socialID, claims)
		if !errors.Is(err, repository.ErrEmailExists) {
			return created, err
		}
		// Lost the check-then-create race; fall through to linking.
		log.Printf("auth: concurrent first login for %q via %s, retrying as link", email, provider)
		if u, err = l.users.FindByEmail(ctx, email); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if u.HasSocialAccount() {
		return u, nil
	}
	u.Provider = provider
	u.SocialID = socialID
	return l.users.Update(ctx, u)
}

func (l *SocialLinker) createFromProfile(ctx context.Context, provider, socialID string, claims map[string]any) (*model.User, error) {
	role, err := l.roles.FindByName(ctx, l.defaultRole)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			log.Printf("CONFIG: default role %q missing from roles table", l.defaultRole)
			return nil, ErrRoleNotConfigured
		}
		return nil, err
	}
	return l.users.Create(ctx, &model.User{
		Email:    stringClaim(claims, "email"),
		Name:     stringClaim(claims, "name"),
		Picture:  stringClaim(claims, "picture"),
		Provider: provider,
		SocialID: socialID,
		Enabled:  true,
		Roles:    []model.Role{*role},
	})
}

func stringClaim(claims map[string]any, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
