package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/prueba/login-api/internal/auth"
	"github.com/prueba/login-api/internal/model"
	"github.com/prueba/login-api/internal/queue"
	"github.com/prueba/login-api/internal/repository"
	"github.com/prueba/login-api/internal/utils"
)

// ErrPasswordMismatch is returned when the registration password and
// its confirmation field differ. Nothing is persisted in that case.
var ErrPasswordMismatch = errors.New("password and confirmation do not match")

// UserStore is the repository surface the user service depends on.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Update(ctx context.Context, u *model.User) (*model.User, error)
	SetEnabled(ctx context.Context, id uint64, enabled bool) error
	List(ctx context.Context, page, size int) ([]model.User, int64, error)
}

// RoleStore resolves role names for registration.
type RoleStore interface {
	FindByName(ctx context.Context, name string) (*model.Role, error)
}

// RegisterRequest carries the registration form fields.
type RegisterRequest struct {
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeat_password"`
	Picture        string `json:"picture"`
}

// UpdateRequest carries the mutable profile fields of a user.
type UpdateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// UserService implements registration and account management on top
// of the user and role repositories.
type UserService struct {
	users       UserStore
	roles       RoleStore
	defaultRole string
	bcryptCost  int
}

func NewUserService(users UserStore, roles RoleStore, defaultRole string, bcryptCost int) *UserService {
	return &UserService{users: users, roles: roles, defaultRole: defaultRole, bcryptCost: bcryptCost}
}

// Register validates the form, hashes the password and persists a new
// enabled user carrying the default role. No row is written when the
// email is taken or the confirmation does not match.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrEmailExists
	}
	if req.Password != req.RepeatPassword {
		return nil, ErrPasswordMismatch
	}

	role, err := s.defaultRoleOrErr(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name + " " + req.Surname)
	created, err := s.users.Create(ctx, &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         name,
		Picture:      req.Picture,
		Enabled:      true,
		Roles:        []model.Role{*role},
	})
	if err != nil {
		return nil, err
	}
	// Best effort; a broker outage must not fail the registration.
	_ = PublishAuthEvent(ctx, queue.AuthEvent{Type: queue.EventUserRegistered, Email: created.Email})
	return created, nil
}

// GetByID returns the user with the given identifier.
func (s *UserService) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

// GetAuthenticated returns the account backing the current principal.
func (s *UserService) GetAuthenticated(ctx context.Context, email string) (*model.User, error) {
	return s.users.FindByEmail(ctx, email)
}

// List returns one page of users plus the total count.
func (s *UserService) List(ctx context.Context, page, size int) ([]model.User, int64, error) {
	return s.users.List(ctx, page, size)
}

// Update rewrites a user's profile fields. Moving to an email owned
// by another account is a conflict.
func (s *UserService) Update(ctx context.Context, id uint64, req UpdateRequest) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != u.Email {
		taken, err := s.users.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, repository.ErrEmailExists
		}
		u.Email = req.Email
	}
	u.Name = req.Name
	u.Picture = req.Picture
	return s.users.Update(ctx, u)
}

// Disable performs the soft delete: the enabled flag is cleared and
// every other field is left untouched. Disabled users fail credential
// authentication from the next attempt on.
func (s *UserService) Disable(ctx context.Context, id uint64) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.SetEnabled(ctx, u.ID, false); err != nil {
		return err
	}
	_ = PublishAuthEvent(ctx, queue.AuthEvent{Type: queue.EventUserDisabled, Email: u.Email})
	return nil
}

func (s *UserService) defaultRoleOrErr(ctx context.Context) (*model.Role, error) {
	role, err := s.roles.FindByName(ctx, s.defaultRole)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			log.Printf("CONFIG: default role %q missing from roles table", s.defaultRole)
			return nil, auth.ErrRoleNotConfigured
		}
		return nil, err
	}
	return role, nil
}
