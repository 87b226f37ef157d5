package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prueba/login-api/internal/auth"
	"github.com/prueba/login-api/internal/model"
	"github.com/prueba/login-api/internal/repository"
)

type fakeUserStore struct {
	byID    map[uint64]*model.User
	nextID  uint64
	creates int
	updates int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[uint64]*model.User), nextID: 1}
}

func (f *fakeUserStore) add(u model.User) *model.User {
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	}
	f.byID[u.ID] = &u
	return &u
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	if err == repository.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) (*model.User, error) {
	f.creates++
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, repository.ErrEmailExists
		}
	}
	return f.add(*u), nil
}

func (f *fakeUserStore) Update(_ context.Context, u *model.User) (*model.User, error) {
	f.updates++
	if _, ok := f.byID[u.ID]; !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUserStore) SetEnabled(_ context.Context, id uint64, enabled bool) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Enabled = enabled
	return nil
}

func (f *fakeUserStore) List(_ context.Context, page, size int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

type fakeRoleStore struct {
	roles map[string]*model.Role
}

func (f *fakeRoleStore) FindByName(_ context.Context, name string) (*model.Role, error) {
	r, ok := f.roles[name]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	return r, nil
}

func newService(store *fakeUserStore) *UserService {
	roles := &fakeRoleStore{roles: map[string]*model.Role{
		"USER": {ID: 1, Name: "USER"},
	}}
	return NewUserService(store, roles, "USER", bcrypt.MinCost)
}

func registerReq() RegisterRequest {
	return RegisterRequest{
		Name:           "Ana",
		Surname:        "García",
		Email:          "ana@example.com",
		Password:       "s3cret",
		RepeatPassword: "s3cret",
	}
}

func TestRegister_CreatesEnabledUserWithDefaultRole(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newService(store)

	u, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana García", u.Name)
	assert.True(t, u.Enabled)
	require.Len(t, u.Roles, 1)
	assert.Equal(t, "USER", u.Roles[0].Name)

	// The stored hash must verify against the submitted password and
	// never equal it.
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))
}

func TestRegister_PasswordMismatchSavesNothing(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newService(store)

	req := registerReq()
	req.RepeatPassword = "other"

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Zero(t, store.creates, "mismatch must not reach the repository")
}

func TestRegister_TakenEmailSavesNothing(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.add(model.User{Email: "ana@example.com", Enabled: true})
	svc := newService(store)

	_, err := svc.Register(context.Background(), registerReq())
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	assert.Zero(t, store.creates)
}

func TestRegister_MissingDefaultRole(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := NewUserService(store, &fakeRoleStore{roles: map[string]*model.Role{}}, "USER", bcrypt.MinCost)

	_, err := svc.Register(context.Background(), registerReq())
	assert.ErrorIs(t, err, auth.ErrRoleNotConfigured)
	assert.Zero(t, store.creates)
}

func TestUpdate_EmailMoveToTakenAddressConflicts(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	ana := store.add(model.User{Email: "ana@example.com", Name: "Ana", Enabled: true})
	store.add(model.User{Email: "bob@example.com", Enabled: true})
	svc := newService(store)

	_, err := svc.Update(context.Background(), ana.ID, UpdateRequest{
		Name:  "Ana",
		Email: "bob@example.com",
	})
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	assert.Zero(t, store.updates)
}

func TestUpdate_SameEmailRewritesProfileFields(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	ana := store.add(model.User{Email: "ana@example.com", Name: "Ana", Enabled: true})
	svc := newService(store)

	got, err := svc.Update(context.Background(), ana.ID, UpdateRequest{
		Name:    "Ana María",
		Email:   "ana@example.com",
		Picture: "https://cdn/ana.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.Name)
	assert.Equal(t, "https://cdn/ana.png", got.Picture)
}

func TestDisable_ClearsEnabledOnly(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	ana := store.add(model.User{
		Email:        "ana@example.com",
		Name:         "Ana",
		PasswordHash: "$2a$04$hash",
		Enabled:      true,
	})
	svc := newService(store)

	require.NoError(t, svc.Disable(context.Background(), ana.ID))

	got, err := store.FindByID(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "$2a$04$hash", got.PasswordHash)
}

func TestDisable_UnknownUser(t *testing.T) {
	t.Parallel()

	svc := newService(newFakeUserStore())
	err := svc.Disable(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
