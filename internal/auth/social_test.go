package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prueba/login-api/internal/model"
	"github.com/prueba/login-api/internal/repository"
)

// fakeSocialStore is an in-memory SocialUserStore keyed by email. The
// createErrs queue lets tests inject duplicate-key failures to
// simulate the concurrent first-login race.
type fakeSocialStore struct {
	byEmail    map[string]*model.User
	nextID     uint64
	createErrs []error
	lookupMiss int // first N FindByEmail calls report not-found
	creates    int
	updates    int
}

func newFakeSocialStore() *fakeSocialStore {
	return &fakeSocialStore{byEmail: map[string]*model.User{}, nextID: 1}
}

func (f *fakeSocialStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if f.lookupMiss > 0 {
		f.lookupMiss--
		return nil, repository.ErrUserNotFound
	}
	if u, ok := f.byEmail[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeSocialStore) Create(_ context.Context, u *model.User) (*model.User, error) {
	f.creates++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	stored := *u
	stored.ID = f.nextID
	f.nextID++
	f.byEmail[stored.Email] = &stored
	out := stored
	return &out, nil
}

func (f *fakeSocialStore) Update(_ context.Context, u *model.User) (*model.User, error) {
	f.updates++
	stored := *u
	f.byEmail[stored.Email] = &stored
	out := stored
	return &out, nil
}

type fakeRoleFinder struct {
	roles map[string]*model.Role
}

func (f *fakeRoleFinder) FindByName(_ context.Context, name string) (*model.Role, error) {
	if r, ok := f.roles[name]; ok {
		return r, nil
	}
	return nil, repository.ErrRoleNotFound
}

func defaultRoles() *fakeRoleFinder {
	return &fakeRoleFinder{roles: map[string]*model.Role{
		"USER": {ID: 1, Name: "USER"},
	}}
}

func googleClaims() map[string]any {
	return map[string]any{
		"sub":     "google-uid-1",
		"email":   "ana@example.com",
		"name":    "Ana Torres",
		"picture": "https://lh3.example.com/ana.png",
	}
}

func TestReconcile_CreatesUserOnFirstLogin(t *testing.T) {
	t.Parallel()

	store := newFakeSocialStore()
	linker := NewSocialLinker(store, defaultRoles(), "USER")

	u, err := linker.Reconcile(context.Background(), "google", googleClaims())
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana Torres", u.Name)
	assert.Equal(t, "https://lh3.example.com/ana.png", u.Picture)
	assert.Equal(t, "google", u.Provider)
	assert.Equal(t, "google-uid-1", u.SocialID)
	assert.True(t, u.Enabled)
	assert.Empty(t, u.PasswordHash)
	require.Len(t, u.Roles, 1)
	assert.Equal(t, "USER", u.Roles[0].Name)
}

func TestReconcile_LinksExistingCredentialAccount(t *testing.T) {
	t.Parallel()

	store := newFakeSocialStore()
	store.byEmail["ana@example.com"] = &model.User{
		ID:           7,
		Email:        "ana@example.com",
		PasswordHash: "$2a$10$hash",
		Name:         "Ana Torres",
		Enabled:      true,
		Roles:        []model.Role{{ID: 1, Name: "USER"}, {ID: 2, Name: "ADMIN"}},
	}
	linker := NewSocialLinker(store, defaultRoles(), "USER")

	u, err := linker.Reconcile(context.Background(), "google", googleClaims())
	require.NoError(t, err)

	// Identity and roles preserved, only the linking columns change.
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash)
	assert.Len(t, u.Roles, 2)
	assert.Equal(t, "google", u.Provider)
	assert.Equal(t, "google-uid-1", u.SocialID)
	assert.Zero(t, store.creates)
	assert.Equal(t, 1, store.updates)
}

func TestReconcile_AlreadyLinkedIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeSocialStore()
	linker := NewSocialLinker(store, defaultRoles(), "USER")

	first, err := linker.Reconcile(context.Background(), "google", googleClaims())
	require.NoError(t, err)
	second, err := linker.Reconcile(context.Background(), "google", googleClaims())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.creates)
	assert.Zero(t, store.updates) // creation attaches the link, the second login is a read
}

func TestReconcile_FacebookUsesIDClaim(t *testing.T) {
	t.Parallel()

	store := newFakeSocialStore()
	linker := NewSocialLinker(store, defaultRoles(), "USER")

	u, err := linker.Reconcile(context.Background(), "facebook", map[string]any{
		"id":    "fb-uid-9",
		"email": "bob@example.com",
		"name":  "Bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "facebook", u.Provider)
	assert.Equal(t, "fb-uid-9", u.SocialID)
}

func TestReconcile_UnknownProvider(t *testing.T) {
	t.Parallel()

	linker := NewSocialLinker(newFakeSocialStore(), defaultRoles(), "USER")

	_, err := linker.Reconcile(context.Background(), "myspace", googleClaims())
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestReconcile_MissingEmailClaim(t *testing.T) {
	t.Parallel()

	linker := NewSocialLinker(newFakeSocialStore(), defaultRoles(), "USER")

	_, err := linker.Reconcile(context.Background(), "google", map[string]any{"sub": "x"})
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestReconcile_DefaultRoleMissing(t *testing.T) {
	t.Parallel()

	linker := NewSocialLinker(newFakeSocialStore(), &fakeRoleFinder{roles: map[string]*model.Role{}}, "USER")

	_, err := linker.Reconcile(context.Background(), "google", googleClaims())
	assert.ErrorIs(t, err, ErrRoleNotConfigured)
}

func TestReconcile_LostCreateRaceFallsBackToLinking(t *testing.T) {
	t.Parallel()

	store := newFakeSocialStore()
	// First lookup misses, the create collides with a concurrent
	// writer on UNIQUE(email), and the retry lookup sees the row that
	// writer committed.
	store.lookupMiss = 1
	store.createErrs = []error{repository.ErrEmailExists}
	store.byEmail["ana@example.com"] = &model.User{
		ID:      3,
		Email:   "ana@example.com",
		Name:    "Ana Torres",
		Enabled: true,
		Roles:   []model.Role{{ID: 1, Name: "USER"}},
	}
	linker := NewSocialLinker(store, defaultRoles(), "USER")

	u, err := linker.Reconcile(context.Background(), "google", googleClaims())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, "google", u.Provider)
	assert.Equal(t, "google-uid-1", u.SocialID)
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, 1, store.updates, "the lost race resolves by linking the committed row")
}
