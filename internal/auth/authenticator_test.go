package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prueba/login-api/internal/model"
	"github.com/prueba/login-api/internal/repository"
	"github.com/prueba/login-api/internal/utils"
)

type fakeUserFinder struct {
	users map[string]*model.User
}

func (f *fakeUserFinder) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, repository.ErrUserNotFound
}

func testUser(t *testing.T, email, password string, enabled bool) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{
		ID:           1,
		Email:        email,
		PasswordHash: hash,
		Enabled:      enabled,
		Roles:        []model.Role{{ID: 1, Name: "USER"}},
	}
}

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	finder := &fakeUserFinder{users: map[string]*model.User{
		"ana@example.com": testUser(t, "ana@example.com", "s3cret", true),
	}}
	a := NewAuthenticator(finder, newTestService(15))

	u, err := a.Authenticate(context.Background(), "ana@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
}

func TestAuthenticate_SameErrorForUnknownUserAndWrongPassword(t *testing.T) {
	t.Parallel()

	finder := &fakeUserFinder{users: map[string]*model.User{
		"ana@example.com": testUser(t, "ana@example.com", "s3cret", true),
	}}
	a := NewAuthenticator(finder, newTestService(15))

	_, errUnknown := a.Authenticate(context.Background(), "nobody@example.com", "s3cret")
	_, errWrongPw := a.Authenticate(context.Background(), "ana@example.com", "wrong")

	assert.ErrorIs(t, errUnknown, ErrBadCredentials)
	assert.ErrorIs(t, errWrongPw, ErrBadCredentials)
	// Identical error values, so responses and logs cannot leak which
	// half of the credential pair was wrong.
	assert.Equal(t, errUnknown, errWrongPw)
}

func TestAuthenticate_DisabledUser(t *testing.T) {
	t.Parallel()

	finder := &fakeUserFinder{users: map[string]*model.User{
		"ana@example.com": testUser(t, "ana@example.com", "s3cret", false),
	}}
	a := NewAuthenticator(finder, newTestService(15))

	_, err := a.Authenticate(context.Background(), "ana@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrUserDisabled)
}

func TestAuthenticate_SocialOnlyAccountHasNoPassword(t *testing.T) {
	t.Parallel()

	social := testUser(t, "bob@example.com", "unused", true)
	social.PasswordHash = "" // created through a provider, no hash
	finder := &fakeUserFinder{users: map[string]*model.User{"bob@example.com": social}}
	a := NewAuthenticator(finder, newTestService(15))

	_, err := a.Authenticate(context.Background(), "bob@example.com", "anything")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginUser_IssuesValidToken(t *testing.T) {
	t.Parallel()

	ts := newTestService(15)
	finder := &fakeUserFinder{users: map[string]*model.User{
		"ana@example.com": testUser(t, "ana@example.com", "s3cret", true),
	}}
	a := NewAuthenticator(finder, ts)

	res, err := a.LoginUser(context.Background(), "ana@example.com", "s3cret")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ana@example.com", res.Username)

	claims, err := ts.ValidateToken(res.Token)
	require.NoError(t, err)
	subject, err := claims.Subject()
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", subject)
	assert.Equal(t, []Authority{"ROLE_USER"}, claims.Authorities())
}
