package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gatepass/internal/shared/config"
	"gatepass/internal/users"
)

type fakeAuthRepo struct {
	byID    map[uuid.UUID]*users.User
	byEmail map[string]*users.User
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		byID:    make(map[uuid.UUID]*users.User),
		byEmail: make(map[string]*users.User),
	}
}

func (f *fakeAuthRepo) Create(_ context.Context, user *users.User) error {
	user.ID = uuid.New()
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeAuthRepo) ByEmail(_ context.Context, email string) (*users.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeAuthRepo) ByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeAuthRepo) SetPassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeAuthRepo) EmailTaken(_ context.Context, email string) (bool, error) {
	_, taken := f.byEmail[email]
	return taken, nil
}

func newAuthFixture() (Service, *fakeAuthRepo) {
	repo := newFakeAuthRepo()
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			JWTExpiresIn:     15 * time.Minute,
			RefreshExpiresIn: 24 * time.Hour,
		},
	}
	return NewService(repo, cfg), repo
}

func registerRequest(email, role string) *RegisterRequest {
	return &RegisterRequest{
		FirstName: "Tomas",
		LastName:  "Adeyemi",
		Email:     email,
		Password:  "qwerty",
		Role:      role,
	}
}

func TestRegister_DefaultsToVisitorRole(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerRequest("t@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, string(users.RoleVisitor), resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestRegister_AdminRoleNotSelfAssignable(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerRequest("t@example.com", "ADMIN"))
	require.NoError(t, err)
	assert.Equal(t, string(users.RoleVisitor), resp.User.Role)
}

func TestRegister_HostRoleAccepted(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerRequest("h@example.com", "host"))
	require.NoError(t, err)
	assert.Equal(t, string(users.RoleHost), resp.User.Role)
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), registerRequest("t@example.com", ""))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerRequest("t@example.com", ""))
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), registerRequest("t@example.com", ""))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &LoginRequest{Email: "t@example.com", Password: "nope00"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmailIndistinguishableFromWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), &LoginRequest{Email: "ghost@example.com", Password: "qwerty"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken_AccessTokenRejected(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerRequest("t@example.com", ""))
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_MintsNewPair(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerRequest("t@example.com", ""))
	require.NoError(t, err)

	pair, err := svc.RefreshToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "access", claims.Type)
}

func TestChangePassword_RequiresCurrentPassword(t *testing.T) {
	svc, repo := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerRequest("t@example.com", ""))
	require.NoError(t, err)
	userID := uuid.MustParse(resp.User.ID)

	err = svc.ChangePassword(context.Background(), userID, &ChangePasswordRequest{
		CurrentPassword: "wrong1",
		NewPassword:     "changed",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), userID, &ChangePasswordRequest{
		CurrentPassword: "qwerty",
		NewPassword:     "changed",
	})
	require.NoError(t, err)

	stored := repo.byID[userID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("changed")))
}

func TestMe_ReflectsStoredProfileNotTokenClaims(t *testing.T) {
	svc, repo := newAuthFixture()

	resp, err := svc.Register(context.Background(), registerRequest("h@example.com", "HOST"))
	require.NoError(t, err)
	userID := uuid.MustParse(resp.User.ID)

	// Disable hosting after the token was issued; the profile endpoint
	// must show it without waiting for a new login.
	repo.byID[userID].HostingDisabled = true

	profile, err := svc.Me(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, profile.HostingDisabled)
	assert.Equal(t, string(users.RoleHost), profile.Role)
}
