package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	credentialsTo string
	tempPassword  string
	verifyTo      string
}

func (m *captureMailer) SendCredentials(to, fullName, tempPassword string) error {
	m.credentialsTo = to
	m.tempPassword = tempPassword
	return nil
}

func (m *captureMailer) SendVerification(to, fullName, verifyURL string) error {
	m.verifyTo = to
	return nil
}

func newUserEnv(t *testing.T) (*testEnv, UserService, *captureMailer) {
	t.Helper()
	env := newTestEnv(t)
	mail := &captureMailer{}
	tx := repository.NewTransactionManager(env.db)
	svc := NewUserService(env.users, env.rbac, tx, env.audit, mail)
	return env, svc, mail
}

func TestRegisterCreatesInactiveCustomer(t *testing.T) {
	_, svc, mail := newUserEnv(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email:    "guest@example.com",
		Phone:    "+4912345678",
		FullName: "Some Guest",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Customer", user.Role)
	assert.False(t, user.IsActive)
	assert.False(t, user.IsEmailVerified)
	assert.Equal(t, "some-guest", user.Slug)
	assert.Equal(t, "guest@example.com", mail.verifyTo)

	// Duplicate email is rejected.
	_, err = svc.Register(ctx, RegisterRequest{
		Email:    "guest@example.com",
		Phone:    "+4987654321",
		FullName: "Other Guest",
		Password: "secret123",
	})
	assert.True(t, IsValidation(err))
}

func TestVerifyEmailActivates(t *testing.T) {
	_, svc, _ := newUserEnv(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email: "guest@example.com", Phone: "1", FullName: "Guest", Password: "secret123",
	})
	require.NoError(t, err)

	verified, err := svc.VerifyEmail(ctx, user.Slug)
	require.NoError(t, err)
	assert.True(t, verified.IsActive)
	assert.True(t, verified.IsEmailVerified)

	_, err = svc.VerifyEmail(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginIssuesTokensAndAudits(t *testing.T) {
	env, svc, _ := newUserEnv(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email: "guest@example.com", Phone: "1", FullName: "Guest", Password: "secret123",
	})
	require.NoError(t, err)
	_, err = svc.VerifyEmail(ctx, user.Slug)
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginRequest{Email: "guest@example.com", Password: "secret123"}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)

	_, err = svc.Login(ctx, LoginRequest{Email: "guest@example.com", Password: "wrong"}, "", "")
	assert.True(t, IsValidation(err))

	// The login shows up in the audit trail.
	_, total, err := env.audit.List(ctx, superuserActor(), AuditFilter{Action: model.ActionLogin, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestRefreshRotatesToken(t *testing.T) {
	_, svc, _ := newUserEnv(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email: "guest@example.com", Phone: "1", FullName: "Guest", Password: "secret123",
	})
	require.NoError(t, err)
	_, err = svc.VerifyEmail(ctx, user.Slug)
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginRequest{Email: "guest@example.com", Password: "secret123"}, "", "")
	require.NoError(t, err)

	pair, err := svc.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.Tokens.RefreshToken, pair.RefreshToken)

	// The old token is single use.
	_, err = svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.True(t, IsValidation(err))
}

func TestCreateUserAdminFlow(t *testing.T) {
	env, svc, mail := newUserEnv(t)
	ctx := context.Background()

	admin := newTestUser(t, env, "admin@example.com", "Admin")

	created, err := svc.CreateUser(ctx, ActorFromUser(admin), CreateUserRequest{
		Email:    "newhire@example.com",
		Phone:    "2",
		FullName: "New Hire",
		Role:     "Staff",
	})
	require.NoError(t, err)
	assert.True(t, created.ForcePasswordChange)
	assert.True(t, created.IsActive)
	assert.Equal(t, "newhire@example.com", mail.credentialsTo)
	assert.NotEmpty(t, mail.tempPassword)

	// Profile with a delete code exists in the same transaction.
	full, err := env.users.GetBySlug(ctx, created.Slug)
	require.NoError(t, err)
	profile, err := env.users.GetProfileByUserID(ctx, full.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, profile.DeleteCode)

	// The emailed temporary password actually works.
	res, err := svc.Login(ctx, LoginRequest{Email: "newhire@example.com", Password: mail.tempPassword}, "", "")
	require.NoError(t, err)
	assert.True(t, res.User.ForcePasswordChange)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	env, svc, _ := newUserEnv(t)
	staff := newTestUser(t, env, "staff@example.com", "Staff")

	_, err := svc.CreateUser(context.Background(), ActorFromUser(staff), CreateUserRequest{
		Email: "x@example.com", Phone: "9", FullName: "X", Role: "Staff",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteUserNeedsDeleteCode(t *testing.T) {
	env, svc, _ := newUserEnv(t)
	ctx := context.Background()

	admin := newTestUser(t, env, "admin@example.com", "Admin")
	created, err := svc.CreateUser(ctx, ActorFromUser(admin), CreateUserRequest{
		Email: "victim@example.com", Phone: "3", FullName: "Victim", Role: "Staff",
	})
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, ActorFromUser(admin), created.Slug, DeleteUserRequest{DeleteCode: "WRONG"})
	assert.True(t, IsValidation(err))

	full, err := env.users.GetBySlug(ctx, created.Slug)
	require.NoError(t, err)
	profile, err := env.users.GetProfileByUserID(ctx, full.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, ActorFromUser(admin), created.Slug, DeleteUserRequest{DeleteCode: profile.DeleteCode}))

	_, err = svc.GetUser(ctx, created.Slug)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePasswordInvalidatesSessions(t *testing.T) {
	_, svc, _ := newUserEnv(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email: "guest@example.com", Phone: "1", FullName: "Guest", Password: "secret123",
	})
	require.NoError(t, err)
	_, err = svc.VerifyEmail(ctx, user.Slug)
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginRequest{Email: "guest@example.com", Password: "secret123"}, "", "")
	require.NoError(t, err)

	actor := Actor{ID: res.User.ID, Email: res.User.Email}
	err = svc.ChangePassword(ctx, actor, ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret"})
	assert.True(t, IsValidation(err))

	require.NoError(t, svc.ChangePassword(ctx, actor, ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}))

	// Old refresh token is gone, new password logs in.
	_, err = svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.Error(t, err)
	_, err = svc.Login(ctx, LoginRequest{Email: "guest@example.com", Password: "newsecret"}, "", "")
	assert.NoError(t, err)
}
