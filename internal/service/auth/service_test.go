package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/mailer"
	"github.com/kohakume/livegate/internal/repository"
	"github.com/kohakume/livegate/internal/token"
)

type fakeUsers struct {
	byEmail map[string]*domain.User
	nextID  int64
}

func (f *fakeUsers) Insert(ctx context.Context, email, name, passwordHash string) (*domain.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, repository.ErrConflict
	}

	f.nextID++
	u := &domain.User{
		ID:           f.nextID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	f.byEmail[email] = u

	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	for _, u := range f.byEmail {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeResetMailer struct {
	sent []mailer.PasswordResetEmail
}

func (f *fakeResetMailer) SendPasswordReset(ctx context.Context, email mailer.PasswordResetEmail) error {
	f.sent = append(f.sent, email)
	return nil
}

type fakeAdmins struct {
	byUsername map[string]*domain.Admin
}

func (f *fakeAdmins) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	a, ok := f.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func newService() (*Service, *fakeUsers, *fakeAdmins, *token.Codec) {
	svc, users, admins, codec, _ := newServiceWithMailer()
	return svc, users, admins, codec
}

func newServiceWithMailer() (*Service, *fakeUsers, *fakeAdmins, *token.Codec, *fakeResetMailer) {
	codec := token.NewCodec("secret", 30*24*time.Hour, 7*24*time.Hour, 24*time.Hour)
	users := &fakeUsers{byEmail: map[string]*domain.User{}}
	admins := &fakeAdmins{byUsername: map[string]*domain.Admin{}}
	mail := &fakeResetMailer{}
	return New(users, admins, codec, mail, nil), users, admins, codec, mail
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _, codec := newService()

	user, session, err := svc.Register(context.Background(), "fan@example.com", "Fan", "hunter2secret")
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", user.Email)
	require.NotEmpty(t, session)

	claims, err := codec.VerifyUserSession(session)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// The stored hash is usable for login.
	_, loginSession, err := svc.Login(context.Background(), "fan@example.com", "hunter2secret")
	require.NoError(t, err)
	assert.NotEmpty(t, loginSession)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newService()

	_, _, err := svc.Register(context.Background(), "fan@example.com", "Fan", "hunter2secret")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "fan@example.com", "Other", "hunter2secret")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, _, _ := newService()

	_, _, err := svc.Register(context.Background(), "fan@example.com", "Fan", "hunter2secret")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "fan@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "hunter2secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, _, _, mail := newServiceWithMailer()

	_, _, err := svc.Register(context.Background(), "fan@example.com", "Fan", "hunter2secret")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "fan@example.com"))
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "fan@example.com", mail.sent[0].To)
	require.NotEmpty(t, mail.sent[0].ResetToken)

	require.NoError(t, svc.ResetPassword(context.Background(), mail.sent[0].ResetToken, "better-password"))

	// The new password works, the old one no longer does.
	_, _, err = svc.Login(context.Background(), "fan@example.com", "better-password")
	assert.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "fan@example.com", "hunter2secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	svc, _, _, _, mail := newServiceWithMailer()

	// Reports success without sending anything, so the endpoint cannot be
	// used to enumerate registered addresses.
	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Empty(t, mail.sent)
}

func TestResetPassword_BadToken(t *testing.T) {
	svc, _, _, codec := newService()

	err := svc.ResetPassword(context.Background(), "garbage", "better-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	// A session token is not a reset token.
	session, err2 := codec.MintUserSession(9, "fan@example.com")
	require.NoError(t, err2)

	err = svc.ResetPassword(context.Background(), session, "better-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestAdminLogin(t *testing.T) {
	svc, _, admins, codec := newService()

	hash, err := bcrypt.GenerateFromPassword([]byte("backstage"), bcrypt.MinCost)
	require.NoError(t, err)

	artistID := int64(5)
	admins.byUsername["stagehand"] = &domain.Admin{
		ID:           3,
		Username:     "stagehand",
		PasswordHash: string(hash),
		Role:         domain.RoleArtistAdmin,
		ArtistID:     &artistID,
		IsActive:     true,
	}

	admin, session, err := svc.AdminLogin(context.Background(), "stagehand", "backstage")
	require.NoError(t, err)
	assert.Equal(t, int64(3), admin.ID)

	claims, err := codec.VerifyAdminSession(session)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleArtistAdmin, claims.Role)
	require.NotNil(t, claims.ArtistID)
	assert.Equal(t, artistID, *claims.ArtistID)
}

func TestAdminLogin_Deactivated(t *testing.T) {
	svc, _, admins, _ := newService()

	hash, err := bcrypt.GenerateFromPassword([]byte("backstage"), bcrypt.MinCost)
	require.NoError(t, err)

	admins.byUsername["stagehand"] = &domain.Admin{
		ID:           3,
		Username:     "stagehand",
		PasswordHash: string(hash),
		Role:         domain.RoleSuperAdmin,
		IsActive:     false,
	}

	_, _, err = svc.AdminLogin(context.Background(), "stagehand", "backstage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
