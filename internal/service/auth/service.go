package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/mailer"
	"github.com/kohakume/livegate/internal/repository"
	"github.com/kohakume/livegate/internal/token"
)

// UserStore persists end-user accounts.
type UserStore interface {
	Insert(ctx context.Context, email, name, passwordHash string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// AdminStore looks up back-office accounts.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

// SessionMinter issues login session tokens and the short-lived
// password-reset tokens sent by email.
type SessionMinter interface {
	MintUserSession(userID int64, email string) (string, error)
	MintAdminSession(admin *domain.Admin) (string, error)
	MintPasswordReset(userID int64, email string) (string, error)
	VerifyPasswordReset(tokenStr string) (*token.ResetClaims, error)
}

// ResetMailer delivers password-reset mail. Optional.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email mailer.PasswordResetEmail) error
}

type Service struct {
	users  UserStore
	admins AdminStore
	minter SessionMinter
	mail   ResetMailer
	log    *slog.Logger
}

func New(users UserStore, admins AdminStore, minter SessionMinter, mail ResetMailer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:  users,
		admins: admins,
		minter: minter,
		mail:   mail,
		log:    log,
	}
}

// Register creates a user account and logs it in.
//
// Returns:
//   - error: auth.ErrEmailTaken if the email is already registered.
func (s *Service) Register(ctx context.Context, email, name, password string) (*domain.User, string, error) {
	const op = "service.auth.Register"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	user, err := s.users.Insert(ctx, email, name, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", fmt.Errorf("%s:%w", op, ErrEmailTaken)
		}
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	session, err := s.minter.MintUserSession(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	return user, session, nil
}

// Login authenticates an end user by email and password.
//
// Returns:
//   - error: auth.ErrInvalidCredentials for an unknown email or a wrong
//     password; the two cases are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	const op = "service.auth.Login"

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
		}
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	session, err := s.minter.MintUserSession(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	return user, session, nil
}

// RequestPasswordReset emails a reset link to the account at email. It
// always reports success so callers cannot tell which addresses are
// registered; failures of any kind are only logged.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "service.auth.RequestPasswordReset"

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	resetToken, err := s.minter.MintPasswordReset(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if s.mail == nil {
		s.log.Warn("mailer not configured, password reset email dropped", "user_id", user.ID)
		return nil
	}

	if err := s.mail.SendPasswordReset(ctx, mailer.PasswordResetEmail{
		To:         user.Email,
		Name:       user.Name,
		ResetToken: resetToken,
	}); err != nil {
		s.log.Error("password reset email failed", "user_id", user.ID, "error", err)
	}

	return nil
}

// ResetPassword sets a new password for the account named by a reset
// token.
//
// Returns:
//   - error: auth.ErrInvalidResetToken when the token does not verify, has
//     expired, or its account no longer exists.
func (s *Service) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	const op = "service.auth.ResetPassword"

	claims, err := s.minter.VerifyPasswordReset(tokenStr)
	if err != nil {
		return fmt.Errorf("%s:%w", op, ErrInvalidResetToken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.users.UpdatePassword(ctx, claims.UserID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrInvalidResetToken)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// AdminLogin authenticates a back-office account. Deactivated accounts are
// rejected the same way as bad credentials.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (*domain.Admin, string, error) {
	const op = "service.auth.AdminLogin"

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
		}
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	if !admin.IsActive {
		return nil, "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	session, err := s.minter.MintAdminSession(admin)
	if err != nil {
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	return admin, session, nil
}
