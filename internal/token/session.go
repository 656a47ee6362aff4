package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/kohakume/livegate/internal/domain"
)

// UserClaims is the end-user login session shape.
type UserClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

// AdminClaims is the back-office login session shape. ArtistID is set only
// for artist-scoped admins.
type AdminClaims struct {
	AdminID  int64            `json:"admin_id"`
	Role     domain.AdminRole `json:"role"`
	ArtistID *int64           `json:"artist_id,omitempty"`
	Scope    string           `json:"scope"`
	jwt.RegisteredClaims
}

func (c *Codec) MintUserSession(userID int64, email string) (string, error) {
	now := c.now()

	claims := UserClaims{
		UserID: userID,
		Email:  email,
		Scope:  scopeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.sessionTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) VerifyUserSession(tokenStr string) (*UserClaims, error) {
	var claims UserClaims
	if err := c.parse(tokenStr, &claims); err != nil {
		return nil, err
	}

	if claims.Scope != scopeUser {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func (c *Codec) MintAdminSession(admin *domain.Admin) (string, error) {
	now := c.now()

	claims := AdminClaims{
		AdminID:  admin.ID,
		Role:     admin.Role,
		ArtistID: admin.ArtistID,
		Scope:    scopeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.adminTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) VerifyAdminSession(tokenStr string) (*AdminClaims, error) {
	var claims AdminClaims
	if err := c.parse(tokenStr, &claims); err != nil {
		return nil, err
	}

	if claims.Scope != scopeAdmin {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// ResetClaims is the short-lived password-reset token shape. It is sent by
// email and never stored.
type ResetClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

func (c *Codec) MintPasswordReset(userID int64, email string) (string, error) {
	now := c.now()

	claims := ResetClaims{
		UserID: userID,
		Email:  email,
		Scope:  scopeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.resetTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) VerifyPasswordReset(tokenStr string) (*ResetClaims, error) {
	var claims ResetClaims
	if err := c.parse(tokenStr, &claims); err != nil {
		return nil, err
	}

	if claims.Scope != scopeReset {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
