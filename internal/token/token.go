package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Scopes keep the three token families from unlocking each other even
// though they share a signing secret.
const (
	scopeWatch = "watch"
	scopeUser  = "user"
	scopeAdmin = "admin"
	scopeReset = "reset"
)

// AccessClaims binds a purchase to the one event it unlocks.
type AccessClaims struct {
	PurchaseID int64  `json:"purchase_id"`
	EventID    int64  `json:"event_id"`
	Email      string `json:"email"`
	Scope      string `json:"scope"`
	jwt.RegisteredClaims
}

// Codec mints and verifies the signed tokens the service hands out:
// purchase access tokens and user/admin session tokens. Both operations
// are pure; the only observable contract is that a token verifies iff it
// was minted with the same secret, carries the expected scope, and has not
// expired.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	sessionTTL time.Duration
	adminTTL   time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewCodec(secret string, accessTTL, sessionTTL, adminTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		sessionTTL: sessionTTL,
		adminTTL:   adminTTL,
		resetTTL:   time.Hour,
		now:        time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now. Test
// hook.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// MintAccess issues a purchase access token expiring accessTTL from now.
// The returned expiry is the same instant encoded in the token, so the
// ledger column and the claim never disagree.
func (c *Codec) MintAccess(purchaseID, eventID int64, email string) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.accessTTL)

	claims := AccessClaims{
		PurchaseID: purchaseID,
		EventID:    eventID,
		Email:      email,
		Scope:      scopeWatch,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// VerifyAccess checks signature, expiry and scope.
//
// Returns:
//   - ErrTokenExpired when the token was valid but its expiry passed.
//   - ErrInvalidToken for every other failure.
func (c *Codec) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := c.parse(tokenStr, &claims); err != nil {
		return nil, err
	}

	if claims.Scope != scopeWatch {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func (c *Codec) parse(tokenStr string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}

	return nil
}
