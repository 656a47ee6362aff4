package access

import "errors"

var (
	ErrInvalidToken         = errors.New("invalid access token")
	ErrTokenExpired         = errors.New("access token expired")
	ErrEventNotFound        = errors.New("event not found")
	ErrEventMismatch        = errors.New("token is for a different event")
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrPurchaseNotCompleted = errors.New("purchase is not completed")
	ErrContentUnavailable   = errors.New("no stream content available")
)
