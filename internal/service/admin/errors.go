package admin

import "errors"

var (
	ErrSlugConflict   = errors.New("event slug already exists")
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrForbidden      = errors.New("not allowed for this artist")
)
