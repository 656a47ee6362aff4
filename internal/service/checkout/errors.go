package checkout

import "errors"

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrSoldOut        = errors.New("ticket is sold out")
	ErrRateLimited    = errors.New("too many checkout attempts")
)
