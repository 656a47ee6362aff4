package catalog

import "errors"

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrArtistNotFound = errors.New("artist not found")
)
