package webhook

import "errors"

var (
	// ErrMissingCorrelation marks a checkout event whose metadata does not
	// identify the event and ticket being purchased.
	ErrMissingCorrelation = errors.New("missing correlation metadata")
)
