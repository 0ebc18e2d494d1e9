package eyeball

import "errors"

var (
	// ErrInvalidConfig is returned by New for an unusable Config.
	ErrInvalidConfig = errors.New("invalid eyeball config")

	// Fit rejections. They never escape Update; they are reported through
	// UpdateResult and the diag log.
	ErrNoPoints       = errors.New("no points to fit")
	ErrFitNonFinite   = errors.New("sphere fit produced a non-finite solution")
	ErrFitOutOfBounds = errors.New("sphere fit radius outside bounds")
	ErrFitFailed      = errors.New("sphere fit did not run")
)
