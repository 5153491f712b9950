package subpix

import "errors"

var (
	// ErrInvalidConfig is returned (wrapped with detail) before any
	// computation when a Config cannot be used with the given image.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoValidAngles means every test angle produced only undefined
	// residuals, so no consensus offset exists.
	ErrNoValidAngles = errors.New("no test angle produced a valid residual")

	// ErrUnsupportedBitpix is returned by the FITS reader for sample
	// formats it does not decode.
	ErrUnsupportedBitpix = errors.New("unsupported BITPIX")
)
