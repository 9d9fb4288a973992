package exposure

import "errors"

var (
	// ErrInvalidLevel is returned by AddScan when a supplied level is not a
	// finite non-negative number.
	ErrInvalidLevel = errors.New("invalid level")
	// ErrInvalidInput wraps struct validation failures.
	ErrInvalidInput = errors.New("invalid input")
	ErrScanNotFound = errors.New("scan not found")
)
