package stats

import "errors"

var (
	// ErrNoData is returned by Mean.Float when the denominator was zero.
	ErrNoData = errors.New("no data")

	errBadRuns      = errors.New("runs must be positive")
	errBadMaxDelay  = errors.New("max delay must be positive")
	errBadMatchMode = errors.New("unknown match mode")
)
