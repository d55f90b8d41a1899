package dataset

import "errors"

// Error kinds shared by every derived view. Callers match them with errors.Is.
var (
	// ErrMissingData marks an expected field that is absent for a row.
	ErrMissingData = errors.New("missing data")
	// ErrUnmatchedKey marks a join key that did not resolve on one side of a merge.
	ErrUnmatchedKey = errors.New("unmatched key")
	// ErrInsufficientSample marks a fit or trend that lacks the points it needs.
	ErrInsufficientSample = errors.New("insufficient sample")
)
