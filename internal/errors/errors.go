package errors

import "errors"

// Common errors used throughout the application
var (
	// Search backend errors
	ErrNotebookNotFound = errors.New("notebook not found")
	ErrBackendQuery     = errors.New("search backend query failed")

	// Local context errors
	ErrAnchorNotFound  = errors.New("anchor cell not found in notebook")
	ErrNotebookNoCells = errors.New("notebook has no cells")
	ErrWrongServer     = errors.New("notebook belongs to another server")

	// Validation errors
	ErrInvalidPath      = errors.New("invalid path")
	ErrInvalidBoolean   = errors.New("invalid boolean value (use true/false)")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrUnknownField     = errors.New("unknown query field")
	ErrUnknownTemplate  = errors.New("unknown query template")

	// Merge marker errors
	ErrNotMarkerCell = errors.New("cell does not contain a merge marker")
)
