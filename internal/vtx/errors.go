package vtx

import "errors"

// ErrInvalidSettings is returned by Settings.Validate.
//
// It is the only error in this package: the reconciliation path itself
// degrades to no-ops instead of failing.
var ErrInvalidSettings = errors.New("vtx: invalid settings")
