package strand

import "errors"

// ErrSolverNotInitialized is the panic value of a step whose solver could not
// be initialized from the registered filaments
var ErrSolverNotInitialized = errors.New("strand: filament solver not initialized")
