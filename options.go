package strand

import "go.uber.org/zap"

type Option func(*DynamicsWorld)

// WithLogger sets the logger of the world, zap.NewNop() by default
func WithLogger(log *zap.Logger) Option {
	return func(w *DynamicsWorld) {
		if log != nil {
			w.log = log
		}
	}
}

// WithSubsteps splits every Step in n substeps, 1 by default
func WithSubsteps(n int) Option {
	return func(w *DynamicsWorld) {
		w.substeps = max(1, n)
	}
}
