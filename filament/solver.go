package filament

// Solver is the numerical engine that steps every filament body of a world.
//
// A world calls the methods in a fixed order each step:
// PredictMotion, Optimize, CheckInitialized, SolveConstraints, UpdateSoftBodies.
// None of them may add or remove bodies from the world, nor touch rigid bodies
// other than reading them. Any parallelism is the solver's own business; every
// call must have completed its work when it returns.
type Solver interface {
	// PredictMotion advances the predicted state of the filaments by dt.
	PredictMotion(dt float64)
	// Optimize receives the world's bodies in registration order, and may
	// rebuild internal batches from them. The slice must not be retained
	// as-is, the world owns it.
	Optimize(bodies []*Body)
	// CheckInitialized reports whether the solver can solve the bodies given
	// to the last Optimize call.
	CheckInitialized() bool
	// SolveConstraints resolves anchors and internal constraints over dt,
	// already scaled by TimeScale.
	SolveConstraints(dt float64)
	// TimeScale multiplies the frame step before SolveConstraints. 1 is neutral.
	TimeScale() float64
	// UpdateSoftBodies publishes the final state of the step.
	UpdateSoftBodies(dt float64)
	// Release frees the solver. A world only calls it on a solver it created.
	Release()
}
