package strand

import (
	"slices"

	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/filament"
	"go.uber.org/zap"
)

// DynamicsWorld steps a set of filament bodies together with the rigid bodies
// of a host world. The host does the rigid part, a filament.Solver the rest.
//
// A frame runs, in this order and once per substep:
// host prediction, Solver.PredictMotion, Solver.Optimize, Solver.CheckInitialized,
// host single step, Solver.SolveConstraints, the self collision of every
// filament in registration order, Solver.UpdateSoftBodies.
type DynamicsWorld struct {
	host       Host
	solver     filament.Solver
	ownsSolver bool
	closed     bool

	bodies   []*filament.Body
	substeps int

	log *zap.Logger
}

// NewDynamicsWorld wraps host. With a nil solver, the world creates a
// filament.DefaultSolver and releases it on Close; a given solver is never released.
func NewDynamicsWorld(host Host, solver filament.Solver, opts ...Option) *DynamicsWorld {
	w := &DynamicsWorld{
		host:     host,
		solver:   solver,
		substeps: 1,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.solver == nil {
		w.solver = filament.NewDefaultSolver(filament.WithSolverLogger(w.log))
		w.ownsSolver = true
	}
	w.log.Debug("dynamics world created",
		zap.Bool("owns_solver", w.ownsSolver),
		zap.Int("substeps", w.substeps))

	return w
}

// Close releases the solver if the world owns it. It is safe to call twice.
func (w *DynamicsWorld) Close() {
	if w.closed {
		return
	}
	w.closed = true
	if w.ownsSolver {
		w.solver.Release()
		w.log.Debug("default solver released")
	}
}

func (w *DynamicsWorld) Host() Host { return w.host }

func (w *DynamicsWorld) Solver() filament.Solver { return w.solver }

func (w *DynamicsWorld) OwnsSolver() bool { return w.ownsSolver }

func (w *DynamicsWorld) Substeps() int { return w.substeps }

// AddBody registers a filament with the given collision filter, both in the
// world and as a collision object of the host. A body already registered is left as is.
func (w *DynamicsWorld) AddBody(body *filament.Body, group, mask int16) {
	if body == nil || slices.Contains(w.bodies, body) {
		return
	}
	w.bodies = append(w.bodies, body)
	body.SetSolver(w.solver)
	w.host.AddCollisionObject(body, group, mask)

	w.log.Debug("filament added", zap.Any("id", body.Id), zap.Int("bodies", len(w.bodies)))
}

// RemoveBody unregisters a filament. Unknown bodies are ignored.
// The body keeps its solver reference.
func (w *DynamicsWorld) RemoveBody(body *filament.Body) {
	if body == nil {
		return
	}
	if k := slices.Index(w.bodies, body); k != -1 {
		w.bodies = slices.Delete(w.bodies, k, k+1)
	}
	w.host.RemoveCollisionObject(body)

	w.log.Debug("filament removed", zap.Any("id", body.Id), zap.Int("bodies", len(w.bodies)))
}

// AddCollisionObject registers any collision object, filaments included
func (w *DynamicsWorld) AddCollisionObject(object actor.CollisionObject, group, mask int16) {
	if body, ok := filament.Upcast(object); ok {
		w.AddBody(body, group, mask)
		return
	}
	w.host.AddCollisionObject(object, group, mask)
}

// RemoveCollisionObject unregisters any collision object, filaments included
func (w *DynamicsWorld) RemoveCollisionObject(object actor.CollisionObject) {
	if body, ok := filament.Upcast(object); ok {
		w.RemoveBody(body)
		return
	}
	w.host.RemoveCollisionObject(object)
}

// Bodies returns the registered filaments in registration order
func (w *DynamicsWorld) Bodies() []*filament.Body {
	return slices.Clone(w.bodies)
}

func (w *DynamicsWorld) NumBodies() int {
	return len(w.bodies)
}

// Step advances the world by dt
func (w *DynamicsWorld) Step(dt float64) {
	h := dt / float64(w.substeps)
	for range w.substeps {
		w.PredictUnconstrainedMotion(h)
		w.InternalStep(h)
	}

	if ender, ok := w.host.(FrameEnder); ok {
		ender.EndFrame()
	}
	w.log.Debug("frame",
		zap.Float64("dt", dt),
		zap.Int("substeps", w.substeps),
		zap.Int("bodies", len(w.bodies)))
}

// PredictUnconstrainedMotion predicts the rigid bodies, then the filaments
func (w *DynamicsWorld) PredictUnconstrainedMotion(dt float64) {
	w.host.PredictUnconstrainedMotion(dt)
	w.solver.PredictMotion(dt)
}

// InternalStep runs one step after the prediction. It panics with
// ErrSolverNotInitialized if the solver cannot handle the registered filaments.
func (w *DynamicsWorld) InternalStep(dt float64) {
	w.solver.Optimize(w.bodies)
	if !w.solver.CheckInitialized() {
		w.log.Error("filament solver not initialized",
			zap.Int("bodies", len(w.bodies)),
			zap.Float64("dt", dt))
		panic(ErrSolverNotInitialized)
	}

	w.host.InternalSingleStep(dt)
	w.solver.SolveConstraints(dt * w.solver.TimeScale())

	for _, body := range w.bodies {
		body.DefaultCollisionHandler(body)
	}

	w.solver.UpdateSoftBodies(dt)
}

func (w *DynamicsWorld) DebugDrawWorld() {
	w.host.DebugDrawWorld()
}

// Serialize forwards to the host when it can serialize. Filaments are not serialized.
func (w *DynamicsWorld) Serialize(s Serializer) bool {
	serializer, ok := w.host.(WorldSerializer)
	if !ok {
		return false
	}
	serializer.Serialize(s)
	return true
}
