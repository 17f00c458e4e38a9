package strand

import (
	"slices"

	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/constraint"
	"github.com/akmonengine/strand/filament"
	"github.com/akmonengine/strand/internal/pipeline"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

const (
	DefaultCellSize = 2.0
	DefaultNumCells = 1024
)

// WorldConfig holds the settings of a rigid-body world
type WorldConfig struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity  mgl64.Vec3
	Substeps int
	Workers  int
	CellSize float64
	NumCells int
}

func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:  mgl64.Vec3{0, -9.81, 0},
		Substeps: 1,
		Workers:  DEFAULT_WORKERS,
		CellSize: DefaultCellSize,
		NumCells: DefaultNumCells,
	}
}

// World is a discrete rigid-body world. Any collision object can be registered
// in it; rigid bodies are simulated, filaments are only pushed out of rigid bodies.
type World struct {
	// Every registered collision object, in registration order
	Objects []actor.CollisionObject
	// The rigid bodies among Objects, in the same order
	Bodies []*actor.RigidBody

	Gravity     mgl64.Vec3
	Substeps    int
	SpatialGrid *SpatialGrid
	Workers     int

	Events Events

	drawer    DebugDrawer
	predicted bool
}

func NewWorld(cfg WorldConfig) *World {
	if cfg.CellSize <= 0 {
		cfg.CellSize = DefaultCellSize
	}
	if cfg.NumCells <= 0 {
		cfg.NumCells = DefaultNumCells
	}
	return &World{
		Gravity:     cfg.Gravity,
		Substeps:    max(1, cfg.Substeps),
		Workers:     max(DEFAULT_WORKERS, cfg.Workers),
		SpatialGrid: NewSpatialGrid(cfg.CellSize, cfg.NumCells),
		Events:      NewEvents(),
	}
}

// AddBody adds a rigid body with its own filter
func (w *World) AddBody(body *actor.RigidBody) {
	filter := body.GetFilter()
	w.AddCollisionObject(body, filter.Group, filter.Mask)
}

// RemoveBody removes a rigid body from the world
func (w *World) RemoveBody(body *actor.RigidBody) {
	w.RemoveCollisionObject(body)
}

// AddCollisionObject registers an object with the given filter.
// An object already registered is left as is.
func (w *World) AddCollisionObject(object actor.CollisionObject, group, mask int16) {
	if object == nil || w.ContainsCollisionObject(object) {
		return
	}
	object.SetFilter(actor.Filter{Group: group, Mask: mask})
	w.Objects = append(w.Objects, object)
	if rb, ok := object.(*actor.RigidBody); ok {
		w.Bodies = append(w.Bodies, rb)
	}
}

// RemoveCollisionObject unregisters an object; unknown objects are ignored
func (w *World) RemoveCollisionObject(object actor.CollisionObject) {
	k := slices.Index(w.Objects, object)
	if k == -1 {
		return
	}
	w.Objects = slices.Delete(w.Objects, k, k+1)

	if rb, ok := object.(*actor.RigidBody); ok {
		if i := slices.Index(w.Bodies, rb); i != -1 {
			w.Bodies = slices.Delete(w.Bodies, i, i+1)
		}
		w.Events.forget(rb)
	}
}

func (w *World) ContainsCollisionObject(object actor.CollisionObject) bool {
	return slices.Contains(w.Objects, object)
}

func (w *World) NumCollisionObjects() int {
	return len(w.Objects)
}

// Step advances the rigid bodies by dt, in Substeps substeps, and flushes the events
func (w *World) Step(dt float64) {
	w.Substeps = max(1, w.Substeps)
	h := dt / float64(w.Substeps)

	for range w.Substeps {
		w.PredictUnconstrainedMotion(h)
		w.InternalSingleStep(h)
	}

	w.EndFrame()
}

// PredictUnconstrainedMotion integrates forces and gravity of the rigid bodies
func (w *World) PredictUnconstrainedMotion(h float64) {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	pipeline.Task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Integrate(h, w.Gravity)
	})
	w.predicted = true
}

// InternalSingleStep detects and solves the contacts of one substep.
// The bodies are predicted first, unless PredictUnconstrainedMotion already did it.
func (w *World) InternalSingleStep(h float64) {
	if !w.predicted {
		w.PredictUnconstrainedMotion(h)
	}
	w.predicted = false

	w.refreshFilamentBounds()
	contacts, filamentPairs := w.detectCollision()
	contacts = w.Events.recordCollisions(contacts)

	// only one iteration is required thanks to substeps
	w.solvePosition(h, contacts)
	w.collideFilaments(filamentPairs)
	w.update(h)
	w.solveVelocity(h, contacts)

	w.trySleep(h)
}

// EndFrame reports the events of the frame to the listeners
func (w *World) EndFrame() {
	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) refreshFilamentBounds() {
	for _, object := range w.Objects {
		if body, ok := filament.Upcast(object); ok {
			body.ComputeAABB()
		}
	}
}

func (w *World) detectCollision() ([]*constraint.ContactConstraint, []Pair) {
	return NarrowPhase(BroadPhase(w.SpatialGrid, w.Objects, w.Workers), w.Workers)
}

// contacts share bodies, they are solved one after the other
func (w *World) solvePosition(h float64, contacts []*constraint.ContactConstraint) {
	for _, c := range contacts {
		c.SolvePosition(h)
	}
}

// collideFilaments lets filaments handle each other, and pushes them out of rigid bodies
func (w *World) collideFilaments(pairs []Pair) {
	for _, pair := range pairs {
		bodyA, aIsFilament := filament.Upcast(pair.ObjectA)
		bodyB, bIsFilament := filament.Upcast(pair.ObjectB)
		switch {
		case aIsFilament && bIsFilament:
			bodyA.DefaultCollisionHandler(bodyB)
		case aIsFilament:
			if rb, ok := pair.ObjectB.(*actor.RigidBody); ok {
				CollideFilament(bodyA, rb)
			}
		case bIsFilament:
			if rb, ok := pair.ObjectA.(*actor.RigidBody); ok {
				CollideFilament(bodyB, rb)
			}
		}
	}
}

func (w *World) update(h float64) {
	pipeline.Task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Update(h)
	})
}

func (w *World) solveVelocity(h float64, contacts []*constraint.ContactConstraint) {
	for _, c := range contacts {
		c.SolveVelocity(h)
	}
}

// trySleep is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(h float64) {
	for _, body := range w.Bodies {
		body.TrySleep(h, 0.1, 0.05)
	}
}
