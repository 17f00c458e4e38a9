package filament

import (
	"math"
	"slices"

	"github.com/akmonengine/strand/internal/pipeline"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

const (
	DefaultIterations = 8
	DefaultTimeScale  = 1.0
	DefaultWorkers    = 1
)

// DefaultGravity is Earth gravity along -Y
var DefaultGravity = mgl64.Vec3{0, -9.81, 0}

// DefaultSolver is a position based solver: nodes are predicted with their
// velocity, then projected onto anchor, stretch and bend constraints, and the
// velocity is derived back from the displacement.
type DefaultSolver struct {
	Gravity    mgl64.Vec3
	Iterations int
	// Scale is returned by TimeScale
	Scale   float64
	Workers int

	bodies      []*Body
	batches     [][]*Body
	initialized bool
	released    bool

	log *zap.Logger
}

type SolverOption func(*DefaultSolver)

func WithGravity(gravity mgl64.Vec3) SolverOption {
	return func(s *DefaultSolver) { s.Gravity = gravity }
}

func WithIterations(iterations int) SolverOption {
	return func(s *DefaultSolver) { s.Iterations = max(1, iterations) }
}

func WithTimeScale(scale float64) SolverOption {
	return func(s *DefaultSolver) { s.Scale = scale }
}

func WithWorkers(workers int) SolverOption {
	return func(s *DefaultSolver) { s.Workers = max(1, workers) }
}

func WithSolverLogger(log *zap.Logger) SolverOption {
	return func(s *DefaultSolver) {
		if log != nil {
			s.log = log
		}
	}
}

func NewDefaultSolver(opts ...SolverOption) *DefaultSolver {
	s := &DefaultSolver{
		Gravity:    DefaultGravity,
		Iterations: DefaultIterations,
		Scale:      DefaultTimeScale,
		Workers:    DefaultWorkers,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictMotion predicts the bodies of the last Optimize, so a body removed
// since then is still predicted once.
func (s *DefaultSolver) PredictMotion(dt float64) {
	if s.released || dt <= 0 {
		return
	}
	pipeline.Task(s.Workers, s.bodies, func(b *Body) {
		predict(b, s.Gravity, dt)
	})
}

// Optimize snapshots the bodies and splits them in one batch per worker
func (s *DefaultSolver) Optimize(bodies []*Body) {
	if s.released {
		s.initialized = false
		return
	}
	s.bodies = slices.Clone(bodies)
	s.batches = pipeline.Chunks(s.bodies, s.Workers)

	s.initialized = true
	for i, b := range s.bodies {
		if err := b.Validate(); err != nil {
			s.log.Warn("invalid filament body",
				zap.Int("index", i),
				zap.Any("id", b.Id),
				zap.Error(err))
			s.initialized = false
		}
	}
}

func (s *DefaultSolver) CheckInitialized() bool {
	return s.initialized && !s.released
}

func (s *DefaultSolver) SolveConstraints(dt float64) {
	if s.released || dt <= 0 {
		return
	}
	iterations := max(1, s.Iterations)
	pipeline.Task(len(s.batches), s.batches, func(batch []*Body) {
		for _, b := range batch {
			for range iterations {
				solveAnchors(b)
				solveStretch(b, dt)
				solveBend(b, dt)
			}
			solveAnchors(b)
		}
	})
}

func (s *DefaultSolver) TimeScale() float64 {
	return s.Scale
}

func (s *DefaultSolver) UpdateSoftBodies(dt float64) {
	if s.released {
		return
	}
	pipeline.Task(s.Workers, s.bodies, func(b *Body) {
		if dt > 0 {
			for i := range b.Nodes {
				n := &b.Nodes[i]
				n.Velocity = n.Position.Sub(n.Previous).Mul(1.0 / dt)
			}
		}
		b.ComputeAABB()
	})
}

// Release drops every body reference; the solver is unusable afterwards
func (s *DefaultSolver) Release() {
	if s.released {
		return
	}
	s.bodies = nil
	s.batches = nil
	s.initialized = false
	s.released = true
	s.log.Debug("filament solver released")
}

func (s *DefaultSolver) Released() bool {
	return s.released
}

func predict(b *Body, gravity mgl64.Vec3, dt float64) {
	damping := math.Exp(-b.Material.Damping * dt)
	for i := range b.Nodes {
		n := &b.Nodes[i]
		n.Previous = n.Position
		if n.InverseMass == 0 {
			continue
		}
		n.Velocity = n.Velocity.Add(gravity.Mul(dt)).Mul(damping)
		n.Position = n.Position.Add(n.Velocity.Mul(dt))
	}
}

func solveAnchors(b *Body) {
	for _, a := range b.Anchors {
		b.Nodes[a.Node].Position = a.Target()
	}
}

func solveStretch(b *Body, dt float64) {
	alpha := b.Material.StretchCompliance / (dt * dt)
	for i, rest := range b.RestLengths {
		solveDistance(&b.Nodes[i], &b.Nodes[i+1], rest, alpha)
	}
}

func solveBend(b *Body, dt float64) {
	alpha := b.Material.BendCompliance / (dt * dt)
	for i, rest := range b.BendLengths {
		solveDistance(&b.Nodes[i], &b.Nodes[i+2], rest, alpha)
	}
}

// solveDistance projects C = |p2 - p1| - rest, XPBD style with no lambda accumulation
func solveDistance(n1, n2 *Node, rest, alpha float64) {
	w := n1.InverseMass + n2.InverseMass
	if w == 0 {
		return
	}
	delta := n2.Position.Sub(n1.Position)
	length := delta.Len()
	if length < 1e-12 {
		return
	}

	normal := delta.Mul(1.0 / length)
	lambda := -(length - rest) / (w + alpha)
	n1.Position = n1.Position.Sub(normal.Mul(lambda * n1.InverseMass))
	n2.Position = n2.Position.Add(normal.Mul(lambda * n2.InverseMass))
}
