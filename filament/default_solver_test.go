package filament_test

import (
	"github.com/akmonengine/strand/filament"
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func step(s *filament.DefaultSolver, bodies []*filament.Body, dt float64) {
	s.PredictMotion(dt)
	s.Optimize(bodies)
	Expect(s.CheckInitialized()).To(BeTrue())
	s.SolveConstraints(dt * s.TimeScale())
	for _, b := range bodies {
		b.DefaultCollisionHandler(b)
	}
	s.UpdateSoftBodies(dt)
}

var _ = Describe("DefaultSolver", func() {
	var solver *filament.DefaultSolver

	BeforeEach(func() {
		solver = filament.NewDefaultSolver()
	})

	It("has neutral defaults", func() {
		Expect(solver.TimeScale()).To(Equal(1.0))
		Expect(solver.Iterations).To(Equal(filament.DefaultIterations))
		Expect(solver.Gravity).To(Equal(filament.DefaultGravity))
	})

	It("applies options", func() {
		s := filament.NewDefaultSolver(
			filament.WithTimeScale(0.5),
			filament.WithIterations(0),
			filament.WithWorkers(4),
			filament.WithGravity(mgl64.Vec3{}),
		)
		Expect(s.TimeScale()).To(Equal(0.5))
		Expect(s.Iterations).To(Equal(1))
		Expect(s.Workers).To(Equal(4))
		Expect(s.Gravity).To(Equal(mgl64.Vec3{}))
	})

	Describe("CheckInitialized", func() {
		It("is false before the first Optimize", func() {
			Expect(solver.CheckInitialized()).To(BeFalse())
		})

		It("is true for an empty registry", func() {
			solver.Optimize(nil)
			Expect(solver.CheckInitialized()).To(BeTrue())
		})

		It("is false when a body is invalid", func() {
			bad := filament.NewBody([]mgl64.Vec3{{0, 0, 0}}, 1)
			solver.Optimize([]*filament.Body{bad})
			Expect(solver.CheckInitialized()).To(BeFalse())
		})

		It("is false once released", func() {
			solver.Optimize(nil)
			solver.Release()
			Expect(solver.CheckInitialized()).To(BeFalse())
			Expect(solver.Released()).To(BeTrue())
		})
	})

	It("does not retain the caller's slice", func() {
		a := filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 1, 1)
		b := filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, 1, 1)
		bodies := []*filament.Body{a}
		solver.Optimize(bodies)
		bodies[0] = b

		solver.PredictMotion(0.1)

		Expect(a.Nodes[1].Position.Y()).To(BeNumerically("<", 0))
		Expect(b.Nodes[1].Position).To(Equal(mgl64.Vec3{0, 1, 0}))
	})

	It("predicts the bodies of the last Optimize until the next one", func() {
		removed := filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 1, 1)
		solver.Optimize([]*filament.Body{removed})

		solver.PredictMotion(0.1)
		Expect(removed.Nodes[1].Position.Y()).To(BeNumerically("<", 0))

		solver.Optimize(nil)
		moved := removed.Nodes[1].Position
		solver.PredictMotion(0.1)
		Expect(removed.Nodes[1].Position).To(Equal(moved))
	})

	It("lets a free filament fall", func() {
		b := filament.NewLine(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{1, 10, 0}, 2, 1)
		bodies := []*filament.Body{b}
		solver.Optimize(bodies)
		for range 10 {
			step(solver, bodies, 0.01)
		}

		for _, n := range b.Nodes {
			Expect(n.Position.Y()).To(BeNumerically("<", 10))
			Expect(n.Velocity.Y()).To(BeNumerically("<", 0))
		}
		Expect(b.GetAABB().Max.Y()).To(BeNumerically("<", 10))
	})

	It("keeps a pinned filament hanging at its rest length", func() {
		b := filament.NewLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, -2, 0}, 8, 1)
		Expect(b.Pin(0)).To(Succeed())
		bodies := []*filament.Body{b}
		solver.Optimize(bodies)
		for range 300 {
			step(solver, bodies, 1.0/60.0)
		}

		Expect(b.Nodes[0].Position).To(Equal(mgl64.Vec3{0, 0, 0}))
		Expect(b.Tip().Y()).To(BeNumerically("<", -1.5))
		Expect(b.Tip().Len()).To(BeNumerically("<=", b.RestLength()*1.05))
	})

	It("drags an anchored node with its rigid body", func() {
		b := filament.NewLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 2, 1)
		target := mgl64.Vec3{5, 5, 5}
		b.Anchors = append(b.Anchors, filament.Anchor{Node: 2, Offset: target})
		b.Nodes[2].InverseMass = 0
		bodies := []*filament.Body{b}
		solver.Optimize(bodies)
		solver.SolveConstraints(0.01)

		Expect(b.Nodes[2].Position).To(Equal(target))
	})

	It("ignores calls after Release", func() {
		b := filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 1, 1)
		solver.Optimize([]*filament.Body{b})
		solver.Release()
		solver.Release()

		solver.PredictMotion(0.1)
		solver.SolveConstraints(0.1)
		solver.UpdateSoftBodies(0.1)

		Expect(b.Nodes[1].Position).To(Equal(mgl64.Vec3{1, 0, 0}))
	})
})
