package filament_test

import (
	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/filament"
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Body", func() {
	var body *filament.Body

	BeforeEach(func() {
		body = filament.NewLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{4, 0, 0}, 4, 2)
	})

	Describe("NewLine", func() {
		It("creates segments+1 nodes with even rest lengths", func() {
			Expect(body.Nodes).To(HaveLen(5))
			Expect(body.RestLengths).To(HaveLen(4))
			Expect(body.BendLengths).To(HaveLen(3))
			for _, l := range body.RestLengths {
				Expect(l).To(BeNumerically("~", 1.0, 1e-12))
			}
			Expect(body.RestLength()).To(BeNumerically("~", 4.0, 1e-12))
		})

		It("splits the mass evenly", func() {
			for _, n := range body.Nodes {
				Expect(n.InverseMass).To(BeNumerically("~", 2.5, 1e-12))
			}
		})

		It("clamps segments to at least one", func() {
			b := filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, 0, 1)
			Expect(b.Nodes).To(HaveLen(2))
		})

		It("uses the default filter", func() {
			Expect(body.GetFilter()).To(Equal(actor.Filter{Group: actor.DefaultFilter, Mask: actor.AllFilter}))
		})

		It("has no solver until it is registered", func() {
			Expect(body.Solver()).To(BeNil())
		})
	})

	Describe("ComputeAABB", func() {
		It("pads the node bounds by the radius", func() {
			body.Radius = 0.5
			body.ComputeAABB()
			Expect(body.GetAABB().Min).To(Equal(mgl64.Vec3{-0.5, -0.5, -0.5}))
			Expect(body.GetAABB().Max).To(Equal(mgl64.Vec3{4.5, 0.5, 0.5}))
		})
	})

	Describe("Pin and Anchor", func() {
		It("pins a node in place", func() {
			Expect(body.Pin(0)).To(Succeed())
			Expect(body.Nodes[0].InverseMass).To(BeZero())
			Expect(body.Anchors).To(ConsistOf(filament.Anchor{Node: 0, Offset: mgl64.Vec3{0, 0, 0}}))
		})

		It("rejects a node out of range", func() {
			Expect(body.Pin(5)).To(MatchError(filament.ErrNodeOutOfRange))
			Expect(body.Anchor(-1, nil, mgl64.Vec3{})).To(MatchError(filament.ErrNodeOutOfRange))
		})

		It("follows the rigid body it is anchored to", func() {
			rb := actor.NewRigidBody(actor.NewTransformAt(mgl64.Vec3{1, 2, 3}), &actor.Sphere{Radius: 1}, actor.BodyTypeDynamic, 1)
			Expect(body.Anchor(4, rb, mgl64.Vec3{0, -1, 0})).To(Succeed())
			Expect(body.Anchors[0].Target()).To(Equal(mgl64.Vec3{1, 1, 3}))

			rb.Transform.Position = mgl64.Vec3{0, 0, 0}
			Expect(body.Anchors[0].Target()).To(Equal(mgl64.Vec3{0, -1, 0}))
		})
	})

	Describe("Validate", func() {
		It("accepts a well formed body", func() {
			Expect(body.Validate()).To(Succeed())
		})

		It("rejects a single node", func() {
			b := filament.NewBody([]mgl64.Vec3{{0, 0, 0}}, 1)
			Expect(b.Validate()).To(MatchError(filament.ErrTooFewNodes))
		})

		It("rejects coincident nodes", func() {
			b := filament.NewBody([]mgl64.Vec3{{0, 0, 0}, {0, 0, 0}}, 1)
			Expect(b.Validate()).To(MatchError(filament.ErrDegenerateSegment))
		})

		It("rejects mismatched rest lengths", func() {
			body.RestLengths = body.RestLengths[:2]
			Expect(body.Validate()).To(MatchError(filament.ErrInconsistentBody))
		})
	})

	Describe("Upcast", func() {
		It("recovers a filament", func() {
			var obj actor.CollisionObject = body
			b, ok := filament.Upcast(obj)
			Expect(ok).To(BeTrue())
			Expect(b).To(BeIdenticalTo(body))
		})

		It("refuses a rigid body", func() {
			rb := actor.NewRigidBody(actor.NewTransform(), &actor.Sphere{Radius: 1}, actor.BodyTypeDynamic, 1)
			b, ok := filament.Upcast(rb)
			Expect(ok).To(BeFalse())
			Expect(b).To(BeNil())
		})

		It("refuses nil", func() {
			_, ok := filament.Upcast(nil)
			Expect(ok).To(BeFalse())
		})
	})
})

var _ = Describe("DefaultCollisionHandler", func() {
	It("separates two distant parts of a folded filament", func() {
		// U shape: the first and last nodes end up 0.1 apart
		b := filament.NewBody([]mgl64.Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0, 0.1, 0},
		}, 5)
		b.Radius = 0.2

		b.DefaultCollisionHandler(b)

		distance := b.Nodes[4].Position.Sub(b.Nodes[0].Position).Len()
		Expect(distance).To(BeNumerically("~", 0.4, 1e-9))
	})

	It("leaves neighbours along the chain alone", func() {
		b := filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{0.3, 0, 0}, 3, 1)
		b.Radius = 0.2
		before := append([]filament.Node(nil), b.Nodes...)

		b.DefaultCollisionHandler(b)

		Expect(b.Nodes).To(Equal(before))
	})

	It("pushes apart two overlapping filaments", func() {
		a := filament.NewLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0}, 1, 1)
		c := filament.NewLine(mgl64.Vec3{0.1, 0, 0}, mgl64.Vec3{0.1, 1, 0}, 1, 1)
		a.Radius, c.Radius = 0.1, 0.1
		a.ComputeAABB()
		c.ComputeAABB()

		a.DefaultCollisionHandler(c)

		Expect(c.Nodes[0].Position.X() - a.Nodes[0].Position.X()).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("prefers the custom handler", func() {
		var calls [][2]*filament.Body
		b := filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 2, 1)
		b.CollisionHandler = func(self, other *filament.Body) {
			calls = append(calls, [2]*filament.Body{self, other})
		}

		b.DefaultCollisionHandler(b)

		Expect(calls).To(HaveLen(1))
		Expect(calls[0][0]).To(BeIdenticalTo(b))
		Expect(calls[0][1]).To(BeIdenticalTo(b))
	})
})
