package filament

import (
	"fmt"

	"github.com/akmonengine/strand/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Node is a point mass of a filament
type Node struct {
	Position    mgl64.Vec3
	Previous    mgl64.Vec3
	Velocity    mgl64.Vec3
	InverseMass float64
}

// Material describes how a filament deforms. Compliances are inverse
// stiffnesses (0 is perfectly stiff).
type Material struct {
	StretchCompliance float64
	BendCompliance    float64
	Damping           float64
}

// DefaultMaterial is a slightly elastic rope
var DefaultMaterial = Material{
	StretchCompliance: 1e-8,
	BendCompliance:    1e-3,
	Damping:           0.05,
}

// Anchor attaches a node either to a fixed world point (Body == nil, Offset
// in world space) or to a rigid body (Offset in the body's local space).
type Anchor struct {
	Node   int
	Body   *actor.RigidBody
	Offset mgl64.Vec3
}

// Target is the world position the anchored node must reach
func (a Anchor) Target() mgl64.Vec3 {
	if a.Body == nil {
		return a.Offset
	}
	return a.Body.Transform.Apply(a.Offset)
}

// CollisionHandler resolves contacts between the nodes of self and other.
// other == self for self collision.
type CollisionHandler func(self, other *Body)

// Body is a flexible rod, simulated as a chain of nodes.
// It is registered in a world as a collision object.
type Body struct {
	Id any

	Nodes []Node
	// RestLengths[i] is the rest distance between Nodes[i] and Nodes[i+1]
	RestLengths []float64
	// BendLengths[i] is the rest distance between Nodes[i] and Nodes[i+2]
	BendLengths []float64
	Anchors     []Anchor

	Material Material
	// Radius of each node, used for self collision
	Radius float64
	// CollisionHandler replaces SeparateNodes when set
	CollisionHandler CollisionHandler

	solver Solver
	filter actor.Filter
	aabb   actor.AABB
}

// NewBody creates a filament through the given points; mass is split evenly
// between the nodes.
func NewBody(points []mgl64.Vec3, mass float64) *Body {
	b := &Body{
		Nodes:    make([]Node, len(points)),
		Material: DefaultMaterial,
		filter:   actor.Filter{Group: actor.DefaultFilter, Mask: actor.AllFilter},
	}

	inverseMass := 0.0
	if mass > 0 && len(points) > 0 {
		inverseMass = float64(len(points)) / mass
	}
	for i, p := range points {
		b.Nodes[i] = Node{Position: p, Previous: p, InverseMass: inverseMass}
	}

	for i := 0; i+1 < len(points); i++ {
		b.RestLengths = append(b.RestLengths, points[i+1].Sub(points[i]).Len())
	}
	for i := 0; i+2 < len(points); i++ {
		b.BendLengths = append(b.BendLengths, points[i+2].Sub(points[i]).Len())
	}

	b.ComputeAABB()
	return b
}

// NewLine creates a straight filament from start to end
func NewLine(start, end mgl64.Vec3, segments int, mass float64) *Body {
	segments = max(1, segments)
	points := make([]mgl64.Vec3, segments+1)
	for i := range points {
		t := float64(i) / float64(segments)
		points[i] = start.Add(end.Sub(start).Mul(t))
	}
	return NewBody(points, mass)
}

func (b *Body) InternalType() actor.ObjectType { return actor.ObjectTypeFilament }

func (b *Body) GetAABB() actor.AABB { return b.aabb }

func (b *Body) GetFilter() actor.Filter { return b.filter }

func (b *Body) SetFilter(filter actor.Filter) { b.filter = filter }

// SetSolver sets the solver responsible for this body. The body does not own it.
func (b *Body) SetSolver(solver Solver) { b.solver = solver }

func (b *Body) Solver() Solver { return b.solver }

// Pin fixes a node at its current position
func (b *Body) Pin(node int) error {
	if node < 0 || node >= len(b.Nodes) {
		return fmt.Errorf("pin node %d of %d: %w", node, len(b.Nodes), ErrNodeOutOfRange)
	}
	b.Nodes[node].InverseMass = 0
	b.Anchors = append(b.Anchors, Anchor{Node: node, Offset: b.Nodes[node].Position})
	return nil
}

// Anchor attaches a node to a rigid body, at localOffset in the body's frame.
// The coupling is one-way: the rigid body drags the node.
func (b *Body) Anchor(node int, body *actor.RigidBody, localOffset mgl64.Vec3) error {
	if node < 0 || node >= len(b.Nodes) {
		return fmt.Errorf("anchor node %d of %d: %w", node, len(b.Nodes), ErrNodeOutOfRange)
	}
	b.Nodes[node].InverseMass = 0
	b.Anchors = append(b.Anchors, Anchor{Node: node, Body: body, Offset: localOffset})
	return nil
}

// Validate checks that the body can be simulated
func (b *Body) Validate() error {
	if len(b.Nodes) < 2 {
		return ErrTooFewNodes
	}
	if len(b.RestLengths) != len(b.Nodes)-1 || len(b.BendLengths) != len(b.Nodes)-2 {
		return ErrInconsistentBody
	}
	for i, l := range b.RestLengths {
		if l <= 0 {
			return fmt.Errorf("segment %d: %w", i, ErrDegenerateSegment)
		}
	}
	for _, a := range b.Anchors {
		if a.Node < 0 || a.Node >= len(b.Nodes) {
			return fmt.Errorf("anchor on node %d: %w", a.Node, ErrNodeOutOfRange)
		}
	}
	return nil
}

// ComputeAABB refreshes the bounding box from the node positions
func (b *Body) ComputeAABB() {
	if len(b.Nodes) == 0 {
		b.aabb = actor.AABB{}
		return
	}
	aabb := actor.AABBFromPoint(b.Nodes[0].Position)
	for _, n := range b.Nodes[1:] {
		aabb = aabb.Union(n.Position)
	}
	b.aabb = aabb.Expand(b.Radius)
}

// Tip is the position of the last node
func (b *Body) Tip() mgl64.Vec3 {
	if len(b.Nodes) == 0 {
		return mgl64.Vec3{}
	}
	return b.Nodes[len(b.Nodes)-1].Position
}

// RestLength is the total length of the filament at rest
func (b *Body) RestLength() float64 {
	total := 0.0
	for _, l := range b.RestLengths {
		total += l
	}
	return total
}

// Upcast returns the filament behind a collision object, if it is one
func Upcast(object actor.CollisionObject) (*Body, bool) {
	if object == nil || object.InternalType() != actor.ObjectTypeFilament {
		return nil, false
	}
	body, ok := object.(*Body)
	return body, ok && body != nil
}
