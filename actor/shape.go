package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
)

// PlaneContact is a point of a shape lying behind a plane
type PlaneContact struct {
	Position    mgl64.Vec3
	Penetration float64
}

// ShapeInterface is the interface that all collision shapes must implement
type ShapeInterface interface {
	Type() ShapeType
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// ComputeMass calculates mass data for the shape given a density
	ComputeMass(density float64) float64
	ComputeInertia(mass float64) mgl64.Mat3
	// CollideWithPlane returns the points of the shape behind the plane
	// Normal · p + Distance = 0
	CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact)
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

// Corners of the box in local space
func (b *Box) Corners() [8]mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()
	return [8]mgl64.Vec3{
		{-hx, -hy, -hz}, {+hx, -hy, -hz}, {-hx, +hy, -hz}, {+hx, +hy, -hz},
		{-hx, -hy, +hz}, {+hx, -hy, +hz}, {-hx, +hy, +hz}, {+hx, +hy, +hz},
	}
}

func (b *Box) ComputeAABB(transform Transform) {
	corners := b.Corners()
	aabb := AABBFromPoint(transform.Apply(corners[0]))
	for _, c := range corners[1:] {
		aabb = aabb.Union(transform.Apply(c))
	}
	b.aabb = aabb
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// full dimensions are 2*halfExtents
	return density * 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0
	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

func (b *Box) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	var contacts []PlaneContact
	for _, c := range b.Corners() {
		p := transform.Apply(c)
		if d := normal.Dot(p) + distance; d < 0 {
			contacts = append(contacts, PlaneContact{Position: p, Penetration: -d})
		}
	}
	return len(contacts) > 0, contacts
}

// ClosestPoint returns the point of the box closest to a world point
func (b *Box) ClosestPoint(point mgl64.Vec3, transform Transform) mgl64.Vec3 {
	local := transform.InverseRotation.Rotate(point.Sub(transform.Position))
	for i := 0; i < 3; i++ {
		local[i] = mgl64.Clamp(local[i], -b.HalfExtents[i], b.HalfExtents[i])
	}
	return transform.Apply(local)
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
	aabb   AABB
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB calculates the axis-aligned bounding box for the sphere
// Sphere AABB is not affected by rotation, only by position
func (s *Sphere) ComputeAABB(transform Transform) {
	s.aabb = AABBFromPoint(transform.Position).Expand(s.Radius)
}

func (s *Sphere) GetAABB() AABB {
	return s.aabb
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	return density * (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius
	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

func (s *Sphere) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	d := normal.Dot(transform.Position) + distance - s.Radius
	if d >= 0 {
		return false, nil
	}
	deepest := transform.Position.Sub(normal.Mul(s.Radius))
	return true, []PlaneContact{{Position: deepest, Penetration: -d}}
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
	aabb     AABB
}

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

func (p *Plane) ComputeAABB(transform Transform) {
	const thickness = 1.0
	const infinity = 1e10

	// Point on the plane closest to the origin
	planePoint := p.Normal.Mul(-p.Distance)

	min := planePoint.Sub(p.Normal.Mul(thickness)).Add(transform.Position)
	max := planePoint.Add(transform.Position)

	// Only an axis-aligned normal keeps a finite extent, on its own axis
	for i := 0; i < 3; i++ {
		if math.Abs(p.Normal[i]) < 1.0 {
			min[i] = -infinity
			max[i] = infinity
		}
	}

	p.aabb = AABB{Min: min, Max: max}
}

func (p *Plane) GetAABB() AABB {
	return p.aabb
}

// ComputeMass: planes are always static with infinite mass
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// CollideWithPlane: two planes never generate contacts
func (p *Plane) CollideWithPlane(normal mgl64.Vec3, distance float64, transform Transform) (bool, []PlaneContact) {
	return false, nil
}
