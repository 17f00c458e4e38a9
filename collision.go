package strand

import (
	"math"

	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/constraint"
	"github.com/akmonengine/strand/filament"
	"github.com/akmonengine/strand/internal/pipeline"
	"github.com/go-gl/mathgl/mgl64"
)

// BroadPhase rebuilds the grid from the objects and returns the pairs whose bounds overlap
func BroadPhase(spatialGrid *SpatialGrid, objects []actor.CollisionObject, workersCount int) []Pair {
	spatialGrid.Clear()
	for i, object := range objects {
		spatialGrid.Insert(i, object.GetAABB())
	}
	spatialGrid.SortCells()

	if workersCount <= 1 {
		return spatialGrid.FindPairs(objects)
	}
	return spatialGrid.FindPairsParallel(objects, workersCount)
}

// NarrowPhase turns rigid pairs into contact constraints, in pair order.
// Pairs involving a filament are returned separately.
func NarrowPhase(pairs []Pair, workersCount int) ([]*constraint.ContactConstraint, []Pair) {
	var rigidPairs, filamentPairs []Pair
	for _, pair := range pairs {
		_, aIsRigid := pair.ObjectA.(*actor.RigidBody)
		_, bIsRigid := pair.ObjectB.(*actor.RigidBody)
		if aIsRigid && bIsRigid {
			rigidPairs = append(rigidPairs, pair)
		} else {
			filamentPairs = append(filamentPairs, pair)
		}
	}

	results := make([]*constraint.ContactConstraint, len(rigidPairs))
	indices := make([]int, len(rigidPairs))
	for i := range indices {
		indices[i] = i
	}
	pipeline.Task(workersCount, indices, func(i int) {
		pair := rigidPairs[i]
		results[i] = Collide(pair.ObjectA.(*actor.RigidBody), pair.ObjectB.(*actor.RigidBody))
	})

	contacts := make([]*constraint.ContactConstraint, 0, len(results))
	for _, c := range results {
		if c != nil {
			contacts = append(contacts, c)
		}
	}
	return contacts, filamentPairs
}

// Collide computes the contact between two rigid bodies, or nil if they are apart
func Collide(bodyA, bodyB *actor.RigidBody) *constraint.ContactConstraint {
	switch a := bodyA.Shape.(type) {
	case *actor.Plane:
		return collidePlane(bodyA, bodyB, a, false)
	case *actor.Sphere:
		switch b := bodyB.Shape.(type) {
		case *actor.Plane:
			return collidePlane(bodyB, bodyA, b, true)
		case *actor.Sphere:
			return collideSpheres(bodyA, bodyB, a, b)
		case *actor.Box:
			return collideSphereBox(bodyA, bodyB, a, b, false)
		}
	case *actor.Box:
		switch b := bodyB.Shape.(type) {
		case *actor.Plane:
			return collidePlane(bodyB, bodyA, b, true)
		case *actor.Sphere:
			return collideSphereBox(bodyB, bodyA, b, a, true)
		case *actor.Box:
			return collideBoxes(bodyA, bodyB, a, b)
		}
	}
	return nil
}

func newContact(bodyA, bodyB *actor.RigidBody, normal mgl64.Vec3, points []constraint.ContactPoint, swapped bool) *constraint.ContactConstraint {
	if swapped {
		bodyA, bodyB = bodyB, bodyA
		normal = normal.Mul(-1)
	}
	return &constraint.ContactConstraint{BodyA: bodyA, BodyB: bodyB, Normal: normal, Points: points}
}

func collidePlane(planeBody, object *actor.RigidBody, plane *actor.Plane, swapped bool) *constraint.ContactConstraint {
	collision, result := object.Shape.CollideWithPlane(plane.Normal, plane.Distance, object.Transform)
	if !collision {
		return nil
	}

	points := make([]constraint.ContactPoint, 0, len(result))
	for _, point := range result {
		points = append(points, constraint.ContactPoint{Position: point.Position, Penetration: point.Penetration})
	}
	return newContact(planeBody, object, plane.Normal, points, swapped)
}

func collideSpheres(bodyA, bodyB *actor.RigidBody, a, b *actor.Sphere) *constraint.ContactConstraint {
	delta := bodyB.Transform.Position.Sub(bodyA.Transform.Position)
	distance := delta.Len()
	penetration := a.Radius + b.Radius - distance
	if penetration <= 0 {
		return nil
	}

	normal := mgl64.Vec3{0, 1, 0}
	if distance > 1e-12 {
		normal = delta.Mul(1.0 / distance)
	}
	point := bodyA.Transform.Position.Add(normal.Mul(a.Radius - penetration/2))
	return newContact(bodyA, bodyB, normal, []constraint.ContactPoint{{Position: point, Penetration: penetration}}, false)
}

func collideSphereBox(sphereBody, boxBody *actor.RigidBody, sphere *actor.Sphere, box *actor.Box, swapped bool) *constraint.ContactConstraint {
	center := sphereBody.Transform.Position
	closest := box.ClosestPoint(center, boxBody.Transform)
	delta := closest.Sub(center)
	distance := delta.Len()

	if distance > 1e-12 {
		penetration := sphere.Radius - distance
		if penetration <= 0 {
			return nil
		}
		normal := delta.Mul(1.0 / distance)
		return newContact(sphereBody, boxBody, normal, []constraint.ContactPoint{{Position: closest, Penetration: penetration}}, swapped)
	}

	// center inside the box: leave through the nearest face
	local := boxBody.Transform.InverseRotation.Rotate(center.Sub(boxBody.Transform.Position))
	axis, depth := 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := box.HalfExtents[i] - math.Abs(local[i]); d < depth {
			axis, depth = i, d
		}
	}
	var outward mgl64.Vec3
	outward[axis] = math.Copysign(1, local[axis])
	outward = boxBody.Transform.Rotation.Rotate(outward)

	return newContact(sphereBody, boxBody, outward.Mul(-1), []constraint.ContactPoint{{Position: center, Penetration: sphere.Radius + depth}}, swapped)
}

func boxAxes(transform actor.Transform) [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		transform.Rotation.Rotate(mgl64.Vec3{1, 0, 0}),
		transform.Rotation.Rotate(mgl64.Vec3{0, 1, 0}),
		transform.Rotation.Rotate(mgl64.Vec3{0, 0, 1}),
	}
}

func projectBox(halfExtents mgl64.Vec3, axes [3]mgl64.Vec3, axis mgl64.Vec3) float64 {
	return halfExtents[0]*math.Abs(axes[0].Dot(axis)) +
		halfExtents[1]*math.Abs(axes[1].Dot(axis)) +
		halfExtents[2]*math.Abs(axes[2].Dot(axis))
}

// collideBoxes separates along the face axis of least overlap. The contact
// points are the corners of one box lying behind a face of the other.
func collideBoxes(bodyA, bodyB *actor.RigidBody, a, b *actor.Box) *constraint.ContactConstraint {
	axesA := boxAxes(bodyA.Transform)
	axesB := boxAxes(bodyB.Transform)
	delta := bodyB.Transform.Position.Sub(bodyA.Transform.Position)

	bestOverlap := math.Inf(1)
	var bestAxis mgl64.Vec3
	bestFromA := true
	for i, axis := range append(axesA[:], axesB[:]...) {
		distance := delta.Dot(axis)
		overlap := projectBox(a.HalfExtents, axesA, axis) + projectBox(b.HalfExtents, axesB, axis) - math.Abs(distance)
		if overlap <= 0 {
			return nil
		}
		if overlap < bestOverlap {
			bestOverlap = overlap
			bestAxis = axis
			if distance < 0 {
				bestAxis = axis.Mul(-1)
			}
			bestFromA = i < 3
		}
	}

	faceA := func() []constraint.ContactPoint {
		return clipCorners(a, bodyA.Transform, b, bodyB.Transform, bestAxis, bestOverlap)
	}
	faceB := func() []constraint.ContactPoint {
		return clipCorners(b, bodyB.Transform, a, bodyA.Transform, bestAxis.Mul(-1), bestOverlap)
	}

	var points []constraint.ContactPoint
	if bestFromA {
		if points = faceA(); len(points) == 0 {
			points = faceB()
		}
	} else {
		if points = faceB(); len(points) == 0 {
			points = faceA()
		}
	}
	if len(points) == 0 {
		// edge against edge
		middle := bodyA.Transform.Position.Add(delta.Mul(0.5))
		points = append(points, constraint.ContactPoint{Position: middle, Penetration: bestOverlap})
	}

	return newContact(bodyA, bodyB, bestAxis, points, false)
}

// clipCorners keeps the corners of the incident box behind the reference face
// facing normal, and within the extents of that face
func clipCorners(reference *actor.Box, referenceTransform actor.Transform, incident *actor.Box, incidentTransform actor.Transform, normal mgl64.Vec3, maxDepth float64) []constraint.ContactPoint {
	const tolerance = 1e-6

	axes := boxAxes(referenceTransform)
	faceAxis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(axes[i].Dot(normal)) > math.Abs(axes[faceAxis].Dot(normal)) {
			faceAxis = i
		}
	}
	face := referenceTransform.Position.Dot(normal) + projectBox(reference.HalfExtents, axes, normal)

	var points []constraint.ContactPoint
	for _, c := range incident.Corners() {
		p := incidentTransform.Apply(c)
		depth := face - p.Dot(normal)
		if depth <= 0 {
			continue
		}

		local := referenceTransform.InverseRotation.Rotate(p.Sub(referenceTransform.Position))
		inside := true
		for i := 0; i < 3; i++ {
			if i != faceAxis && math.Abs(local[i]) > reference.HalfExtents[i]+tolerance {
				inside = false
			}
		}
		if inside {
			points = append(points, constraint.ContactPoint{Position: p, Penetration: math.Min(depth, maxDepth)})
		}
	}
	return points
}

// CollideFilament pushes the free nodes of a filament out of a rigid body.
// The rigid body is not affected.
func CollideFilament(body *filament.Body, rb *actor.RigidBody) {
	if rb.IsTrigger {
		return
	}
	aabb := rb.GetAABB().Expand(body.Radius)
	for i := range body.Nodes {
		node := &body.Nodes[i]
		if node.InverseMass == 0 || !aabb.ContainsPoint(node.Position) {
			continue
		}
		if p, ok := pushOut(rb, node.Position, body.Radius); ok {
			node.Position = p
		}
	}
}

// pushOut returns where a ball of the given radius centered at point must move to leave the body
func pushOut(rb *actor.RigidBody, point mgl64.Vec3, radius float64) (mgl64.Vec3, bool) {
	switch shape := rb.Shape.(type) {
	case *actor.Plane:
		d := shape.Normal.Dot(point) + shape.Distance - radius
		if d >= 0 {
			return point, false
		}
		return point.Sub(shape.Normal.Mul(d)), true
	case *actor.Sphere:
		delta := point.Sub(rb.Transform.Position)
		distance := delta.Len()
		reach := shape.Radius + radius
		if distance >= reach {
			return point, false
		}
		normal := mgl64.Vec3{0, 1, 0}
		if distance > 1e-12 {
			normal = delta.Mul(1.0 / distance)
		}
		return rb.Transform.Position.Add(normal.Mul(reach)), true
	case *actor.Box:
		closest := shape.ClosestPoint(point, rb.Transform)
		delta := point.Sub(closest)
		distance := delta.Len()
		if distance > 1e-12 {
			if distance >= radius {
				return point, false
			}
			return closest.Add(delta.Mul(radius / distance)), true
		}

		local := rb.Transform.InverseRotation.Rotate(point.Sub(rb.Transform.Position))
		axis, depth := 0, math.Inf(1)
		for i := 0; i < 3; i++ {
			if d := shape.HalfExtents[i] - math.Abs(local[i]); d < depth {
				axis, depth = i, d
			}
		}
		local[axis] = math.Copysign(shape.HalfExtents[axis]+radius, local[axis])
		return rb.Transform.Apply(local), true
	}
	return point, false
}
