package constraint

import (
	"math"

	"github.com/akmonengine/strand/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Constraint is solved once per substep by the rigid-body pipeline
type Constraint interface {
	SolvePosition(dt float64)
	SolveVelocity(dt float64)
}

// ComputeRestitution averages the restitution of both materials
func ComputeRestitution(matA, matB actor.Material) float64 {
	return (matA.Restitution + matB.Restitution) / 2.0
}

// ComputeStaticFriction uses the geometric mean, the usual convention
func ComputeStaticFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.StaticFriction * matB.StaticFriction)
}

func ComputeDynamicFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.DynamicFriction * matB.DynamicFriction)
}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{}
	}
}

// generalizedInverseMass is w = 1/m + (r × n)ᵀ I⁻¹ (r × n)
func generalizedInverseMass(rb *actor.RigidBody, r, n mgl64.Vec3) float64 {
	rn := r.Cross(n)
	return rb.Material.InverseMass() + rb.GetInverseInertiaWorld().Mul3x1(rn).Dot(rn)
}

// applyRotation rotates a body by the small angle δθ
func applyRotation(rb *actor.RigidBody, deltaRotation mgl64.Vec3) {
	if rb.BodyType == actor.BodyTypeStatic || deltaRotation.Len() <= 1e-10 {
		return
	}
	qDelta := mgl64.Quat{W: 1.0, V: deltaRotation.Mul(0.5)}.Normalize()
	rb.Transform.Rotation = qDelta.Mul(rb.Transform.Rotation).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()
}
