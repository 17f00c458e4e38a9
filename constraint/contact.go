package constraint

import (
	"math"

	"github.com/akmonengine/strand/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance controls soft constraint stiffness for contact resolution.
	// Lower values = stiffer contacts, higher values = softer contacts.
	// Typical range: 1e-10 (very stiff) to 1e-6 (soft)
	DefaultCompliance = 1e-7

	penetrationSlop = 1e-8
)

type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// ContactConstraint pushes BodyB along Normal and BodyA against it.
// Normal points from A towards B.
type ContactConstraint struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	Points []ContactPoint
	Normal mgl64.Vec3
}

func (c *ContactConstraint) asleep() bool {
	return len(c.Points) == 0 || (c.BodyA.IsSleeping && c.BodyB.IsSleeping)
}

// SolvePosition resolves penetration with one XPBD correction over all points
func (c *ContactConstraint) SolvePosition(dt float64) {
	if c.asleep() || dt <= 0 {
		return
	}
	bodyA, bodyB := c.BodyA, c.BodyB

	var totalWeight, totalPenetration float64
	for _, point := range c.Points {
		if point.Penetration <= penetrationSlop {
			continue
		}
		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)
		totalWeight += generalizedInverseMass(bodyA, rA, c.Normal) + generalizedInverseMass(bodyB, rB, c.Normal)
		totalPenetration += point.Penetration
	}
	if totalWeight <= 1e-8 {
		return
	}

	alphaTilde := DefaultCompliance / (dt * dt)
	deltaLambda := -totalPenetration / (totalWeight + alphaTilde)
	impulse := c.Normal.Mul(deltaLambda)

	var torqueA, torqueB mgl64.Vec3
	for _, point := range c.Points {
		if point.Penetration <= penetrationSlop {
			continue
		}
		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)
		torqueA = torqueA.Add(rA.Cross(impulse))
		torqueB = torqueB.Add(rB.Cross(impulse.Mul(-1)))
	}

	bodyA.Transform.Position = bodyA.Transform.Position.Add(impulse.Mul(bodyA.Material.InverseMass()))
	bodyB.Transform.Position = bodyB.Transform.Position.Sub(impulse.Mul(bodyB.Material.InverseMass()))

	applyRotation(bodyA, bodyA.GetInverseInertiaWorld().Mul3x1(torqueA))
	applyRotation(bodyB, bodyB.GetInverseInertiaWorld().Mul3x1(torqueB))
}

// SolveVelocity applies restitution and Coulomb friction
func (c *ContactConstraint) SolveVelocity(dt float64) {
	if c.asleep() {
		return
	}
	bodyA, bodyB := c.BodyA, c.BodyB

	invMassA := bodyA.Material.InverseMass()
	invMassB := bodyB.Material.InverseMass()
	IA_inv := bodyA.GetInverseInertiaWorld()
	IB_inv := bodyB.GetInverseInertiaWorld()

	restitution := ComputeRestitution(bodyA.Material, bodyB.Material)
	staticFriction := ComputeStaticFriction(bodyA.Material, bodyB.Material)
	dynamicFriction := ComputeDynamicFriction(bodyA.Material, bodyB.Material)

	var linearA, linearB, angularA, angularB mgl64.Vec3
	apply := func(rA, rB, impulse mgl64.Vec3) {
		linearA = linearA.Sub(impulse.Mul(invMassA))
		linearB = linearB.Add(impulse.Mul(invMassB))
		angularA = angularA.Add(IA_inv.Mul3x1(rA.Cross(impulse.Mul(-1))))
		angularB = angularB.Add(IB_inv.Mul3x1(rB.Cross(impulse)))
	}

	for _, point := range c.Points {
		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)

		relativeVel := bodyB.PointVelocity(point.Position).Sub(bodyA.PointVelocity(point.Position))
		normalVel := relativeVel.Dot(c.Normal)

		vA_prev := bodyA.PresolveVelocity.Add(bodyA.PresolveAngularVelocity.Cross(rA))
		vB_prev := bodyB.PresolveVelocity.Add(bodyB.PresolveAngularVelocity.Cross(rB))
		normalVelPrev := vB_prev.Sub(vA_prev).Dot(c.Normal)

		wNormal := generalizedInverseMass(bodyA, rA, c.Normal) + generalizedInverseMass(bodyB, rB, c.Normal)
		if wNormal < 1e-10 {
			continue
		}

		// never attract
		lambdaNormal := math.Max(0, (-restitution*normalVelPrev-normalVel)/wNormal)
		apply(rA, rB, c.Normal.Mul(lambdaNormal))

		if lambdaNormal == 0 {
			continue
		}

		tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 {
			continue
		}
		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

		wTangent := generalizedInverseMass(bodyA, rA, tangentDir) + generalizedInverseMass(bodyB, rB, tangentDir)
		if wTangent < 1e-10 {
			continue
		}

		lambdaTangent := -tangentSpeed / wTangent
		if math.Abs(lambdaTangent) <= staticFriction*lambdaNormal {
			apply(rA, rB, tangentDir.Mul(lambdaTangent))
		} else {
			apply(rA, rB, tangentDir.Mul(-dynamicFriction*lambdaNormal))
		}
	}

	bodyA.Velocity = bodyA.Velocity.Add(linearA)
	bodyB.Velocity = bodyB.Velocity.Add(linearB)
	bodyA.AngularVelocity = bodyA.AngularVelocity.Add(angularA)
	bodyB.AngularVelocity = bodyB.AngularVelocity.Add(angularB)

	clampSmallVelocities(bodyA)
	clampSmallVelocities(bodyB)
}
