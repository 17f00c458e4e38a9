package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

type Material struct {
	Density     float64
	mass        float64
	Restitution float64 // 0= no rebound, 1= perfect restitution

	StaticFriction  float64
	DynamicFriction float64
	LinearDamping   float64 // 0.0 - 1.0, typically 0.01
	AngularDamping  float64 // 0.0 - 1.0, typically 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// InverseMass is zero for static and infinite-mass bodies
func (material Material) InverseMass() float64 {
	if material.mass <= 0 || math.IsInf(material.mass, 1) {
		return 0
	}
	return 1.0 / material.mass
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	Id any

	PreviousTransform Transform
	Transform         Transform

	// Linear motion
	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3 // m/s

	// Angular motion
	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3 // rad/s
	InertiaLocal            mgl64.Mat3
	InverseInertiaLocal     mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64
	// Triggers report overlaps but are never solved
	IsTrigger bool

	Material Material
	BodyType BodyType
	Shape    ShapeInterface

	filter Filter
}

// NewRigidBody creates a new rigid body with the given properties
// density is used to calculate mass for dynamic bodies (ignored for static)
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, density float64) *RigidBody {
	if transform.Rotation == (mgl64.Quat{}) {
		transform.Rotation = mgl64.QuatIdent()
	}
	transform.InverseRotation = transform.Rotation.Inverse()
	rb := &RigidBody{
		PreviousTransform: transform,
		Transform:         transform,
		Shape:             shape,
		BodyType:          bodyType,
		filter:            Filter{Group: DefaultFilter, Mask: AllFilter},
	}

	if bodyType == BodyTypeStatic {
		rb.Material = Material{mass: math.Inf(1)}
		rb.filter = Filter{Group: StaticFilter, Mask: AllFilter ^ StaticFilter}
	} else {
		rb.Material = Material{
			Density: density,
			mass:    shape.ComputeMass(density),
		}
	}

	if bodyType == BodyTypeDynamic && rb.Material.mass > 0 && !math.IsInf(rb.Material.mass, 1) {
		rb.InertiaLocal = shape.ComputeInertia(rb.Material.mass)
		rb.InverseInertiaLocal = rb.InertiaLocal.Inv()
	}
	rb.Shape.ComputeAABB(rb.Transform)

	return rb
}

func (rb *RigidBody) InternalType() ObjectType { return ObjectTypeRigidBody }

func (rb *RigidBody) GetAABB() AABB { return rb.Shape.GetAABB() }

func (rb *RigidBody) GetFilter() Filter { return rb.filter }

func (rb *RigidBody) SetFilter(filter Filter) { rb.filter = filter }

func (rb *RigidBody) TrySleep(dt float64, timeThreshold float64, velocityThreshold float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timeThreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.Shape.ComputeAABB(rb.Transform)
	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// Integrate predicts the unconstrained transform of the body over dt
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	rb.PreviousTransform = rb.Transform

	invMass := rb.Material.InverseMass()
	acceleration := gravity.Add(rb.accumulatedForce.Mul(invMass))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	angularAccel := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAccel.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	// q' = q + ½ ω q dt
	omega := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omega.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	rb.Shape.ComputeAABB(rb.Transform)
	rb.ClearForces()
}

// Update derives velocities from the solved transform
func (rb *RigidBody) Update(dt float64) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping || dt <= 0 {
		return
	}

	rb.Velocity = rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / dt)
	qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate()).Normalize()
	if qDelta.W >= 0.0 {
		rb.AngularVelocity = qDelta.V.Mul(2.0 / dt)
	} else {
		rb.AngularVelocity = qDelta.V.Mul(-2.0 / dt)
	}
	rb.Shape.ComputeAABB(rb.Transform)
}

// AddForce in N, applied at the next integration
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque in N⋅m, applied at the next integration
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{}
	rb.accumulatedTorque = mgl64.Vec3{}
}

// GetInverseInertiaWorld returns R * I_local^(-1) * R^T
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Mat3{}
	}
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// PointVelocity is the world velocity of a point attached to the body
func (rb *RigidBody) PointVelocity(point mgl64.Vec3) mgl64.Vec3 {
	return rb.Velocity.Add(rb.AngularVelocity.Cross(point.Sub(rb.Transform.Position)))
}
