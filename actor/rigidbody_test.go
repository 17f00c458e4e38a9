package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestSphere(position mgl64.Vec3, bodyType BodyType) *RigidBody {
	return NewRigidBody(NewTransformAt(position), &Sphere{Radius: 0.5}, bodyType, 1.0)
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNewRigidBody_Dynamic(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}, BodyTypeDynamic, 2.0)

	if math.Abs(rb.Material.GetMass()-2.0) > 1e-9 {
		t.Errorf("mass = %v, want 2", rb.Material.GetMass())
	}
	if math.Abs(rb.Material.InverseMass()-0.5) > 1e-9 {
		t.Errorf("inverse mass = %v, want 0.5", rb.Material.InverseMass())
	}
	if rb.InternalType() != ObjectTypeRigidBody {
		t.Errorf("InternalType() = %v, want %v", rb.InternalType(), ObjectTypeRigidBody)
	}
	if rb.GetFilter() != (Filter{Group: DefaultFilter, Mask: AllFilter}) {
		t.Errorf("filter = %v, want default/all", rb.GetFilter())
	}
}

func TestNewRigidBody_Static(t *testing.T) {
	rb := newTestSphere(mgl64.Vec3{}, BodyTypeStatic)

	if !math.IsInf(rb.Material.GetMass(), 1) {
		t.Errorf("mass = %v, want +Inf", rb.Material.GetMass())
	}
	if rb.Material.InverseMass() != 0 {
		t.Errorf("inverse mass = %v, want 0", rb.Material.InverseMass())
	}
	if rb.GetFilter().Group != StaticFilter {
		t.Errorf("filter group = %v, want %v", rb.GetFilter().Group, StaticFilter)
	}
}

func TestNewRigidBody_ZeroRotationIsIdentity(t *testing.T) {
	rb := NewRigidBody(Transform{Position: mgl64.Vec3{1, 2, 3}}, &Sphere{Radius: 1}, BodyTypeDynamic, 1.0)

	if rb.Transform.Rotation != mgl64.QuatIdent() {
		t.Errorf("Rotation = %v, want identity", rb.Transform.Rotation)
	}
	if got := rb.Transform.Apply(mgl64.Vec3{1, 0, 0}); !got.ApproxEqual(mgl64.Vec3{2, 2, 3}) {
		t.Errorf("Apply() = %v, want %v", got, mgl64.Vec3{2, 2, 3})
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

func TestIntegrate_WithGravity(t *testing.T) {
	rb := newTestSphere(mgl64.Vec3{0, 10, 0}, BodyTypeDynamic)
	gravity := mgl64.Vec3{0, -10, 0}

	rb.Integrate(0.1, gravity)

	if !rb.Velocity.ApproxEqual(mgl64.Vec3{0, -1, 0}) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, mgl64.Vec3{0, -1, 0})
	}
	if !rb.Transform.Position.ApproxEqual(mgl64.Vec3{0, 9.9, 0}) {
		t.Errorf("Position = %v, want %v", rb.Transform.Position, mgl64.Vec3{0, 9.9, 0})
	}
	if !rb.PreviousTransform.Position.ApproxEqual(mgl64.Vec3{0, 10, 0}) {
		t.Errorf("PreviousTransform.Position = %v, want %v", rb.PreviousTransform.Position, mgl64.Vec3{0, 10, 0})
	}
}

func TestIntegrate_StaticAndSleepingDoNotMove(t *testing.T) {
	static := newTestSphere(mgl64.Vec3{0, 1, 0}, BodyTypeStatic)
	sleeping := newTestSphere(mgl64.Vec3{0, 1, 0}, BodyTypeDynamic)
	sleeping.Sleep()

	for _, rb := range []*RigidBody{static, sleeping} {
		rb.Integrate(0.1, mgl64.Vec3{0, -10, 0})
		if !rb.Transform.Position.ApproxEqual(mgl64.Vec3{0, 1, 0}) {
			t.Errorf("Position = %v, want unchanged", rb.Transform.Position)
		}
	}
}

func TestIntegrate_ForceIsConsumed(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}, BodyTypeDynamic, 1.0)
	rb.AddForce(mgl64.Vec3{10, 0, 0})

	rb.Integrate(0.1, mgl64.Vec3{})
	if !rb.Velocity.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Velocity after force = %v, want %v", rb.Velocity, mgl64.Vec3{1, 0, 0})
	}

	rb.Integrate(0.1, mgl64.Vec3{})
	if !rb.Velocity.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Velocity without force = %v, want %v", rb.Velocity, mgl64.Vec3{1, 0, 0})
	}
}

func TestUpdate_DerivesVelocity(t *testing.T) {
	rb := newTestSphere(mgl64.Vec3{}, BodyTypeDynamic)
	rb.Integrate(0.5, mgl64.Vec3{})
	rb.Transform.Position = mgl64.Vec3{1, 0, 0}

	rb.Update(0.5)

	if !rb.Velocity.ApproxEqual(mgl64.Vec3{2, 0, 0}) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, mgl64.Vec3{2, 0, 0})
	}
}

// =============================================================================
// Sleep Tests
// =============================================================================

func TestTrySleep(t *testing.T) {
	rb := newTestSphere(mgl64.Vec3{}, BodyTypeDynamic)

	rb.TrySleep(0.05, 0.1, 0.05)
	if rb.IsSleeping {
		t.Fatal("body should not sleep before the time threshold")
	}
	rb.TrySleep(0.06, 0.1, 0.05)
	if !rb.IsSleeping {
		t.Fatal("body should sleep after the time threshold")
	}

	rb.AddForce(mgl64.Vec3{1, 0, 0})
	if rb.IsSleeping {
		t.Error("AddForce should wake the body")
	}
}
