package strand

import (
	"math"
	"testing"

	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/filament"
	"github.com/go-gl/mathgl/mgl64"
)

type recordingSerializer struct {
	calls []string
}

func (s *recordingSerializer) StartSerialization() { s.calls = append(s.calls, "start") }
func (s *recordingSerializer) SerializeWorldInfo(mgl64.Vec3, int) { s.calls = append(s.calls, "info") }
func (s *recordingSerializer) SerializeRigidBody(*actor.RigidBody) { s.calls = append(s.calls, "rigid") }
func (s *recordingSerializer) FinishSerialization() { s.calls = append(s.calls, "finish") }
func (s *recordingSerializer) SerializeCollisionObject(actor.CollisionObject) {
	s.calls = append(s.calls, "object")
}

type recordingDrawer struct {
	aabbs []actor.ObjectType
	lines int
}

func (d *recordingDrawer) DrawAABB(aabb actor.AABB, kind actor.ObjectType) {
	d.aabbs = append(d.aabbs, kind)
}

func (d *recordingDrawer) DrawLine(from, to mgl64.Vec3) { d.lines++ }

// plainObject is a collision object that is neither rigid nor a filament
type plainObject struct {
	aabb   actor.AABB
	filter actor.Filter
}

func (o *plainObject) InternalType() actor.ObjectType { return actor.ObjectTypeCollision }
func (o *plainObject) GetAABB() actor.AABB { return o.aabb }
func (o *plainObject) GetFilter() actor.Filter { return o.filter }
func (o *plainObject) SetFilter(filter actor.Filter) { o.filter = filter }

func newSphere(position mgl64.Vec3, radius float64) *actor.RigidBody {
	return actor.NewRigidBody(actor.NewTransformAt(position), &actor.Sphere{Radius: radius}, actor.BodyTypeDynamic, 1)
}

func newGround() *actor.RigidBody {
	return actor.NewRigidBody(actor.NewTransform(), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.BodyTypeStatic, 0)
}

// =============================================================================
// Registration
// =============================================================================

func TestNewWorld_Defaults(t *testing.T) {
	w := NewWorld(WorldConfig{})

	if w.Substeps != 1 {
		t.Errorf("Substeps = %d, want 1", w.Substeps)
	}
	if w.Workers != DEFAULT_WORKERS {
		t.Errorf("Workers = %d, want %d", w.Workers, DEFAULT_WORKERS)
	}
	if w.SpatialGrid == nil {
		t.Fatal("SpatialGrid is nil")
	}
	if w.SpatialGrid.cellSize != DefaultCellSize {
		t.Errorf("cellSize = %v, want %v", w.SpatialGrid.cellSize, DefaultCellSize)
	}
}

func TestWorld_AddRemoveBody(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	a := newSphere(mgl64.Vec3{}, 1)
	b := newSphere(mgl64.Vec3{5, 0, 0}, 1)

	w.AddBody(a)
	w.AddBody(b)
	w.AddBody(a)

	if w.NumCollisionObjects() != 2 || len(w.Bodies) != 2 {
		t.Fatalf("objects = %d, bodies = %d, want 2 and 2", w.NumCollisionObjects(), len(w.Bodies))
	}

	w.RemoveBody(a)
	if w.ContainsCollisionObject(a) {
		t.Error("a is still registered")
	}
	if len(w.Bodies) != 1 || w.Bodies[0] != b {
		t.Errorf("Bodies = %v, want [b]", w.Bodies)
	}

	w.RemoveBody(a)
	if w.NumCollisionObjects() != 1 {
		t.Errorf("removing twice changed the world: %d objects", w.NumCollisionObjects())
	}
}

func TestWorld_AddCollisionObjectSetsFilter(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	object := &plainObject{}

	w.AddCollisionObject(object, actor.SensorTrigger, actor.CharacterFilter)

	want := actor.Filter{Group: actor.SensorTrigger, Mask: actor.CharacterFilter}
	if object.GetFilter() != want {
		t.Errorf("filter = %v, want %v", object.GetFilter(), want)
	}
	if len(w.Bodies) != 0 {
		t.Errorf("a plain object was added to Bodies")
	}
}

func TestWorld_AddBodyKeepsStaticFilter(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	ground := newGround()

	w.AddBody(ground)

	want := actor.Filter{Group: actor.StaticFilter, Mask: actor.AllFilter ^ actor.StaticFilter}
	if ground.GetFilter() != want {
		t.Errorf("filter = %v, want %v", ground.GetFilter(), want)
	}
}

// =============================================================================
// Stepping
// =============================================================================

func TestWorld_InternalSingleStepPredictsOnce(t *testing.T) {
	const h = 0.01
	tests := []struct {
		name    string
		predict bool
	}{
		{"predicted by the caller", true},
		{"predicted by the step", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld(DefaultWorldConfig())
			body := newSphere(mgl64.Vec3{0, 10, 0}, 0.5)
			w.AddBody(body)

			if tt.predict {
				w.PredictUnconstrainedMotion(h)
			}
			w.InternalSingleStep(h)

			want := -9.81 * h
			if math.Abs(body.Velocity.Y()-want) > 1e-9 {
				t.Errorf("Velocity.Y = %v, want %v", body.Velocity.Y(), want)
			}
		})
	}
}

func TestWorld_SphereRestsOnGround(t *testing.T) {
	w := NewWorld(WorldConfig{Gravity: mgl64.Vec3{0, -9.81, 0}, Substeps: 4})
	w.AddBody(newGround())
	sphere := newSphere(mgl64.Vec3{0, 2, 0}, 0.5)
	w.AddBody(sphere)

	for range 180 {
		w.Step(1.0 / 60.0)
	}

	y := sphere.Transform.Position.Y()
	if y < 0.45 || y > 0.55 {
		t.Errorf("sphere height = %v, want about 0.5", y)
	}
}

func TestWorld_FilamentPushedOutOfSphere(t *testing.T) {
	w := NewWorld(WorldConfig{})
	ball := actor.NewRigidBody(actor.NewTransform(), &actor.Sphere{Radius: 1}, actor.BodyTypeStatic, 0)
	w.AddBody(ball)
	rope := filament.NewLine(mgl64.Vec3{-2, 0.5, 0}, mgl64.Vec3{2, 0.5, 0}, 4, 1)
	rope.Radius = 0.1
	w.AddCollisionObject(rope, actor.DefaultFilter, actor.AllFilter)

	w.Step(1.0 / 60.0)

	for i, n := range rope.Nodes {
		if d := n.Position.Len(); d < 1.1-1e-9 {
			t.Errorf("node %d at distance %v, want >= 1.1", i, d)
		}
	}
}

func TestWorld_CrossingFilamentsSeparate(t *testing.T) {
	w := NewWorld(WorldConfig{})
	ropeA := filament.NewLine(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0}, 2, 1)
	ropeB := filament.NewLine(mgl64.Vec3{0, 0.01, -1}, mgl64.Vec3{0, 0.01, 1}, 2, 1)
	ropeA.Radius, ropeB.Radius = 0.1, 0.1
	w.AddCollisionObject(ropeA, actor.DefaultFilter, actor.AllFilter)
	w.AddCollisionObject(ropeB, actor.DefaultFilter, actor.AllFilter)

	w.Step(1.0 / 60.0)

	if d := ropeB.Nodes[1].Position.Sub(ropeA.Nodes[1].Position).Len(); d < 0.2-1e-9 {
		t.Errorf("middle nodes %v apart, want >= 0.2", d)
	}
	if ropeA.Nodes[1].Position.Y() >= 0 || ropeB.Nodes[1].Position.Y() <= 0.01 {
		t.Errorf("middle nodes at %v and %v, want them pushed apart along y",
			ropeA.Nodes[1].Position, ropeB.Nodes[1].Position)
	}
}

func TestWorld_FilteredFilamentsDoNotMeet(t *testing.T) {
	w := NewWorld(WorldConfig{})
	ropeA := filament.NewLine(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0}, 2, 1)
	ropeB := filament.NewLine(mgl64.Vec3{0, 0.01, -1}, mgl64.Vec3{0, 0.01, 1}, 2, 1)
	ropeA.Radius, ropeB.Radius = 0.1, 0.1
	w.AddCollisionObject(ropeA, actor.DebrisFilter, actor.AllFilter^actor.DebrisFilter)
	w.AddCollisionObject(ropeB, actor.DebrisFilter, actor.AllFilter^actor.DebrisFilter)

	w.Step(1.0 / 60.0)

	if d := ropeB.Nodes[1].Position.Sub(ropeA.Nodes[1].Position).Len(); math.Abs(d-0.01) > 1e-9 {
		t.Errorf("middle nodes %v apart, want 0.01", d)
	}
}

// =============================================================================
// Debug draw and serialization
// =============================================================================

func TestWorld_DebugDrawWorld(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	w.AddBody(newSphere(mgl64.Vec3{}, 1))
	w.AddCollisionObject(filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 3, 1), actor.DefaultFilter, actor.AllFilter)

	w.DebugDrawWorld()

	drawer := &recordingDrawer{}
	w.SetDebugDrawer(drawer)
	w.DebugDrawWorld()

	want := []actor.ObjectType{actor.ObjectTypeRigidBody, actor.ObjectTypeFilament}
	if len(drawer.aabbs) != len(want) {
		t.Fatalf("drew %d boxes, want %d", len(drawer.aabbs), len(want))
	}
	for i := range want {
		if drawer.aabbs[i] != want[i] {
			t.Errorf("box %d kind = %v, want %v", i, drawer.aabbs[i], want[i])
		}
	}
	if drawer.lines != 3 {
		t.Errorf("drew %d lines, want 3", drawer.lines)
	}
}

func TestWorld_SerializeSkipsFilaments(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	w.AddCollisionObject(filament.NewLine(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 3, 1), actor.DefaultFilter, actor.AllFilter)
	w.AddBody(newSphere(mgl64.Vec3{}, 1))
	w.AddCollisionObject(&plainObject{}, actor.DefaultFilter, actor.AllFilter)
	w.AddBody(newGround())

	s := &recordingSerializer{}
	w.Serialize(s)

	want := []string{"start", "info", "rigid", "rigid", "object", "finish"}
	if len(s.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", s.calls, want)
	}
	for i := range want {
		if s.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, s.calls[i], want[i])
		}
	}
}
