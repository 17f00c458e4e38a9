package main

import (
	"fmt"

	"github.com/akmonengine/strand"
	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/filament"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// TextDrawer prints what DebugDrawWorld draws
type TextDrawer struct {
	boxes int
	lines int
}

func (d *TextDrawer) DrawAABB(aabb actor.AABB, kind actor.ObjectType) {
	d.boxes++
	if kind == actor.ObjectTypeFilament {
		fmt.Printf("   %s bounds: %v -> %v\n", kind, aabb.Min, aabb.Max)
	}
}

func (d *TextDrawer) DrawLine(from, to mgl64.Vec3) {
	d.lines++
}

// SetupScene creates a ground plane and a box hanging from a rope pinned at (0, 6, 0)
func SetupScene(log *zap.Logger) (*strand.DynamicsWorld, *actor.RigidBody, *filament.Body, *TextDrawer) {
	host := strand.NewWorld(strand.DefaultWorldConfig())
	drawer := &TextDrawer{}
	host.SetDebugDrawer(drawer)

	ground := actor.NewRigidBody(actor.NewTransform(), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.BodyTypeStatic, 0)
	host.AddBody(ground)

	cube := actor.NewRigidBody(actor.NewTransformAt(mgl64.Vec3{2, 3, 0}), &actor.Box{HalfExtents: mgl64.Vec3{0.3, 0.3, 0.3}}, actor.BodyTypeDynamic, 1.0)
	cube.Material.Restitution = 0.2
	host.AddBody(cube)

	world := strand.NewDynamicsWorld(host, nil, strand.WithLogger(log), strand.WithSubsteps(4))

	rope := filament.NewLine(mgl64.Vec3{0, 6, 0}, mgl64.Vec3{2, 3.3, 0}, 12, 0.2)
	rope.Id = "rope"
	rope.Radius = 0.03
	if err := rope.Pin(0); err != nil {
		log.Fatal("pin", zap.Error(err))
	}
	if err := rope.Anchor(len(rope.Nodes)-1, cube, mgl64.Vec3{0, 0.3, 0}); err != nil {
		log.Fatal("anchor", zap.Error(err))
	}
	// the rope does not collide with the cube it holds
	world.AddBody(rope, actor.DebrisFilter, actor.AllFilter^actor.DefaultFilter)

	return world, cube, rope, drawer
}

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	world, cube, rope, drawer := SetupScene(log)
	defer world.Close()

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 240

	for step := 0; step < maxSteps; step++ {
		world.Step(dt)

		if step%60 == 0 {
			fmt.Printf("--- step %d ---\n", step+1)
			fmt.Printf("  cube position: %v\n", cube.Transform.Position)
			fmt.Printf("  rope tip:      %v\n", rope.Tip())
			world.DebugDrawWorld()
		}
	}

	fmt.Printf("drew %d boxes and %d lines\n", drawer.boxes, drawer.lines)
}
