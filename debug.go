package strand

import (
	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/filament"
	"github.com/go-gl/mathgl/mgl64"
)

// DebugDrawer receives the primitives of DebugDrawWorld
type DebugDrawer interface {
	DrawAABB(aabb actor.AABB, kind actor.ObjectType)
	DrawLine(from, to mgl64.Vec3)
}

func (w *World) SetDebugDrawer(drawer DebugDrawer) {
	w.drawer = drawer
}

// DebugDrawWorld draws the bounds of every object, and the segments of the
// filaments. It does nothing without a drawer.
func (w *World) DebugDrawWorld() {
	if w.drawer == nil {
		return
	}
	for _, object := range w.Objects {
		w.drawer.DrawAABB(object.GetAABB(), object.InternalType())

		if body, ok := filament.Upcast(object); ok {
			for i := 0; i+1 < len(body.Nodes); i++ {
				w.drawer.DrawLine(body.Nodes[i].Position, body.Nodes[i+1].Position)
			}
		}
	}
}
