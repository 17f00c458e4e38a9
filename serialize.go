package strand

import (
	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/filament"
	"github.com/go-gl/mathgl/mgl64"
)

// Serializer writes the state of a world. The format is up to the implementation.
type Serializer interface {
	StartSerialization()
	SerializeWorldInfo(gravity mgl64.Vec3, substeps int)
	SerializeRigidBody(body *actor.RigidBody)
	SerializeCollisionObject(object actor.CollisionObject)
	FinishSerialization()
}

// Serialize writes the world settings, the rigid bodies, then the other
// collision objects. Filaments are not serialized.
func (w *World) Serialize(s Serializer) {
	s.StartSerialization()
	s.SerializeWorldInfo(w.Gravity, w.Substeps)
	for _, body := range w.Bodies {
		s.SerializeRigidBody(body)
	}
	for _, object := range w.Objects {
		if _, ok := object.(*actor.RigidBody); ok {
			continue
		}
		if _, ok := filament.Upcast(object); ok {
			continue
		}
		s.SerializeCollisionObject(object)
	}
	s.FinishSerialization()
}
