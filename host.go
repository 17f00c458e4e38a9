package strand

import "github.com/akmonengine/strand/actor"

// Host is the rigid-body world a DynamicsWorld extends. *World implements it.
type Host interface {
	// PredictUnconstrainedMotion integrates the rigid bodies over dt
	PredictUnconstrainedMotion(dt float64)
	// InternalSingleStep runs collision detection and the rigid solve over dt
	InternalSingleStep(dt float64)
	AddCollisionObject(object actor.CollisionObject, group, mask int16)
	RemoveCollisionObject(object actor.CollisionObject)
	DebugDrawWorld()
}

// FrameEnder is implemented by hosts with end of frame work, like event dispatch
type FrameEnder interface {
	EndFrame()
}

// WorldSerializer is implemented by hosts that can serialize themselves
type WorldSerializer interface {
	Serialize(s Serializer)
}

var (
	_ Host            = (*World)(nil)
	_ FrameEnder      = (*World)(nil)
	_ WorldSerializer = (*World)(nil)
)
