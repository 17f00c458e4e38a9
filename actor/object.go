package actor

// ObjectType tags the concrete kind behind a CollisionObject, so callers can
// dispatch on it without knowing every implementation.
type ObjectType uint8

const (
	ObjectTypeCollision ObjectType = iota
	ObjectTypeRigidBody
	ObjectTypeFilament
)

func (t ObjectType) String() string {
	switch t {
	case ObjectTypeRigidBody:
		return "rigid"
	case ObjectTypeFilament:
		return "filament"
	default:
		return "collision"
	}
}

// Collision filter groups, same bit layout as the usual broadphase conventions.
const (
	DefaultFilter   int16 = 1
	StaticFilter    int16 = 2
	KinematicFilter int16 = 4
	DebrisFilter    int16 = 8
	SensorTrigger   int16 = 16
	CharacterFilter int16 = 32
	AllFilter       int16 = -1
)

// Filter holds the group an object belongs to and the groups it accepts.
type Filter struct {
	Group int16
	Mask  int16
}

// ShouldCollide reports whether two filters accept each other.
func ShouldCollide(a, b Filter) bool {
	return a.Group&b.Mask != 0 && b.Group&a.Mask != 0
}

// CollisionObject is anything a world can register for collision detection.
type CollisionObject interface {
	InternalType() ObjectType
	GetAABB() AABB
	GetFilter() Filter
	SetFilter(filter Filter)
}
