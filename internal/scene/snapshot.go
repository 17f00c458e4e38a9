package scene

import (
	"fmt"
	"io"

	"github.com/akmonengine/strand/actor"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Snapshot is a strand.Serializer collecting the state of a world as YAML
// documents. Filaments are not part of it.
type Snapshot struct {
	World   SnapshotWorld    `yaml:"world"`
	Bodies  []SnapshotBody   `yaml:"bodies"`
	Objects []SnapshotObject `yaml:"objects,omitempty"`

	done bool
}

type SnapshotWorld struct {
	Gravity  Vec3 `yaml:"gravity"`
	Substeps int  `yaml:"substeps"`
}

type SnapshotBody struct {
	Id       string `yaml:"id,omitempty"`
	Type     string `yaml:"type"`
	Position Vec3   `yaml:"position"`
	Velocity Vec3   `yaml:"velocity"`
	Sleeping bool   `yaml:"sleeping,omitempty"`
}

type SnapshotObject struct {
	Kind string `yaml:"kind"`
	Min  Vec3   `yaml:"min"`
	Max  Vec3   `yaml:"max"`
}

func (s *Snapshot) StartSerialization() {
	*s = Snapshot{}
}

func (s *Snapshot) SerializeWorldInfo(gravity mgl64.Vec3, substeps int) {
	s.World = SnapshotWorld{Gravity: Vec3(gravity), Substeps: substeps}
}

func (s *Snapshot) SerializeRigidBody(body *actor.RigidBody) {
	kind := "dynamic"
	if body.BodyType == actor.BodyTypeStatic {
		kind = "static"
	}
	var id string
	if body.Id != nil {
		id = fmt.Sprint(body.Id)
	}
	s.Bodies = append(s.Bodies, SnapshotBody{
		Id:       id,
		Type:     kind,
		Position: Vec3(body.Transform.Position),
		Velocity: Vec3(body.Velocity),
		Sleeping: body.IsSleeping,
	})
}

func (s *Snapshot) SerializeCollisionObject(object actor.CollisionObject) {
	aabb := object.GetAABB()
	s.Objects = append(s.Objects, SnapshotObject{
		Kind: object.InternalType().String(),
		Min:  Vec3(aabb.Min),
		Max:  Vec3(aabb.Max),
	})
}

func (s *Snapshot) FinishSerialization() {
	s.done = true
}

// WriteYAML writes the snapshot, once serialization has finished
func (s *Snapshot) WriteYAML(w io.Writer) error {
	if !s.done {
		return fmt.Errorf("snapshot not finished: %w", ErrInvalid)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}
