// Package scene loads YAML scene descriptions into a dynamics world.
package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/akmonengine/strand"
	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/filament"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownShape = errors.New("scene: unknown shape")
	ErrUnknownBody  = errors.New("scene: unknown body")
	ErrDuplicate    = errors.New("scene: duplicate name")
	ErrInvalid      = errors.New("scene: invalid value")
)

type Vec3 [3]float64

func (v Vec3) Vec() mgl64.Vec3 { return mgl64.Vec3(v) }

type Scene struct {
	Name      string     `yaml:"name"`
	Bodies    []Body     `yaml:"bodies"`
	Filaments []Filament `yaml:"filaments"`
}

// Body is a rigid body
type Body struct {
	Name     string  `yaml:"name"`
	Shape    string  `yaml:"shape"` // sphere, box or plane
	Static   bool    `yaml:"static"`
	Trigger  bool    `yaml:"trigger"`
	Position Vec3    `yaml:"position"`
	Velocity Vec3    `yaml:"velocity"`
	Density  float64 `yaml:"density"`

	Radius      float64 `yaml:"radius"`
	HalfExtents Vec3    `yaml:"half_extents"`
	Normal      Vec3    `yaml:"normal"`
	Distance    float64 `yaml:"distance"`

	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
	Filter      *Filter `yaml:"filter"`
}

type Filament struct {
	Name     string    `yaml:"name"`
	Start    Vec3      `yaml:"start"`
	End      Vec3      `yaml:"end"`
	Segments int       `yaml:"segments"`
	Mass     float64   `yaml:"mass"`
	Radius   float64   `yaml:"radius"`
	Pins     []int     `yaml:"pins"`
	Anchors  []Anchor  `yaml:"anchors"`
	Material *Material `yaml:"material"`
	Filter   *Filter   `yaml:"filter"`
}

type Anchor struct {
	Node   int    `yaml:"node"`
	Body   string `yaml:"body"`
	Offset Vec3   `yaml:"offset"`
}

type Material struct {
	StretchCompliance float64 `yaml:"stretch_compliance"`
	BendCompliance    float64 `yaml:"bend_compliance"`
	Damping           float64 `yaml:"damping"`
}

type Filter struct {
	Group int16 `yaml:"group"`
	Mask  int16 `yaml:"mask"`
}

// Built holds what a scene added to a world, by name
type Built struct {
	Bodies    map[string]*actor.RigidBody
	Filaments map[string]*filament.Body
	// names of the filaments in registration order
	Order []string
}

func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &s, nil
}

// Build creates the bodies of the scene and registers them in world
func (s *Scene) Build(world *strand.DynamicsWorld) (*Built, error) {
	built := &Built{
		Bodies:    make(map[string]*actor.RigidBody, len(s.Bodies)),
		Filaments: make(map[string]*filament.Body, len(s.Filaments)),
	}

	rigidBodies := make([]*actor.RigidBody, 0, len(s.Bodies))
	for i, b := range s.Bodies {
		if _, ok := built.Bodies[b.Name]; ok && b.Name != "" {
			return nil, fmt.Errorf("body %q: %w", b.Name, ErrDuplicate)
		}
		rb, err := b.build()
		if err != nil {
			return nil, fmt.Errorf("body %d %q: %w", i, b.Name, err)
		}
		if b.Name != "" {
			built.Bodies[b.Name] = rb
		}
		rigidBodies = append(rigidBodies, rb)
	}

	filaments := make([]*filament.Body, 0, len(s.Filaments))
	for i, f := range s.Filaments {
		if f.Name == "" {
			f.Name = fmt.Sprintf("filament%d", i)
		}
		if _, ok := built.Filaments[f.Name]; ok {
			return nil, fmt.Errorf("filament %q: %w", f.Name, ErrDuplicate)
		}
		body, err := f.build(built.Bodies)
		if err != nil {
			return nil, fmt.Errorf("filament %d %q: %w", i, f.Name, err)
		}
		built.Filaments[f.Name] = body
		built.Order = append(built.Order, f.Name)
		filaments = append(filaments, body)
	}

	// nothing is registered before the whole scene is valid
	for _, rb := range rigidBodies {
		filter := rb.GetFilter()
		world.AddCollisionObject(rb, filter.Group, filter.Mask)
	}
	for _, body := range filaments {
		filter := body.GetFilter()
		world.AddBody(body, filter.Group, filter.Mask)
	}

	return built, nil
}

func (b Body) build() (*actor.RigidBody, error) {
	var shape actor.ShapeInterface
	switch b.Shape {
	case "sphere":
		if b.Radius <= 0 {
			return nil, fmt.Errorf("radius %v: %w", b.Radius, ErrInvalid)
		}
		shape = &actor.Sphere{Radius: b.Radius}
	case "box":
		for _, h := range b.HalfExtents {
			if h <= 0 {
				return nil, fmt.Errorf("half extents %v: %w", b.HalfExtents, ErrInvalid)
			}
		}
		shape = &actor.Box{HalfExtents: b.HalfExtents.Vec()}
	case "plane":
		normal := b.Normal.Vec()
		if normal.Len() == 0 {
			normal = mgl64.Vec3{0, 1, 0}
		}
		shape = &actor.Plane{Normal: normal.Normalize(), Distance: b.Distance}
		b.Static = true
	default:
		return nil, fmt.Errorf("%q: %w", b.Shape, ErrUnknownShape)
	}

	bodyType := actor.BodyTypeDynamic
	if b.Static {
		bodyType = actor.BodyTypeStatic
	}
	density := b.Density
	if density <= 0 {
		density = 1
	}

	rb := actor.NewRigidBody(actor.NewTransformAt(b.Position.Vec()), shape, bodyType, density)
	rb.Id = b.Name
	rb.IsTrigger = b.Trigger
	rb.Velocity = b.Velocity.Vec()
	rb.Material.Restitution = b.Restitution
	rb.Material.StaticFriction = b.Friction
	rb.Material.DynamicFriction = b.Friction
	if b.Filter != nil {
		rb.SetFilter(actor.Filter{Group: b.Filter.Group, Mask: b.Filter.Mask})
	}
	return rb, nil
}

func (f Filament) build(bodies map[string]*actor.RigidBody) (*filament.Body, error) {
	if f.Segments < 1 {
		return nil, fmt.Errorf("segments %d: %w", f.Segments, ErrInvalid)
	}
	if f.Mass <= 0 {
		return nil, fmt.Errorf("mass %v: %w", f.Mass, ErrInvalid)
	}

	body := filament.NewLine(f.Start.Vec(), f.End.Vec(), f.Segments, f.Mass)
	body.Id = f.Name
	body.Radius = f.Radius
	if f.Material != nil {
		body.Material = filament.Material{
			StretchCompliance: f.Material.StretchCompliance,
			BendCompliance:    f.Material.BendCompliance,
			Damping:           f.Material.Damping,
		}
	}
	if f.Filter != nil {
		body.SetFilter(actor.Filter{Group: f.Filter.Group, Mask: f.Filter.Mask})
	}

	for _, node := range f.Pins {
		if err := body.Pin(node); err != nil {
			return nil, err
		}
	}
	for _, a := range f.Anchors {
		rb, ok := bodies[a.Body]
		if !ok {
			return nil, fmt.Errorf("anchor on %q: %w", a.Body, ErrUnknownBody)
		}
		if err := body.Anchor(a.Node, rb, a.Offset.Vec()); err != nil {
			return nil, err
		}
	}

	body.ComputeAABB()
	if err := body.Validate(); err != nil {
		return nil, err
	}
	return body, nil
}

var _ strand.Serializer = (*Snapshot)(nil)
