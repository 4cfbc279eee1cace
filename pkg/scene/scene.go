// Package scene is the read-only host data model consumed by the exporter:
// objects, meshes, materials, node trees, armatures, actions, lamps, cameras
// and the world.
package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
)

// ErrNotEvaluable is returned when no derived mesh exists for an object.
var ErrNotEvaluable = errors.New("geometry not evaluable")

// ObjectType tags the kind of data an object carries.
type ObjectType string

const (
	TypeMesh     ObjectType = "MESH"
	TypeCurve    ObjectType = "CURVE"
	TypeSurface  ObjectType = "SURFACE"
	TypeFont     ObjectType = "FONT"
	TypeMeta     ObjectType = "META"
	TypeArmature ObjectType = "ARMATURE"
	TypeLamp     ObjectType = "LAMP"
	TypeCamera   ObjectType = "CAMERA"
	TypeEmpty    ObjectType = "EMPTY"
)

// IsGeometry reports whether objects of this type render as geometry.
func (t ObjectType) IsGeometry() bool {
	switch t {
	case TypeMesh, TypeCurve, TypeSurface, TypeFont, TypeMeta:
		return true
	}
	return false
}

// ModifierArmature is the modifier type that skins a mesh by an armature.
const ModifierArmature = "ARMATURE"

// Scene is one exportable scene.
type Scene struct {
	Name      string
	Objects   []*Object
	Camera    *Object
	World     *World
	Layers    []bool
	FPS       int
	Lamps     []*Lamp
	Viewports []Viewport
}

// Selected returns the selected objects in enumeration order.
func (s *Scene) Selected() []*Object {
	var out []*Object
	for _, o := range s.Objects {
		if o.Selected {
			out = append(out, o)
		}
	}
	return out
}

// Object finds an object by name.
func (s *Scene) Object(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// World holds scene-wide environment colors.
type World struct {
	Name         string
	AmbientColor Color
	HorizonColor Color
}

// Viewport is a 3D view snapshot at export time.
type Viewport struct {
	ViewMatrix        math.Mat4
	PerspectiveMatrix math.Mat4
}

// Color is a linear RGB color.
type Color [3]float64

// V returns the HSV value component.
func (c Color) V() float64 {
	return max(c[0], c[1], c[2])
}

// Slice returns the components in order.
func (c Color) Slice() []float64 {
	return []float64{c[0], c[1], c[2]}
}

// Object is a node of the host hierarchy.
type Object struct {
	Name     string
	Type     ObjectType
	Parent   *Object
	Layers   []bool
	Selected bool

	MatrixWorld         math.Mat4
	MatrixBasis         math.Mat4
	MatrixParentInverse math.Mat4
	Location            math.Vec3
	Rotation            math.Quat
	Scale               math.Vec3

	// Properties are custom string properties, e.g. DOM event handlers.
	Properties map[string]string

	Mesh     *Mesh
	Lamp     *Lamp
	Camera   *Camera
	Armature *Armature
	Action   *Action

	Modifiers    []Modifier
	VertexGroups []string
	DupliGroup   *Group
}

// ArmatureModifiers returns the armature modifiers of o in stack order.
func (o *Object) ArmatureModifiers() []Modifier {
	var out []Modifier
	for _, m := range o.Modifiers {
		if m.Type == ModifierArmature {
			out = append(out, m)
		}
	}
	return out
}

// ArmatureObject returns the armature driving o when exactly one armature
// modifier is present.
func (o *Object) ArmatureObject() *Object {
	mods := o.ArmatureModifiers()
	if len(mods) != 1 || mods[0].Object == nil || mods[0].Object.Armature == nil {
		return nil
	}
	return mods[0].Object
}

// ActiveLayer returns the index of the first layer o is on, or 0.
func (o *Object) ActiveLayer() int {
	for i, on := range o.Layers {
		if on {
			return i
		}
	}
	return 0
}

func (o *Object) String() string {
	return fmt.Sprintf("%s(%s)", o.Name, o.Type)
}

// Modifier is one entry of an object's modifier stack.
type Modifier struct {
	Name   string
	Type   string
	Object *Object
}

// Group is a named object collection used for instancing.
type Group struct {
	Name    string
	Objects []*Object
}

// Camera data.
type Camera struct {
	Name  string
	Angle float64
	Near  float64
	Far   float64
}

// Lamp data.
type Lamp struct {
	Name                 string
	Type                 string
	Color                Color
	Energy               float64
	Distance             float64
	FalloffType          string
	LinearAttenuation    float64
	QuadraticAttenuation float64
	SpotSize             float64
	SpotBlend            float64
}
