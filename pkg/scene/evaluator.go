package scene

import (
	"fmt"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
)

// Instance is one rendered occurrence of an object with its world matrix.
type Instance struct {
	Object *Object
	Matrix math.Mat4
}

// Evaluator resolves derived geometry. Implementations may apply modifiers;
// skipArmature asks for the undeformed base pose.
type Evaluator interface {
	DerivedInstances(obj *Object) []Instance
	EvaluateMesh(obj *Object, skipArmature bool) (*Mesh, error)
}

// StaticEvaluator serves pre-evaluated meshes stored on the objects.
type StaticEvaluator struct{}

// DerivedInstances returns obj itself, or the members of its dupli group
// placed relative to obj.
func (StaticEvaluator) DerivedInstances(obj *Object) []Instance {
	if obj.DupliGroup == nil {
		return []Instance{{Object: obj, Matrix: obj.MatrixWorld}}
	}
	out := make([]Instance, 0, len(obj.DupliGroup.Objects))
	for _, member := range obj.DupliGroup.Objects {
		out = append(out, Instance{Object: member, Matrix: obj.MatrixWorld.Mul(member.MatrixWorld)})
	}
	return out
}

// EvaluateMesh returns the stored mesh of obj.
func (StaticEvaluator) EvaluateMesh(obj *Object, _ bool) (*Mesh, error) {
	if obj.Mesh == nil {
		return nil, fmt.Errorf("%w: %s object %q has no mesh data", ErrNotEvaluable, obj.Type, obj.Name)
	}
	return obj.Mesh, nil
}
