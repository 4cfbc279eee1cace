package asset

import (
	"fmt"

	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// Reason classifies the outcome of geometry resolution.
type Reason int

const (
	ReasonOK Reason = iota
	ReasonNoPolygons
	ReasonEvaluationFailed
	ReasonUnsupportedType
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonNoPolygons:
		return "no-polygons"
	case ReasonEvaluationFailed:
		return "evaluation-failed"
	case ReasonUnsupportedType:
		return "unsupported-type"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// GeometryError explains why an object contributes no geometry.
type GeometryError struct {
	Object string
	Type   scene.ObjectType
	Reason Reason
	Err    error
}

func (e *GeometryError) Error() string {
	switch e.Reason {
	case ReasonNoPolygons:
		return fmt.Sprintf("Mesh of object '%s' has no triangles. Pure line geometry not (yet) supported. Try extruding a little.", e.Object)
	case ReasonUnsupportedType:
		return fmt.Sprintf("Object '%s' is of type '%s', which is not (yet) supported.", e.Object, e.Type)
	case ReasonEvaluationFailed:
		return fmt.Sprintf("Could not evaluate geometry of object '%s': %v. Skipped object.", e.Object, e.Err)
	}
	return fmt.Sprintf("geometry of '%s': %s", e.Object, e.Reason)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

// Warning returns the report entry for the failure.
func (e *GeometryError) Warning() report.Warning {
	category := report.CategoryGeometry
	if e.Reason == ReasonUnsupportedType {
		category = report.CategoryObject
	}
	return report.Warning{Message: e.Error(), Category: category, Object: e.Object}
}

// GeometryResult is the outcome of resolving the rendered mesh of an object.
type GeometryResult struct {
	Mesh *scene.Mesh
	Err  *GeometryError
}

// OK reports whether a mesh was resolved.
func (g GeometryResult) OK() bool {
	return g.Err == nil
}

// Resolve evaluates the derived mesh of obj. skipArmature requests the
// undeformed base pose of skinned objects.
func Resolve(eval scene.Evaluator, obj *scene.Object, skipArmature bool) GeometryResult {
	fail := func(reason Reason, err error) GeometryResult {
		return GeometryResult{Err: &GeometryError{Object: obj.Name, Type: obj.Type, Reason: reason, Err: err}}
	}
	if !obj.Type.IsGeometry() {
		return fail(ReasonUnsupportedType, nil)
	}

	mesh, err := eval.EvaluateMesh(obj, skipArmature)
	if err != nil {
		return fail(ReasonEvaluationFailed, err)
	}
	if mesh == nil || len(mesh.Polygons) == 0 {
		return fail(ReasonNoPolygons, nil)
	}
	return GeometryResult{Mesh: mesh}
}
