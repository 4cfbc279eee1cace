package exporter

import (
	"fmt"
	"strings"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// Transform encodings.
const (
	TransformMatrix = "matrix"
	TransformCSS    = "css"
)

const identityEpsilon = 1e-9

// transformStyle returns the style attribute value placing obj relative to
// its parent, or "" when the transform is the identity.
func transformStyle(obj *scene.Object, encoding string) string {
	var transform string
	if encoding == TransformCSS {
		transform = cssTransform(obj)
	} else {
		m := obj.MatrixParentInverse.Mul(obj.MatrixBasis)
		if !m.IsIdentity(identityEpsilon) {
			transform = m.CSSMatrix3D()
		}
	}
	if transform == "" {
		return ""
	}
	return "transform:" + transform + ";"
}

// cssTransform decomposes the transform into CSS functions applied in
// parent-inverse, translate, rotate, scale order.
func cssTransform(obj *scene.Object) string {
	var parts []string
	if !obj.MatrixParentInverse.IsIdentity(identityEpsilon) {
		parts = append(parts, obj.MatrixParentInverse.CSSMatrix3D())
	}

	loc := obj.Location
	if loc != (math.Vec3{}) {
		parts = append(parts, fmt.Sprintf("translate3d(%.6f,%.6f,%.6f)", loc.X, loc.Y, loc.Z))
	}

	axis, angle := obj.Rotation.AxisAngle()
	if angle != 0 {
		parts = append(parts, fmt.Sprintf("rotate3d(%.6f,%.6f,%.6f,%.2fdeg)",
			axis.X, axis.Y, axis.Z, math.Degrees(angle)))
	}

	s := obj.Scale
	if s != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		parts = append(parts, fmt.Sprintf("scale3d(%.6f,%.6f,%.6f)", s.X, s.Y, s.Z))
	}
	return strings.Join(parts, " ")
}
