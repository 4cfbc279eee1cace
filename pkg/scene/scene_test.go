package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
)

func key(frame, value float64, interp string) Keyframe {
	return Keyframe{Co: math.Vec2{X: frame, Y: value}, Interpolation: interp}
}

func TestFCurveEvaluate(t *testing.T) {
	fc := &FCurve{Keyframes: []Keyframe{
		key(0, 0, InterpLinear),
		key(10, 10, InterpConstant),
		key(20, 0, InterpLinear),
	}}

	tests := []struct {
		name  string
		frame float64
		want  float64
	}{
		{"before range holds first", -5, 0},
		{"on key", 0, 0},
		{"linear", 5, 5},
		{"constant segment", 15, 10},
		{"last key", 20, 0},
		{"after range holds last", 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, fc.Evaluate(tt.frame), 1e-9)
		})
	}
}

func TestFCurveEvaluateUnsorted(t *testing.T) {
	fc := &FCurve{Keyframes: []Keyframe{key(10, 1, InterpLinear), key(0, 0, InterpLinear)}}
	assert.InDelta(t, 0.5, fc.Evaluate(5), 1e-9)
}

func TestFCurveEvaluateBezier(t *testing.T) {
	// bezier without handles degenerates to a straight line
	fc := &FCurve{Keyframes: []Keyframe{key(0, 0, InterpBezier), key(10, 10, InterpBezier)}}
	assert.InDelta(t, 2.5, fc.Evaluate(2.5), 1e-6)

	// flat handles ease in and out
	ease := &FCurve{Keyframes: []Keyframe{
		{Co: math.Vec2{X: 0, Y: 0}, Interpolation: InterpBezier, HandleRight: math.Vec2{X: 5, Y: 0}, HasHandles: true},
		{Co: math.Vec2{X: 10, Y: 1}, Interpolation: InterpBezier, HandleLeft: math.Vec2{X: 5, Y: 1}, HasHandles: true},
	}}
	assert.InDelta(t, 0.5, ease.Evaluate(5), 1e-6)
	assert.Less(t, ease.Evaluate(1), 0.1)
	assert.Greater(t, ease.Evaluate(9), 0.9)
}

func TestFCurveEvaluateEmpty(t *testing.T) {
	assert.Equal(t, 0.0, (&FCurve{}).Evaluate(3))
}

func TestActionChannel(t *testing.T) {
	byPath := &FCurve{DataPath: BonePath("Hand", PropLocation), Index: 1}
	byGroup := &FCurve{DataPath: "pose.bones[\"Arm\"].rotation_quaternion", Group: "Arm", Index: 0}
	a := &Action{FCurves: []*FCurve{byPath, byGroup}}

	assert.Same(t, byPath, a.Channel("Hand", PropLocation, 1))
	assert.Nil(t, a.Channel("Hand", PropLocation, 0))
	assert.Same(t, byGroup, a.Channel("Arm", PropRotationQuaternion, 0))
	assert.Nil(t, a.Channel("Leg", PropRotationQuaternion, 0))
}

func TestArmatureObject(t *testing.T) {
	rig := &Object{Name: "Rig", Type: TypeArmature, Armature: &Armature{Name: "Rig"}}
	obj := &Object{Name: "Body", Type: TypeMesh, Modifiers: []Modifier{{Type: "SUBSURF"}, {Type: ModifierArmature, Object: rig}}}
	assert.Same(t, rig, obj.ArmatureObject())

	obj.Modifiers = append(obj.Modifiers, Modifier{Type: ModifierArmature, Object: rig})
	assert.Nil(t, obj.ArmatureObject())
	assert.Len(t, obj.ArmatureModifiers(), 2)
}

func TestStaticEvaluator(t *testing.T) {
	mesh := &Mesh{Name: "Cube"}
	member := &Object{Name: "Member", Type: TypeMesh, Mesh: mesh, MatrixWorld: math.Translate(1, 0, 0)}
	holder := &Object{Name: "Holder", Type: TypeEmpty, MatrixWorld: math.Translate(0, 2, 0), DupliGroup: &Group{Objects: []*Object{member}}}

	var ev Evaluator = StaticEvaluator{}
	inst := ev.DerivedInstances(holder)
	require.Len(t, inst, 1)
	assert.Same(t, member, inst[0].Object)
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 0}, inst[0].Matrix.Translation())

	got, err := ev.EvaluateMesh(member, true)
	require.NoError(t, err)
	assert.Same(t, mesh, got)

	_, err = ev.EvaluateMesh(&Object{Name: "Text", Type: TypeFont}, false)
	assert.ErrorIs(t, err, ErrNotEvaluable)
}

func TestColorV(t *testing.T) {
	assert.Equal(t, 0.7, Color{0.2, 0.7, 0.1}.V())
}
