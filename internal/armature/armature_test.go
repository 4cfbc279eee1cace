package armature

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

func linearCurve(bone, prop string, index int, keys ...float64) *scene.FCurve {
	fc := &scene.FCurve{DataPath: scene.BonePath(bone, prop), Index: index, Group: bone}
	for _, k := range keys {
		fc.Keyframes = append(fc.Keyframes, scene.Keyframe{
			Co:            math.Vec2{X: k, Y: k},
			Interpolation: scene.InterpLinear,
		})
	}
	return fc
}

func skeleton() *scene.Armature {
	root := &scene.Bone{Name: "Root", MatrixLocal: math.Identity()}
	child := &scene.Bone{Name: "Child", Parent: root, MatrixLocal: math.Translate(0, 1, 0)}
	return &scene.Armature{Name: "Rig.001", Bones: []*scene.Bone{root, child}}
}

func TestBuildBindPose(t *testing.T) {
	a := Build(skeleton(), math.Translate(1, 0, 0), nil, 30)

	assert.Equal(t, "Rig-001", a.ID)
	assert.Equal(t, []int{-1, 0}, a.BoneParents)
	assert.Equal(t, map[string]int{"Root": 0, "Child": 1}, a.BoneIndex)
	assert.Empty(t, a.Animations)

	assert.InDelta(t, -1, a.InverseBind[0].Translation().X, 1e-12)
	child := a.InverseBind[1].Translation()
	assert.InDelta(t, -1, child.X, 1e-12)
	assert.InDelta(t, -1, child.Y, 1e-12)
}

func TestSampleUnion(t *testing.T) {
	action := &scene.Action{Name: "Walk", FCurves: []*scene.FCurve{
		linearCurve("Root", scene.PropLocation, 0, 0, 5, 10),
		linearCurve("Child", scene.PropLocation, 1, 0, 7, 10),
	}}
	a := Build(skeleton(), math.Identity(), action, 0)

	require.Len(t, a.Animations, 1)
	anim := a.Animations[0]
	assert.Equal(t, "Rig-001-Walk", anim.ID)
	assert.Equal(t, []float64{0, 5, 7, 10}, anim.Times)
	assert.Equal(t, 0.0, anim.MinFrame)
	assert.Equal(t, 10.0, anim.MaxFrame)
	assert.Equal(t, float64(DefaultFrameRate), anim.FrameRate)

	require.Len(t, anim.Locations, 4)
	for s := range anim.Times {
		require.Len(t, anim.Locations[s], 2)
		require.Len(t, anim.Rotations[s], 2)
	}
	// Root interpolated at 7, child at 5 on top of its rest offset.
	assert.InDelta(t, 7, anim.Locations[2][0].X, 1e-9)
	assert.InDelta(t, 1+5, anim.Locations[1][1].Y, 1e-9)
	assert.Equal(t, math.QuatIdentity(), anim.Rotations[3][0])
}

func TestSampleRotationChannels(t *testing.T) {
	w := linearCurve("Root", scene.PropRotationQuaternion, 0, 1)
	z := &scene.FCurve{DataPath: scene.BonePath("Root", scene.PropRotationQuaternion), Index: 3, Keyframes: []scene.Keyframe{
		{Co: math.Vec2{X: 1, Y: 1}, Interpolation: scene.InterpLinear},
	}}
	action := &scene.Action{Name: "Turn", FCurves: []*scene.FCurve{w, z}}
	a := Build(skeleton(), math.Identity(), action, 25)

	require.Len(t, a.Animations, 1)
	q := a.Animations[0].Rotations[0][0]
	assert.InDelta(t, 0.70710678, q.W, 1e-6)
	assert.InDelta(t, 0.70710678, q.Z, 1e-6)
	assert.Equal(t, 25.0, a.Animations[0].FrameRate)
}

func TestActionWithoutSkeletonChannels(t *testing.T) {
	action := &scene.Action{Name: "Other", FCurves: []*scene.FCurve{
		{DataPath: "location", Index: 0, Keyframes: []scene.Keyframe{{Co: math.Vec2{X: 1, Y: 1}}}},
	}}
	a := Build(skeleton(), math.Identity(), action, 0)
	assert.Empty(t, a.Animations)
}

func TestAnimationData(t *testing.T) {
	action := &scene.Action{Name: "Walk", FCurves: []*scene.FCurve{
		linearCurve("Root", scene.PropLocation, 0, 0, 10),
	}}
	anim := Build(skeleton(), math.Identity(), action, 0).Animations[0]
	data := anim.Data()

	require.Len(t, data, 2*2+3)
	assert.Equal(t, "rotation_quaternion", data[0].Name)
	assert.Equal(t, "0.000000", data[0].Key)
	assert.Equal(t, xml3d.TypeFloat4, data[0].Type)
	assert.Len(t, data[0].Floats, 8)
	assert.Equal(t, "location", data[2].Name)
	assert.Equal(t, "10.000000", data[3].Key)
	assert.Equal(t, "minFrame", data[4].Name)
	assert.Equal(t, "frameRate", data[6].Name)
}

func TestLibrary(t *testing.T) {
	skel := skeleton()
	action := &scene.Action{Name: "Walk", FCurves: []*scene.FCurve{
		linearCurve("Root", scene.PropLocation, 0, 0, 10),
	}}
	obj := &scene.Object{Name: "Rig", Type: scene.TypeArmature, Armature: skel, MatrixWorld: math.Identity(), Action: action}
	twin := &scene.Object{Name: "Rig2", Type: scene.TypeArmature, Armature: skel, MatrixWorld: math.Translate(5, 0, 0)}

	lib := NewLibrary("armatures.xml", 24)
	a, url, res := lib.Add(obj)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "./armatures.xml#Rig-001", url)

	b, url2, _ := lib.Add(twin)
	assert.Same(t, a, b)
	assert.Equal(t, url, url2)
	assert.Equal(t, 1, lib.Len())

	els := lib.Elements()
	require.Len(t, els, 2)
	ref := els[0].Children[len(els[0].Children)-1]
	src, _ := ref.Get("src")
	assert.Equal(t, "#Rig-001-Walk", src)

	dir := t.TempDir()
	res, err := lib.Save(dir)
	require.NoError(t, err)
	require.Len(t, res.Armatures, 1)
	data, err := os.ReadFile(filepath.Join(dir, "armatures.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<data id="Rig-001-Walk">`)
	assert.Contains(t, string(data), `<int name="bone_parent">-1 0</int>`)
}

func TestLibraryEmptySkeletonWarns(t *testing.T) {
	lib := NewLibrary("armatures.xml", 24)
	obj := &scene.Object{Name: "Empty", Armature: &scene.Armature{Name: "Bare"}, MatrixWorld: math.Identity()}
	_, _, res := lib.Add(obj)
	require.Len(t, res.Warnings, 1)

	res, err := lib.Save(t.TempDir())
	require.NoError(t, err)
	assert.Len(t, res.Armatures, 1)
}
