package scenefile

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// skins creates one armature object per skin and binds the skinned mesh
// nodes to it through an armature modifier.
func (l *gltfLoader) skins() ([]*scene.Object, error) {
	var out []*scene.Object
	for i, skin := range l.doc.Skins {
		armObj, err := l.skin(i, skin)
		if err != nil {
			return nil, err
		}
		out = append(out, armObj)

		groups := make([]string, len(skin.Joints))
		for j, node := range skin.Joints {
			groups[j] = l.objs[node].Name
		}
		for n, node := range l.doc.Nodes {
			if node.Skin == nil || int(*node.Skin) != i {
				continue
			}
			obj := l.objs[n]
			obj.VertexGroups = groups
			obj.Modifiers = append(obj.Modifiers, scene.Modifier{
				Name:   "Armature",
				Type:   scene.ModifierArmature,
				Object: armObj,
			})
		}
	}
	return out, nil
}

func (l *gltfLoader) skin(i int, skin *gltf.Skin) (*scene.Object, error) {
	name := nameOr(skin.Name, "Armature.%03d", i)
	for _, node := range skin.Joints {
		if int(node) >= len(l.objs) {
			return nil, fmt.Errorf("skin %q: joint %d out of range", name, node)
		}
	}

	var inverseBind []math.Mat4
	if skin.InverseBindMatrices != nil {
		data, err := modeler.ReadAccessor(l.doc, l.doc.Accessors[*skin.InverseBindMatrices], nil)
		if err != nil {
			return nil, fmt.Errorf("skin %q: %w", name, err)
		}
		if mats, ok := data.([][4][4]float32); ok {
			for _, m := range mats {
				var out math.Mat4
				for c := 0; c < 4; c++ {
					for r := 0; r < 4; r++ {
						out[c*4+r] = float64(m[c][r])
					}
				}
				inverseBind = append(inverseBind, out)
			}
		}
	}

	arm := &scene.Armature{Name: name}
	bones := make(map[*scene.Object]*scene.Bone, len(skin.Joints))
	for j, node := range skin.Joints {
		obj := l.objs[node]
		bind := obj.MatrixWorld
		if j < len(inverseBind) {
			bind = inverseBind[j].Invert()
		}
		b := &scene.Bone{Name: obj.Name, MatrixLocal: bind}
		bones[obj] = b
		arm.Bones = append(arm.Bones, b)
	}
	for _, node := range skin.Joints {
		obj := l.objs[node]
		for p := obj.Parent; p != nil; p = p.Parent {
			if pb, ok := bones[p]; ok {
				bones[obj].Parent = pb
				break
			}
		}
	}

	armObj := &scene.Object{
		Name:                name,
		Type:                scene.TypeArmature,
		Layers:              []bool{true},
		MatrixWorld:         math.Identity(),
		MatrixBasis:         math.Identity(),
		MatrixParentInverse: math.Identity(),
		Rotation:            math.QuatIdentity(),
		Scale:               math.Vec3{X: 1, Y: 1, Z: 1},
		Armature:            arm,
	}
	action, err := l.action(skin, bones)
	if err != nil {
		return nil, fmt.Errorf("skin %q: %w", name, err)
	}
	armObj.Action = action
	return armObj, nil
}

// action converts the first animation driving a joint of skin. Pose
// channels are stored relative to the rest transform of each joint.
func (l *gltfLoader) action(skin *gltf.Skin, bones map[*scene.Object]*scene.Bone) (*scene.Action, error) {
	joints := make(map[int]bool, len(skin.Joints))
	for _, node := range skin.Joints {
		joints[int(node)] = true
	}

	for i, anim := range l.doc.Animations {
		act := &scene.Action{Name: nameOr(anim.Name, "Action.%03d", i)}
		for _, ch := range anim.Channels {
			if ch.Target.Node == nil || !joints[int(*ch.Target.Node)] || int(ch.Sampler) >= len(anim.Samplers) {
				continue
			}
			obj := l.objs[*ch.Target.Node]
			curves, err := l.channel(obj, bones[obj].Name, ch.Target.Path, anim.Samplers[ch.Sampler])
			if err != nil {
				return nil, fmt.Errorf("animation %q: %w", act.Name, err)
			}
			act.FCurves = append(act.FCurves, curves...)
		}
		if len(act.FCurves) > 0 {
			return act, nil
		}
	}
	return nil, nil
}

func (l *gltfLoader) channel(obj *scene.Object, bone string, path gltf.TRSProperty, s *gltf.AnimationSampler) ([]*scene.FCurve, error) {
	in, err := modeler.ReadAccessor(l.doc, l.doc.Accessors[s.Input], nil)
	if err != nil {
		return nil, err
	}
	times, ok := in.([]float32)
	if !ok {
		return nil, nil
	}
	out, err := modeler.ReadAccessor(l.doc, l.doc.Accessors[s.Output], nil)
	if err != nil {
		return nil, err
	}

	interp := scene.InterpLinear
	stride, offset := 1, 0
	switch s.Interpolation {
	case gltf.InterpolationStep:
		interp = scene.InterpConstant
	case gltf.InterpolationCubicSpline:
		// in-tangent, value, out-tangent per key
		stride, offset = 3, 1
	}

	var values [][]float64
	switch path {
	case gltf.TRSRotation:
		rot, ok := out.([][4]float32)
		if !ok {
			return nil, nil
		}
		rest := obj.Rotation
		inv := math.Quat{X: -rest.X, Y: -rest.Y, Z: -rest.Z, W: rest.W}
		for k := offset; k < len(rot); k += stride {
			q := inv.Mul(math.Quat{X: float64(rot[k][0]), Y: float64(rot[k][1]), Z: float64(rot[k][2]), W: float64(rot[k][3])})
			values = append(values, []float64{q.W, q.X, q.Y, q.Z})
		}
	case gltf.TRSTranslation:
		loc, ok := out.([][3]float32)
		if !ok {
			return nil, nil
		}
		rest := obj.Location
		for k := offset; k < len(loc); k += stride {
			values = append(values, []float64{
				float64(loc[k][0]) - rest.X,
				float64(loc[k][1]) - rest.Y,
				float64(loc[k][2]) - rest.Z,
			})
		}
	default:
		return nil, nil
	}

	prop := scene.PropRotationQuaternion
	if path == gltf.TRSTranslation {
		prop = scene.PropLocation
	}
	n := min(len(times), len(values))
	if n == 0 {
		return nil, nil
	}

	curves := make([]*scene.FCurve, len(values[0]))
	for c := range curves {
		fc := &scene.FCurve{DataPath: scene.BonePath(bone, prop), Index: c, Group: bone}
		for k := 0; k < n; k++ {
			fc.Keyframes = append(fc.Keyframes, scene.Keyframe{
				Co:            math.Vec2{X: float64(times[k]) * GLTFFrameRate, Y: values[k][c]},
				Interpolation: interp,
			})
		}
		curves[c] = fc
	}
	return curves, nil
}
