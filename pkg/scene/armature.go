package scene

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
)

// Armature is a skeleton data-block with bones in a stable order.
type Armature struct {
	Name  string
	Bones []*Bone
}

// Bone is one skeleton joint. MatrixLocal is the bind pose in armature space.
type Bone struct {
	Name        string
	Parent      *Bone
	MatrixLocal math.Mat4
}

// BoneIndex returns the position of the named bone, or -1.
func (a *Armature) BoneIndex(name string) int {
	for i, b := range a.Bones {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// Channel properties animated on pose bones.
const (
	PropRotationQuaternion = "rotation_quaternion"
	PropLocation           = "location"
)

// Action is a set of keyframed channels.
type Action struct {
	Name    string
	FCurves []*FCurve
}

// BonePath returns the data path of a pose bone property.
func BonePath(bone, prop string) string {
	return fmt.Sprintf("pose.bones[%q].%s", bone, prop)
}

// Channel returns the curve animating component index of a bone property.
// Curves grouped under the bone name match on the property suffix.
func (a *Action) Channel(bone, prop string, index int) *FCurve {
	full := BonePath(bone, prop)
	for _, fc := range a.FCurves {
		if fc.Index != index {
			continue
		}
		if fc.DataPath == full || (fc.Group == bone && strings.HasSuffix(fc.DataPath, "."+prop)) {
			return fc
		}
	}
	return nil
}

// Interpolation modes of a keyframe segment.
const (
	InterpConstant = "CONSTANT"
	InterpLinear   = "LINEAR"
	InterpBezier   = "BEZIER"
)

// Keyframe is one key of an F-curve. Co is (frame, value). Handles are
// absolute positions and only used for bezier segments.
type Keyframe struct {
	Co            math.Vec2
	Interpolation string
	HandleLeft    math.Vec2
	HandleRight   math.Vec2
	HasHandles    bool
}

// FCurve animates one component of a property.
type FCurve struct {
	DataPath  string
	Index     int
	Group     string
	Keyframes []Keyframe
}

// Times returns the keyframe times.
func (fc *FCurve) Times() []float64 {
	out := make([]float64, len(fc.Keyframes))
	for i, k := range fc.Keyframes {
		out[i] = k.Co.X
	}
	return out
}

// Evaluate returns the curve value at frame. Values are held constant
// outside the keyed range.
func (fc *FCurve) Evaluate(frame float64) float64 {
	keys := fc.Keyframes
	if len(keys) == 0 {
		return 0
	}
	if !sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i].Co.X < keys[j].Co.X }) {
		keys = append([]Keyframe(nil), keys...)
		sort.SliceStable(keys, func(i, j int) bool { return keys[i].Co.X < keys[j].Co.X })
	}
	if frame <= keys[0].Co.X {
		return keys[0].Co.Y
	}
	last := keys[len(keys)-1]
	if frame >= last.Co.X {
		return last.Co.Y
	}

	next := sort.Search(len(keys), func(i int) bool { return keys[i].Co.X > frame })
	k0, k1 := keys[next-1], keys[next]
	span := k1.Co.X - k0.Co.X
	if span == 0 {
		return k1.Co.Y
	}

	switch k0.Interpolation {
	case InterpConstant:
		return k0.Co.Y
	case InterpBezier:
		return evalBezier(k0, k1, frame)
	default:
		t := (frame - k0.Co.X) / span
		return k0.Co.Y + t*(k1.Co.Y-k0.Co.Y)
	}
}

// evalBezier solves x(t) = frame on the segment by bisection.
func evalBezier(k0, k1 Keyframe, frame float64) float64 {
	p0, p3 := k0.Co, k1.Co
	p1, p2 := k0.HandleRight, k1.HandleLeft
	if !k0.HasHandles {
		p1 = math.Vec2{X: p0.X + (p3.X-p0.X)/3, Y: p0.Y + (p3.Y-p0.Y)/3}
	}
	if !k1.HasHandles {
		p2 = math.Vec2{X: p3.X - (p3.X-p0.X)/3, Y: p3.Y - (p3.Y-p0.Y)/3}
	}
	// keep x monotonic so bisection converges
	p1.X = math.Clamp(p1.X, p0.X, p3.X)
	p2.X = math.Clamp(p2.X, p0.X, p3.X)

	cubic := func(a, b, c, d, t float64) float64 {
		u := 1 - t
		return u*u*u*a + 3*u*u*t*b + 3*u*t*t*c + t*t*t*d
	}
	lo, hi := 0.0, 1.0
	t := 0.5
	for i := 0; i < 64; i++ {
		t = (lo + hi) / 2
		x := cubic(p0.X, p1.X, p2.X, p3.X, t)
		if math.NearlyEqual(x, frame, 1e-9) {
			break
		}
		if x < frame {
			lo = t
		} else {
			hi = t
		}
	}
	return cubic(p0.Y, p1.Y, p2.Y, p3.Y, t)
}
