// Package armature builds skeleton records with bind data and sampled
// animation tracks, and collects them into the armature library.
package armature

import (
	"slices"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// DefaultFrameRate is the sampling rate hint used when the scene has none.
const DefaultFrameRate = 24

// Armature is an exported skeleton.
type Armature struct {
	ID          string
	BoneParents []int
	InverseBind []math.Mat4
	BoneIndex   map[string]int
	Animations  []*Animation
}

// Animation holds one full skeleton pose per sampled time.
type Animation struct {
	ID        string
	MinFrame  float64
	MaxFrame  float64
	FrameRate float64
	Times     []float64
	// Rotations and Locations are indexed by sample, then bone.
	Rotations [][]math.Quat
	Locations [][]math.Vec3
}

// Build converts the skeleton of an armature object. world is the
// armature object's world matrix.
func Build(arm *scene.Armature, world math.Mat4, action *scene.Action, fps float64) *Armature {
	a := &Armature{
		ID:          naming.ID(arm.Name),
		BoneParents: make([]int, len(arm.Bones)),
		InverseBind: make([]math.Mat4, len(arm.Bones)),
		BoneIndex:   make(map[string]int, len(arm.Bones)),
	}
	for i, b := range arm.Bones {
		a.BoneIndex[b.Name] = i
	}
	for i, b := range arm.Bones {
		a.BoneParents[i] = -1
		if b.Parent != nil {
			if p, ok := a.BoneIndex[b.Parent.Name]; ok {
				a.BoneParents[i] = p
			}
		}
		a.InverseBind[i] = world.Mul(b.MatrixLocal).Invert()
	}

	if action != nil {
		if anim := sample(arm, action); anim != nil {
			anim.ID = a.ID + "-" + naming.ID(action.Name)
			anim.FrameRate = fps
			if anim.FrameRate <= 0 {
				anim.FrameRate = DefaultFrameRate
			}
			a.Animations = append(a.Animations, anim)
		}
	}
	return a
}

// boneChannels are the curves driving one bone. Missing components are nil.
type boneChannels struct {
	rotation [4]*scene.FCurve
	location [3]*scene.FCurve
	rest     math.Vec3
}

func (c *boneChannels) curves() []*scene.FCurve {
	var out []*scene.FCurve
	for _, fc := range c.rotation {
		if fc != nil {
			out = append(out, fc)
		}
	}
	for _, fc := range c.location {
		if fc != nil {
			out = append(out, fc)
		}
	}
	return out
}

// rotationAt evaluates the quaternion channels. Host curves store w first.
func (c *boneChannels) rotationAt(t float64) math.Quat {
	q := [4]float64{1, 0, 0, 0}
	for i, fc := range c.rotation {
		if fc != nil {
			q[i] = fc.Evaluate(t)
		}
	}
	return math.Quat{X: q[1], Y: q[2], Z: q[3], W: q[0]}
}

func (c *boneChannels) locationAt(t float64) math.Vec3 {
	var v [3]float64
	for i, fc := range c.location {
		if fc != nil {
			v[i] = fc.Evaluate(t)
		}
	}
	return c.rest.Add(math.Vec3{X: v[0], Y: v[1], Z: v[2]})
}

// restOffset is the bind translation of b relative to its parent bone.
func restOffset(b *scene.Bone) math.Vec3 {
	local := b.MatrixLocal
	if b.Parent != nil {
		local = b.Parent.MatrixLocal.Invert().Mul(b.MatrixLocal)
	}
	return local.Translation()
}

// sample evaluates every bone at the union of all keyframe times. It
// returns nil when no channel of the action drives the skeleton.
func sample(arm *scene.Armature, action *scene.Action) *Animation {
	channels := make([]boneChannels, len(arm.Bones))
	var times []float64
	for i, b := range arm.Bones {
		ch := &channels[i]
		for j := range ch.rotation {
			ch.rotation[j] = action.Channel(b.Name, scene.PropRotationQuaternion, j)
		}
		for j := range ch.location {
			ch.location[j] = action.Channel(b.Name, scene.PropLocation, j)
		}
		ch.rest = restOffset(b)
		for _, fc := range ch.curves() {
			times = append(times, fc.Times()...)
		}
	}
	if len(times) == 0 {
		return nil
	}
	slices.Sort(times)
	times = slices.Compact(times)

	anim := &Animation{
		MinFrame:  times[0],
		MaxFrame:  times[len(times)-1],
		Times:     times,
		Rotations: make([][]math.Quat, len(times)),
		Locations: make([][]math.Vec3, len(times)),
	}
	for s, t := range times {
		rot := make([]math.Quat, len(channels))
		loc := make([]math.Vec3, len(channels))
		for i := range channels {
			rot[i] = channels[i].rotationAt(t).Normalize()
			loc[i] = channels[i].locationAt(t)
		}
		anim.Rotations[s] = rot
		anim.Locations[s] = loc
	}
	return anim
}

// Data returns the bind pose entries followed by references to the
// animations.
func (a *Armature) Data(animationRef func(id string) string) []xml3d.DataEntry {
	inv := make([]float64, 0, len(a.InverseBind)*16)
	for _, m := range a.InverseBind {
		inv = append(inv, m.Slice()...)
	}
	data := []xml3d.DataEntry{
		xml3d.Int("bone_parent", a.BoneParents...),
		xml3d.Float4x4("inverse_bind_matrix", inv),
	}
	for _, anim := range a.Animations {
		data = append(data, xml3d.DataRef(animationRef(anim.ID)))
	}
	return data
}

// Data returns the keyed pose tracks and the frame range.
func (an *Animation) Data() []xml3d.DataEntry {
	var data []xml3d.DataEntry
	for s, t := range an.Times {
		rot := make([]float64, 0, len(an.Rotations[s])*4)
		for _, q := range an.Rotations[s] {
			rot = append(rot, q.Slice()...)
		}
		data = append(data, xml3d.Float4("rotation_quaternion", rot).WithKey(t))
	}
	for s, t := range an.Times {
		loc := make([]float64, 0, len(an.Locations[s])*3)
		for _, v := range an.Locations[s] {
			loc = append(loc, v.Slice()...)
		}
		data = append(data, xml3d.Float3("location", loc).WithKey(t))
	}
	return append(data,
		xml3d.Float("minFrame", an.MinFrame),
		xml3d.Float("maxFrame", an.MaxFrame),
		xml3d.Float("frameRate", an.FrameRate),
	)
}
