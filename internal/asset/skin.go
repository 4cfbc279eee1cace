package asset

import (
	"github.com/Faultbox/xml3d-exporter/internal/armature"
	"github.com/Faultbox/xml3d-exporter/internal/meshtools"
	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// skinning binds one object to the skeleton of its armature modifier.
type skinning struct {
	armature *armature.Armature
	url      string
	object   *scene.Object
}

func (s *skinning) options(obj *scene.Object) *meshtools.Skin {
	return &meshtools.Skin{VertexGroups: obj.VertexGroups, BoneIndex: s.armature.BoneIndex}
}

// block returns the skin attribute block of obj:
// offset_matrix = inverse(armature_world * bone_local) * object_world per
// bone and global_inverse_matrix = inverse(inverse(armature_world) * object_world).
func (s *skinning) block(name string, obj *scene.Object) *DataBlock {
	offsets := make([]float64, 0, len(s.armature.InverseBind)*16)
	for _, inv := range s.armature.InverseBind {
		offsets = append(offsets, inv.Mul(obj.MatrixWorld).Slice()...)
	}
	global := globalInverse(s.object.MatrixWorld, obj.MatrixWorld)

	return &DataBlock{
		Name: name,
		Entries: []xml3d.DataEntry{
			xml3d.Float4x4("offset_matrix", offsets),
			xml3d.Float4x4("global_inverse_matrix", global.Slice()),
			xml3d.DataRef(s.url),
		},
	}
}

// config returns the per-instance animation key of the skinned model.
func (s *skinning) config(name string) []ModelConfig {
	if len(s.armature.Animations) == 0 {
		return nil
	}
	anim := s.armature.Animations[0]
	key := xml3d.Float("animKey", anim.MinFrame)
	key.Class = "anim-" + anim.ID
	return []ModelConfig{{Name: name, Data: []xml3d.DataEntry{key}}}
}

func globalInverse(armatureWorld, objectWorld math.Mat4) math.Mat4 {
	return armatureWorld.Invert().Mul(objectWorld).Invert()
}
