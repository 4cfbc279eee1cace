// Package meshtools builds deduplicated vertex buffers and per-material index
// lists from host polygon meshes.
package meshtools

import (
	"cmp"
	"slices"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// Precision is the number of decimals kept for dedup comparisons.
const Precision = 8

// MaxInfluences is the number of bones that may affect one vertex.
const MaxInfluences = 4

// NoCorner marks vertices exported without barycentric tags.
const NoCorner = -1

// Vertex is one output vertex. It is comparable and used directly as the
// dedup key, so every float is rounded before a Vertex is built.
type Vertex struct {
	Index       int
	Normal      math.Vec3
	HasTexcoord bool
	Texcoord    math.Vec2
	HasSkin     bool
	BoneIndices [MaxInfluences]int
	BoneWeights [MaxInfluences]float64
	Corner      int
}

// Barycentric returns the barycentric marker of the face corner the vertex
// was created for.
func (v Vertex) Barycentric() math.Vec3 {
	switch v.Corner {
	case 0:
		return math.Vec3{X: 1}
	case 1, 3:
		return math.Vec3{Y: 1}
	default:
		return math.Vec3{Z: 1}
	}
}

// Skin maps vertex groups onto the bones of an armature.
type Skin struct {
	VertexGroups []string
	BoneIndex    map[string]int
}

type influence struct {
	weight float64
	bone   int
}

// Influences returns up to four bone influences of a vertex, heaviest first,
// renormalized to sum to one. ok is false when no group maps to a bone;
// zero is true when influences exist but all weigh nothing.
func (s *Skin) Influences(groups []scene.GroupWeight) (idx [MaxInfluences]int, w [MaxInfluences]float64, ok, zero bool) {
	var found []influence
	for _, g := range groups {
		if g.Group < 0 || g.Group >= len(s.VertexGroups) {
			continue
		}
		bone, known := s.BoneIndex[s.VertexGroups[g.Group]]
		if !known {
			continue
		}
		found = append(found, influence{weight: g.Weight, bone: bone})
	}
	if len(found) == 0 {
		return idx, w, false, false
	}

	// stable so equal weights keep their group order
	slices.SortStableFunc(found, func(a, b influence) int {
		return cmp.Compare(b.weight, a.weight)
	})
	if len(found) > MaxInfluences {
		found = found[:MaxInfluences]
	}

	sum := 0.0
	for i, f := range found {
		idx[i] = f.bone
		w[i] = f.weight
		sum += f.weight
	}
	if sum <= 0 {
		return idx, w, true, true
	}
	for i := range found {
		w[i] /= sum
	}
	return idx, w, true, false
}
