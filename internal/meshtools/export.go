package meshtools

import (
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// Options controls which attributes take part in the vertex key.
type Options struct {
	Barycentric bool
	Skin        *Skin
}

// Buffers is the result of exporting one mesh. Indices holds one triangle
// list per material slot; a mesh without materials has one slot.
type Buffers struct {
	Vertices []Vertex
	Indices  [][]int
	skinned  bool
}

// Export deduplicates the face corners of mesh into a vertex array and
// triangulated index lists. It returns nil buffers for meshes without
// polygons.
func Export(mesh *scene.Mesh, opts Options) (*Buffers, report.Result) {
	var res report.Result
	if len(mesh.Polygons) == 0 {
		res.Warn(report.CategoryGeometry, mesh.Name, 0,
			"Mesh '%s' has no triangles. Pure line geometry not (yet) supported. Try extruding a little.", mesh.Name)
		return nil, res
	}

	slots := max(1, len(mesh.Materials))
	buf := &Buffers{Indices: make([][]int, slots), skinned: opts.Skin != nil}
	lookup := make(map[Vertex]int)
	hasUV := mesh.HasUV()

	var badFaces, badSlots, zeroWeights int
	for _, face := range mesh.Polygons {
		n := len(face.Vertices)
		if n < 3 || n > 4 || !inRange(face.Vertices, len(mesh.Vertices)) {
			badFaces++
			continue
		}

		corners := make([]int, n)
		for i, vi := range face.Vertices {
			v := Vertex{Index: vi, Corner: NoCorner}
			if face.Smooth {
				v.Normal = mesh.Vertices[vi].Normal.Round(Precision)
			} else {
				v.Normal = face.Normal.Round(Precision)
			}
			if hasUV {
				v.HasTexcoord = true
				if i < len(face.UV) {
					v.Texcoord = face.UV[i].Round(Precision)
				}
			}
			if opts.Skin != nil {
				idx, w, ok, zero := opts.Skin.Influences(mesh.Vertices[vi].Groups)
				if zero {
					zeroWeights++
				}
				if ok {
					v.HasSkin = true
					v.BoneIndices = idx
					for j := range w {
						v.BoneWeights[j] = math.Round(w[j], Precision)
					}
				}
			}
			if opts.Barycentric {
				v.Corner = i
			}

			index, seen := lookup[v]
			if !seen {
				index = len(buf.Vertices)
				lookup[v] = index
				buf.Vertices = append(buf.Vertices, v)
			}
			corners[i] = index
		}

		slot := face.MaterialIndex
		if slot < 0 || slot >= slots {
			badSlots++
			slot = 0
		}
		buf.Indices[slot] = append(buf.Indices[slot], corners[0], corners[1], corners[2])
		if n == 4 {
			buf.Indices[slot] = append(buf.Indices[slot], corners[2], corners[3], corners[0])
		}
	}

	if badFaces > 0 {
		res.Warn(report.CategoryGeometry, mesh.Name, 0,
			"Mesh '%s' has %d faces with fewer than 3, more than 4 or unknown vertices. Skipped those faces.", mesh.Name, badFaces)
	}
	if badSlots > 0 {
		res.Warn(report.CategoryGeometry, mesh.Name, 0,
			"Mesh '%s' has %d faces with an invalid material index. Assigned them to the first slot.", mesh.Name, badSlots)
	}
	if zeroWeights > 0 {
		res.Warn(report.CategoryArmature, mesh.Name, 0,
			"Mesh '%s' has %d vertex corners whose bone weights are all zero. Weights not normalized.", mesh.Name, zeroWeights)
	}
	if len(buf.Vertices) == 0 {
		return nil, res
	}
	return buf, res
}

func inRange(indices []int, n int) bool {
	for _, i := range indices {
		if i < 0 || i >= n {
			return false
		}
	}
	return true
}

// TriangleCount returns the number of triangles in slot.
func (b *Buffers) TriangleCount(slot int) int {
	return len(b.Indices[slot]) / 3
}

// Attributes returns the vertex attribute entries of the buffers.
func (b *Buffers) Attributes(mesh *scene.Mesh) []xml3d.DataEntry {
	n := len(b.Vertices)
	positions := make([]float64, 0, n*3)
	normals := make([]float64, 0, n*3)
	var texcoords, barycentric, weights []float64
	var bones []int

	first := b.Vertices[0]
	for _, v := range b.Vertices {
		positions = append(positions, mesh.Vertices[v.Index].Co.Slice()...)
		normals = append(normals, v.Normal.Slice()...)
		if first.HasTexcoord {
			texcoords = append(texcoords, v.Texcoord.Slice()...)
		}
		if first.Corner != NoCorner {
			barycentric = append(barycentric, v.Barycentric().Slice()...)
		}
		if b.skinned {
			// vertices without influences keep zero slots
			bones = append(bones, v.BoneIndices[:]...)
			weights = append(weights, v.BoneWeights[:]...)
		}
	}

	entries := []xml3d.DataEntry{
		xml3d.Float3("position", positions),
		xml3d.Float3("normal", normals),
	}
	if first.HasTexcoord {
		entries = append(entries, xml3d.Float2("texcoord", texcoords))
	}
	if first.Corner != NoCorner {
		entries = append(entries, xml3d.Float3("barycentric", barycentric))
	}
	if b.skinned {
		entries = append(entries,
			xml3d.Int4("bone_index", bones),
			xml3d.Float4("bone_weight", weights))
	}
	return entries
}
