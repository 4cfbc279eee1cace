// Package asset exports object geometry into asset library files. Each mesh
// data-block is written once; further users become reference nodes.
package asset

import (
	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// SkinningCompute is the dataflow that deforms skinned asset data at runtime.
const SkinningCompute = "dataflow['../common/xflow/skinning.xml#skinning']"

// identityEpsilon bounds matrix entries treated as identity.
const identityEpsilon = 1e-9

// Asset is one geometry container. A non-empty Src makes it a reference node
// and all geometry fields are ignored.
type Asset struct {
	ID        string
	Name      string
	Transform *math.Mat4
	Src       string
	Data      []*DataBlock
	Meshes    []*Submesh
	Children  []*Asset
}

// DataBlock is a named list of attribute entries.
type DataBlock struct {
	Name     string
	Includes string
	Compute  string
	Entries  []xml3d.DataEntry
}

// Submesh draws the triangles of one material slot.
type Submesh struct {
	Name     string
	Includes string
	Shader   string
	Data     []xml3d.DataEntry
}

// IsReference reports whether a points at another asset.
func (a *Asset) IsReference() bool {
	return a.Src != ""
}

// Element converts the asset tree into markup.
func (a *Asset) Element() *xml3d.Element {
	el := xml3d.NewElement("asset").Set("id", a.ID)
	if a.Name != "" {
		el.Set("name", a.Name)
	}
	if a.Transform != nil && !a.Transform.IsIdentity(identityEpsilon) {
		el.Set("style", "transform: "+a.Transform.CSSMatrix3D()+";")
	}
	if a.IsReference() {
		return el.Set("src", a.Src)
	}

	for _, d := range a.Data {
		block := xml3d.NewElement("assetdata").Set("name", d.Name)
		if d.Includes != "" {
			block.Set("includes", d.Includes)
		}
		if d.Compute != "" {
			block.Set("compute", d.Compute)
		}
		el.Append(block.AppendData(d.Entries...))
	}
	for _, m := range a.Meshes {
		mesh := xml3d.NewElement("assetmesh").Set("name", m.Name).Set("includes", m.Includes)
		if m.Shader != "" {
			mesh.Set("shader", m.Shader)
		}
		el.Append(mesh.AppendData(m.Data...))
	}
	for _, c := range a.Children {
		el.Append(c.Element())
	}
	return el
}

// ModelConfig is per-instance data written into the model element that
// instantiates an asset.
type ModelConfig struct {
	Name string
	Data []xml3d.DataEntry
}
