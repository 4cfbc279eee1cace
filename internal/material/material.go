// Package material converts host materials into XML3D shader records and
// collects them into libraries.
package material

import (
	"github.com/Faultbox/xml3d-exporter/internal/shadergraph"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

const (
	// PhongScript is the builtin shading program.
	PhongScript = "urn:xml3d:shader:phong"

	// BlenderMaterialCompute derives shader uniforms from the raw host
	// parameters at runtime.
	BlenderMaterialCompute = "(diffuseColor, specularColor, shininess, transparency) = " +
		"xflow.blenderMaterial(diffuse_color, diffuse_intensity, specular_color, " +
		"specular_intensity, specular_hardness, alpha)"

	// ScriptType marks inline compiled shader programs.
	ScriptType = "text/shade-javascript"

	// DefaultID is the id of the material used by faces without one.
	DefaultID = "defaultMaterial"
)

// Material is an exported shader. Exactly one of Script and Program is set.
type Material struct {
	ID      string
	Script  string
	Program *shadergraph.Program
	Data    []xml3d.DataEntry
	Compute string
}

// Default returns the material used for faces without a material slot.
func Default() *Material {
	return &Material{
		ID:     DefaultID,
		Script: PhongScript,
		Data: []xml3d.DataEntry{
			xml3d.Float3("diffuseColor", []float64{0.8, 0.8, 0.8}),
			xml3d.Float3("specularColor", []float64{1, 1, 1}),
			xml3d.Float("ambientIntensity", 0.5),
		},
	}
}

// Elements returns the shader element, preceded by its script element when
// the program is compiled.
func (m *Material) Elements() []*xml3d.Element {
	return m.elements(m.ID, scriptID(m.ID))
}

func scriptID(id string) string {
	return "s_" + id
}

func (m *Material) elements(id, sid string) []*xml3d.Element {
	var out []*xml3d.Element
	shader := xml3d.NewElement("shader").Set("id", id)

	if m.Program != nil {
		shader.Set("script", "#"+sid)
		script := xml3d.NewElement("script").Set("id", sid).Set("type", ScriptType)
		script.Text = m.Program.Source()
		out = append(out, script)
	} else {
		shader.Set("script", m.Script)
	}
	if m.Compute != "" {
		shader.Set("compute", m.Compute)
	}
	shader.AppendData(m.Data...)
	return append(out, shader)
}

// Location says where an asset finds its material.
type Location int

const (
	// LocationNone omits the material.
	LocationNone Location = iota
	// LocationInternal stores the material inside the asset file.
	LocationInternal
	// LocationExternal stores the material in the shared library.
	LocationExternal
)

// Material storage policies.
const (
	PolicyInclude  = "include"
	PolicyExternal = "external"
	PolicyShared   = "shared"
	PolicyNone     = "none"
)

// sharedThreshold counts the host's own reference to every material.
const sharedThreshold = 2

// Locate applies the storage policy to m. Unknown policies store externally.
func Locate(m *scene.Material, policy string) Location {
	switch policy {
	case PolicyExternal:
		return LocationExternal
	case PolicyInclude:
		return LocationInternal
	case PolicyNone:
		return LocationNone
	case PolicyShared:
		if m != nil && m.Users <= sharedThreshold {
			return LocationInternal
		}
	}
	return LocationExternal
}
