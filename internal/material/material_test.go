package material

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/xml3d-exporter/internal/assets"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/internal/shadergraph"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/scene/scenetest"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

func newConverter(t *testing.T, world *scene.World) (*Converter, string) {
	t.Helper()
	dir := t.TempDir()
	return NewConverter(assets.NewExporter(dir, assets.DefaultOptions()), world), dir
}

func entryNames(data []xml3d.DataEntry) []string {
	names := make([]string, len(data))
	for i, d := range data {
		names[i] = d.Name
	}
	return names
}

func find(data []xml3d.DataEntry, name string) *xml3d.DataEntry {
	for i := range data {
		if data[i].Name == name {
			return &data[i]
		}
	}
	return nil
}

func imageSlot(img *scene.Image) *scene.TextureSlot {
	return &scene.TextureSlot{
		Name:               "Tex",
		Enabled:            true,
		UseMapColorDiffuse: true,
		DiffuseColorFactor: 1,
		TextureCoords:      "UV",
		Texture:            &scene.Texture{Name: "Tex", Type: "IMAGE", Image: img, Extension: "REPEAT"},
	}
}

func TestConvertPhong(t *testing.T) {
	c, _ := newConverter(t, nil)
	m := scenetest.Material("Red Metal.001")

	mat, res, err := c.Convert(m)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, "Red-Metal-001", mat.ID)
	assert.Equal(t, PhongScript, mat.Script)
	assert.Equal(t, BlenderMaterialCompute, mat.Compute)
	assert.Nil(t, mat.Program)
	assert.Equal(t, []string{
		"diffuse_intensity", "diffuse_color", "specular_intensity",
		"specular_color", "specular_hardness", "alpha",
	}, entryNames(mat.Data))
	assert.Equal(t, []float64{1}, find(mat.Data, "alpha").Floats)
}

func TestConvertAmbientAndAlpha(t *testing.T) {
	world := &scene.World{Name: "World", AmbientColor: scene.Color{0.25, 0.5, 0.1}}
	c, _ := newConverter(t, world)
	m := scenetest.Material("Glass")
	m.Ambient = 0.8
	m.UseTransparency = true
	m.Alpha = 0.3

	mat, _, err := c.Convert(m)
	require.NoError(t, err)

	amb := find(mat.Data, "ambientIntensity")
	require.NotNil(t, amb)
	assert.InDelta(t, 0.8*math.Pow(0.5, 1/2.2), amb.Floats[0], 1e-12)
	assert.Equal(t, []float64{0.3}, find(mat.Data, "alpha").Floats)
}

func TestConvertMemoized(t *testing.T) {
	c, _ := newConverter(t, nil)
	m := scenetest.Material("A")

	first, _, err := c.Convert(m)
	require.NoError(t, err)
	second, _, err := c.Convert(m)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestConvertNilIsDefault(t *testing.T) {
	c, _ := newConverter(t, nil)
	mat, _, err := c.Convert(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultID, mat.ID)
	assert.Equal(t, []string{"diffuseColor", "specularColor", "ambientIntensity"}, entryNames(mat.Data))

	again, _, err := c.Convert(nil)
	require.NoError(t, err)
	assert.Same(t, mat, again)
}

func TestConvertUnsupportedNodeFallsBack(t *testing.T) {
	c, _ := newConverter(t, nil)
	emission := &scene.Node{Name: "Emission", Type: "EMISSION"}
	out := &scene.Node{Name: "Material Output", Type: shadergraph.NodeOutputMaterial, Inputs: []*scene.Socket{
		{Name: "Surface", Type: scene.SocketShader, From: emission},
	}}
	m := scenetest.Material("Glow")
	m.NodeTree = &scene.NodeTree{Nodes: []*scene.Node{emission, out}}

	mat, res, err := c.Convert(m)
	require.NoError(t, err)
	assert.Equal(t, PhongScript, mat.Script)
	assert.Equal(t, BlenderMaterialCompute, mat.Compute)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "In material 'Glow'")
	assert.Contains(t, res.Warnings[0].Message, "EMISSION")
	assert.Contains(t, res.Warnings[0].Message, "Fallback to standard material model.")
}

func TestConvertCompiledProgram(t *testing.T) {
	c, dir := newConverter(t, nil)
	tex := &scene.Node{Name: "Image Texture", Type: shadergraph.NodeTexImage, Image: scenetest.PNG("albedo")}
	diffuse := &scene.Node{Name: "Diffuse", Type: shadergraph.NodeBsdfDiffuse, Inputs: []*scene.Socket{
		{Name: "Color", Type: scene.SocketRGBA, From: tex},
		{Name: "Roughness", Type: scene.SocketValue, Default: []float64{0}},
		{Name: "Normal", Type: scene.SocketVector, Default: []float64{0, 0, 0}},
	}}
	out := &scene.Node{Name: "Material Output", Type: shadergraph.NodeOutputMaterial, Inputs: []*scene.Socket{
		{Name: "Surface", Type: scene.SocketShader, From: diffuse},
	}}
	m := scenetest.Material("Node Mat")
	m.NodeTree = &scene.NodeTree{Nodes: []*scene.Node{tex, diffuse, out}}

	mat, res, err := c.Convert(m)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	require.NotNil(t, mat.Program)
	assert.Empty(t, mat.Compute)
	assert.Empty(t, mat.Script)

	require.Len(t, mat.Program.Textures, 1)
	bound := find(mat.Data, mat.Program.Textures[0].Name)
	require.NotNil(t, bound)
	assert.Equal(t, xml3d.TypeTexture, bound.Type)
	assert.Equal(t, "../textures/albedo.png", bound.Src)
	assert.FileExists(t, filepath.Join(dir, "textures", "albedo.png"))

	els := mat.Elements()
	require.Len(t, els, 2)
	assert.Equal(t, "script", els[0].Name)
	id, _ := els[0].Get("id")
	assert.Equal(t, "s_Node-Mat", id)
	script, _ := els[1].Get("script")
	assert.Equal(t, "#s_Node-Mat", script)
	_, hasCompute := els[1].Get("compute")
	assert.False(t, hasCompute)
}

func TestDiffuseTextureSlots(t *testing.T) {
	t.Run("non UV mapping", func(t *testing.T) {
		c, _ := newConverter(t, nil)
		m := scenetest.Material("M")
		slot := imageSlot(scenetest.PNG("a"))
		slot.TextureCoords = "GLOBAL"
		m.TextureSlots = []*scene.TextureSlot{slot}

		mat, res, err := c.Convert(m)
		require.NoError(t, err)
		assert.Nil(t, find(mat.Data, "diffuseTexture"))
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, IssueTextureMapping, res.Warnings[0].Issue)
		assert.Equal(t, report.CategoryTexture, res.Warnings[0].Category)
	})

	t.Run("non image texture", func(t *testing.T) {
		c, _ := newConverter(t, nil)
		m := scenetest.Material("M")
		slot := imageSlot(nil)
		slot.Texture.Type = "CLOUDS"
		m.TextureSlots = []*scene.TextureSlot{slot}

		_, res, err := c.Convert(m)
		require.NoError(t, err)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0].Message, "CLOUDS")
	})

	t.Run("unsupported extension clamps", func(t *testing.T) {
		c, _ := newConverter(t, nil)
		m := scenetest.Material("M")
		slot := imageSlot(scenetest.PNG("a"))
		slot.Texture.Extension = "CHECKER"
		m.TextureSlots = []*scene.TextureSlot{slot}

		mat, res, err := c.Convert(m)
		require.NoError(t, err)
		require.Len(t, res.Warnings, 1)
		tex := find(mat.Data, "diffuseTexture")
		require.NotNil(t, tex)
		assert.Equal(t, xml3d.WrapClamp, tex.Wrap)
	})

	t.Run("weak and disabled slots ignored", func(t *testing.T) {
		c, _ := newConverter(t, nil)
		m := scenetest.Material("M")
		weak := imageSlot(scenetest.PNG("a"))
		weak.DiffuseColorFactor = 0.00001
		off := imageSlot(scenetest.PNG("b"))
		off.Enabled = false
		m.TextureSlots = []*scene.TextureSlot{nil, weak, off}

		mat, res, err := c.Convert(m)
		require.NoError(t, err)
		assert.Empty(t, res.Warnings)
		assert.Nil(t, find(mat.Data, "diffuseTexture"))
	})

	t.Run("first usable slot wins", func(t *testing.T) {
		c, _ := newConverter(t, nil)
		m := scenetest.Material("M")
		m.TextureSlots = []*scene.TextureSlot{imageSlot(scenetest.PNG("first")), imageSlot(scenetest.PNG("second"))}

		mat, res, err := c.Convert(m)
		require.NoError(t, err)
		tex := find(mat.Data, "diffuseTexture")
		require.NotNil(t, tex)
		assert.Equal(t, "../textures/first.png", tex.Src)
		assert.Equal(t, xml3d.WrapRepeat, tex.Wrap)

		n := 0
		for _, e := range mat.Data {
			if e.Name == "diffuseTexture" {
				n++
			}
		}
		assert.Equal(t, 1, n)
		require.Len(t, res.Textures, 1)
		assert.Equal(t, "first.png", res.Textures[0].Name)
	})
}

func TestImageSharedBetweenMaterials(t *testing.T) {
	c, dir := newConverter(t, nil)
	img := scenetest.PNG("shared")

	a := scenetest.Material("A")
	a.TextureSlots = []*scene.TextureSlot{imageSlot(img)}
	b := scenetest.Material("B")
	b.TextureSlots = []*scene.TextureSlot{imageSlot(img)}

	ma, resA, err := c.Convert(a)
	require.NoError(t, err)
	mb, resB, err := c.Convert(b)
	require.NoError(t, err)

	ta, tb := find(ma.Data, "diffuseTexture"), find(mb.Data, "diffuseTexture")
	require.NotNil(t, ta)
	require.NotNil(t, tb)
	assert.Equal(t, ta.Src, tb.Src)
	assert.Len(t, append(resA.Textures, resB.Textures...), 1)

	files, err := os.ReadDir(filepath.Join(dir, "textures"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFaceTexture(t *testing.T) {
	c, _ := newConverter(t, nil)
	m := scenetest.Material("Face")
	m.UseFaceTexture = true
	m.UseFaceTextureAlpha = true
	mesh := scenetest.Cube("Cube", false)
	mesh.Polygons[2].Image = scenetest.PNG("decal")

	entries, res, err := c.FaceTexture(m, mesh, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	require.Len(t, entries, 2)
	assert.Equal(t, "diffuseTexture", entries[0].Name)
	assert.Equal(t, "../textures/decal.png", entries[0].Src)
	assert.Equal(t, xml3d.TypeBool, entries[1].Type)

	mesh.Polygons[2].Image = &scene.Image{Name: "sphere", Source: scene.ImageSourceFile, Mapping: "SPHERE"}
	c2, _ := newConverter(t, nil)
	entries, res, err = c2.FaceTexture(m, mesh, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.Len(t, res.Warnings, 1)
}

func TestLocate(t *testing.T) {
	single := &scene.Material{Users: 2}
	multi := &scene.Material{Users: 3}

	tests := []struct {
		policy string
		m      *scene.Material
		want   Location
	}{
		{PolicyExternal, single, LocationExternal},
		{PolicyInclude, multi, LocationInternal},
		{PolicyNone, single, LocationNone},
		{PolicyShared, single, LocationInternal},
		{PolicyShared, multi, LocationExternal},
		{PolicyShared, nil, LocationExternal},
		{"bogus", single, LocationExternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Locate(tt.m, tt.policy), "%s users=%v", tt.policy, tt.m)
	}
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary("materials.xml")
	a := &Material{ID: "a", Script: PhongScript}

	assert.Equal(t, "./materials.xml#a", lib.Add(a))
	assert.Equal(t, "./materials.xml#a", lib.Add(a))
	assert.Equal(t, 1, lib.Len())

	dir := t.TempDir()
	res, err := lib.Save(dir)
	require.NoError(t, err)
	require.Len(t, res.Materials, 1)
	data, err := os.ReadFile(filepath.Join(dir, "materials.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<shader id="a" script="urn:xml3d:shader:phong">`)

	inline := NewLibrary("")
	assert.Equal(t, "#defaultMaterial", inline.Add(Default()))
	res, err = inline.Save(dir)
	require.NoError(t, err)
	assert.Empty(t, res.Materials)
}

func TestLibraryDistinctMaterialsWithCollidingIDs(t *testing.T) {
	conv, _ := newConverter(t, nil)
	red := scenetest.Material("Mat.001")
	red.DiffuseColor = scene.Color{1, 0, 0}
	blue := scenetest.Material("Mat 001")
	blue.DiffuseColor = scene.Color{0, 0, 1}
	named := scenetest.Material("defaultMaterial")

	lib := NewLibrary("materials.xml")
	var urls []string
	for _, src := range []*scene.Material{red, blue, named, nil, red, nil} {
		mat, _, err := conv.Convert(src)
		require.NoError(t, err)
		urls = append(urls, lib.Add(mat))
	}
	assert.Equal(t, []string{
		"./materials.xml#Mat-001",
		"./materials.xml#Mat-001-1",
		"./materials.xml#defaultMaterial",
		"./materials.xml#defaultMaterial-1",
		"./materials.xml#Mat-001",
		"./materials.xml#defaultMaterial-1",
	}, urls)
	assert.Equal(t, 4, lib.Len())

	var ids []string
	for _, el := range lib.Elements() {
		id, _ := el.Get("id")
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"Mat-001", "Mat-001-1", "defaultMaterial", "defaultMaterial-1"}, ids)
}

func TestLibrarySharesDocumentScope(t *testing.T) {
	ids := naming.NewScope()
	assert.Equal(t, "Cube", ids.ID("Cube"))

	lib := NewLibraryIn("", ids)
	assert.Equal(t, "#Cube-1", lib.Add(&Material{ID: "Cube", Script: PhongScript}))
	assert.Equal(t, "Cube-2", ids.ID("Cube"))
}
