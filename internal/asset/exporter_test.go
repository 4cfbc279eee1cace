package asset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/xml3d-exporter/internal/config"
	"github.com/Faultbox/xml3d-exporter/internal/material"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/internal/session"
	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/scene/scenetest"
)

func newSession(t *testing.T, cfg *config.Config, eval scene.Evaluator) *session.Session {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	return session.New(cfg, &scene.Scene{Name: "Scene", FPS: 24}, eval, t.TempDir())
}

func hasWarning(res report.Result, substr string) bool {
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func TestAddSharedMeshWritesOneAsset(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	mesh := scenetest.Cube("CubeMesh", true)
	a := scenetest.Object("Cube", mesh)
	b := scenetest.Object("Cube.001", mesh)
	b.MatrixWorld = math.Translate(3, 0, 0)

	ma, res, err := e.Add(a)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "assets/Cube.xml#Cube", ma.URL)

	mb, _, err := e.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "assets/Cube.001.xml#Cube-001", mb.URL)

	first := e.collections["Cube"].Assets[0]
	assert.False(t, first.IsReference())
	require.Len(t, first.Data, 1)
	assert.Equal(t, "CubeMesh", first.Data[0].Name)

	ref := e.collections["Cube.001"].Assets[0]
	assert.True(t, ref.IsReference())
	assert.Equal(t, "Cube.xml#Cube", ref.Src)
	assert.Empty(t, ref.Data)
	assert.Empty(t, ref.Meshes)
}

func TestAddReferenceInSameCollection(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Clustering = ClusterLayer
	s := newSession(t, cfg, nil)
	e := NewExporter(s)

	mesh := scenetest.Cube("CubeMesh", false)
	_, _, err := e.Add(scenetest.Object("A", mesh))
	require.NoError(t, err)
	m, _, err := e.Add(scenetest.Object("B", mesh))
	require.NoError(t, err)

	assert.Equal(t, "assets/layer-0.xml#B", m.URL)
	col := e.collections["layer-0"]
	require.Len(t, col.Assets, 2)
	assert.Equal(t, "#A", col.Assets[1].Src)
}

func TestSmoothCubeVertexCount(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	_, _, err := e.Add(scenetest.Object("Cube", scenetest.Cube("CubeMesh", true)))
	require.NoError(t, err)

	a := e.collections["Cube"].Assets[0]
	pos := a.Data[0].Entries[0]
	assert.Equal(t, "position", pos.Name)
	assert.Len(t, pos.Floats, 8*3)

	require.Len(t, a.Meshes, 1)
	sub := a.Meshes[0]
	assert.Equal(t, "CubeMesh_defaultMaterial", sub.Name)
	assert.Equal(t, "CubeMesh", sub.Includes)
	assert.Equal(t, "./materials.xml#defaultMaterial", sub.Shader)
	assert.Len(t, sub.Data[0].Ints, 12*3)
}

func TestSubmeshPerMaterialSlot(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	mesh := scenetest.Cube("Box", false)
	red := scenetest.Material("Red")
	red.Users = 1
	blue := scenetest.Material("Blue")
	blue.Users = 5
	mesh.Materials = []*scene.Material{red, blue}
	for i := range mesh.Polygons {
		mesh.Polygons[i].MaterialIndex = i % 2
	}

	_, res, err := e.Add(scenetest.Object("Box", mesh))
	require.NoError(t, err)
	assert.Equal(t, []string{"Box_Red", "Box_Blue"}, res.Meshes)

	col := e.collections["Box"]
	a := col.Assets[0]
	require.Len(t, a.Meshes, 2)
	assert.Equal(t, "#Red", a.Meshes[0].Shader)
	assert.Equal(t, "./materials.xml#Blue", a.Meshes[1].Shader)
	assert.Equal(t, 1, col.materials.Len())
	assert.Equal(t, 1, s.Shared.Len())

	root := col.Element()
	assert.NotNil(t, root.Find("Red"))
	assert.NotNil(t, root.Find("Box"))
}

func TestMaterialPolicyNone(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Materials = material.PolicyNone
	s := newSession(t, cfg, nil)
	e := NewExporter(s)

	mesh := scenetest.Cube("Box", false)
	mesh.Materials = []*scene.Material{scenetest.Material("Red")}
	_, _, err := e.Add(scenetest.Object("Box", mesh))
	require.NoError(t, err)

	assert.Empty(t, e.collections["Box"].Assets[0].Meshes[0].Shader)
	assert.Equal(t, 0, s.Shared.Len())
}

func TestClusteringBins(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Clustering = ClusterBins
	cfg.Assets.Bins = 2
	s := newSession(t, cfg, nil)
	e := NewExporter(s)

	var urls []string
	for _, name := range []string{"A", "B", "C"} {
		m, _, err := e.Add(scenetest.Object(name, scenetest.Cube(name+"Mesh", false)))
		require.NoError(t, err)
		urls = append(urls, m.URL)
	}
	assert.Equal(t, []string{"assets/bin-0.xml#A", "assets/bin-1.xml#B", "assets/bin-0.xml#C"}, urls)
	assert.Len(t, e.Collections(), 2)
}

func TestUnsupportedTypeWarns(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	obj := &scene.Object{Name: "Rig", Type: scene.TypeArmature, MatrixWorld: math.Identity()}
	m, res, err := e.Add(obj)
	require.NoError(t, err)
	assert.Empty(t, m.URL)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, report.CategoryObject, res.Warnings[0].Category)
}

type failingEvaluator struct {
	scene.StaticEvaluator
	fail string
}

func (f failingEvaluator) EvaluateMesh(obj *scene.Object, skip bool) (*scene.Mesh, error) {
	if obj.Name == f.fail {
		return nil, errors.New("modifier stack broken")
	}
	return f.StaticEvaluator.EvaluateMesh(obj, skip)
}

func TestEvaluationFailureIsContained(t *testing.T) {
	s := newSession(t, nil, failingEvaluator{fail: "Broken"})
	e := NewExporter(s)

	m, res, err := e.Add(scenetest.Object("Broken", scenetest.Cube("BrokenMesh", false)))
	require.NoError(t, err)
	assert.Empty(t, m.URL)
	assert.True(t, hasWarning(res, "modifier stack broken"))

	m, res, err = e.Add(scenetest.Object("Fine", scenetest.Cube("FineMesh", false)))
	require.NoError(t, err)
	assert.NotEmpty(t, m.URL)
	assert.Empty(t, res.Warnings)
}

func TestEmptyMeshWarns(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	m, res, err := e.Add(scenetest.Object("Line", &scene.Mesh{Name: "LineMesh"}))
	require.NoError(t, err)
	assert.Empty(t, m.URL)
	assert.True(t, hasWarning(res, "no triangles"))
}

func riggedObject(name string, rig *scene.Object, mesh *scene.Mesh) *scene.Object {
	obj := scenetest.Object(name, mesh)
	obj.VertexGroups = []string{"root"}
	obj.Modifiers = []scene.Modifier{{Name: "Armature", Type: scene.ModifierArmature, Object: rig}}
	for i := range mesh.Vertices {
		mesh.Vertices[i].Groups = []scene.GroupWeight{{Group: 0, Weight: 1}}
	}
	return obj
}

func rig() *scene.Object {
	skel := &scene.Armature{Name: "Rig", Bones: []*scene.Bone{{Name: "root", MatrixLocal: math.Identity()}}}
	action := &scene.Action{Name: "Walk", FCurves: []*scene.FCurve{{
		DataPath: scene.BonePath("root", scene.PropLocation),
		Index:    0,
		Keyframes: []scene.Keyframe{
			{Co: math.Vec2{X: 1, Y: 0}, Interpolation: scene.InterpLinear},
			{Co: math.Vec2{X: 10, Y: 1}, Interpolation: scene.InterpLinear},
		},
	}}}
	return &scene.Object{
		Name:        "Rig",
		Type:        scene.TypeArmature,
		Armature:    skel,
		Action:      action,
		MatrixWorld: math.Identity(),
	}
}

func TestSkinnedAsset(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	rigObj := rig()
	m, res, err := e.Add(riggedObject("Body", rigObj, scenetest.Cube("BodyMesh", true)))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	a := e.collections["Body"].Assets[0]
	require.Len(t, a.Data, 2)
	skin, mesh := a.Data[0], a.Data[1]
	assert.Equal(t, "Body_skin", skin.Name)
	assert.Equal(t, "Body_skin", mesh.Includes)
	assert.Equal(t, SkinningCompute, mesh.Compute)

	names := make([]string, 0, len(skin.Entries))
	for _, d := range skin.Entries {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"offset_matrix", "global_inverse_matrix", ""}, names)
	assert.Equal(t, "./armatures.xml#Rig", skin.Entries[2].Src)

	var meshNames []string
	for _, d := range mesh.Entries {
		meshNames = append(meshNames, d.Name)
	}
	assert.Contains(t, meshNames, "bone_index")
	assert.Contains(t, meshNames, "bone_weight")

	require.Len(t, m.Config, 1)
	assert.Equal(t, "Body_skin", m.Config[0].Name)
	key := m.Config[0].Data[0]
	assert.Equal(t, "animKey", key.Name)
	assert.Equal(t, "anim-Rig-Walk", key.Class)
	assert.Equal(t, 1, s.Armatures.Len())
}

func TestSkinnedReferenceKeepsConfig(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	rigObj := rig()
	mesh := scenetest.Cube("BodyMesh", true)
	_, _, err := e.Add(riggedObject("Body", rigObj, mesh))
	require.NoError(t, err)
	m, _, err := e.Add(riggedObject("Body.001", rigObj, mesh))
	require.NoError(t, err)

	ref := e.collections["Body.001"].Assets[0]
	assert.Equal(t, "Body.xml#Body", ref.Src)
	require.Len(t, m.Config, 1)
	assert.Equal(t, "Body_skin", m.Config[0].Name)
}

func TestMultipleArmatureModifiers(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	obj := riggedObject("Body", rig(), scenetest.Cube("BodyMesh", false))
	obj.Modifiers = append(obj.Modifiers, scene.Modifier{Name: "Armature.001", Type: scene.ModifierArmature, Object: rig()})

	_, res, err := e.Add(obj)
	require.NoError(t, err)
	assert.True(t, hasWarning(res, "2 armature modifiers"))

	a := e.collections["Body"].Assets[0]
	require.Len(t, a.Data, 1)
	assert.Empty(t, a.Data[0].Compute)
	assert.Equal(t, 0, s.Armatures.Len())
}

func TestArmaturesDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Armatures = false
	s := newSession(t, cfg, nil)
	e := NewExporter(s)

	m, _, err := e.Add(riggedObject("Body", rig(), scenetest.Cube("BodyMesh", false)))
	require.NoError(t, err)
	assert.Empty(t, m.Config)
	assert.Len(t, e.collections["Body"].Assets[0].Data, 1)
}

func TestDupliGroupNestsInstances(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	member := scenetest.Object("Tree", scenetest.Cube("TreeMesh", false))
	member.MatrixWorld = math.Translate(0, 1, 0)
	owner := &scene.Object{
		Name:        "Forest",
		Type:        scene.TypeEmpty,
		MatrixWorld: math.Translate(5, 0, 0),
		DupliGroup:  &scene.Group{Name: "Trees", Objects: []*scene.Object{member}},
	}

	m, _, err := e.Add(owner)
	require.NoError(t, err)
	assert.Equal(t, "assets/Forest.xml#Forest", m.URL)

	a := e.collections["Forest"].Assets[0]
	require.Len(t, a.Children, 1)
	child := a.Children[0]
	require.NotNil(t, child.Transform)
	assert.InDelta(t, 1.0, child.Transform.Translation().Y, 1e-9)
	assert.InDelta(t, 0.0, child.Transform.Translation().X, 1e-9)
	assert.NotEmpty(t, child.Meshes)
}

func TestSaveWritesCollections(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	_, _, err := e.Add(scenetest.Object("Cube", scenetest.Cube("CubeMesh", false)))
	require.NoError(t, err)

	res, err := e.Save()
	require.NoError(t, err)
	require.Len(t, res.Assets, 1)
	assert.Equal(t, "Cube.xml", res.Assets[0].Name)

	data, err := os.ReadFile(filepath.Join(s.BaseDir, session.AssetDir, "Cube.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<asset id="Cube"`)
	assert.Contains(t, string(data), `shader="./materials.xml#defaultMaterial"`)
}

func TestCollidingMaterialNamesGetDistinctShaders(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Materials = material.PolicyExternal
	s := newSession(t, cfg, nil)
	e := NewExporter(s)

	red := scenetest.Material("Mat.001")
	red.DiffuseColor = scene.Color{1, 0, 0}
	blue := scenetest.Material("Mat 001")
	blue.DiffuseColor = scene.Color{0, 0, 1}
	mesh := scenetest.Cube("Box", false)
	// The empty slot falls back to the default shader.
	mesh.Materials = []*scene.Material{red, blue, scenetest.Material("defaultMaterial"), nil}
	for i := range mesh.Polygons {
		mesh.Polygons[i].MaterialIndex = i % 4
	}

	_, res, err := e.Add(scenetest.Object("Box", mesh))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	a := e.collections["Box"].Assets[0]
	var shaders []string
	for _, m := range a.Meshes {
		shaders = append(shaders, m.Shader)
	}
	assert.Equal(t, []string{
		"./materials.xml#Mat-001",
		"./materials.xml#Mat-001-1",
		"./materials.xml#defaultMaterial",
		"./materials.xml#defaultMaterial-1",
	}, shaders)
	assert.Equal(t, 4, s.Shared.Len())
}

func TestInlineMaterialAvoidsAssetID(t *testing.T) {
	s := newSession(t, nil, nil)
	e := NewExporter(s)

	mat := scenetest.Material("Cube")
	mat.Users = 1
	mesh := scenetest.Cube("CubeMesh", false)
	mesh.Materials = []*scene.Material{mat}

	m, _, err := e.Add(scenetest.Object("Cube", mesh))
	require.NoError(t, err)
	assert.Equal(t, "assets/Cube.xml#Cube", m.URL)
	assert.Equal(t, "#Cube-1", e.collections["Cube"].Assets[0].Meshes[0].Shader)

	_, err = e.Save()
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(s.BaseDir, session.AssetDir, "Cube.xml"))
	require.NoError(t, err)
	doc := string(data)
	assert.Equal(t, 1, strings.Count(doc, `id="Cube"`))
	assert.Contains(t, doc, `<shader id="Cube-1"`)
	assert.Contains(t, doc, `shader="#Cube-1"`)
}
