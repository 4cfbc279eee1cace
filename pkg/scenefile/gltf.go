package scenefile

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/lightspunctual"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// GLTFFrameRate converts animation seconds into frames.
const GLTFFrameRate = 24

// roughness 0 maps to the hardest specular exponent
const maxHardness = 511

// LoadGLTF reads a glTF 2.0 document (.gltf or .glb) as a scene.
func LoadGLTF(path string) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glTF %s: %w", path, err)
	}
	l := &gltfLoader{
		doc:  doc,
		dir:  filepath.Dir(path),
		objs: make([]*scene.Object, len(doc.Nodes)),
		log:  logger.Named("scenefile"),
	}
	sc, err := l.scene(stem(path))
	if err != nil {
		return nil, fmt.Errorf("reading glTF %s: %w", path, err)
	}
	return sc, nil
}

type gltfLoader struct {
	doc       *gltf.Document
	dir       string
	images    []*scene.Image
	materials []*scene.Material
	meshes    []*scene.Mesh
	objs      []*scene.Object
	lamps     []*scene.Lamp
	log       *zap.Logger
}

func (l *gltfLoader) scene(name string) (*scene.Scene, error) {
	sc := &scene.Scene{Name: name, FPS: GLTFFrameRate, Layers: []bool{true}}
	if l.doc.Scene != nil && int(*l.doc.Scene) < len(l.doc.Scenes) && l.doc.Scenes[*l.doc.Scene].Name != "" {
		sc.Name = l.doc.Scenes[*l.doc.Scene].Name
	}

	for i, img := range l.doc.Images {
		si, err := l.image(i, img)
		if err != nil {
			return nil, err
		}
		l.images = append(l.images, si)
	}
	for i, m := range l.doc.Materials {
		l.materials = append(l.materials, l.material(i, m))
	}
	for i, m := range l.doc.Meshes {
		sm, err := l.mesh(i, m)
		if err != nil {
			return nil, err
		}
		l.meshes = append(l.meshes, sm)
	}
	for i := range l.doc.Nodes {
		obj, err := l.object(i)
		if err != nil {
			return nil, err
		}
		l.objs[i] = obj
	}
	l.link()
	for _, obj := range l.objs {
		if obj.Type == scene.TypeCamera && sc.Camera == nil {
			sc.Camera = obj
		}
	}

	skins, err := l.skins()
	if err != nil {
		return nil, err
	}

	sc.Objects = append(sc.Objects, l.objs...)
	sc.Objects = append(sc.Objects, skins...)
	sc.Lamps = l.lamps
	countUsers(indexMeshes(l.meshes))
	return sc, nil
}

func indexMeshes(meshes []*scene.Mesh) map[string]*scene.Mesh {
	out := make(map[string]*scene.Mesh, len(meshes))
	for i, m := range meshes {
		out[fmt.Sprintf("%d:%s", i, m.Name)] = m
	}
	return out
}

func nameOr(name, format string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf(format, i)
}

// image resolves embedded data, buffer views and external files.
func (l *gltfLoader) image(i int, img *gltf.Image) (*scene.Image, error) {
	si := &scene.Image{
		Name:   nameOr(img.Name, "Image.%03d", i),
		Source: scene.ImageSourceFile,
	}
	switch img.MimeType {
	case "image/png":
		si.FileFormat = "PNG"
	case "image/jpeg":
		si.FileFormat = "JPEG"
	}

	switch {
	case img.BufferView != nil:
		data, err := modeler.ReadBufferView(l.doc, l.doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", si.Name, err)
		}
		si.Packed = data
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", si.Name, err)
		}
		si.Packed = data
	case img.URI != "":
		uri, err := url.PathUnescape(img.URI)
		if err != nil {
			uri = img.URI
		}
		si.Filepath = filepath.Join(l.dir, filepath.FromSlash(uri))
		if si.FileFormat == "" {
			si.FileFormat = strings.ToUpper(strings.TrimPrefix(filepath.Ext(uri), "."))
			if si.FileFormat == "JPG" {
				si.FileFormat = "JPEG"
			}
		}
	}
	return si, nil
}

// material maps the metallic-roughness model onto diffuse and specular
// parameters.
func (l *gltfLoader) material(i int, m *gltf.Material) *scene.Material {
	sm := &scene.Material{
		Name:              nameOr(m.Name, "Material.%03d", i),
		DiffuseColor:      scene.Color{0.8, 0.8, 0.8},
		DiffuseIntensity:  1,
		SpecularColor:     scene.Color{1, 1, 1},
		SpecularIntensity: 0.5,
		SpecularHardness:  50,
		Ambient:           1,
		Alpha:             1,
	}
	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return sm
	}
	if f := pbr.BaseColorFactor; f != nil {
		sm.DiffuseColor = scene.Color{float64(f[0]), float64(f[1]), float64(f[2])}
		if a := float64(f[3]); a < 1 && m.AlphaMode == gltf.AlphaBlend {
			sm.UseTransparency = true
			sm.Alpha = a
		}
	}
	if pbr.RoughnessFactor != nil {
		rough := math.Clamp(float64(*pbr.RoughnessFactor), 0, 1)
		sm.SpecularHardness = 1 + (1-rough)*(maxHardness-1)
		sm.SpecularIntensity = 0.5 * (1 - rough)
	}
	if pbr.MetallicFactor != nil {
		metal := math.Clamp(float64(*pbr.MetallicFactor), 0, 1)
		sm.SpecularColor = scene.Color{
			1 - metal + metal*sm.DiffuseColor[0],
			1 - metal + metal*sm.DiffuseColor[1],
			1 - metal + metal*sm.DiffuseColor[2],
		}
	}
	if info := pbr.BaseColorTexture; info != nil && int(info.Index) < len(l.doc.Textures) {
		if slot := l.textureSlot(l.doc.Textures[info.Index]); slot != nil {
			sm.TextureSlots = append(sm.TextureSlots, slot)
		}
	}
	return sm
}

func (l *gltfLoader) textureSlot(tex *gltf.Texture) *scene.TextureSlot {
	if tex.Source == nil || int(*tex.Source) >= len(l.images) {
		return nil
	}
	img := l.images[*tex.Source]
	ext := "REPEAT"
	if tex.Sampler != nil && int(*tex.Sampler) < len(l.doc.Samplers) {
		if l.doc.Samplers[*tex.Sampler].WrapS == gltf.WrapClampToEdge {
			ext = "EXTEND"
		}
	}
	return &scene.TextureSlot{
		Name:               img.Name,
		Enabled:            true,
		UseMapColorDiffuse: true,
		DiffuseColorFactor: 1,
		TextureCoords:      "UV",
		Texture: &scene.Texture{
			Name:      textureName(tex, img),
			Type:      "IMAGE",
			Image:     img,
			Extension: ext,
		},
	}
}

func textureName(tex *gltf.Texture, img *scene.Image) string {
	if tex.Name != "" {
		return tex.Name
	}
	return img.Name
}

// mesh merges the triangle primitives of m into one mesh with one material
// slot per primitive.
func (l *gltfLoader) mesh(i int, m *gltf.Mesh) (*scene.Mesh, error) {
	sm := &scene.Mesh{Name: nameOr(m.Name, "Mesh.%03d", i)}
	for p, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			l.log.Warn("skipping non-triangle primitive",
				zap.String("mesh", sm.Name), zap.Int("primitive", p))
			continue
		}
		if err := l.primitive(sm, prim); err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", sm.Name, p, err)
		}
	}
	return sm, nil
}

func (l *gltfLoader) accessor(attr string, prim *gltf.Primitive) (*gltf.Accessor, bool) {
	idx, ok := prim.Attributes[attr]
	if !ok || int(idx) >= len(l.doc.Accessors) {
		return nil, false
	}
	return l.doc.Accessors[idx], true
}

func (l *gltfLoader) primitive(sm *scene.Mesh, prim *gltf.Primitive) error {
	acr, ok := l.accessor(gltf.POSITION, prim)
	if !ok {
		return fmt.Errorf("missing %s", gltf.POSITION)
	}
	positions, err := modeler.ReadPosition(l.doc, acr, nil)
	if err != nil {
		return err
	}
	base := len(sm.Vertices)
	for _, p := range positions {
		sm.Vertices = append(sm.Vertices, scene.Vertex{Co: math.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}})
	}

	hasNormals := false
	if acr, ok := l.accessor(gltf.NORMAL, prim); ok {
		normals, err := modeler.ReadNormal(l.doc, acr, nil)
		if err != nil {
			return err
		}
		for j, n := range normals {
			sm.Vertices[base+j].Normal = math.Vec3{X: float64(n[0]), Y: float64(n[1]), Z: float64(n[2])}
		}
		hasNormals = true
	}

	var uvs [][2]float32
	if acr, ok := l.accessor(gltf.TEXCOORD_0, prim); ok {
		if uvs, err = modeler.ReadTextureCoord(l.doc, acr, nil); err != nil {
			return err
		}
		if len(sm.UVLayers) == 0 {
			sm.UVLayers = []string{gltf.TEXCOORD_0}
		}
	}

	if err := l.weights(sm, prim, base); err != nil {
		return err
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(l.doc, l.doc.Accessors[*prim.Indices], nil); err != nil {
			return err
		}
	} else {
		for j := range positions {
			indices = append(indices, uint32(j))
		}
	}

	slot := len(sm.Materials)
	var mat *scene.Material
	if prim.Material != nil && int(*prim.Material) < len(l.materials) {
		mat = l.materials[*prim.Material]
	}
	sm.Materials = append(sm.Materials, mat)

	for t := 0; t+2 < len(indices); t += 3 {
		corners := []int{base + int(indices[t]), base + int(indices[t+1]), base + int(indices[t+2])}
		face := scene.Polygon{
			Vertices:      corners,
			Smooth:        hasNormals,
			MaterialIndex: slot,
			Normal:        faceNormal(sm.Vertices, corners),
		}
		if uvs != nil {
			for _, c := range indices[t : t+3] {
				if int(c) < len(uvs) {
					uv := uvs[c]
					// glTF puts the texture origin top left
					face.UV = append(face.UV, math.Vec2{X: float64(uv[0]), Y: 1 - float64(uv[1])})
				}
			}
		}
		sm.Polygons = append(sm.Polygons, face)
	}
	return nil
}

// weights stores joint influences as vertex group weights. Group indices
// are joint slots of the skin.
func (l *gltfLoader) weights(sm *scene.Mesh, prim *gltf.Primitive, base int) error {
	jacr, ok := l.accessor(gltf.JOINTS_0, prim)
	if !ok {
		return nil
	}
	wacr, ok := l.accessor(gltf.WEIGHTS_0, prim)
	if !ok {
		return nil
	}
	joints, err := modeler.ReadJoints(l.doc, jacr, nil)
	if err != nil {
		return err
	}
	weights, err := modeler.ReadWeights(l.doc, wacr, nil)
	if err != nil {
		return err
	}
	for j := range joints {
		if j >= len(weights) || base+j >= len(sm.Vertices) {
			break
		}
		v := &sm.Vertices[base+j]
		for k := 0; k < 4; k++ {
			if w := float64(weights[j][k]); w > 0 {
				v.Groups = append(v.Groups, scene.GroupWeight{Group: int(joints[j][k]), Weight: w})
			}
		}
	}
	return nil
}

// object converts one node without parent links.
func (l *gltfLoader) object(i int) (*scene.Object, error) {
	n := l.doc.Nodes[i]
	obj := &scene.Object{
		Name:                nameOr(n.Name, "Node.%03d", i),
		Type:                scene.TypeEmpty,
		Layers:              []bool{true},
		MatrixParentInverse: math.Identity(),
	}
	obj.MatrixBasis, obj.Location, obj.Rotation, obj.Scale = nodeTransform(n)

	switch {
	case n.Mesh != nil:
		if int(*n.Mesh) >= len(l.meshes) {
			return nil, fmt.Errorf("node %q: mesh %d out of range", obj.Name, *n.Mesh)
		}
		obj.Type = scene.TypeMesh
		obj.Mesh = l.meshes[*n.Mesh]
	case n.Camera != nil:
		obj.Type = scene.TypeCamera
		obj.Camera = l.camera(obj.Name, *n.Camera)
	default:
		if lamp := l.light(n); lamp != nil {
			obj.Type = scene.TypeLamp
			obj.Lamp = lamp
			l.lamps = append(l.lamps, lamp)
		}
	}
	return obj, nil
}

func nodeTransform(n *gltf.Node) (basis math.Mat4, loc math.Vec3, rot math.Quat, scale math.Vec3) {
	mat := n.MatrixOrDefault()
	if mat != gltf.DefaultMatrix {
		for i := range basis {
			basis[i] = float64(mat[i])
		}
		loc, rot, scale = basis.Decompose()
		return
	}
	t, r, s := n.TranslationOrDefault(), n.RotationOrDefault(), n.ScaleOrDefault()
	loc = math.Vec3{X: float64(t[0]), Y: float64(t[1]), Z: float64(t[2])}
	rot = math.Quat{X: float64(r[0]), Y: float64(r[1]), Z: float64(r[2]), W: float64(r[3])}
	scale = math.Vec3{X: float64(s[0]), Y: float64(s[1]), Z: float64(s[2])}
	return math.Compose(loc, rot, scale), loc, rot, scale
}

func (l *gltfLoader) camera(name string, idx int) *scene.Camera {
	cam := &scene.Camera{Name: name, Angle: 0.8575, Near: 0.1, Far: 100}
	if idx >= len(l.doc.Cameras) {
		return cam
	}
	c := l.doc.Cameras[idx]
	if c.Name != "" {
		cam.Name = c.Name
	}
	if p := c.Perspective; p != nil {
		cam.Angle = float64(p.Yfov)
		cam.Near = float64(p.Znear)
		if p.Zfar != nil {
			cam.Far = float64(*p.Zfar)
		}
	}
	return cam
}

// light converts a KHR_lights_punctual light attached to n.
func (l *gltfLoader) light(n *gltf.Node) *scene.Lamp {
	ref, ok := n.Extensions[lightspunctual.ExtensionName]
	if !ok {
		return nil
	}
	lights, ok := l.doc.Extensions[lightspunctual.ExtensionName].(lightspunctual.Lights)
	if !ok {
		return nil
	}
	var idx int
	switch v := ref.(type) {
	case lightspunctual.LightIndex:
		idx = int(v)
	default:
		return nil
	}
	if idx < 0 || idx >= len(lights) {
		return nil
	}

	light := lights[idx]
	c := light.ColorOrDefault()
	lamp := &scene.Lamp{
		Name:        nameOr(light.Name, "Light.%03d", idx),
		Color:       scene.Color{float64(c[0]), float64(c[1]), float64(c[2])},
		Energy:      float64(light.IntensityOrDefault()),
		Distance:    25,
		FalloffType: "INVERSE_SQUARE",
	}
	if light.Range != nil && float64(*light.Range) > 0 {
		lamp.Distance = float64(*light.Range)
	}
	switch light.Type {
	case lightspunctual.TypeDirectional:
		lamp.Type = "SUN"
	case lightspunctual.TypeSpot:
		lamp.Type = "SPOT"
		if s := light.Spot; s != nil {
			outer := float64(s.OuterConeAngleOrDefault())
			lamp.SpotSize = 2 * outer
			if outer > 0 {
				lamp.SpotBlend = (outer - float64(s.InnerConeAngle)) / outer
			}
		}
	default:
		lamp.Type = "POINT"
	}
	return lamp
}

// link sets parents and world matrices from the node hierarchy.
func (l *gltfLoader) link() {
	for i, n := range l.doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(l.objs) {
				l.objs[c].Parent = l.objs[i]
			}
		}
	}
	done := make(map[*scene.Object]bool, len(l.objs))
	var world func(o *scene.Object) math.Mat4
	world = func(o *scene.Object) math.Mat4 {
		if done[o] {
			return o.MatrixWorld
		}
		done[o] = true
		o.MatrixWorld = o.MatrixBasis
		if o.Parent != nil {
			o.MatrixWorld = world(o.Parent).Mul(o.MatrixBasis)
		}
		return o.MatrixWorld
	}
	for _, o := range l.objs {
		world(o)
	}
}
