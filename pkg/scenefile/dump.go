package scenefile

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// Dump is the file form of a scene. Data-blocks are listed once and
// referenced by name.
type Dump struct {
	Name      string         `yaml:"name"`
	FPS       int            `yaml:"fps"`
	Layers    []bool         `yaml:"layers"`
	Camera    string         `yaml:"camera"`
	World     *WorldDump     `yaml:"world"`
	Images    []ImageDump    `yaml:"images"`
	Textures  []TextureDump  `yaml:"textures"`
	Materials []MaterialDump `yaml:"materials"`
	Meshes    []MeshDump     `yaml:"meshes"`
	Armatures []ArmatureDump `yaml:"armatures"`
	Actions   []ActionDump   `yaml:"actions"`
	Lamps     []LampDump     `yaml:"lamps"`
	Cameras   []CameraDump   `yaml:"cameras"`
	Groups    []GroupDump    `yaml:"groups"`
	Objects   []ObjectDump   `yaml:"objects"`
	Viewports []ViewportDump `yaml:"viewports"`
}

type WorldDump struct {
	Name         string    `yaml:"name"`
	AmbientColor []float64 `yaml:"ambient_color"`
	HorizonColor []float64 `yaml:"horizon_color"`
}

type ImageDump struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
	// Packed is the base64 encoded file content.
	Packed  string    `yaml:"packed"`
	Width   int       `yaml:"width"`
	Height  int       `yaml:"height"`
	Pixels  []float64 `yaml:"pixels"`
	Mapping string    `yaml:"mapping"`
}

type TextureDump struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Image     string `yaml:"image"`
	Extension string `yaml:"extension"`
}

type SlotDump struct {
	Texture            string  `yaml:"texture"`
	Disabled           bool    `yaml:"disabled"`
	UseMapColorDiffuse *bool   `yaml:"use_map_color_diffuse"`
	DiffuseColorFactor float64 `yaml:"diffuse_color_factor"`
	TextureCoords      string  `yaml:"texture_coords"`
}

type SocketDump struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default []float64 `yaml:"default"`
	From    string    `yaml:"from"`
}

type NodeDump struct {
	Name   string       `yaml:"name"`
	Type   string       `yaml:"type"`
	Image  string       `yaml:"image"`
	Inputs []SocketDump `yaml:"inputs"`
}

type MaterialDump struct {
	Name                string     `yaml:"name"`
	Users               int        `yaml:"users"`
	DiffuseColor        []float64  `yaml:"diffuse_color"`
	DiffuseIntensity    float64    `yaml:"diffuse_intensity"`
	SpecularColor       []float64  `yaml:"specular_color"`
	SpecularIntensity   float64    `yaml:"specular_intensity"`
	SpecularHardness    float64    `yaml:"specular_hardness"`
	Ambient             float64    `yaml:"ambient"`
	UseTransparency     bool       `yaml:"use_transparency"`
	Alpha               float64    `yaml:"alpha"`
	UseFaceTexture      bool       `yaml:"use_face_texture"`
	UseFaceTextureAlpha bool       `yaml:"use_face_texture_alpha"`
	TextureSlots        []SlotDump `yaml:"texture_slots"`
	Nodes               []NodeDump `yaml:"nodes"`
}

type GroupWeightDump struct {
	Group  int     `yaml:"group"`
	Weight float64 `yaml:"weight"`
}

type VertexDump struct {
	Co     []float64         `yaml:"co"`
	Normal []float64         `yaml:"normal"`
	Groups []GroupWeightDump `yaml:"groups"`
}

type PolygonDump struct {
	Vertices []int       `yaml:"vertices"`
	Normal   []float64   `yaml:"normal"`
	Smooth   bool        `yaml:"smooth"`
	Material int         `yaml:"material"`
	UV       [][]float64 `yaml:"uv"`
	Image    string      `yaml:"image"`
}

type MeshDump struct {
	Name      string        `yaml:"name"`
	Vertices  []VertexDump  `yaml:"vertices"`
	Polygons  []PolygonDump `yaml:"polygons"`
	Materials []string      `yaml:"materials"`
	UVLayers  []string      `yaml:"uv_layers"`
}

type BoneDump struct {
	Name        string    `yaml:"name"`
	Parent      string    `yaml:"parent"`
	MatrixLocal []float64 `yaml:"matrix_local"`
}

type ArmatureDump struct {
	Name  string     `yaml:"name"`
	Bones []BoneDump `yaml:"bones"`
}

type KeyframeDump struct {
	Co            []float64 `yaml:"co"`
	Interpolation string    `yaml:"interpolation"`
	HandleLeft    []float64 `yaml:"handle_left"`
	HandleRight   []float64 `yaml:"handle_right"`
}

type FCurveDump struct {
	DataPath  string         `yaml:"data_path"`
	Index     int            `yaml:"index"`
	Group     string         `yaml:"group"`
	Keyframes []KeyframeDump `yaml:"keyframes"`
}

type ActionDump struct {
	Name    string       `yaml:"name"`
	FCurves []FCurveDump `yaml:"fcurves"`
}

type LampDump struct {
	Name                 string    `yaml:"name"`
	Type                 string    `yaml:"type"`
	Color                []float64 `yaml:"color"`
	Energy               float64   `yaml:"energy"`
	Distance             float64   `yaml:"distance"`
	FalloffType          string    `yaml:"falloff_type"`
	LinearAttenuation    float64   `yaml:"linear_attenuation"`
	QuadraticAttenuation float64   `yaml:"quadratic_attenuation"`
	SpotSize             float64   `yaml:"spot_size"`
	SpotBlend            float64   `yaml:"spot_blend"`
}

type CameraDump struct {
	Name  string  `yaml:"name"`
	Angle float64 `yaml:"angle"`
	Near  float64 `yaml:"near"`
	Far   float64 `yaml:"far"`
}

type GroupDump struct {
	Name    string   `yaml:"name"`
	Objects []string `yaml:"objects"`
}

type ModifierDump struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Object string `yaml:"object"`
}

type ObjectDump struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Parent   string `yaml:"parent"`
	Data     string `yaml:"data"`
	Action   string `yaml:"action"`
	Layers   []bool `yaml:"layers"`
	Selected bool   `yaml:"selected"`

	MatrixWorld         []float64 `yaml:"matrix_world"`
	MatrixBasis         []float64 `yaml:"matrix_basis"`
	MatrixParentInverse []float64 `yaml:"matrix_parent_inverse"`
	Location            []float64 `yaml:"location"`
	// Rotation is a quaternion in w, x, y, z order.
	Rotation []float64 `yaml:"rotation"`
	Scale    []float64 `yaml:"scale"`

	Properties   map[string]string `yaml:"properties"`
	Modifiers    []ModifierDump    `yaml:"modifiers"`
	VertexGroups []string          `yaml:"vertex_groups"`
	DupliGroup   string            `yaml:"dupli_group"`
}

type ViewportDump struct {
	ViewMatrix        []float64 `yaml:"view_matrix"`
	PerspectiveMatrix []float64 `yaml:"perspective_matrix"`
}

// LoadDump reads a YAML or JSON scene dump. Relative image paths are
// resolved against the directory of path.
func LoadDump(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Dump
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing scene dump %s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = stem(path)
	}
	return d.Scene(filepath.Dir(path))
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Scene resolves the dump into a scene. dir anchors relative image paths.
func (d *Dump) Scene(dir string) (*scene.Scene, error) {
	r := &resolver{
		dir:       dir,
		images:    make(map[string]*scene.Image),
		textures:  make(map[string]*scene.Texture),
		materials: make(map[string]*scene.Material),
		meshes:    make(map[string]*scene.Mesh),
		armatures: make(map[string]*scene.Armature),
		actions:   make(map[string]*scene.Action),
		lamps:     make(map[string]*scene.Lamp),
		cameras:   make(map[string]*scene.Camera),
		objects:   make(map[string]*scene.Object),
	}
	return r.resolve(d)
}

type resolver struct {
	dir       string
	images    map[string]*scene.Image
	textures  map[string]*scene.Texture
	materials map[string]*scene.Material
	meshes    map[string]*scene.Mesh
	armatures map[string]*scene.Armature
	actions   map[string]*scene.Action
	lamps     map[string]*scene.Lamp
	cameras   map[string]*scene.Camera
	objects   map[string]*scene.Object
}

func lookup[T any](m map[string]*T, kind, name string) (*T, error) {
	if name == "" {
		return nil, nil
	}
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownReference, kind, name)
	}
	return v, nil
}

func (r *resolver) resolve(d *Dump) (*scene.Scene, error) {
	sc := &scene.Scene{Name: d.Name, FPS: d.FPS, Layers: d.Layers}
	if d.World != nil {
		sc.World = &scene.World{
			Name:         d.World.Name,
			AmbientColor: color(d.World.AmbientColor),
			HorizonColor: color(d.World.HorizonColor),
		}
	}

	for _, im := range d.Images {
		img, err := r.image(im)
		if err != nil {
			return nil, err
		}
		r.images[im.Name] = img
	}
	for _, td := range d.Textures {
		img, err := lookup(r.images, "image", td.Image)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", td.Name, err)
		}
		r.textures[td.Name] = &scene.Texture{Name: td.Name, Type: td.Type, Image: img, Extension: td.Extension}
	}
	for _, md := range d.Materials {
		m, err := r.material(md)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", md.Name, err)
		}
		r.materials[md.Name] = m
	}
	for _, md := range d.Meshes {
		m, err := r.mesh(md)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", md.Name, err)
		}
		r.meshes[md.Name] = m
	}
	countUsers(r.meshes)
	for _, ad := range d.Armatures {
		a, err := armature(ad)
		if err != nil {
			return nil, fmt.Errorf("armature %q: %w", ad.Name, err)
		}
		r.armatures[ad.Name] = a
	}
	for _, ad := range d.Actions {
		r.actions[ad.Name] = action(ad)
	}
	for _, ld := range d.Lamps {
		l := &scene.Lamp{
			Name:                 ld.Name,
			Type:                 ld.Type,
			Color:                color(ld.Color),
			Energy:               ld.Energy,
			Distance:             ld.Distance,
			FalloffType:          ld.FalloffType,
			LinearAttenuation:    ld.LinearAttenuation,
			QuadraticAttenuation: ld.QuadraticAttenuation,
			SpotSize:             ld.SpotSize,
			SpotBlend:            ld.SpotBlend,
		}
		r.lamps[ld.Name] = l
		sc.Lamps = append(sc.Lamps, l)
	}
	for _, cd := range d.Cameras {
		r.cameras[cd.Name] = &scene.Camera{Name: cd.Name, Angle: cd.Angle, Near: cd.Near, Far: cd.Far}
	}

	if err := r.objectsOf(d, sc); err != nil {
		return nil, err
	}

	cam, err := lookup(r.objects, "object", d.Camera)
	if err != nil {
		return nil, fmt.Errorf("scene camera: %w", err)
	}
	sc.Camera = cam

	for _, vd := range d.Viewports {
		sc.Viewports = append(sc.Viewports, scene.Viewport{
			ViewMatrix:        matrix(vd.ViewMatrix),
			PerspectiveMatrix: matrix(vd.PerspectiveMatrix),
		})
	}
	return sc, nil
}

func (r *resolver) image(im ImageDump) (*scene.Image, error) {
	img := &scene.Image{
		Name:       im.Name,
		Source:     im.Source,
		FileFormat: im.Format,
		Filepath:   im.Path,
		Width:      im.Width,
		Height:     im.Height,
		Pixels:     im.Pixels,
		Mapping:    im.Mapping,
	}
	if img.Source == "" {
		img.Source = scene.ImageSourceFile
	}
	if img.Filepath != "" && !filepath.IsAbs(img.Filepath) {
		img.Filepath = filepath.Join(r.dir, img.Filepath)
	}
	if im.Packed != "" {
		data, err := base64.StdEncoding.DecodeString(im.Packed)
		if err != nil {
			return nil, fmt.Errorf("image %q: decoding packed data: %w", im.Name, err)
		}
		img.Packed = data
	}
	return img, nil
}

func (r *resolver) material(md MaterialDump) (*scene.Material, error) {
	m := &scene.Material{
		Name:                md.Name,
		Users:               md.Users,
		DiffuseColor:        color(md.DiffuseColor),
		DiffuseIntensity:    md.DiffuseIntensity,
		SpecularColor:       color(md.SpecularColor),
		SpecularIntensity:   md.SpecularIntensity,
		SpecularHardness:    md.SpecularHardness,
		Ambient:             md.Ambient,
		UseTransparency:     md.UseTransparency,
		Alpha:               md.Alpha,
		UseFaceTexture:      md.UseFaceTexture,
		UseFaceTextureAlpha: md.UseFaceTextureAlpha,
	}
	if !m.UseTransparency && m.Alpha == 0 {
		m.Alpha = 1
	}

	for _, sd := range md.TextureSlots {
		tex, err := lookup(r.textures, "texture", sd.Texture)
		if err != nil {
			return nil, err
		}
		slot := &scene.TextureSlot{
			Name:               sd.Texture,
			Enabled:            !sd.Disabled,
			UseMapColorDiffuse: sd.UseMapColorDiffuse == nil || *sd.UseMapColorDiffuse,
			DiffuseColorFactor: sd.DiffuseColorFactor,
			TextureCoords:      sd.TextureCoords,
			Texture:            tex,
		}
		if slot.DiffuseColorFactor == 0 {
			slot.DiffuseColorFactor = 1
		}
		if slot.TextureCoords == "" {
			slot.TextureCoords = "UV"
		}
		m.TextureSlots = append(m.TextureSlots, slot)
	}

	if len(md.Nodes) > 0 {
		tree, err := r.nodeTree(md.Nodes)
		if err != nil {
			return nil, err
		}
		m.NodeTree = tree
	}
	return m, nil
}

// nodeTree links sockets to nodes by name after all nodes exist.
func (r *resolver) nodeTree(nodes []NodeDump) (*scene.NodeTree, error) {
	tree := &scene.NodeTree{}
	byName := make(map[string]*scene.Node, len(nodes))
	for _, nd := range nodes {
		img, err := lookup(r.images, "image", nd.Image)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.Name, err)
		}
		n := &scene.Node{Name: nd.Name, Type: nd.Type, Image: img}
		byName[nd.Name] = n
		tree.Nodes = append(tree.Nodes, n)
	}
	for i, nd := range nodes {
		for _, sd := range nd.Inputs {
			from, err := lookup(byName, "node", sd.From)
			if err != nil {
				return nil, fmt.Errorf("node %q input %q: %w", nd.Name, sd.Name, err)
			}
			tree.Nodes[i].Inputs = append(tree.Nodes[i].Inputs, &scene.Socket{
				Name:    sd.Name,
				Type:    sd.Type,
				Default: sd.Default,
				From:    from,
			})
		}
	}
	return tree, nil
}

func (r *resolver) mesh(md MeshDump) (*scene.Mesh, error) {
	m := &scene.Mesh{Name: md.Name, UVLayers: md.UVLayers}
	for _, name := range md.Materials {
		mat, err := lookup(r.materials, "material", name)
		if err != nil {
			return nil, err
		}
		m.Materials = append(m.Materials, mat)
	}
	for _, vd := range md.Vertices {
		v := scene.Vertex{Co: vec3(vd.Co), Normal: vec3(vd.Normal)}
		for _, g := range vd.Groups {
			v.Groups = append(v.Groups, scene.GroupWeight{Group: g.Group, Weight: g.Weight})
		}
		m.Vertices = append(m.Vertices, v)
	}
	for _, pd := range md.Polygons {
		img, err := lookup(r.images, "image", pd.Image)
		if err != nil {
			return nil, err
		}
		p := scene.Polygon{
			Vertices:      pd.Vertices,
			Normal:        vec3(pd.Normal),
			Smooth:        pd.Smooth,
			MaterialIndex: pd.Material,
			Image:         img,
		}
		if p.Normal == (math.Vec3{}) {
			p.Normal = faceNormal(m.Vertices, pd.Vertices)
		}
		for _, uv := range pd.UV {
			p.UV = append(p.UV, vec2(uv))
		}
		m.Polygons = append(m.Polygons, p)
	}
	if len(m.UVLayers) == 0 {
		for _, p := range m.Polygons {
			if len(p.UV) > 0 {
				m.UVLayers = []string{"UVMap"}
				break
			}
		}
	}
	return m, nil
}

// countUsers fills in missing user counts: one per referencing mesh plus
// the host's own reference.
func countUsers(meshes map[string]*scene.Mesh) {
	counted := make(map[*scene.Material]int)
	for _, m := range meshes {
		for _, mat := range m.Materials {
			if mat != nil && mat.Users == 0 {
				counted[mat]++
			}
		}
	}
	for mat, n := range counted {
		mat.Users = n + 1
	}
}

// faceNormal returns the normal of the first corner triangle, or zero for
// degenerate or out of range faces.
func faceNormal(verts []scene.Vertex, idx []int) math.Vec3 {
	if len(idx) < 3 {
		return math.Vec3{}
	}
	for _, i := range idx[:3] {
		if i < 0 || i >= len(verts) {
			return math.Vec3{}
		}
	}
	a, b, c := verts[idx[0]].Co, verts[idx[1]].Co, verts[idx[2]].Co
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

func armature(ad ArmatureDump) (*scene.Armature, error) {
	a := &scene.Armature{Name: ad.Name}
	byName := make(map[string]*scene.Bone, len(ad.Bones))
	for _, bd := range ad.Bones {
		b := &scene.Bone{Name: bd.Name, MatrixLocal: matrix(bd.MatrixLocal)}
		byName[bd.Name] = b
		a.Bones = append(a.Bones, b)
	}
	for i, bd := range ad.Bones {
		parent, err := lookup(byName, "bone", bd.Parent)
		if err != nil {
			return nil, err
		}
		a.Bones[i].Parent = parent
	}
	return a, nil
}

func action(ad ActionDump) *scene.Action {
	a := &scene.Action{Name: ad.Name}
	for _, fd := range ad.FCurves {
		fc := &scene.FCurve{DataPath: fd.DataPath, Index: fd.Index, Group: fd.Group}
		for _, kd := range fd.Keyframes {
			k := scene.Keyframe{Co: vec2(kd.Co), Interpolation: kd.Interpolation}
			if kd.Interpolation == "" {
				k.Interpolation = scene.InterpBezier
			}
			if len(kd.HandleLeft) == 2 && len(kd.HandleRight) == 2 {
				k.HandleLeft = vec2(kd.HandleLeft)
				k.HandleRight = vec2(kd.HandleRight)
				k.HasHandles = true
			}
			fc.Keyframes = append(fc.Keyframes, k)
		}
		a.FCurves = append(a.FCurves, fc)
	}
	return a
}

// objectsOf creates all objects, then links parents, data, modifiers and
// groups, and finally derives missing world matrices top down.
func (r *resolver) objectsOf(d *Dump, sc *scene.Scene) error {
	for _, od := range d.Objects {
		obj := &scene.Object{
			Name:                od.Name,
			Type:                scene.ObjectType(od.Type),
			Layers:              od.Layers,
			Selected:            od.Selected,
			MatrixParentInverse: matrix(od.MatrixParentInverse),
			Location:            vec3(od.Location),
			Rotation:            quat(od.Rotation),
			Scale:               vec3(od.Scale),
			Properties:          od.Properties,
			VertexGroups:        od.VertexGroups,
		}
		if od.Scale == nil {
			obj.Scale = math.Vec3{X: 1, Y: 1, Z: 1}
		}
		if obj.Layers == nil {
			obj.Layers = []bool{true}
		}
		if od.MatrixBasis != nil {
			obj.MatrixBasis = matrix(od.MatrixBasis)
		} else {
			obj.MatrixBasis = math.Compose(obj.Location, obj.Rotation, obj.Scale)
		}
		r.objects[od.Name] = obj
		sc.Objects = append(sc.Objects, obj)
	}

	groups := make(map[string]*scene.Group, len(d.Groups))
	for _, gd := range d.Groups {
		g := &scene.Group{Name: gd.Name}
		for _, name := range gd.Objects {
			obj, err := lookup(r.objects, "object", name)
			if err != nil {
				return fmt.Errorf("group %q: %w", gd.Name, err)
			}
			g.Objects = append(g.Objects, obj)
		}
		groups[gd.Name] = g
	}

	for _, od := range d.Objects {
		obj := r.objects[od.Name]
		if err := r.link(obj, od, groups); err != nil {
			return fmt.Errorf("object %q: %w", od.Name, err)
		}
	}

	done := make(map[*scene.Object]bool, len(sc.Objects))
	for _, od := range d.Objects {
		worldMatrix(r.objects[od.Name], od, d, done)
	}
	return nil
}

func (r *resolver) link(obj *scene.Object, od ObjectDump, groups map[string]*scene.Group) error {
	var err error
	if obj.Parent, err = lookup(r.objects, "object", od.Parent); err != nil {
		return err
	}
	if obj.Action, err = lookup(r.actions, "action", od.Action); err != nil {
		return err
	}
	if obj.DupliGroup, err = lookup(groups, "group", od.DupliGroup); err != nil {
		return err
	}

	switch obj.Type {
	case scene.TypeMesh, scene.TypeCurve, scene.TypeSurface, scene.TypeFont, scene.TypeMeta:
		obj.Mesh, err = lookup(r.meshes, "mesh", od.Data)
	case scene.TypeLamp:
		obj.Lamp, err = lookup(r.lamps, "lamp", od.Data)
	case scene.TypeCamera:
		obj.Camera, err = lookup(r.cameras, "camera", od.Data)
	case scene.TypeArmature:
		obj.Armature, err = lookup(r.armatures, "armature", od.Data)
	}
	if err != nil {
		return err
	}

	for _, md := range od.Modifiers {
		target, err := lookup(r.objects, "object", md.Object)
		if err != nil {
			return fmt.Errorf("modifier %q: %w", md.Name, err)
		}
		obj.Modifiers = append(obj.Modifiers, scene.Modifier{Name: md.Name, Type: md.Type, Object: target})
	}
	return nil
}

// worldMatrix sets the world matrix of obj unless the dump provides it:
// parent world * parent inverse * basis.
func worldMatrix(obj *scene.Object, od ObjectDump, d *Dump, done map[*scene.Object]bool) {
	if done[obj] {
		return
	}
	done[obj] = true
	if od.MatrixWorld != nil {
		obj.MatrixWorld = matrix(od.MatrixWorld)
		return
	}
	local := obj.MatrixParentInverse.Mul(obj.MatrixBasis)
	if obj.Parent == nil {
		obj.MatrixWorld = local
		return
	}
	for _, pd := range d.Objects {
		if pd.Name == obj.Parent.Name {
			worldMatrix(obj.Parent, pd, d, done)
			break
		}
	}
	obj.MatrixWorld = obj.Parent.MatrixWorld.Mul(local)
}

func vec2(v []float64) math.Vec2 {
	var out [2]float64
	copy(out[:], v)
	return math.Vec2{X: out[0], Y: out[1]}
}

func vec3(v []float64) math.Vec3 {
	var out [3]float64
	copy(out[:], v)
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}
}

func color(v []float64) scene.Color {
	var c scene.Color
	copy(c[:], v)
	return c
}

// quat reads w, x, y, z. Missing rotations are the identity.
func quat(v []float64) math.Quat {
	if len(v) != 4 {
		return math.QuatIdentity()
	}
	return math.Quat{W: v[0], X: v[1], Y: v[2], Z: v[3]}
}

// matrix reads 16 column-major values. Anything else is the identity.
func matrix(v []float64) math.Mat4 {
	if len(v) != 16 {
		return math.Identity()
	}
	var m math.Mat4
	copy(m[:], v)
	return m
}
