package asset

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/internal/material"
	"github.com/Faultbox/xml3d-exporter/internal/meshtools"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/internal/session"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// Clustering strategies.
const (
	ClusterNone  = "none"
	ClusterLayer = "layer"
	ClusterBins  = "bins"
)

// Model is the instantiation of an exported asset. URL is relative to the
// root document and empty when the object has no geometry.
type Model struct {
	URL    string
	Config []ModelConfig
}

// meshKey identifies a mesh data-block as skinned by one armature.
type meshKey struct {
	mesh     *scene.Mesh
	name     string
	armature *scene.Object
}

type assetRef struct {
	collection string
	id         string
}

// Exporter collects assets into collections for one session.
type Exporter struct {
	s           *session.Session
	collections map[string]*Collection
	order       []*Collection
	seen        map[meshKey]assetRef
	bins        map[*scene.Object]int
	nextBin     int
	log         *zap.Logger
}

// NewExporter creates an asset exporter bound to s.
func NewExporter(s *session.Session) *Exporter {
	return &Exporter{
		s:           s,
		collections: make(map[string]*Collection),
		seen:        make(map[meshKey]assetRef),
		bins:        make(map[*scene.Object]int),
		log:         logger.Named("asset"),
	}
}

// Collections returns the collections in creation order.
func (e *Exporter) Collections() []*Collection {
	return e.order
}

// collection returns the collection obj belongs to under the configured
// clustering strategy.
func (e *Exporter) collection(obj *scene.Object) *Collection {
	var name string
	switch e.s.Config.Assets.Clustering {
	case ClusterLayer:
		name = fmt.Sprintf("layer-%d", obj.ActiveLayer())
	case ClusterBins:
		bin, ok := e.bins[obj]
		if !ok {
			bin = e.nextBin % max(1, e.s.Config.Assets.Bins)
			e.nextBin++
			e.bins[obj] = bin
		}
		name = fmt.Sprintf("bin-%d", bin)
	default:
		name = naming.Filename(obj.Name)
	}

	if c, ok := e.collections[name]; ok {
		return c
	}
	c := newCollection(name)
	e.collections[name] = c
	e.order = append(e.order, c)
	return c
}

// Add exports the geometry of a scene object. Objects without geometry
// yield an empty Model and the reason as warning. Errors are write failures.
func (e *Exporter) Add(obj *scene.Object) (Model, report.Result, error) {
	var res report.Result
	col := e.collection(obj)
	id := col.ids.ID(obj.Name)

	instances := e.s.Evaluator.DerivedInstances(obj)
	var (
		a      *Asset
		config []ModelConfig
		err    error
	)
	if len(instances) == 1 && instances[0].Object == obj {
		var r report.Result
		a, config, r, err = e.geometry(col, obj, id)
		res.Merge(r)
	} else {
		var r report.Result
		a, r, err = e.instances(col, obj, id, instances)
		res.Merge(r)
	}
	if err != nil {
		return Model{}, res, err
	}
	if a == nil {
		return Model{}, res, nil
	}

	col.Assets = append(col.Assets, a)
	return Model{
		URL:    session.AssetDir + "/" + col.File() + "#" + a.ID,
		Config: config,
	}, res, nil
}

// instances exports derived instances as nested assets placed relative to
// the owner.
func (e *Exporter) instances(col *Collection, owner *scene.Object, id string, instances []scene.Instance) (*Asset, report.Result, error) {
	var res report.Result
	parent := &Asset{ID: id, Name: owner.Name}
	inv := owner.MatrixWorld.Invert()

	for i, inst := range instances {
		child, _, r, err := e.geometry(col, inst.Object, col.ids.ID(fmt.Sprintf("%s-%s-%d", owner.Name, inst.Object.Name, i)))
		res.Merge(r)
		if err != nil {
			return nil, res, err
		}
		if child == nil {
			continue
		}
		local := inv.Mul(inst.Matrix)
		child.Transform = &local
		parent.Children = append(parent.Children, child)
	}
	if len(parent.Children) == 0 {
		return nil, res, nil
	}
	return parent, res, nil
}

// skinFor returns the skeleton binding of obj, or nil for static export.
func (e *Exporter) skinFor(obj *scene.Object) (*skinning, report.Result) {
	var res report.Result
	if !e.s.Config.Export.Armatures {
		return nil, res
	}
	mods := obj.ArmatureModifiers()
	if len(mods) > 1 {
		res.Warn(report.CategoryArmature, obj.Name, 0,
			"Object '%s' has %d armature modifiers. Only a single armature modifier is supported. Skipped armature.",
			obj.Name, len(mods))
		return nil, res
	}
	armObj := obj.ArmatureObject()
	if armObj == nil {
		return nil, res
	}
	arm, url, r := e.s.Armatures.Add(armObj)
	res.Merge(r)
	return &skinning{armature: arm, url: url, object: armObj}, res
}

func skinBlockName(assetID string) string {
	return assetID + "_skin"
}

// from returns the URL of a previously exported asset as seen from col.
func (r assetRef) from(col *Collection) string {
	if r.collection == col.Name {
		return "#" + r.id
	}
	return r.collection + ".xml#" + r.id
}

// geometry exports the mesh of obj as a full asset, or as a reference node
// when its data-block was exported before.
func (e *Exporter) geometry(col *Collection, obj *scene.Object, id string) (*Asset, []ModelConfig, report.Result, error) {
	var res report.Result
	skin, r := e.skinFor(obj)
	res.Merge(r)

	key := meshKey{mesh: obj.Mesh}
	if obj.Mesh == nil {
		key.name = obj.Name
	}
	if skin != nil {
		key.armature = skin.object
	}

	if prev, ok := e.seen[key]; ok {
		a := &Asset{ID: id, Name: obj.Name, Src: prev.from(col)}
		var config []ModelConfig
		if skin != nil {
			config = skin.config(skinBlockName(prev.id))
		}
		return a, config, res, nil
	}

	g := Resolve(e.s.Evaluator, obj, skin != nil)
	if !g.OK() {
		res.Warnings = append(res.Warnings, g.Err.Warning())
		return nil, nil, res, nil
	}
	mesh := g.Mesh

	opts := meshtools.Options{Barycentric: e.s.Config.Assets.Barycentric}
	if skin != nil {
		opts.Skin = skin.options(obj)
	}
	buf, r := meshtools.Export(mesh, opts)
	res.Merge(r)
	if buf == nil {
		return nil, nil, res, nil
	}

	a := &Asset{ID: id, Name: obj.Name}
	data := &DataBlock{Name: mesh.Name, Entries: buf.Attributes(mesh)}
	a.Data = append(a.Data, data)

	var config []ModelConfig
	if skin != nil {
		skinName := skinBlockName(id)
		data.Includes = skinName
		data.Compute = SkinningCompute
		a.Data = append([]*DataBlock{skin.block(skinName, obj)}, a.Data...)
		config = skin.config(skinName)
	}

	for slot := range buf.Indices {
		if buf.TriangleCount(slot) == 0 {
			continue
		}
		sub, r, err := e.submesh(col, mesh, slot, buf.Indices[slot])
		res.Merge(r)
		if err != nil {
			return nil, nil, res, err
		}
		a.Meshes = append(a.Meshes, sub)
		res.Meshes = append(res.Meshes, sub.Name)
	}

	e.seen[key] = assetRef{collection: col.Name, id: id}
	e.log.Debug("asset exported",
		zap.String("object", obj.Name),
		zap.String("mesh", mesh.Name),
		zap.Int("vertices", len(buf.Vertices)),
		zap.Int("submeshes", len(a.Meshes)),
		zap.Bool("skinned", skin != nil))
	return a, config, res, nil
}

// submesh builds the draw call of one material slot.
func (e *Exporter) submesh(col *Collection, mesh *scene.Mesh, slot int, indices []int) (*Submesh, report.Result, error) {
	var res report.Result
	var src *scene.Material
	if slot < len(mesh.Materials) {
		src = mesh.Materials[slot]
	}

	mat, r, err := e.s.Materials.Convert(src)
	res.Merge(r)
	if err != nil {
		return nil, res, err
	}

	name := material.DefaultID
	if src != nil {
		name = src.Name
	}
	sub := &Submesh{
		Name:     mesh.Name + "_" + name,
		Includes: mesh.Name,
		Data:     []xml3d.DataEntry{xml3d.Int("index", indices...)},
	}

	switch material.Locate(src, e.s.Config.Assets.Materials) {
	case material.LocationInternal:
		sub.Shader = col.materials.Add(mat)
	case material.LocationExternal:
		sub.Shader = e.s.Shared.Add(mat)
	}

	face, r, err := e.s.Materials.FaceTexture(src, mesh, slot)
	res.Merge(r)
	if err != nil {
		return nil, res, err
	}
	sub.Data = append(sub.Data, face...)
	return sub, res, nil
}

// Save writes every collection into the asset directory.
func (e *Exporter) Save() (report.Result, error) {
	var res report.Result
	cols := append([]*Collection(nil), e.order...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })

	for _, c := range cols {
		if len(c.Assets) == 0 {
			continue
		}
		path, err := e.s.AssetPath(c.File())
		if err != nil {
			return res, err
		}
		r, err := c.Save(path)
		res.Merge(r)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}
