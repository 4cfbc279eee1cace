// Package exporter assembles the root scene document from the object
// hierarchy and writes it with its side files.
package exporter

import (
	"fmt"
	gomath "math"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/asset"
	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/internal/session"
	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// IssueWorldAmbient is the tracker issue for the world ambient color.
const IssueWorldAmbient = 6

// events are the DOM events forwarded from object properties.
var events = []string{"click", "dblclick", "mousedown", "mouseup", "mouseover", "mousemove", "mouseout", "mousewheel"}

// Assembler builds the scene graph of one session.
type Assembler struct {
	s      *session.Session
	assets *asset.Exporter
	res    report.Result
	log    *zap.Logger
}

// NewAssembler creates an assembler for s.
func NewAssembler(s *session.Session) *Assembler {
	return &Assembler{
		s:      s,
		assets: asset.NewExporter(s),
		log:    logger.Named("exporter"),
	}
}

// Result returns everything recorded so far.
func (a *Assembler) Result() report.Result {
	return a.res
}

// objects returns the objects taking part in the export.
func (a *Assembler) objects() []*scene.Object {
	if a.s.Config.Export.SelectionOnly {
		return a.s.Scene.Selected()
	}
	return a.s.Scene.Objects
}

// Scene builds the xml3d element of the session's scene. Errors are write
// failures of asset files.
func (a *Assembler) Scene() (*xml3d.Element, error) {
	sc := a.s.Scene
	a.checkWorld(sc.World)

	root := xml3d.NewElement("xml3d").Set("id", naming.ID(sc.Name))
	if sc.Camera != nil {
		root.Set("activeView", "#v_"+naming.ID(sc.Camera.Name))
	} else {
		a.res.Warn(report.CategoryCamera, sc.Name, 0, "Scene '%s' has no active camera set.", sc.Name)
	}
	root.Set("style", rootStyle(sc.World))

	d, r := defs(sc.Lamps)
	a.res.Merge(r)
	root.Append(d, xml3d.NewElement("view").Set("id", "v_view"))

	hierarchy := buildHierarchy(a.objects())
	a.log.Debug("hierarchy built",
		zap.String("scene", sc.Name),
		zap.Int("roots", len(hierarchy)),
		zap.Int("objects", count(hierarchy)))

	for _, n := range hierarchy {
		g, err := a.group(n)
		if err != nil {
			return nil, err
		}
		root.Append(g)
	}
	return root, nil
}

func (a *Assembler) checkWorld(w *scene.World) {
	if w != nil && w.AmbientColor.V() > 0 {
		a.res.Warn(report.CategoryWorld, w.Name, IssueWorldAmbient,
			"World '%s' has Ambient Color set, which is only partially supported.", w.Name)
	}
}

// rootStyle sizes the canvas and sets the gamma corrected horizon color.
func rootStyle(w *scene.World) string {
	style := "width: 100%; height: 100%;"
	if w == nil {
		return style
	}
	var rgb [3]int
	for i, c := range w.HorizonColor {
		rgb[i] = int(math.Clamp(gomath.Pow(max(c, 0), 1/2.2)*255, 0, 255))
	}
	return style + fmt.Sprintf(" background-color:rgb(%d,%d,%d);", rgb[0], rgb[1], rgb[2])
}

// layerClass returns the layer membership classes of obj.
func layerClass(obj *scene.Object) string {
	var layers []string
	for i, on := range obj.Layers {
		if on {
			layers = append(layers, fmt.Sprintf("layer-%d", i))
		}
	}
	return strings.Join(layers, " ")
}

// group converts one hierarchy node and its descendants.
func (a *Assembler) group(n *node) (*xml3d.Element, error) {
	obj := n.obj
	g := xml3d.NewElement("group").Set("id", naming.ID(obj.Name))
	if class := layerClass(obj); class != "" {
		g.Set("class", class)
	}
	if style := transformStyle(obj, a.s.Config.Export.Transform); style != "" {
		g.Set("style", style)
	}
	for _, ev := range events {
		if handler, ok := obj.Properties[ev]; ok {
			g.Set("on"+ev, handler)
		}
	}

	if err := a.content(g, obj); err != nil {
		return nil, err
	}
	for _, c := range n.children {
		child, err := a.group(c)
		if err != nil {
			return nil, err
		}
		g.Append(child)
	}
	a.res.Groups++
	return g, nil
}

// content appends the element representing the data of obj.
func (a *Assembler) content(g *xml3d.Element, obj *scene.Object) error {
	switch {
	case obj.Type == scene.TypeCamera:
		g.Append(xml3d.NewElement("view").Set("id", "v_"+naming.ID(obj.Name)))
		a.res.Views++

	case obj.Type.IsGeometry() || (obj.Type == scene.TypeEmpty && obj.DupliGroup != nil):
		return a.model(g, obj)

	case obj.Type == scene.TypeArmature:
		if a.s.Config.Export.Armatures && obj.Armature != nil {
			_, _, r := a.s.Armatures.Add(obj)
			a.res.Merge(r)
		}

	case obj.Type == scene.TypeLamp:
		if obj.Lamp == nil || !lightSupported(obj.Lamp) {
			// reported with the light shaders
			return nil
		}
		g.Append(xml3d.NewElement("light").Set("shader", "#"+lightShaderID(obj.Lamp)))
		a.res.Lights++

	case obj.Type == scene.TypeEmpty:

	default:
		a.res.Warn(report.CategoryObject, obj.Name, 0,
			"Object '%s' is of type '%s', which is not (yet) supported.", obj.Name, obj.Type)
	}
	return nil
}

// model exports the geometry of obj and appends its model element.
func (a *Assembler) model(g *xml3d.Element, obj *scene.Object) error {
	m, r, err := a.assets.Add(obj)
	a.res.Merge(r)
	if err != nil {
		return fmt.Errorf("exporting object %s: %w", obj.Name, err)
	}
	if m.URL == "" {
		return nil
	}

	model := xml3d.NewElement("model").Set("src", m.URL)
	for _, c := range m.Config {
		model.Append(xml3d.NewElement("assetdata").Set("name", c.Name).AppendData(c.Data...))
	}
	g.Append(model)
	return nil
}

// Finalize writes the asset collections and the session libraries.
func (a *Assembler) Finalize() error {
	r, err := a.assets.Save()
	a.res.Merge(r)
	if err != nil {
		return err
	}
	r, err = a.s.Finalize()
	a.res.Merge(r)
	return err
}
