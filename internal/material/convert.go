package material

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/internal/shadergraph"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// Warning issue numbers shared with the exporter documentation.
const (
	IssueTextureMapping = 5
)

// minTextureFactor is the smallest diffuse influence worth exporting.
const minTextureFactor = 0.0001

var extensionWrap = map[string]string{
	"REPEAT": xml3d.WrapRepeat,
	"EXTEND": xml3d.WrapClamp,
}

// ImageExporter writes an image and returns its URL. An empty URL means the
// image was dropped with a warning.
type ImageExporter interface {
	Export(img *scene.Image) (string, report.Result, error)
}

// Converter turns host materials into Materials. Results are memoized per
// material data-block for the lifetime of the converter.
type Converter struct {
	images ImageExporter
	world  *scene.World
	cache  map[*scene.Material]*Material
	def    *Material
	log    *zap.Logger
}

// NewConverter creates a converter. world may be nil.
func NewConverter(images ImageExporter, world *scene.World) *Converter {
	return &Converter{
		images: images,
		world:  world,
		cache:  make(map[*scene.Material]*Material),
		log:    logger.Named("material"),
	}
}

// Convert returns the Material for m. Unsupported features are reported as
// warnings; the error is reserved for failed image writes.
func (c *Converter) Convert(m *scene.Material) (*Material, report.Result, error) {
	var res report.Result
	if m == nil {
		if c.def == nil {
			c.def = Default()
		}
		return c.def, res, nil
	}
	if mat, ok := c.cache[m]; ok {
		return mat, res, nil
	}

	mat := &Material{ID: naming.ID(m.Name)}
	if m.NodeTree != nil {
		prog, err := shadergraph.Compile(m.NodeTree)
		if err != nil {
			res.Warn(report.CategoryMaterial, m.Name, 0,
				"In material '%s': %s. Fallback to standard material model.", m.Name, err)
		} else {
			mat.Program = prog
		}
	}
	if mat.Program == nil {
		mat.Script = PhongScript
		mat.Compute = BlenderMaterialCompute
	}

	mat.Data = c.parameters(m)

	if mat.Program != nil {
		r, err := c.bindProgramTextures(mat)
		res.Merge(r)
		if err != nil {
			return nil, res, err
		}
	}

	entry, r, err := c.diffuseTexture(m)
	res.Merge(r)
	if err != nil {
		return nil, res, err
	}
	if entry != nil {
		mat.Data = append(mat.Data, *entry)
	}

	c.log.Debug("material converted",
		zap.String("material", m.Name),
		zap.Bool("compiled", mat.Program != nil),
		zap.Int("entries", len(mat.Data)))
	c.cache[m] = mat
	return mat, res, nil
}

func (c *Converter) parameters(m *scene.Material) []xml3d.DataEntry {
	data := []xml3d.DataEntry{
		xml3d.Float("diffuse_intensity", m.DiffuseIntensity),
		xml3d.Float3("diffuse_color", m.DiffuseColor.Slice()),
		xml3d.Float("specular_intensity", m.SpecularIntensity),
		xml3d.Float3("specular_color", m.SpecularColor.Slice()),
		xml3d.Float("specular_hardness", m.SpecularHardness),
	}
	if c.world != nil {
		if v := c.world.AmbientColor.V(); v > 0 {
			data = append(data, xml3d.Float("ambientIntensity", m.Ambient*math.Pow(v, 1/2.2)))
		}
	}
	alpha := 1.0
	if m.UseTransparency {
		alpha = m.Alpha
	}
	return append(data, xml3d.Float("alpha", alpha))
}

// bindProgramTextures exports the images sampled by a compiled program.
func (c *Converter) bindProgramTextures(mat *Material) (report.Result, error) {
	var res report.Result
	for _, t := range mat.Program.Textures {
		url, r, err := c.images.Export(t.Image)
		res.Merge(r)
		if err != nil {
			return res, err
		}
		if url != "" {
			mat.Data = append(mat.Data, xml3d.Texture(t.Name, url, xml3d.WrapRepeat))
		}
	}
	return res, nil
}

// diffuseTexture returns the entry for the first usable diffuse texture slot.
// Later usable slots are ignored without a warning.
func (c *Converter) diffuseTexture(m *scene.Material) (*xml3d.DataEntry, report.Result, error) {
	var res report.Result
	for _, slot := range m.TextureSlots {
		if slot == nil || !slot.Enabled {
			continue
		}
		if !slot.UseMapColorDiffuse || slot.DiffuseColorFactor < minTextureFactor {
			continue
		}
		if slot.TextureCoords != "UV" {
			res.Warn(report.CategoryTexture, m.Name, IssueTextureMapping,
				"Texture '%s' of material '%s' uses '%s' mapping, which is not (yet) supported. Dropped Texture.",
				slot.Name, m.Name, slot.TextureCoords)
			continue
		}
		tex := slot.Texture
		if tex == nil || tex.Type != "IMAGE" {
			res.Warn(report.CategoryTexture, m.Name, 0,
				"Texture '%s' of material '%s' is of type '%s' which is not (yet) supported. Dropped Texture.",
				slot.Name, m.Name, textureType(tex))
			continue
		}

		url, r, err := c.images.Export(tex.Image)
		res.Merge(r)
		if err != nil {
			return nil, res, fmt.Errorf("material %s: %w", m.Name, err)
		}

		wrap, ok := extensionWrap[tex.Extension]
		if !ok {
			wrap = xml3d.WrapClamp
			res.Warn(report.CategoryTexture, m.Name, 0,
				"Texture '%s' of material '%s' has extension '%s' which is not (yet) supported. Using default 'Extend' instead...",
				slot.Name, m.Name, tex.Extension)
		}
		if url == "" {
			continue
		}
		entry := xml3d.Texture("diffuseTexture", url, wrap)
		return &entry, res, nil
	}
	return nil, res, nil
}

func textureType(t *scene.Texture) string {
	if t == nil {
		return "NONE"
	}
	return t.Type
}

// FaceTexture returns the entries for the legacy per-face image of mesh
// faces using the material at slot. The first face carrying an image wins.
func (c *Converter) FaceTexture(m *scene.Material, mesh *scene.Mesh, slot int) ([]xml3d.DataEntry, report.Result, error) {
	var res report.Result
	if m == nil || !m.UseFaceTexture || mesh == nil {
		return nil, res, nil
	}

	var img *scene.Image
	for i := range mesh.Polygons {
		if p := &mesh.Polygons[i]; p.MaterialIndex == slot && p.Image != nil {
			img = p.Image
			break
		}
	}
	if img == nil {
		return nil, res, nil
	}
	if img.Mapping != "" && img.Mapping != "UV" {
		res.Warn(report.CategoryTexture, mesh.Name, IssueTextureMapping,
			"Face texture '%s' of mesh '%s' uses '%s' mapping, which is not (yet) supported. Dropped Texture.",
			img.Name, mesh.Name, img.Mapping)
		return nil, res, nil
	}

	url, r, err := c.images.Export(img)
	res.Merge(r)
	if err != nil {
		return nil, res, fmt.Errorf("face texture of %s: %w", mesh.Name, err)
	}
	if url == "" {
		return nil, res, nil
	}

	entries := []xml3d.DataEntry{xml3d.Texture("diffuseTexture", url, xml3d.WrapRepeat)}
	if m.UseFaceTextureAlpha {
		entries = append(entries, xml3d.Bool("useDiffuseTextureAlpha", true))
	}
	return entries, res, nil
}
