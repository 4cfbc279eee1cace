package scene

import "github.com/Faultbox/xml3d-exporter/pkg/math"

// Mesh is a polygon mesh data-block. Several objects may share one Mesh.
type Mesh struct {
	Name      string
	Vertices  []Vertex
	Polygons  []Polygon
	Materials []*Material
	// UVLayers names the UV layers; polygon UVs refer to the active (first) one.
	UVLayers []string
}

// Vertex is one mesh vertex with its vertex group memberships.
type Vertex struct {
	Co     math.Vec3
	Normal math.Vec3
	Groups []GroupWeight
}

// GroupWeight assigns a vertex to the vertex group at Group.
type GroupWeight struct {
	Group  int
	Weight float64
}

// Polygon is one face. UV holds one coordinate per corner when the mesh has
// a UV layer. Image is the legacy per-face texture.
type Polygon struct {
	Vertices      []int
	Normal        math.Vec3
	Smooth        bool
	MaterialIndex int
	UV            []math.Vec2
	Image         *Image
}

// HasUV reports whether the mesh carries texture coordinates.
func (m *Mesh) HasUV() bool {
	return len(m.UVLayers) > 0
}

// Material data-block. Users counts references including the host's own.
type Material struct {
	Name  string
	Users int

	DiffuseColor      Color
	DiffuseIntensity  float64
	SpecularColor     Color
	SpecularIntensity float64
	SpecularHardness  float64
	Ambient           float64
	UseTransparency   bool
	Alpha             float64

	UseFaceTexture      bool
	UseFaceTextureAlpha bool

	TextureSlots []*TextureSlot
	NodeTree     *NodeTree
}

// TextureSlot binds a texture to a material channel.
type TextureSlot struct {
	Name               string
	Enabled            bool
	UseMapColorDiffuse bool
	DiffuseColorFactor float64
	TextureCoords      string
	Texture            *Texture
}

// Texture data-block.
type Texture struct {
	Name      string
	Type      string
	Image     *Image
	Extension string
}

// Image sources.
const (
	ImageSourceFile      = "FILE"
	ImageSourceVideo     = "VIDEO"
	ImageSourceGenerated = "GENERATED"
)

// Image is a raster data-block. Packed holds embedded file bytes. Pixels
// holds normalized RGBA rows from bottom to top.
type Image struct {
	Name       string
	Source     string
	FileFormat string
	Filepath   string
	Packed     []byte
	Width      int
	Height     int
	Pixels     []float64
	Mapping    string
}
