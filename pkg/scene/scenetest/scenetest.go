// Package scenetest builds small in-memory scenes for tests.
package scenetest

import (
	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

var cubeCorners = []math.Vec3{
	{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1},
}

var cubeFaces = []struct {
	verts  []int
	normal math.Vec3
}{
	{[]int{0, 3, 2, 1}, math.Vec3{Z: -1}},
	{[]int{4, 5, 6, 7}, math.Vec3{Z: 1}},
	{[]int{0, 1, 5, 4}, math.Vec3{Y: -1}},
	{[]int{2, 3, 7, 6}, math.Vec3{Y: 1}},
	{[]int{1, 2, 6, 5}, math.Vec3{X: 1}},
	{[]int{0, 4, 7, 3}, math.Vec3{X: -1}},
}

// Cube returns a closed quad cube with 8 vertices. Vertex normals point away
// from the center.
func Cube(name string, smooth bool) *scene.Mesh {
	m := &scene.Mesh{Name: name}
	for _, c := range cubeCorners {
		m.Vertices = append(m.Vertices, scene.Vertex{Co: c, Normal: c.Normalize()})
	}
	for _, f := range cubeFaces {
		m.Polygons = append(m.Polygons, scene.Polygon{
			Vertices: append([]int(nil), f.verts...),
			Normal:   f.normal,
			Smooth:   smooth,
		})
	}
	return m
}

// Material returns a plain material with typical defaults.
func Material(name string) *scene.Material {
	return &scene.Material{
		Name:              name,
		Users:             2,
		DiffuseColor:      scene.Color{0.8, 0.8, 0.8},
		DiffuseIntensity:  0.8,
		SpecularColor:     scene.Color{1, 1, 1},
		SpecularIntensity: 0.5,
		SpecularHardness:  50,
		Ambient:           1,
		Alpha:             1,
	}
}

// Object returns a mesh object at the origin.
func Object(name string, mesh *scene.Mesh) *scene.Object {
	return &scene.Object{
		Name:                name,
		Type:                scene.TypeMesh,
		Mesh:                mesh,
		Layers:              []bool{true},
		MatrixWorld:         math.Identity(),
		MatrixBasis:         math.Identity(),
		MatrixParentInverse: math.Identity(),
		Rotation:            math.QuatIdentity(),
		Scale:               math.Vec3{X: 1, Y: 1, Z: 1},
	}
}

// PNG returns a packed 1x1 PNG image.
func PNG(name string) *scene.Image {
	return &scene.Image{
		Name:       name,
		Source:     scene.ImageSourceFile,
		FileFormat: "PNG",
		Packed:     OnePixelPNG,
		Width:      1,
		Height:     1,
	}
}

// OnePixelPNG is a valid 1x1 opaque white PNG file.
var OnePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde, 0x00, 0x00, 0x00,
	0x0c, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xff, 0xff, 0x3f,
	0x00, 0x05, 0xfe, 0x02, 0xfe, 0x0d, 0xef, 0x46, 0xb8, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
