package exporter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// ViewInfo is a camera or viewport snapshot.
type ViewInfo struct {
	ViewMatrix        string    `json:"view_matrix"`
	PerspectiveMatrix string    `json:"perspective_matrix"`
	Translation       []float64 `json:"translation"`
	Rotation          []float64 `json:"rotation"` // w, x, y, z
}

// RenderSettings are the playback settings of the scene.
type RenderSettings struct {
	FPS int `json:"fps"`
}

// HostConfig is the viewport snapshot written next to the export.
type HostConfig struct {
	Layers         []bool         `json:"layers"`
	Views          []ViewInfo     `json:"views"`
	RenderSettings RenderSettings `json:"render-settings"`
}

func viewFromWorld(world math.Mat4, view math.Mat4, perspective string) ViewInfo {
	loc, rot, _ := world.Decompose()
	return ViewInfo{
		ViewMatrix:        view.CSSMatrix3D(),
		PerspectiveMatrix: perspective,
		Translation:       loc.Slice(),
		Rotation:          []float64{rot.W, rot.X, rot.Y, rot.Z},
	}
}

// hostConfig snapshots the active camera and the viewports of sc.
func hostConfig(sc *scene.Scene) HostConfig {
	cfg := HostConfig{
		Layers:         sc.Layers,
		Views:          []ViewInfo{},
		RenderSettings: RenderSettings{FPS: sc.FPS},
	}
	if cfg.Layers == nil {
		cfg.Layers = []bool{}
	}
	if cam := sc.Camera; cam != nil {
		cfg.Views = append(cfg.Views, viewFromWorld(cam.MatrixWorld, cam.MatrixWorld.Invert(), ""))
	}
	for _, vp := range sc.Viewports {
		cfg.Views = append(cfg.Views, viewFromWorld(vp.ViewMatrix.Invert(), vp.ViewMatrix, vp.PerspectiveMatrix.CSSMatrix3D()))
	}
	return cfg
}

// writeHostConfig writes the snapshot of sc to path.
func writeHostConfig(path string, sc *scene.Scene) error {
	data, err := json.MarshalIndent(hostConfig(sc), "", "    ")
	if err != nil {
		return fmt.Errorf("encoding host config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing host config %s: %w", path, err)
	}
	return nil
}
