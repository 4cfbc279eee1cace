// Package report collects export statistics and warnings. Pipeline
// components return a Result; the orchestrator merges them into one Report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/logger"
)

// Warning categories.
const (
	CategoryGeometry = "geometry"
	CategoryTexture  = "texture"
	CategoryMaterial = "material"
	CategoryLamp     = "lamp"
	CategoryCamera   = "camera"
	CategoryWorld    = "world"
	CategoryArmature = "armature"
	CategoryObject   = "object"
	CategoryIO       = "io"
)

// Warning records one degraded or dropped feature. Issue refers to a known
// limitation number in the exporter's issue tracker.
type Warning struct {
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Issue    int    `json:"issue,omitempty"`
	Object   string `json:"object,omitempty"`
}

// FileStat is a written file and its size in bytes.
type FileStat struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Result is the outcome of one component call.
type Result struct {
	Warnings  []Warning
	Assets    []FileStat
	Materials []FileStat
	Textures  []FileStat
	Armatures []FileStat
	Meshes    []string
	Lights    int
	Views     int
	Groups    int
}

// Warn appends a warning.
func (r *Result) Warn(category, object string, issue int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{
		Message:  fmt.Sprintf(format, args...),
		Category: category,
		Issue:    issue,
		Object:   object,
	})
}

// Merge adds the contents of o to r.
func (r *Result) Merge(o Result) {
	r.Warnings = append(r.Warnings, o.Warnings...)
	r.Assets = append(r.Assets, o.Assets...)
	r.Materials = append(r.Materials, o.Materials...)
	r.Textures = append(r.Textures, o.Textures...)
	r.Armatures = append(r.Armatures, o.Armatures...)
	r.Meshes = append(r.Meshes, o.Meshes...)
	r.Lights += o.Lights
	r.Views += o.Views
	r.Groups += o.Groups
}

// Report is the statistics document written next to the export.
type Report struct {
	RunID     string     `json:"run_id"`
	Generator string     `json:"generator"`
	Created   time.Time  `json:"created"`
	Scene     *FileStat  `json:"scene,omitempty"`
	Assets    []FileStat `json:"assets"`
	Materials []FileStat `json:"materials"`
	Textures  []FileStat `json:"textures"`
	Armatures []FileStat `json:"armatures"`
	Meshes    []string   `json:"meshes"`
	Lights    int        `json:"lights"`
	Views     int        `json:"views"`
	Groups    int        `json:"groups"`
	Warnings  []Warning  `json:"warnings"`
}

// New assembles a report from the merged result of a run and logs its
// warnings.
func New(generator string, res Result) *Report {
	r := &Report{
		RunID:     uuid.New().String(),
		Generator: generator,
		Created:   time.Now().UTC(),
		Assets:    nonNil(res.Assets),
		Materials: nonNil(res.Materials),
		Textures:  nonNil(res.Textures),
		Armatures: nonNil(res.Armatures),
		Meshes:    nonNil(res.Meshes),
		Lights:    res.Lights,
		Views:     res.Views,
		Groups:    res.Groups,
		Warnings:  nonNil(res.Warnings),
	}
	log := logger.Named("report")
	for _, w := range r.Warnings {
		log.Warn(w.Message,
			zap.String("category", w.Category),
			zap.String("object", w.Object),
			zap.Int("issue", w.Issue))
	}
	return r
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by WriteFile.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &r, nil
}
