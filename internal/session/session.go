// Package session holds the state of one export run: output locations,
// configuration and every per-run cache and library.
package session

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/armature"
	"github.com/Faultbox/xml3d-exporter/internal/assets"
	"github.com/Faultbox/xml3d-exporter/internal/config"
	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/internal/material"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// Output layout below the document directory.
const (
	AssetDir        = "assets"
	TextureDir      = "textures"
	InfoDir         = "info"
	MaterialLibrary = "materials.xml"
	ArmatureLibrary = "armatures.xml"
)

// Session is the context of one export run. It must not be shared between
// runs.
type Session struct {
	Config    *config.Config
	Scene     *scene.Scene
	Evaluator scene.Evaluator

	// BaseDir is the directory of the root document.
	BaseDir string

	Images    *assets.Exporter
	Materials *material.Converter
	Shared    *material.Library
	Armatures *armature.Library

	finalized bool
	log       *zap.Logger
}

// New creates a session writing below baseDir.
func New(cfg *config.Config, sc *scene.Scene, eval scene.Evaluator, baseDir string) *Session {
	if eval == nil {
		eval = scene.StaticEvaluator{}
	}
	images := assets.NewExporter(baseDir, assets.Options{
		Dir:       TextureDir,
		URLPrefix: "../" + TextureDir + "/",
		Format:    cfg.Textures.Format,
	})
	return &Session{
		Config:    cfg,
		Scene:     sc,
		Evaluator: eval,
		BaseDir:   baseDir,
		Images:    images,
		Materials: material.NewConverter(images, sc.World),
		Shared:    material.NewLibrary(MaterialLibrary),
		Armatures: armature.NewLibrary(ArmatureLibrary, float64(sc.FPS)),
		log:       logger.Named("session"),
	}
}

// AssetPath returns the path of a file in the asset directory, creating
// the directory if needed.
func (s *Session) AssetPath(name string) (string, error) {
	dir, err := s.assetDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (s *Session) assetDir() (string, error) {
	dir := filepath.Join(s.BaseDir, AssetDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating asset directory: %w", err)
	}
	return dir, nil
}

// Finalize writes the shared libraries and copies pending textures. It may
// be called once.
func (s *Session) Finalize() (report.Result, error) {
	var res report.Result
	if s.finalized {
		return res, nil
	}
	s.finalized = true

	dir := filepath.Join(s.BaseDir, AssetDir)
	if s.Shared.Len() > 0 || s.Armatures.Len() > 0 {
		var err error
		if dir, err = s.assetDir(); err != nil {
			return res, err
		}
	}

	r, err := s.Shared.Save(dir)
	res.Merge(r)
	if err != nil {
		return res, err
	}
	r, err = s.Armatures.Save(dir)
	res.Merge(r)
	if err != nil {
		return res, err
	}
	res.Merge(s.Images.Flush())

	hits, misses := s.Images.Stats()
	s.log.Debug("session finalized",
		zap.Int("materials", s.Shared.Len()),
		zap.Int("armatures", s.Armatures.Len()),
		zap.Int("image_cache_hits", hits),
		zap.Int("image_cache_misses", misses))
	return res, nil
}
