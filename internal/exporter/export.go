package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/config"
	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/internal/session"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// Version of the exporter written into generated documents.
const Version = "0.2.0"

// Generator identifies the exporter in documents and reports.
const Generator = "xml3d-exporter v" + Version

// Side file names below the info directory.
const (
	InfoFile       = "xml3d-info.json"
	HostConfigFile = "blender-config.json"
)

// Run exports sc to the document at cfg.Export.Output. Assets, textures
// and side files are written next to it. The returned report lists
// everything that was written or degraded.
func Run(cfg *config.Config, sc *scene.Scene, eval scene.Evaluator) (*report.Report, error) {
	output, err := filepath.Abs(cfg.Export.Output)
	if err != nil {
		return nil, fmt.Errorf("resolving output path: %w", err)
	}
	baseDir := filepath.Dir(output)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	script, err := ScriptURL(cfg.Runtime)
	if err != nil {
		return nil, err
	}

	s := session.New(cfg, sc, eval, baseDir)
	asm := NewAssembler(s)
	root, err := asm.Scene()
	if err != nil {
		return nil, err
	}
	if err := asm.Finalize(); err != nil {
		return nil, err
	}

	page, err := Render(cfg.Export.Template, Page{
		Title:     sc.Name,
		XML3D:     root.String(),
		Script:    script,
		Generator: Generator,
	})
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(output, page, 0o644); err != nil {
		return nil, fmt.Errorf("writing document %s: %w", output, err)
	}

	rep := report.New(Generator, asm.Result())
	rep.Scene = &report.FileStat{Name: filepath.Base(output), Size: int64(len(page))}

	if cfg.Export.WriteStats {
		if err := writeInfo(baseDir, rep, sc); err != nil {
			return rep, err
		}
	}

	logger.Info("export finished",
		zap.String("scene", sc.Name),
		zap.String("output", output),
		zap.Int("assets", len(rep.Assets)),
		zap.Int("materials", len(rep.Materials)),
		zap.Int("textures", len(rep.Textures)),
		zap.Int("groups", rep.Groups),
		zap.Int("warnings", len(rep.Warnings)))
	return rep, nil
}

func writeInfo(baseDir string, rep *report.Report, sc *scene.Scene) error {
	dir := filepath.Join(baseDir, session.InfoDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating info directory: %w", err)
	}
	if err := rep.WriteFile(filepath.Join(dir, InfoFile)); err != nil {
		return err
	}
	return writeHostConfig(filepath.Join(dir, HostConfigFile), sc)
}
