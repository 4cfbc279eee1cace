// Package scenefile reads scenes from files: YAML or JSON scene dumps and
// glTF 2.0 documents.
package scenefile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

var (
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported scene file format")
	// ErrUnknownReference is returned when a dump names missing data.
	ErrUnknownReference = errors.New("unknown reference")
)

// Load reads the scene at path, choosing the reader by file extension.
func Load(path string) (*scene.Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return LoadDump(path)
	case ".gltf", ".glb":
		return LoadGLTF(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Supported reports whether Load can read path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".gltf", ".glb":
		return true
	}
	return false
}
