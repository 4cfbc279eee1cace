package exporter

import (
	"fmt"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/xml3d-exporter/internal/config"
)

// LocalScriptDir is where a bundled runtime is expected, relative to the
// root document.
const LocalScriptDir = "common/scripts/xml3d"

// ScriptURL returns the URL of the xml3d.js runtime selected by rt.
func ScriptURL(rt config.RuntimeConfig) (string, error) {
	v, err := semver.NewVersion(rt.Version)
	if err != nil {
		return "", fmt.Errorf("runtime version %q: %w", rt.Version, err)
	}

	name := "xml3d-" + v.String()
	if rt.Minified {
		name += "-min"
	}
	name += ".js"

	if rt.Source == "local" {
		return path.Join(LocalScriptDir, name), nil
	}
	return strings.TrimRight(rt.RemoteURL, "/") + "/" + name, nil
}
