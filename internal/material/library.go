package material

import (
	"fmt"
	"path/filepath"

	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// Library is an ordered set of materials, one entry per converted
// material. A library without a URL is embedded in the document that
// references it.
type Library struct {
	url     string
	scope   *naming.Scope
	entries []libraryEntry
	ids     map[*Material]string
}

type libraryEntry struct {
	id     string
	script string
	mat    *Material
}

// NewLibrary creates a library with its own id scope. url is the file name
// used in references, or empty for an embedded library.
func NewLibrary(url string) *Library {
	return NewLibraryIn(url, naming.NewScope())
}

// NewLibraryIn creates a library minting ids from scope, which is shared
// with the other elements of the document.
func NewLibraryIn(url string, scope *naming.Scope) *Library {
	return &Library{url: url, scope: scope, ids: make(map[*Material]string)}
}

// Add registers m and returns the reference URL. Adding the same material
// again returns the same URL. Distinct materials whose names map to the
// same id get suffixed ids.
func (l *Library) Add(m *Material) string {
	id, ok := l.ids[m]
	if !ok {
		id = l.scope.ID(m.ID)
		e := libraryEntry{id: id, mat: m}
		if m.Program != nil {
			e.script = l.scope.ID(scriptID(id))
		}
		l.ids[m] = id
		l.entries = append(l.entries, e)
	}
	if l.url == "" {
		return "#" + id
	}
	return "./" + l.url + "#" + id
}

// Len returns the number of materials.
func (l *Library) Len() int {
	return len(l.entries)
}

// Elements returns the elements of all materials in insertion order.
func (l *Library) Elements() []*xml3d.Element {
	var out []*xml3d.Element
	for _, e := range l.entries {
		out = append(out, e.mat.elements(e.id, e.script)...)
	}
	return out
}

// Save writes the library into dir. Empty libraries write nothing.
func (l *Library) Save(dir string) (report.Result, error) {
	var res report.Result
	if len(l.entries) == 0 || l.url == "" {
		return res, nil
	}

	root := xml3d.NewElement("xml3d").Append(l.Elements()...)
	size, err := xml3d.WriteFile(filepath.Join(dir, l.url), root)
	if err != nil {
		return res, fmt.Errorf("writing material library: %w", err)
	}
	res.Materials = append(res.Materials, report.FileStat{Name: l.url, Size: size})
	return res, nil
}
