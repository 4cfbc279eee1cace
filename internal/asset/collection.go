package asset

import (
	"fmt"

	"github.com/Faultbox/xml3d-exporter/internal/material"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// Collection is one asset library file with its embedded materials.
// Assets and embedded materials share one id scope.
type Collection struct {
	Name      string
	Assets    []*Asset
	ids       *naming.Scope
	materials *material.Library
}

func newCollection(name string) *Collection {
	ids := naming.NewScope()
	return &Collection{Name: name, ids: ids, materials: material.NewLibraryIn("", ids)}
}

// File returns the file name of the collection.
func (c *Collection) File() string {
	return c.Name + ".xml"
}

// Element returns the document root: embedded materials, then assets.
func (c *Collection) Element() *xml3d.Element {
	root := xml3d.NewElement("xml3d")
	root.Append(c.materials.Elements()...)
	for _, a := range c.Assets {
		root.Append(a.Element())
	}
	return root
}

// Save writes the collection to path.
func (c *Collection) Save(path string) (report.Result, error) {
	var res report.Result
	size, err := xml3d.WriteFile(path, c.Element())
	if err != nil {
		return res, fmt.Errorf("writing asset collection %s: %w", c.Name, err)
	}
	res.Assets = append(res.Assets, report.FileStat{Name: c.File(), Size: size})
	return res, nil
}
