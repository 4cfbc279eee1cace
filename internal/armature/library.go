package armature

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/xml3d-exporter/internal/logger"
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// Library collects the armatures of one export run, one per skeleton.
type Library struct {
	url       string
	fps       float64
	armatures []*Armature
	bySkel    map[*scene.Armature]*Armature
	log       *zap.Logger
}

// NewLibrary creates a library stored as url next to the asset files.
func NewLibrary(url string, fps float64) *Library {
	return &Library{
		url:    url,
		fps:    fps,
		bySkel: make(map[*scene.Armature]*Armature),
		log:    logger.Named("armature"),
	}
}

// Add registers the skeleton of an armature object and returns its record
// and reference URL. A skeleton is built once; later calls return the
// first record.
func (l *Library) Add(obj *scene.Object) (*Armature, string, report.Result) {
	var res report.Result
	skel := obj.Armature
	if a, ok := l.bySkel[skel]; ok {
		return a, l.Ref(a.ID), res
	}

	if len(skel.Bones) == 0 {
		res.Warn(report.CategoryArmature, obj.Name, 0, "Armature '%s' has no bones.", skel.Name)
	}
	a := Build(skel, obj.MatrixWorld, obj.Action, l.fps)
	l.bySkel[skel] = a
	l.armatures = append(l.armatures, a)

	l.log.Debug("armature added",
		zap.String("armature", a.ID),
		zap.Int("bones", len(a.BoneParents)),
		zap.Int("animations", len(a.Animations)))
	return a, l.Ref(a.ID), res
}

// Ref returns the URL of a data element in the library file.
func (l *Library) Ref(id string) string {
	return "./" + l.url + "#" + id
}

// Len returns the number of armatures.
func (l *Library) Len() int {
	return len(l.armatures)
}

// Elements returns one data element per armature and animation.
func (l *Library) Elements() []*xml3d.Element {
	local := func(id string) string { return "#" + id }

	var out []*xml3d.Element
	for _, a := range l.armatures {
		out = append(out, xml3d.NewElement("data").Set("id", a.ID).AppendData(a.Data(local)...))
		for _, anim := range a.Animations {
			out = append(out, xml3d.NewElement("data").Set("id", anim.ID).AppendData(anim.Data()...))
		}
	}
	return out
}

// Save writes the library into dir. Empty libraries write nothing.
func (l *Library) Save(dir string) (report.Result, error) {
	var res report.Result
	if len(l.armatures) == 0 {
		return res, nil
	}

	root := xml3d.NewElement("xml3d").Append(l.Elements()...)
	size, err := xml3d.WriteFile(filepath.Join(dir, l.url), root)
	if err != nil {
		return res, fmt.Errorf("writing armature library: %w", err)
	}
	res.Armatures = append(res.Armatures, report.FileStat{Name: l.url, Size: size})
	return res, nil
}
