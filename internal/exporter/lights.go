package exporter

import (
	"github.com/Faultbox/xml3d-exporter/internal/report"
	"github.com/Faultbox/xml3d-exporter/pkg/naming"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
	"github.com/Faultbox/xml3d-exporter/pkg/xml3d"
)

// IssueLampType is the tracker issue for unsupported lamp types.
const IssueLampType = 4

// lightModel maps a host lamp type to its light shader model and the
// dataflow deriving the intensity.
type lightModel struct {
	name    string
	compute string
}

var lightModels = map[string]lightModel{
	"POINT": {"point", "intensity = xflow.blenderPoint(color, energy)"},
	"SPOT":  {"spot", "intensity = xflow.blenderSpot(color, energy)"},
	"SUN":   {"directional", "intensity = xflow.blenderSun(color, energy)"},
}

// Lamp falloff types.
const (
	FalloffConstant        = "CONSTANT"
	FalloffInverseLinear   = "INVERSE_LINEAR"
	FalloffInverseSquare   = "INVERSE_SQUARE"
	FalloffLinearQuadratic = "LINEAR_QUADRATIC_WEIGHTED"
)

func lightShaderID(l *scene.Lamp) string {
	return "ls_" + naming.ID(l.Name)
}

// defs returns the light shader definitions of all lamps.
func defs(lamps []*scene.Lamp) (*xml3d.Element, report.Result) {
	var res report.Result
	el := xml3d.NewElement("defs")
	for _, l := range lamps {
		model, ok := lightModels[l.Type]
		if !ok {
			res.Warn(report.CategoryLamp, l.Name, IssueLampType,
				"Lamp '%s' is of type '%s', which is not (yet) supported. Skipped lamp.", l.Name, l.Type)
			continue
		}

		shader := xml3d.NewElement("lightshader").
			Set("id", lightShaderID(l)).
			Set("script", "urn:xml3d:lightshader:"+model.name).
			Set("compute", model.compute)

		if l.Type == "SPOT" {
			shader.AppendData(
				xml3d.Float("falloffAngle", l.SpotSize/2),
				xml3d.Float("softness", l.SpotBlend))
		}
		if l.Type == "POINT" || l.Type == "SPOT" {
			atten, r := attenuation(l)
			res.Merge(r)
			shader.AppendData(xml3d.Float3("attenuation", atten))
		}
		shader.AppendData(
			xml3d.Float3("color", l.Color.Slice()),
			xml3d.Float("energy", l.Energy))
		el.Append(shader)
	}
	return el, res
}

// attenuation returns constant, linear and quadratic coefficients for the
// falloff of l.
func attenuation(l *scene.Lamp) ([]float64, report.Result) {
	var res report.Result
	switch l.FalloffType {
	case FalloffConstant:
	case FalloffInverseLinear:
		if l.Distance > 0 {
			return []float64{1, 1 / l.Distance, 0}, res
		}
	case FalloffInverseSquare:
		if l.Distance > 0 {
			return []float64{1, 0, 1 / (l.Distance * l.Distance)}, res
		}
	case FalloffLinearQuadratic:
		return []float64{1, l.LinearAttenuation, l.QuadraticAttenuation}, res
	default:
		res.Warn(report.CategoryLamp, l.Name, 0,
			"Lamp '%s' has falloff type '%s', which is not (yet) supported. Using CONSTANT instead.", l.Name, l.FalloffType)
	}
	return []float64{1, 0, 0}, res
}

// lightSupported reports whether a light shader exists for l.
func lightSupported(l *scene.Lamp) bool {
	_, ok := lightModels[l.Type]
	return ok
}
