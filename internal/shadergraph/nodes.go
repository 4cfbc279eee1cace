package shadergraph

import (
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

// shaderNode is the closed set of translatable node kinds. Each variant
// holds the sockets it reads.
type shaderNode interface {
	compile(c *compiler) (value, error)
}

type outputMaterial struct {
	surface *scene.Socket
}

type mixShader struct {
	fac, first, second *scene.Socket
}

type texImage struct {
	node *scene.Node
}

type bsdfDiffuse struct {
	color, roughness, normal *scene.Socket
}

type bsdfGlossy struct {
	color, roughness, normal *scene.Socket
}

func classify(n *scene.Node) (shaderNode, error) {
	switch normalize(n.Type) {
	case NodeOutputMaterial:
		return outputMaterial{surface: socket(n, 0, "Surface")}, nil
	case NodeMixShader:
		return mixShader{
			fac:    socket(n, 0, "Fac"),
			first:  n.InputAt(1),
			second: n.InputAt(2),
		}, nil
	case NodeTexImage:
		return texImage{node: n}, nil
	case NodeBsdfDiffuse:
		return bsdfDiffuse{
			color:     socket(n, 0, "Color"),
			roughness: socket(n, 1, "Roughness"),
			normal:    socket(n, 2, "Normal"),
		}, nil
	case NodeBsdfGlossy:
		return bsdfGlossy{
			color:     socket(n, 0, "Color"),
			roughness: socket(n, 1, "Roughness"),
			normal:    socket(n, 2, "Normal"),
		}, nil
	default:
		return nil, &UnsupportedNodeError{Type: n.Type}
	}
}

// compile chains every closure onto a new Shade object and returns it.
func (o outputMaterial) compile(c *compiler) (value, error) {
	closures, err := c.closures(o.surface)
	if err != nil {
		return value{}, err
	}
	var chain Expr = &New{Callee: ident("Shade")}
	for _, cl := range closures {
		chain = &Call{Callee: member(chain, calleeName(cl)), Args: cl.Args}
	}
	return value{expr: chain}, nil
}

// compile scales the first argument of each closure by (1 - fac) or fac.
func (m mixShader) compile(c *compiler) (value, error) {
	fac, err := c.expr(m.fac, nil)
	if err != nil {
		return value{}, err
	}
	first, err := c.closures(m.first)
	if err != nil {
		return value{}, err
	}
	second, err := c.closures(m.second)
	if err != nil {
		return value{}, err
	}

	inverse := &Binary{Left: &Literal{Value: 1}, Op: "-", Right: fac}
	for _, cl := range first {
		scaleFirstArg(cl, inverse)
	}
	for _, cl := range second {
		scaleFirstArg(cl, fac)
	}
	return value{closures: append(first, second...)}, nil
}

func scaleFirstArg(cl *Call, factor Expr) {
	if len(cl.Args) == 0 {
		return
	}
	cl.Args[0] = &Call{Callee: member(cl.Args[0], "mul"), Args: []Expr{factor}}
}

// compile declares a variable holding a sample of the node's texture.
// Repeated uses of one node share the variable.
func (t texImage) compile(c *compiler) (value, error) {
	if name, ok := c.samplers[t.node]; ok {
		return value{expr: ident(name)}, nil
	}
	name := c.variable("texture")
	c.samplers[t.node] = name
	c.textures = append(c.textures, TextureBinding{Name: name, Image: t.node.Image})

	sample := &Call{
		Callee: member(ident("env"), name, "sample2d"),
		Args:   []Expr{member(ident("env"), "texcoord")},
	}
	c.body = append(c.body, &VarDecl{Name: name, Init: sample})
	return value{expr: ident(name)}, nil
}

func (d bsdfDiffuse) compile(c *compiler) (value, error) {
	return c.withHint("diffuse", func() (value, error) {
		args, err := c.exprs(
			sock{d.color, nil},
			sock{d.normal, member(ident("env"), "normal")},
			sock{d.roughness, nil},
		)
		if err != nil {
			return value{}, err
		}
		return value{closures: []*Call{{Callee: ident("diffuse"), Args: args}}}, nil
	})
}

func (g bsdfGlossy) compile(c *compiler) (value, error) {
	return c.withHint("glossy", func() (value, error) {
		args, err := c.exprs(
			sock{g.color, nil},
			sock{g.normal, member(ident("env"), "normal")},
			sock{nil, &Literal{Value: GlossyExponent}},
			sock{g.roughness, nil},
		)
		if err != nil {
			return value{}, err
		}
		return value{closures: []*Call{{Callee: ident("cookTorrance"), Args: args}}}, nil
	})
}

type sock struct {
	s   *scene.Socket
	def Expr
}

func (c *compiler) exprs(socks ...sock) ([]Expr, error) {
	out := make([]Expr, 0, len(socks))
	for _, s := range socks {
		if s.s == nil {
			out = append(out, s.def)
			continue
		}
		e, err := c.expr(s.s, s.def)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func calleeName(cl *Call) string {
	if id, ok := cl.Callee.(*Identifier); ok {
		return id.Name
	}
	return ExprString(cl.Callee)
}
