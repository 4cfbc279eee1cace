// Package shadergraph compiles procedural shader node graphs into shade.js
// programs.
package shadergraph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

var (
	// ErrNoOutput is returned for graphs without a material output node.
	ErrNoOutput = errors.New("no material output node")
	// ErrCycle is returned when a node feeds into itself.
	ErrCycle = errors.New("node graph contains a cycle")
	// ErrSocketType is returned when a closure is linked into a value socket
	// or a value into a shader socket.
	ErrSocketType = errors.New("incompatible socket link")
)

// UnsupportedNodeError reports the first node type without a translation.
type UnsupportedNodeError struct {
	Type string
}

func (e *UnsupportedNodeError) Error() string {
	return fmt.Sprintf("Cycles node not (yet) supported: '%s'", e.Type)
}

// Host node type names.
const (
	NodeOutputMaterial = "OUTPUT_MATERIAL"
	NodeMixShader      = "MIX_SHADER"
	NodeTexImage       = "TEX_IMAGE"
	NodeBsdfDiffuse    = "BSDF_DIFFUSE"
	NodeBsdfGlossy     = "BSDF_GLOSSY"
)

// GlossyExponent is the fixed exponent passed to the Cook-Torrance closure.
const GlossyExponent = 1.7

// TextureBinding is an image sampled by the program through env.<Name>.
type TextureBinding struct {
	Name  string
	Image *scene.Image
}

// Program is a compiled node graph.
type Program struct {
	Func     *Function
	Textures []TextureBinding
}

// Source returns the program text.
func (p *Program) Source() string {
	return p.Func.Source()
}

// Compile translates the graph reachable from its material output. No
// partial program is returned on error.
func Compile(tree *scene.NodeTree) (*Program, error) {
	if tree == nil {
		return nil, ErrNoOutput
	}
	out := tree.Output(NodeOutputMaterial)
	if out == nil {
		return nil, ErrNoOutput
	}

	c := &compiler{
		bound:    make(map[string]bool),
		samplers: make(map[*scene.Node]string),
		visiting: make(map[*scene.Node]bool),
	}
	v, err := c.walk(out)
	if err != nil {
		return nil, err
	}

	body := append(c.body, &Return{Value: v.expr})
	return &Program{
		Func:     &Function{Name: "shade", Params: []string{"env"}, Body: body},
		Textures: c.textures,
	}, nil
}

// value is the result of compiling one node: either a plain expression or
// a list of shading closures.
type value struct {
	expr     Expr
	closures []*Call
}

type compiler struct {
	body     []Stmt
	hints    []string
	bound    map[string]bool
	samplers map[*scene.Node]string
	visiting map[*scene.Node]bool
	textures []TextureBinding
}

// variable derives a fresh name from the innermost hint and postfix.
func (c *compiler) variable(postfix string) string {
	prefix := ""
	if len(c.hints) > 0 {
		prefix = c.hints[len(c.hints)-1] + "_"
	}
	name := prefix + postfix
	for i := 0; c.bound[name]; i++ {
		name = prefix + postfix + strconv.Itoa(i)
	}
	c.bound[name] = true
	return name
}

func (c *compiler) withHint(hint string, fn func() (value, error)) (value, error) {
	c.hints = append(c.hints, hint)
	defer func() { c.hints = c.hints[:len(c.hints)-1] }()
	return fn()
}

func (c *compiler) walk(n *scene.Node) (value, error) {
	if c.visiting[n] {
		return value{}, fmt.Errorf("%w at node '%s'", ErrCycle, n.Name)
	}
	c.visiting[n] = true
	defer delete(c.visiting, n)

	sn, err := classify(n)
	if err != nil {
		return value{}, err
	}
	return sn.compile(c)
}

// expr resolves a value socket. An unlinked socket uses def when given,
// its literal default otherwise.
func (c *compiler) expr(s *scene.Socket, def Expr) (Expr, error) {
	if s.Linked() {
		v, err := c.walk(s.From)
		if err != nil {
			return nil, err
		}
		if v.expr == nil {
			return nil, fmt.Errorf("%w: shader linked into '%s'", ErrSocketType, s.Name)
		}
		return v.expr, nil
	}
	if def != nil {
		return def, nil
	}
	return literal(s), nil
}

// closures resolves a shader socket. Unlinked shader sockets contribute
// nothing.
func (c *compiler) closures(s *scene.Socket) ([]*Call, error) {
	if !s.Linked() {
		return nil, nil
	}
	v, err := c.walk(s.From)
	if err != nil {
		return nil, err
	}
	if v.expr != nil {
		return nil, fmt.Errorf("%w: value linked into shader socket '%s'", ErrSocketType, s.Name)
	}
	return v.closures, nil
}

func literal(s *scene.Socket) Expr {
	if s == nil || len(s.Default) == 0 {
		return &Literal{}
	}
	if s.Type == scene.SocketRGBA || s.Type == scene.SocketVector || len(s.Default) >= 3 {
		args := make([]Expr, 0, 3)
		for i := 0; i < 3; i++ {
			v := 0.0
			if i < len(s.Default) {
				v = s.Default[i]
			}
			args = append(args, &Literal{Value: v})
		}
		return &New{Callee: ident("Vec3"), Args: args}
	}
	return &Literal{Value: s.Default[0]}
}

// socket returns the input with the given name, falling back to position.
func socket(n *scene.Node, index int, name string) *scene.Socket {
	if s := n.Input(name); s != nil {
		return s
	}
	if index < len(n.Inputs) {
		return n.Inputs[index]
	}
	return &scene.Socket{Name: name}
}

func normalize(nodeType string) string {
	return strings.ToUpper(strings.TrimSpace(nodeType))
}
