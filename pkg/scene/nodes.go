package scene

// NodeTree is a procedural shader graph.
type NodeTree struct {
	Nodes []*Node
}

// Output returns the first node of the given type.
func (t *NodeTree) Output(nodeType string) *Node {
	for _, n := range t.Nodes {
		if n.Type == nodeType {
			return n
		}
	}
	return nil
}

// Node is one shader node. Type is the host's static type name.
type Node struct {
	Name   string
	Type   string
	Inputs []*Socket
	Image  *Image
}

// Input returns the input socket with the given name.
func (n *Node) Input(name string) *Socket {
	for _, s := range n.Inputs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// InputAt returns the input at index i, or nil.
func (n *Node) InputAt(i int) *Socket {
	if i < 0 || i >= len(n.Inputs) {
		return nil
	}
	return n.Inputs[i]
}

// Socket types.
const (
	SocketValue  = "VALUE"
	SocketRGBA   = "RGBA"
	SocketVector = "VECTOR"
	SocketShader = "SHADER"
)

// Socket is a node input. A linked socket takes its value from From.
type Socket struct {
	Name    string
	Type    string
	Default []float64
	From    *Node
}

// Linked reports whether the socket is fed by another node.
func (s *Socket) Linked() bool {
	return s != nil && s.From != nil
}
