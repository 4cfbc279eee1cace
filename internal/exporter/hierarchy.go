package exporter

import "github.com/Faultbox/xml3d-exporter/pkg/scene"

// node is one object of the exported hierarchy.
type node struct {
	obj      *scene.Object
	children []*node
}

// buildHierarchy links every object to its nearest exported ancestor.
// Objects whose ancestors are all excluded become roots. Enumeration order
// is preserved at every level.
func buildHierarchy(objects []*scene.Object) []*node {
	nodes := make(map[*scene.Object]*node, len(objects))
	for _, o := range objects {
		nodes[o] = &node{obj: o}
	}

	var roots []*node
	for _, o := range objects {
		parent := o.Parent
		for parent != nil && nodes[parent] == nil {
			parent = parent.Parent
		}
		if parent == nil {
			roots = append(roots, nodes[o])
			continue
		}
		nodes[parent].children = append(nodes[parent].children, nodes[o])
	}
	return roots
}

// count returns the number of nodes in the forest.
func count(nodes []*node) int {
	n := len(nodes)
	for _, c := range nodes {
		n += count(c.children)
	}
	return n
}
