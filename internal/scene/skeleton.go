package scene

import "github.com/go-gl/mathgl/mgl32"

// Joint is a node of a skeleton hierarchy as authored, before flattening.
type Joint struct {
	Name     string
	Local    mgl32.Mat4
	Children []*Joint
}

// Find returns the first joint named name in depth-first order.
func (j *Joint) Find(name string) *Joint {
	if j.Name == name {
		return j
	}
	for _, c := range j.Children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// Flatten lays the hierarchy below root out in pre-order: each node, then its children
// in link order. Parent ids refer to positions in the returned slice.
func Flatten(root *Joint) []SkeletonNode {
	if root == nil {
		return nil
	}
	var nodes []SkeletonNode
	type frame struct {
		j      *Joint
		parent int
	}
	stack := []frame{{root, -1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := len(nodes)
		nodes = append(nodes, SkeletonNode{Name: f.j.Name, Local: f.j.Local, Parent: f.parent})
		for i := len(f.j.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.j.Children[i], id})
		}
	}
	return nodes
}

// SkeletonIndex maps node names to arena positions. Later duplicates do not override earlier ones.
func SkeletonIndex(nodes []SkeletonNode) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, ok := idx[n.Name]; !ok {
			idx[n.Name] = i
		}
	}
	return idx
}
