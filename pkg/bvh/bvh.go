// Package bvh builds the bounding volume hierarchy stored in collision resources.
package bvh

import (
	"encoding/binary"
	"math"

	"github.com/Faultbox/gwexport/pkg/geom"
)

// RecordSize is the size of one serialized node.
const RecordSize = 32

// Item is a primitive to be placed in the tree.
type Item struct {
	ID  int
	Box geom.AABB
}

// Node is a tree node. Leaves have Left == Right == -1 and a valid Item.
// Internal nodes have Item == -1.
type Node struct {
	Box   geom.AABB
	Left  int
	Right int
	Item  int
}

// IsLeaf reports whether the node references an item.
func (n Node) IsLeaf() bool {
	return n.Right < 0
}

// Tree is a flat BVH; Nodes[0] is the root.
type Tree struct {
	Nodes []Node
	order []int
	items []Item
}

// Build constructs the tree over items. Nodes are numbered in creation order:
// both children of a node are allocated before either subtree is built.
// An empty input yields an empty tree.
func Build(items []Item) *Tree {
	t := &Tree{items: items}
	if len(items) == 0 {
		return t
	}
	t.order = make([]int, len(items))
	for i := range t.order {
		t.order[i] = i
	}

	bounds := items[0].Box
	for _, it := range items[1:] {
		bounds = bounds.Union(it.Box)
	}

	root := t.newNode()
	t.build(root, 0, len(items), bounds.LongestAxis())
	return t
}

// Leaves returns the number of leaf nodes.
func (t *Tree) Leaves() int {
	n := 0
	for _, nd := range t.Nodes {
		if nd.IsLeaf() {
			n++
		}
	}
	return n
}

// Internal returns the number of internal nodes.
func (t *Tree) Internal() int {
	return len(t.Nodes) - t.Leaves()
}

// Append serializes all nodes: six bbox floats, then (left, right) for
// internal nodes or (item, -1) for leaves.
func (t *Tree) Append(dst []byte) []byte {
	for _, nd := range t.Nodes {
		for _, f := range nd.Box.Floats() {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
		}
		first := nd.Left
		if nd.IsLeaf() {
			first = nd.Item
		}
		dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(first)))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(nd.Right)))
	}
	return dst
}

func (t *Tree) newNode() int {
	t.Nodes = append(t.Nodes, Node{Left: -1, Right: -1, Item: -1})
	return len(t.Nodes) - 1
}

func (t *Tree) leaf(node, at int) {
	it := t.items[t.order[at]]
	t.Nodes[node].Item = it.ID
	t.Nodes[node].Box = it.Box
}

func (t *Tree) boundsOf(at, cnt int) geom.AABB {
	b := t.items[t.order[at]].Box
	for i := 1; i < cnt; i++ {
		b = b.Union(t.items[t.order[at+i]].Box)
	}
	return b
}

func (t *Tree) build(node, at, cnt, axis int) {
	switch {
	case cnt == 1:
		t.leaf(node, at)
	case cnt == 2:
		left := t.newNode()
		t.leaf(left, at)
		right := t.newNode()
		t.leaf(right, at+1)
		t.Nodes[node].Left = left
		t.Nodes[node].Right = right
		t.Nodes[node].Box = t.Nodes[left].Box.Union(t.Nodes[right].Box)
	default:
		box := t.boundsOf(at, cnt)
		t.Nodes[node].Box = box
		pivot := (box.Min[axis] + box.Max[axis]) * 0.5
		mid := t.split(at, cnt, pivot, axis)
		next := (axis + 1) % 3

		left := t.newNode()
		right := t.newNode()
		t.Nodes[node].Left = left
		t.Nodes[node].Right = right
		t.build(left, at, mid, next)
		t.build(right, at+mid, cnt-mid, next)
	}
}

// split moves items whose center lies below pivot to the front of the range.
// A one-sided partition falls back to halving the range.
func (t *Tree) split(at, cnt int, pivot float32, axis int) int {
	mid := 0
	for i := 0; i < cnt; i++ {
		if t.items[t.order[at+i]].Box.Center()[axis] < pivot {
			t.order[at+i], t.order[at+mid] = t.order[at+mid], t.order[at+i]
			mid++
		}
	}
	if mid == 0 || mid == cnt {
		mid = cnt / 2
	}
	return mid
}
