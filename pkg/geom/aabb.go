// Package geom provides the geometric helpers used by the resource builders:
// bounding boxes, polygon normals and ear-clipping triangulation.
package geom

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAABB returns the box spanning a single point.
func NewAABB(p mgl32.Vec3) AABB {
	return AABB{Min: p, Max: p}
}

// BoundsOf returns the box of all points. Empty input gives a zero box.
func BoundsOf(points []mgl32.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	b := NewAABB(points[0])
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}

// Extend grows the box to contain p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union returns the box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtents returns half of the box size on each axis.
func (b AABB) HalfExtents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// LongestAxis returns the axis with the largest half-extent.
// Ties resolve to the first axis in x, y, z order.
func (b AABB) LongestAxis() int {
	h := b.HalfExtents()
	axis := 0
	for i := 1; i < 3; i++ {
		if h[i] > h[axis] {
			axis = i
		}
	}
	return axis
}

// Floats returns min then max as six floats.
func (b AABB) Floats() [6]float32 {
	return [6]float32{b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2]}
}
