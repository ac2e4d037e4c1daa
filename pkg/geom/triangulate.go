package geom

import "github.com/go-gl/mathgl/mgl32"

// PositionFunc returns the position of a point by index.
type PositionFunc func(i int) mgl32.Vec3

// TriangleNormal returns the normalized normal of triangle (a, b, c),
// computed as (a-b) x (c-b).
func TriangleNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := a.Sub(b).Cross(c.Sub(b))
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// PolygonNormal returns the normalized Newell normal of a closed loop.
func PolygonNormal(loop []int, pos PositionFunc) mgl32.Vec3 {
	var nrm mgl32.Vec3
	n := len(loop)
	for i := 0; i < n; i++ {
		j := i - 1
		if j < 0 {
			j = n - 1
		}
		ith := pos(loop[i])
		jth := pos(loop[j])
		d := ith.Sub(jth)
		s := ith.Add(jth)
		nrm = nrm.Add(mgl32.Vec3{d[1] * s[2], d[2] * s[0], d[0] * s[1]})
	}
	if l := nrm.Len(); l > 0 {
		nrm = nrm.Mul(1 / l)
	}
	return nrm
}

// LoopNormal picks the triangle normal for 3-point loops and the Newell normal otherwise.
func LoopNormal(loop []int, pos PositionFunc) mgl32.Vec3 {
	if len(loop) == 3 {
		return TriangleNormal(pos(loop[0]), pos(loop[1]), pos(loop[2]))
	}
	return PolygonNormal(loop, pos)
}

// PointInTriangle reports whether p lies inside triangle (a, b, c).
// Points on an edge count as inside.
func PointInTriangle(p, a, b, c mgl32.Vec3) bool {
	a = a.Sub(p)
	b = b.Sub(p)
	c = c.Sub(p)
	u := b.Cross(c)
	if u.Dot(c.Cross(a)) < 0 {
		return false
	}
	if u.Dot(a.Cross(b)) < 0 {
		return false
	}
	return true
}

// link is one entry of the cyclic list of loop positions still in the polygon.
type link struct {
	prev, next int
}

// Triangulate splits a polygon loop into len(loop)-2 triangles by ear clipping.
// The result holds loop positions (not point indices) in triples with the winding of the input.
// normal is the reference polygon normal used for the concavity test.
func Triangulate(loop []int, pos PositionFunc, normal mgl32.Vec3) []int {
	n := len(loop)
	if n < 3 {
		return nil
	}
	if n == 3 {
		return []int{0, 1, 2}
	}

	lnk := make([]link, n)
	for i := range lnk {
		lnk[i] = link{prev: (i + n - 1) % n, next: (i + 1) % n}
	}

	tris := make([]int, 0, (n-2)*3)
	cnt := n
	idx := 0
	misses := 0
	for cnt > 3 {
		prev := lnk[idx].prev
		next := lnk[idx].next
		p0 := pos(loop[prev])
		p1 := pos(loop[idx])
		p2 := pos(loop[next])

		ear := TriangleNormal(p0, p1, p2).Dot(normal) >= 0
		if ear {
			for j := lnk[next].next; j != prev; j = lnk[j].next {
				if PointInTriangle(pos(loop[j]), p0, p1, p2) {
					ear = false
					break
				}
			}
		}

		// A full lap without an ear means the loop is degenerate; clip anyway.
		if !ear && misses < cnt {
			misses++
			idx = next
			continue
		}

		tris = append(tris, prev, idx, next)
		lnk[prev].next = next
		lnk[next].prev = prev
		cnt--
		misses = 0
		idx = prev
	}
	tris = append(tris, lnk[idx].prev, idx, lnk[idx].next)
	return tris
}
