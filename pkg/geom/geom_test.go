package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func posOf(pts []mgl32.Vec3) PositionFunc {
	return func(i int) mgl32.Vec3 { return pts[i] }
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

// triArea returns the signed area along normal for a triangle of loop positions.
func triArea(pts []mgl32.Vec3, loop []int, i0, i1, i2 int, normal mgl32.Vec3) float32 {
	a := pts[loop[i0]]
	b := pts[loop[i1]]
	c := pts[loop[i2]]
	return a.Sub(b).Cross(c.Sub(b)).Dot(normal) * 0.5
}

func TestAABB(t *testing.T) {
	b := BoundsOf([]mgl32.Vec3{{1, 2, 3}, {-1, 5, 0}, {0, 0, 4}})
	if b.Min != (mgl32.Vec3{-1, 0, 0}) || b.Max != (mgl32.Vec3{1, 5, 4}) {
		t.Errorf("bounds = %v", b)
	}
	if c := b.Center(); c != (mgl32.Vec3{0, 2.5, 2}) {
		t.Errorf("center = %v", c)
	}
	if h := b.HalfExtents(); h != (mgl32.Vec3{1, 2.5, 2}) {
		t.Errorf("half extents = %v", h)
	}
	if a := b.LongestAxis(); a != 1 {
		t.Errorf("longest axis = %d, want 1", a)
	}

	u := NewAABB(mgl32.Vec3{0, 0, 0}).Union(AABB{Min: mgl32.Vec3{2, 2, 2}, Max: mgl32.Vec3{3, 3, 3}})
	if u.Floats() != [6]float32{0, 0, 0, 3, 3, 3} {
		t.Errorf("union = %v", u.Floats())
	}
}

func TestLongestAxis_TieBreak(t *testing.T) {
	b := AABB{Max: mgl32.Vec3{2, 2, 2}}
	if a := b.LongestAxis(); a != 0 {
		t.Errorf("cube longest axis = %d, want 0", a)
	}
	b = AABB{Max: mgl32.Vec3{1, 3, 3}}
	if a := b.LongestAxis(); a != 1 {
		t.Errorf("y/z tie longest axis = %d, want 1", a)
	}
}

func TestNormals_Agree(t *testing.T) {
	quad := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	pn := PolygonNormal(seq(4), posOf(quad))
	tn := TriangleNormal(quad[0], quad[1], quad[2])
	if !pn.ApproxEqual(tn) {
		t.Errorf("polygon normal %v disagrees with triangle normal %v", pn, tn)
	}
	if l := pn.Len(); l < 0.999 || l > 1.001 {
		t.Errorf("polygon normal not unit length: %v", l)
	}
}

func TestPointInTriangle(t *testing.T) {
	a := mgl32.Vec3{0, 0, 0}
	b := mgl32.Vec3{2, 0, 0}
	c := mgl32.Vec3{0, 2, 0}
	tests := []struct {
		p    mgl32.Vec3
		want bool
	}{
		{mgl32.Vec3{0.5, 0.5, 0}, true},
		{mgl32.Vec3{1, 0, 0}, true},
		{mgl32.Vec3{2, 2, 0}, false},
		{mgl32.Vec3{-1, 0.5, 0}, false},
	}
	for _, tt := range tests {
		if got := PointInTriangle(tt.p, a, b, c); got != tt.want {
			t.Errorf("PointInTriangle(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestTriangulate_Triangle(t *testing.T) {
	tris := Triangulate([]int{7, 8, 9}, nil, mgl32.Vec3{})
	if len(tris) != 3 || tris[0] != 0 || tris[1] != 1 || tris[2] != 2 {
		t.Errorf("triangle = %v, want [0 1 2]", tris)
	}
}

func TestTriangulate_Quad(t *testing.T) {
	pts := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	loop := seq(4)
	nrm := PolygonNormal(loop, posOf(pts))
	tris := Triangulate(loop, posOf(pts), nrm)
	if len(tris) != 6 {
		t.Fatalf("expected 2 triangles, got %d indices", len(tris))
	}

	var area float32
	for i := 0; i < len(tris); i += 3 {
		a := triArea(pts, loop, tris[i], tris[i+1], tris[i+2], nrm)
		if a <= 0 {
			t.Errorf("triangle %v has winding opposite to the polygon", tris[i:i+3])
		}
		area += a
	}
	if area < 0.999 || area > 1.001 {
		t.Errorf("total area = %v, want 1", area)
	}
	if tris[0] != 3 || tris[1] != 0 || tris[2] != 1 {
		t.Errorf("first ear = %v, want [3 0 1]", tris[:3])
	}
}

func TestTriangulate_Concave(t *testing.T) {
	// L shape, reflex vertex at position 3.
	pts := []mgl32.Vec3{
		{0, 0, 0}, {2, 0, 0}, {2, 1, 0}, {1, 1, 0}, {1, 2, 0}, {0, 2, 0},
	}
	loop := seq(len(pts))
	nrm := PolygonNormal(loop, posOf(pts))
	tris := Triangulate(loop, posOf(pts), nrm)
	if len(tris) != (len(pts)-2)*3 {
		t.Fatalf("expected %d triangles, got %d indices", len(pts)-2, len(tris))
	}

	var area float32
	for i := 0; i < len(tris); i += 3 {
		a := triArea(pts, loop, tris[i], tris[i+1], tris[i+2], nrm)
		if a < 0 {
			t.Errorf("triangle %v flipped", tris[i:i+3])
		}
		area += a
	}
	if area < 2.999 || area > 3.001 {
		t.Errorf("total area = %v, want 3", area)
	}
}

func TestTriangulate_DegenerateTerminates(t *testing.T) {
	// All points collinear: every candidate is rejected by the occlusion test.
	pts := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}}
	loop := seq(len(pts))
	tris := Triangulate(loop, posOf(pts), mgl32.Vec3{0, 0, 1})
	if len(tris) != 9 {
		t.Errorf("expected 3 triangles, got %d indices", len(tris))
	}
}
