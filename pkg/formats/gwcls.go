package formats

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gwexport/internal/scene"
	"github.com/Faultbox/gwexport/pkg/bvh"
	"github.com/Faultbox/gwexport/pkg/geom"
	"github.com/Faultbox/gwexport/pkg/rsrc"
)

// GWCls header field offsets.
const (
	clsOffsPath    = 0x20
	clsOffsNumPnt  = 0x24
	clsOffsNumPol  = 0x28
	clsOffsPnt     = 0x2C
	clsOffsPol     = 0x30
	clsOffsTri     = 0x34
	clsOffsIdx     = 0x38
	clsOffsBVH     = 0x3C
	clsOffsBBox    = 0x40
	clsHeaderSize  = 0x58
	PolyRecordSize = 0x30
)

// collisionPoly is a polygon with its derived data.
type collisionPoly struct {
	loop    scene.Polygon
	box     geom.AABB
	normal  mgl32.Vec3
	idxOffs int32
	tris    []int // loop positions, nil for triangles
	triOffs int32
}

// BuildCollision serializes a collision snapshot into a GWCls resource.
// Loops with fewer than three points are skipped; no remaining polygon yields ErrEmptyGeometry.
func BuildCollision(c *scene.Collision, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	pos := func(i int) mgl32.Vec3 { return c.Points[i] }

	var polys []*collisionPoly
	for pi, loop := range c.Polygons {
		if len(loop) < 3 {
			continue
		}
		for _, idx := range loop {
			if idx < 0 || idx >= len(c.Points) {
				return nil, fmt.Errorf("%w: polygon %d references point %d of %d", ErrBadIndex, pi, idx, len(c.Points))
			}
		}
		p := &collisionPoly{loop: loop, triOffs: -1}
		p.normal = geom.LoopNormal(loop, pos)
		p.box = geom.NewAABB(pos(loop[0]))
		for _, idx := range loop[1:] {
			p.box = p.box.Extend(pos(idx))
		}
		polys = append(polys, p)
	}
	if len(polys) == 0 {
		return nil, ErrEmptyGeometry
	}

	strs := o.table()
	pathOffs := strs.Add(c.Path)

	var idx []int32
	for _, p := range polys {
		p.idxOffs = int32(len(idx))
		for _, i := range p.loop {
			idx = append(idx, int32(i))
		}
	}

	var tris []int32
	for _, p := range polys {
		if len(p.loop) < 4 {
			continue
		}
		p.tris = geom.Triangulate(p.loop, pos, p.normal)
		p.triOffs = int32(len(tris))
		for _, t := range p.tris {
			tris = append(tris, int32(t))
		}
	}

	items := make([]bvh.Item, len(polys))
	bounds := polys[0].box
	for i, p := range polys {
		items[i] = bvh.Item{ID: i, Box: p.box}
		bounds = bounds.Union(p.box)
	}
	tree := bvh.Build(items)

	w := rsrc.NewWriter()
	w.WriteHeader("GWCls", CollisionVersion)
	w.U32(0) // file size
	w.U32(0) // strings
	w.U32(uint32(strs.Len()))
	w.U32(pathOffs)
	w.I32(int32(len(c.Points)))
	w.I32(int32(len(polys)))
	for offs := clsOffsPnt; offs <= clsOffsBVH; offs += 4 {
		w.U32(0)
	}
	box := bounds.Floats()
	w.Floats(box[:])

	w.Align(rsrc.SectionAlign)
	w.PatchHere(rsrc.SlotAt(clsOffsPol))
	for _, p := range polys {
		w.Vec3(p.box.Min)
		w.Vec3(p.box.Max)
		w.Vec3(p.normal)
		w.I32(p.idxOffs)
		w.I32(int32(len(p.loop)))
		w.I32(p.triOffs)
	}

	w.Align(rsrc.SectionAlign)
	w.PatchHere(rsrc.SlotAt(clsOffsPnt))
	for _, p := range c.Points {
		w.Vec3(p)
	}

	w.PatchHere(rsrc.SlotAt(clsOffsIdx))
	for _, i := range idx {
		w.I32(i)
	}

	w.PatchHere(rsrc.SlotAt(clsOffsTri))
	for _, t := range tris {
		w.I32(t)
	}

	w.PatchHere(rsrc.SlotAt(clsOffsBVH))
	w.Raw(tree.Append(nil))

	return w.Finish(strs.Bytes())
}
