package formats

import (
	"fmt"

	"github.com/Faultbox/gwexport/internal/scene"
	"github.com/Faultbox/gwexport/pkg/attr"
	"github.com/Faultbox/gwexport/pkg/rsrc"
	"github.com/Faultbox/gwexport/pkg/skin"
	"github.com/Faultbox/gwexport/pkg/strtab"
)

// GWModel header field offsets.
const (
	mdlOffsPath     = 0x20
	mdlOffsNumPnt   = 0x24
	mdlOffsNumTri   = 0x28
	mdlOffsNumMtl   = 0x2C
	mdlOffsNumIdx16 = 0x30
	mdlOffsNumIdx32 = 0x34
	mdlOffsNumSkin  = 0x38
	mdlOffsNumSkel  = 0x3C
	mdlOffsPnt      = 0x40
	mdlOffsAttr     = 0x44
	mdlOffsMtl      = 0x48
	mdlOffsIdx16    = 0x4C
	mdlOffsIdx32    = 0x50
	mdlOffsSkin     = 0x54
	mdlOffsSkel     = 0x58
	mdlOffsAttrMask = 0x5C
	mdlOffsExtInfo  = 0x60
	mdlHeaderSize   = 0x64
)

// MaterialRecordSize is the size of one serialized material.
const MaterialRecordSize = 0x44

// shortIndexSpan is the exclusive upper bound of maxIdx-minIdx for 16-bit indices.
const shortIndexSpan = 1 << 16

// materialGroup is one material with the triangles that reference it.
type materialGroup struct {
	mtl         scene.Material
	pathOffs    int32
	baseMapOffs int32
	extOffs     int32
	tris        []int
	minIdx      int
	maxIdx      int
	idxOrg      int
}

func (g *materialGroup) short() bool {
	return g.maxIdx-g.minIdx < shortIndexSpan
}

// modelLayout is everything derived from the snapshot before writing.
type modelLayout struct {
	m         *scene.Model
	strs      *strtab.Table
	pathOffs  uint32
	extOffs   int32
	groups    []*materialGroup
	nIdx16    int
	nIdx32    int
	skinNames []uint32
	skinToSkl []int32
	skelNames []int32
	skinWidth int
}

// BuildModel serializes a model snapshot into a GWModel resource.
// A model without triangles yields ErrEmptyGeometry and no data.
func BuildModel(m *scene.Model, opts ...Option) ([]byte, error) {
	if len(m.Triangles) == 0 {
		return nil, ErrEmptyGeometry
	}
	o := buildOptions(opts)
	l, err := layoutModel(m, o.table())
	if err != nil {
		return nil, err
	}

	w := rsrc.NewWriter()
	w.WriteHeader("GWModel", ModelVersion)
	w.U32(0) // file size
	w.U32(0) // strings
	w.U32(uint32(l.strs.Len()))
	w.U32(l.pathOffs)
	w.I32(int32(len(m.Points)))
	w.I32(int32(len(m.Triangles)))
	w.I32(int32(len(l.groups)))
	w.I32(int32(l.nIdx16))
	w.I32(int32(l.nIdx32))
	w.I32(int32(len(l.skinNames)))
	w.I32(int32(len(l.skelNames)))
	for offs := mdlOffsPnt; offs <= mdlOffsAttrMask; offs += 4 {
		w.U32(0)
	}
	w.I32(l.extOffs)

	w.Align(rsrc.SectionAlign)
	w.PatchHere(rsrc.SlotAt(mdlOffsPnt))
	for _, p := range m.Points {
		w.Vec3(p)
	}

	w.Patch(rsrc.SlotAt(mdlOffsAttrMask), uint32(m.Attrs.Mask()))
	w.Align(rsrc.SectionAlign)
	w.PatchHere(rsrc.SlotAt(mdlOffsAttr))
	for i := range m.Points {
		for _, h := range attr.EncodePoint(m.Attrs.Point(i)) {
			w.U16(h)
		}
	}

	w.Align(rsrc.SectionAlign)
	w.PatchHere(rsrc.SlotAt(mdlOffsMtl))
	for _, g := range l.groups {
		writeMaterial(w, g)
	}

	if l.nIdx16 > 0 {
		w.PatchHere(rsrc.SlotAt(mdlOffsIdx16))
		if err := l.writeIndices(w, true); err != nil {
			return nil, err
		}
	}
	if l.nIdx32 > 0 {
		w.Align(rsrc.SectionAlign)
		w.PatchHere(rsrc.SlotAt(mdlOffsIdx32))
		if err := l.writeIndices(w, false); err != nil {
			return nil, err
		}
	}

	if len(l.skinNames) > 0 {
		w.Align(rsrc.SectionAlign)
		w.PatchHere(rsrc.SlotAt(mdlOffsSkin))
		l.writeSkin(w, o.onTruncate)
	}

	if len(l.skelNames) > 0 {
		w.Align(rsrc.SectionAlign)
		w.PatchHere(rsrc.SlotAt(mdlOffsSkel))
		for _, n := range m.Skeleton {
			w.Floats(n.Local[:])
		}
		for _, offs := range l.skelNames {
			w.I32(offs)
		}
		for _, n := range m.Skeleton {
			w.I32(int32(n.Parent))
		}
	}

	return w.Finish(l.strs.Bytes())
}

func layoutModel(m *scene.Model, strs *strtab.Table) (*modelLayout, error) {
	l := &modelLayout{m: m, strs: strs, extOffs: -1}
	for i, t := range m.Triangles {
		for _, idx := range t.Points {
			if idx < 0 || idx >= len(m.Points) {
				return nil, fmt.Errorf("%w: triangle %d references point %d of %d", ErrBadIndex, i, idx, len(m.Points))
			}
		}
	}

	l.pathOffs = strs.Add(m.Path)
	if m.ExtInfo != "" {
		l.extOffs = int32(strs.Add(m.ExtInfo))
	}

	l.groupMaterials()
	for _, g := range l.groups {
		g.pathOffs = int32(strs.Add(g.mtl.Path))
		nIdx := len(g.tris) * 3
		if g.short() {
			g.idxOrg = l.nIdx16
			l.nIdx16 += nIdx
		} else {
			g.idxOrg = l.nIdx32
			l.nIdx32 += nIdx
		}
	}

	if err := l.layoutSkin(); err != nil {
		return nil, err
	}
	return l, nil
}

// groupMaterials splits triangles by material path in order of first use.
// Geometry without any material assignment gets one default material covering every point.
func (l *modelLayout) groupMaterials() {
	m := l.m
	assigned := false
	for _, t := range m.Triangles {
		if t.Material != "" {
			assigned = true
			break
		}
	}

	if !assigned {
		g := &materialGroup{
			mtl:    scene.DefaultMaterial(scene.DefaultMaterialPath),
			tris:   make([]int, len(m.Triangles)),
			minIdx: 0,
			maxIdx: len(m.Points) - 1,
		}
		for i := range g.tris {
			g.tris[i] = i
		}
		g.baseMapOffs, g.extOffs = -1, -1
		l.groups = []*materialGroup{g}
		return
	}

	byPath := make(map[string]*materialGroup)
	for i, t := range m.Triangles {
		path := t.Material
		if path == "" {
			path = scene.DefaultMaterialPath
		}
		g, ok := byPath[path]
		if !ok {
			g = &materialGroup{mtl: m.Material(path), minIdx: t.Min(), maxIdx: t.Max()}
			g.baseMapOffs, g.extOffs = -1, -1
			if g.mtl.BaseMap != "" {
				g.baseMapOffs = int32(l.strs.Add(g.mtl.BaseMap))
			}
			if g.mtl.Ext != "" {
				g.extOffs = int32(l.strs.Add(g.mtl.Ext))
			}
			byPath[path] = g
			l.groups = append(l.groups, g)
		}
		g.tris = append(g.tris, i)
		g.minIdx = min(g.minIdx, t.Min())
		g.maxIdx = max(g.maxIdx, t.Max())
	}
}

func (l *modelLayout) layoutSkin() error {
	m := l.m
	if m.Skin == nil || len(m.Skin.Bones) == 0 {
		return nil
	}
	nBones := len(m.Skin.Bones)
	for p, infl := range m.Skin.Influences {
		for _, iw := range infl {
			if iw.Bone >= nBones {
				return fmt.Errorf("%w: point %d references bone %d of %d", ErrBadIndex, p, iw.Bone, nBones)
			}
		}
	}

	for _, name := range m.Skin.Bones {
		l.skinNames = append(l.skinNames, l.strs.Add(name))
	}
	l.skinWidth = skin.IndexWidth(nBones)

	// The skeleton is only exported alongside skin data.
	for _, n := range m.Skeleton {
		l.skelNames = append(l.skelNames, int32(l.strs.Add(n.Name)))
	}
	idx := scene.SkeletonIndex(m.Skeleton)
	for _, name := range m.Skin.Bones {
		id, ok := idx[name]
		if !ok {
			id = -1
		}
		l.skinToSkl = append(l.skinToSkl, int32(id))
	}
	return nil
}

func writeMaterial(w *rsrc.Writer, g *materialGroup) {
	mtl := g.mtl
	w.I32(g.pathOffs)
	w.U32(uint32(mtl.Flags))
	w.I32(g.baseMapOffs)
	w.I32(g.extOffs)
	w.I32(int32(g.idxOrg))
	w.I32(int32(len(g.tris)))
	w.I32(int32(g.minIdx))
	w.I32(int32(g.maxIdx))
	w.Vec3(mtl.BaseColor)
	w.Vec3(mtl.SpecColor)
	w.F32(mtl.Roughness)
	w.F32(mtl.Fresnel())
	w.F32(mtl.BumpScale)
}

// writeIndices emits the triangle indices of every material of one width, relative to its minIdx.
func (l *modelLayout) writeIndices(w *rsrc.Writer, short bool) error {
	for gi, g := range l.groups {
		if g.short() != short {
			continue
		}
		for _, ti := range g.tris {
			for _, idx := range l.m.Triangles[ti].Points {
				rel := idx - g.minIdx
				if rel < 0 || (short && rel >= shortIndexSpan) {
					return &InvariantError{
						Resource: l.m.Name,
						Detail:   fmt.Sprintf("material %d: index %d does not fit relative to %d", gi, idx, g.minIdx),
					}
				}
				if short {
					w.U16(uint16(rel))
				} else {
					w.U32(uint32(rel))
				}
			}
		}
	}
	return nil
}

func (l *modelLayout) writeSkin(w *rsrc.Writer, onTruncate func(point, dropped int)) {
	for _, offs := range l.skinNames {
		w.U32(offs)
	}
	for _, id := range l.skinToSkl {
		w.I32(id)
	}
	buf := make([]byte, 0, skin.RecordSize(l.skinWidth))
	for i := range l.m.Points {
		var infl []skin.Influence
		if i < len(l.m.Skin.Influences) {
			infl = l.m.Skin.Influences[i]
		}
		rec, truncated := skin.Pack(infl)
		if truncated && onTruncate != nil {
			onTruncate(i, len(infl)-skin.MaxInfluences)
		}
		w.Raw(rec.Append(buf[:0], l.skinWidth))
	}
}
