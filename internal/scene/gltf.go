package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/gwexport/pkg/skin"
)

// LoadGLTF reads a .gltf or .glb file into a model snapshot.
func LoadGLTF(path string, opts Options) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening glTF %s", path)
	}
	m, err := ModelFromGLTF(doc, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping glTF %s", path)
	}
	m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m.Path = path
	if opts.Node != "" {
		m.Path = path + "#" + opts.Node
	}
	return m, nil
}

// ModelFromGLTF concatenates the triangle primitives of the selected nodes into one model.
// Node transforms are baked into positions, except for skinned meshes.
func ModelFromGLTF(doc *gltf.Document, opts Options) (*Model, error) {
	roots, err := gltfRoots(doc, opts.Node)
	if err != nil {
		return nil, err
	}

	b := &gltfBuilder{
		doc:      doc,
		model:    &Model{Materials: make(map[string]Material)},
		boneIDs:  make(map[string]int),
		parentOf: gltfParents(doc),
	}
	for _, r := range roots {
		if err := b.walk(r, mgl32.Ident4()); err != nil {
			return nil, err
		}
	}
	b.finishChannels()

	if b.skinned {
		b.model.Skin = &SkinBinding{Bones: b.bones, Influences: b.influences}
		b.model.Skeleton = Flatten(b.skeletonRoot(opts.SkeletonRoot))
	}
	return b.model, nil
}

// CollisionFromModel reuses the triangles of a model as 3-point collision polygons.
func CollisionFromModel(m *Model) *Collision {
	c := &Collision{Name: m.Name, Path: m.Path, Points: m.Points}
	for _, t := range m.Triangles {
		c.Polygons = append(c.Polygons, Polygon{t.Points[0], t.Points[1], t.Points[2]})
	}
	return c
}

func gltfRoots(doc *gltf.Document, node string) ([]uint32, error) {
	if node != "" {
		for i, n := range doc.Nodes {
			if n.Name == node {
				return []uint32{uint32(i)}, nil
			}
		}
		return nil, errors.Wrapf(ErrNoResource, "node %q", node)
	}

	if len(doc.Scenes) > 0 {
		s := uint32(0)
		if doc.Scene != nil {
			s = *doc.Scene
		}
		if int(s) < len(doc.Scenes) {
			return doc.Scenes[s].Nodes, nil
		}
	}

	parents := gltfParents(doc)
	var roots []uint32
	for i := range doc.Nodes {
		if _, ok := parents[uint32(i)]; !ok {
			roots = append(roots, uint32(i))
		}
	}
	return roots, nil
}

func gltfParents(doc *gltf.Document) map[uint32]uint32 {
	parents := make(map[uint32]uint32)
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			parents[c] = uint32(i)
		}
	}
	return parents
}

// localMatrix returns the node's local transform. An unset matrix falls back to TRS.
func localMatrix(n *gltf.Node) mgl32.Mat4 {
	if m := mgl32.Mat4(n.Matrix); m != (mgl32.Mat4{}) && m != mgl32.Ident4() {
		return m
	}
	t := mgl32.Vec3(n.Translation)
	s := mgl32.Vec3(n.Scale)
	if s == (mgl32.Vec3{}) {
		s = mgl32.Vec3{1, 1, 1}
	}
	q := mgl32.QuatIdent()
	if r := n.Rotation; r != ([4]float32{}) {
		q = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
	}
	return mgl32.Translate3D(t[0], t[1], t[2]).Mul4(q.Mat4()).Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

type gltfBuilder struct {
	doc      *gltf.Document
	model    *Model
	parentOf map[uint32]uint32

	hasNormal, hasTangent, hasColor, hasAlpha, hasUV0, hasUV1 bool

	skinned    bool
	firstSkin  *gltf.Skin
	bones      []string
	boneIDs    map[string]int
	influences [][]skin.Influence
}

func (b *gltfBuilder) walk(idx uint32, parent mgl32.Mat4) error {
	if int(idx) >= len(b.doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	n := b.doc.Nodes[idx]
	world := parent.Mul4(localMatrix(n))

	if n.Mesh != nil {
		xf := world
		var jointMap []int
		if n.Skin != nil && int(*n.Skin) < len(b.doc.Skins) {
			xf = mgl32.Ident4()
			jointMap = b.addSkin(b.doc.Skins[*n.Skin])
		}
		if int(*n.Mesh) >= len(b.doc.Meshes) {
			return fmt.Errorf("node %q: mesh index %d out of range", n.Name, *n.Mesh)
		}
		for pi, prim := range b.doc.Meshes[*n.Mesh].Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := b.addPrimitive(prim, xf, jointMap); err != nil {
				return errors.Wrapf(err, "node %q primitive %d", n.Name, pi)
			}
		}
	}

	for _, c := range n.Children {
		if err := b.walk(c, world); err != nil {
			return err
		}
	}
	return nil
}

// addSkin merges the joints of s into the bone table by name and returns
// the mapping from skin joint positions to bone ids.
func (b *gltfBuilder) addSkin(s *gltf.Skin) []int {
	if b.firstSkin == nil {
		b.firstSkin = s
	}
	jointMap := make([]int, len(s.Joints))
	for i, j := range s.Joints {
		name := fmt.Sprintf("joint%d", j)
		if int(j) < len(b.doc.Nodes) && b.doc.Nodes[j].Name != "" {
			name = b.doc.Nodes[j].Name
		}
		name = BoneName(name)
		id, ok := b.boneIDs[name]
		if !ok {
			id = len(b.bones)
			b.boneIDs[name] = id
			b.bones = append(b.bones, name)
		}
		jointMap[i] = id
	}
	return jointMap
}

func (b *gltfBuilder) accessor(prim *gltf.Primitive, name string) (*gltf.Accessor, bool) {
	i, ok := prim.Attributes[name]
	if !ok || int(i) >= len(b.doc.Accessors) {
		return nil, false
	}
	return b.doc.Accessors[i], true
}

func (b *gltfBuilder) addPrimitive(prim *gltf.Primitive, xf mgl32.Mat4, jointMap []int) error {
	acr, ok := b.accessor(prim, "POSITION")
	if !ok {
		return errors.New("primitive has no POSITION attribute")
	}
	pos, err := modeler.ReadPosition(b.doc, acr, nil)
	if err != nil {
		return errors.Wrap(err, "reading positions")
	}

	m := b.model
	base := len(m.Points)
	count := len(pos)
	dirXf := xf.Mat3()
	nrmXf := normalMatrix(dirXf)
	for _, p := range pos {
		m.Points = append(m.Points, mgl32.TransformCoordinate(mgl32.Vec3(p), xf))
	}

	var idx []uint32
	if prim.Indices != nil && int(*prim.Indices) < len(b.doc.Accessors) {
		idx, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return errors.Wrap(err, "reading indices")
		}
	} else {
		idx = make([]uint32, count)
		for i := range idx {
			idx[i] = uint32(i)
		}
	}

	mtl := b.material(prim.Material)
	for i := 0; i+2 < len(idx); i += 3 {
		m.Triangles = append(m.Triangles, Triangle{
			Points:   [3]int{base + int(idx[i]), base + int(idx[i+1]), base + int(idx[i+2])},
			Material: mtl,
		})
	}

	if err := b.readChannels(prim, base, count, nrmXf, dirXf); err != nil {
		return err
	}
	return b.readSkin(prim, base, count, jointMap)
}

// readChannels copies the optional vertex channels. Normals go through nrmXf,
// tangents through the plain linear part dirXf.
func (b *gltfBuilder) readChannels(prim *gltf.Primitive, base, count int, nrmXf, dirXf mgl32.Mat3) error {
	a := &b.model.Attrs
	grow := func(n int) {
		for len(a.Normal) < n {
			a.Normal = append(a.Normal, mgl32.Vec3{0, 1, 0})
			a.Tangent = append(a.Tangent, mgl32.Vec3{1, 0, 0})
			a.Color = append(a.Color, mgl32.Vec3{1, 1, 1})
			a.Alpha = append(a.Alpha, 1)
			a.UV0 = append(a.UV0, mgl32.Vec2{})
			a.UV1 = append(a.UV1, mgl32.Vec2{})
		}
	}
	grow(base + count)

	if acr, ok := b.accessor(prim, "NORMAL"); ok {
		v, err := modeler.ReadNormal(b.doc, acr, nil)
		if err != nil {
			return errors.Wrap(err, "reading normals")
		}
		for i := 0; i < count && i < len(v); i++ {
			a.Normal[base+i] = transformDir(nrmXf, v[i])
		}
		b.hasNormal = true
	}
	if acr, ok := b.accessor(prim, "TANGENT"); ok {
		v, err := modeler.ReadTangent(b.doc, acr, nil)
		if err != nil {
			return errors.Wrap(err, "reading tangents")
		}
		for i := 0; i < count && i < len(v); i++ {
			a.Tangent[base+i] = transformDir(dirXf, [3]float32{v[i][0], v[i][1], v[i][2]})
		}
		b.hasTangent = true
	}
	if acr, ok := b.accessor(prim, "COLOR_0"); ok {
		v, err := modeler.ReadColor(b.doc, acr, nil)
		if err != nil {
			return errors.Wrap(err, "reading colors")
		}
		for i := 0; i < count && i < len(v); i++ {
			c := v[i]
			a.Color[base+i] = mgl32.Vec3{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255}
			a.Alpha[base+i] = float32(c[3]) / 255
		}
		b.hasColor = true
		if acr.Type == gltf.AccessorVec4 {
			b.hasAlpha = true
		}
	}
	// glTF puts the texture origin at the top left; snapshots keep V pointing up.
	for set, dst := range []*[]mgl32.Vec2{&a.UV0, &a.UV1} {
		acr, ok := b.accessor(prim, fmt.Sprintf("TEXCOORD_%d", set))
		if !ok {
			continue
		}
		v, err := modeler.ReadTextureCoord(b.doc, acr, nil)
		if err != nil {
			return errors.Wrapf(err, "reading texture coordinates %d", set)
		}
		for i := 0; i < count && i < len(v); i++ {
			(*dst)[base+i] = mgl32.Vec2{v[i][0], 1 - v[i][1]}
		}
		if set == 0 {
			b.hasUV0 = true
		} else {
			b.hasUV1 = true
		}
	}
	return nil
}

// normalMatrix returns the inverse transpose of m, or m itself when it is singular.
func normalMatrix(m mgl32.Mat3) mgl32.Mat3 {
	if m.Det() == 0 {
		return m
	}
	return m.Inv().Transpose()
}

func transformDir(m mgl32.Mat3, v [3]float32) mgl32.Vec3 {
	d := m.Mul3x1(mgl32.Vec3(v))
	if d.Len() == 0 {
		return mgl32.Vec3(v)
	}
	return d.Normalize()
}

func (b *gltfBuilder) readSkin(prim *gltf.Primitive, base, count int, jointMap []int) error {
	for len(b.influences) < base+count {
		b.influences = append(b.influences, nil)
	}
	if jointMap == nil {
		return nil
	}
	jacr, okJ := b.accessor(prim, "JOINTS_0")
	wacr, okW := b.accessor(prim, "WEIGHTS_0")
	if !okJ || !okW {
		return nil
	}
	joints, err := modeler.ReadJoints(b.doc, jacr, nil)
	if err != nil {
		return errors.Wrap(err, "reading joints")
	}
	weights, err := modeler.ReadWeights(b.doc, wacr, nil)
	if err != nil {
		return errors.Wrap(err, "reading weights")
	}

	b.skinned = true
	for i := 0; i < count && i < len(joints) && i < len(weights); i++ {
		var infl []skin.Influence
		for k := 0; k < 4; k++ {
			if weights[i][k] == 0 || int(joints[i][k]) >= len(jointMap) {
				continue
			}
			infl = append(infl, skin.Influence{Bone: jointMap[joints[i][k]], Weight: weights[i][k]})
		}
		b.influences[base+i] = infl
	}
	return nil
}

// finishChannels drops the channels no primitive provided.
func (b *gltfBuilder) finishChannels() {
	a := &b.model.Attrs
	if !b.hasNormal {
		a.Normal = nil
	}
	if !b.hasTangent {
		a.Tangent = nil
	}
	if !b.hasColor {
		a.Color = nil
	}
	if !b.hasAlpha {
		a.Alpha = nil
	}
	if !b.hasUV0 {
		a.UV0 = nil
	}
	if !b.hasUV1 {
		a.UV1 = nil
	}
}

// material registers the material of a primitive and returns its path.
func (b *gltfBuilder) material(idx *uint32) string {
	if idx == nil || int(*idx) >= len(b.doc.Materials) {
		return ""
	}
	gm := b.doc.Materials[*idx]
	path := gm.Name
	if path == "" {
		path = fmt.Sprintf("material%d", *idx)
	}
	if _, ok := b.model.Materials[path]; ok {
		return path
	}

	m := DefaultMaterial(path)
	m.Schema = SchemaPrincipled
	m.Flags.Set(FlagDoubleSided, gm.DoubleSided)
	m.Flags.Set(FlagSemiTransparent, gm.AlphaMode == gltf.AlphaBlend)
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			c := *pbr.BaseColorFactor
			m.BaseColor = mgl32.Vec3{c[0], c[1], c[2]}
		}
		if pbr.RoughnessFactor != nil {
			m.Roughness = *pbr.RoughnessFactor
		}
		if pbr.BaseColorTexture != nil {
			m.BaseMap = b.textureURI(pbr.BaseColorTexture.Index)
		}
	}
	b.model.Materials[path] = m.Resolve()
	return path
}

func (b *gltfBuilder) textureURI(tex uint32) string {
	if int(tex) >= len(b.doc.Textures) {
		return ""
	}
	src := b.doc.Textures[tex].Source
	if src == nil || int(*src) >= len(b.doc.Images) {
		return ""
	}
	img := b.doc.Images[*src]
	if img.URI != "" && !strings.HasPrefix(img.URI, "data:") {
		return img.URI
	}
	return img.Name
}

// skeletonRoot builds the joint tree the skeleton is read from: the named node when given,
// otherwise the skin's declared skeleton root, otherwise the topmost ancestor of its first joint.
func (b *gltfBuilder) skeletonRoot(name string) *Joint {
	var root uint32
	switch {
	case name != "":
		found := false
		for i, n := range b.doc.Nodes {
			if n.Name == name {
				root, found = uint32(i), true
				break
			}
		}
		if !found {
			return nil
		}
	case b.firstSkin == nil || len(b.firstSkin.Joints) == 0:
		return nil
	case b.firstSkin.Skeleton != nil:
		root = *b.firstSkin.Skeleton
	default:
		root = b.firstSkin.Joints[0]
		for {
			p, ok := b.parentOf[root]
			if !ok {
				break
			}
			root = p
		}
	}
	return b.joint(root)
}

func (b *gltfBuilder) joint(idx uint32) *Joint {
	n := b.doc.Nodes[idx]
	j := &Joint{Name: BoneName(n.Name), Local: localMatrix(n)}
	for _, c := range n.Children {
		if int(c) < len(b.doc.Nodes) {
			j.Children = append(j.Children, b.joint(c))
		}
	}
	return j
}
