// Package scene holds the immutable snapshots handed to the resource builders
// and the loaders that produce them from files on disk.
package scene

import (
	"errors"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gwexport/pkg/attr"
	"github.com/Faultbox/gwexport/pkg/skin"
)

// ErrNoResource is returned when a document lacks the requested resource or node.
var ErrNoResource = errors.New("scene: resource not found in document")

// Attributes are the optional per-point channels. A nil slice means the channel is absent.
type Attributes struct {
	Normal  []mgl32.Vec3
	Tangent []mgl32.Vec3
	Color   []mgl32.Vec3
	Alpha   []float32
	AO      []float32
	UV0     []mgl32.Vec2
	UV1     []mgl32.Vec2
}

// Mask returns the attribute mask bits of the present channels.
func (a *Attributes) Mask() attr.Mask {
	var m attr.Mask
	if a.Normal != nil {
		m |= attr.MaskNormal
	}
	if a.Tangent != nil {
		m |= attr.MaskTangent
	}
	if a.Color != nil {
		m |= attr.MaskColor
	}
	if a.UV0 != nil {
		m |= attr.MaskUV0
	}
	if a.UV1 != nil {
		m |= attr.MaskUV1
	}
	if a.Alpha != nil {
		m |= attr.MaskAlpha
	}
	if a.AO != nil {
		m |= attr.MaskAO
	}
	return m
}

// Point resolves the channels of point i, filling absent ones with defaults.
// Alpha takes precedence over AO for the fourth color component; UV1 falls back to UV0.
func (a *Attributes) Point(i int) attr.Point {
	p := attr.DefaultPoint()
	if i < len(a.Normal) {
		p.Normal = a.Normal[i]
	}
	if i < len(a.Tangent) {
		p.Tangent = a.Tangent[i]
	}
	if i < len(a.Color) {
		p.Color = a.Color[i].Vec4(1)
	}
	switch {
	case i < len(a.Alpha):
		p.Color[3] = a.Alpha[i]
	case i < len(a.AO):
		p.Color[3] = a.AO[i]
	}
	if i < len(a.UV0) {
		p.UV0 = a.UV0[i]
	}
	if i < len(a.UV1) {
		p.UV1 = a.UV1[i]
	} else {
		p.UV1 = p.UV0
	}
	return p
}

// Triangle is three point indices plus the path of the assigned material.
// An empty Material means the geometry carries no material attribute.
type Triangle struct {
	Points   [3]int
	Material string
}

// Min returns the smallest point index.
func (t Triangle) Min() int {
	return min(t.Points[0], t.Points[1], t.Points[2])
}

// Max returns the largest point index.
func (t Triangle) Max() int {
	return max(t.Points[0], t.Points[1], t.Points[2])
}

// SkinBinding is the bone capture data of a model.
type SkinBinding struct {
	Bones      []string
	Influences [][]skin.Influence // per point
}

// cregionSuffix separates a bone path from its capture region in host capture paths.
const cregionSuffix = "/cregion"

// BoneName trims the capture-region part of a capture path.
func BoneName(capturePath string) string {
	if i := strings.Index(capturePath, cregionSuffix); i >= 0 {
		return capturePath[:i]
	}
	return capturePath
}

// SkeletonNode is one entry of the flattened skeleton arena.
type SkeletonNode struct {
	Name   string
	Local  mgl32.Mat4
	Parent int // -1 for roots
}

// Model is the snapshot of one renderable model.
type Model struct {
	Name      string
	Path      string
	ExtInfo   string
	Points    []mgl32.Vec3
	Attrs     Attributes
	Triangles []Triangle
	Materials map[string]Material
	Skin      *SkinBinding
	Skeleton  []SkeletonNode
}

// Material returns the parameters for path, or the defaults when the model does not define it.
func (m *Model) Material(path string) Material {
	if mtl, ok := m.Materials[path]; ok {
		mtl.Path = path
		return mtl
	}
	return DefaultMaterial(path)
}

// Polygon is a closed loop of point indices.
type Polygon []int

// Collision is the snapshot of one collision mesh.
type Collision struct {
	Name     string
	Path     string
	Points   []mgl32.Vec3
	Polygons []Polygon
}

// Texture holds float pixel planes. Rows are stored bottom row first.
// C is RGB (3 floats per pixel); A is optional (1 float per pixel).
type Texture struct {
	Name   string
	Path   string
	Width  int
	Height int
	C      []float32
	A      []float32
}

// Track is one sampled motion channel.
type Track struct {
	Name    string
	Samples []float32
}

// Motion is a set of tracks sampled over the same frame range.
type Motion struct {
	Name   string
	Path   string
	Tracks []Track
}

// Frames returns the number of frames of the longest track.
func (m *Motion) Frames() int {
	n := 0
	for _, t := range m.Tracks {
		n = max(n, len(t.Samples))
	}
	return n
}
