package attr

import "github.com/go-gl/mathgl/mgl32"

// Mask flags the optional channels present in the source geometry.
type Mask uint32

// Attribute mask bits.
const (
	MaskNormal  Mask = 1 << 0
	MaskTangent Mask = 1 << 1
	MaskColor   Mask = 1 << 2
	MaskUV0     Mask = 1 << 3
	MaskUV1     Mask = 1 << 4
	MaskAlpha   Mask = 1 << 5
	MaskAO      Mask = 1 << 6 // alpha channel carries ambient occlusion
)

// Has reports whether all bits of f are set.
func (m Mask) Has(f Mask) bool {
	return m&f == f
}

// RecordSize is the encoded size of one point in bytes.
const RecordSize = 12 * 2

// Point holds the resolved channels of one point, defaults already applied.
type Point struct {
	Normal  mgl32.Vec3
	Tangent mgl32.Vec3
	Color   mgl32.Vec4 // rgb + alpha
	UV0     mgl32.Vec2
	UV1     mgl32.Vec2
}

// DefaultPoint returns the values used for absent channels.
func DefaultPoint() Point {
	return Point{
		Normal:  mgl32.Vec3{0, 1, 0},
		Tangent: mgl32.Vec3{1, 0, 0},
		Color:   mgl32.Vec4{1, 1, 1, 1},
	}
}

// EncodePoint packs a point into 12 halves: octahedral normal and tangent,
// RGBA, then both UV pairs with V flipped into texture space.
func EncodePoint(p Point) [12]uint16 {
	n := EncodeOcta(p.Normal)
	t := EncodeOcta(p.Tangent)
	return [12]uint16{
		FloatToHalf(n[0]), FloatToHalf(n[1]),
		FloatToHalf(t[0]), FloatToHalf(t[1]),
		FloatToHalf(p.Color[0]), FloatToHalf(p.Color[1]), FloatToHalf(p.Color[2]), FloatToHalf(p.Color[3]),
		FloatToHalf(p.UV0[0]), FloatToHalf(1 - p.UV0[1]),
		FloatToHalf(p.UV1[0]), FloatToHalf(1 - p.UV1[1]),
	}
}
