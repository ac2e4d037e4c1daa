package attr

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func abs32(x float32) float32 {
	return float32(math.Abs(float64(x)))
}

func signNotZero(x float32) float32 {
	if x < 0 {
		return -1
	}
	return 1
}

// EncodeOcta projects a unit vector onto the octahedron and unfolds it into the [-1,1] square.
func EncodeOcta(v mgl32.Vec3) [2]float32 {
	d := abs32(v[0]) + abs32(v[1]) + abs32(v[2])
	if d != 0 {
		d = 1 / d
	}
	ox := v[0] * d
	oy := v[1] * d
	if v[2] < 0 {
		tx := 1 - abs32(oy)
		if ox < 0 {
			tx = -tx
		}
		ty := 1 - abs32(ox)
		if oy < 0 {
			ty = -ty
		}
		ox, oy = tx, ty
	}
	return [2]float32{ox, oy}
}

// DecodeOcta maps an octahedral pair back to a unit vector.
func DecodeOcta(o [2]float32) mgl32.Vec3 {
	x, y := o[0], o[1]
	z := 1 - abs32(x) - abs32(y)
	if z < 0 {
		x, y = (1-abs32(o[1]))*signNotZero(o[0]), (1-abs32(o[0]))*signNotZero(o[1])
	}
	v := mgl32.Vec3{x, y, z}
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}
