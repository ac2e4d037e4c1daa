// Package attr packs per-vertex attributes into half-precision records.
package attr

import "math"

const halfOverflow = 0x477FE000 // largest float32 bit pattern that stays finite

// FloatToHalf converts x to a 16-bit float by bit manipulation.
// The mantissa is truncated, exponents below the half range flush to signed zero
// and magnitudes past 65504 become signed infinity.
func FloatToHalf(x float32) uint16 {
	if x == 0 {
		return 0
	}
	bits := math.Float32bits(x)
	sign := uint16((bits >> 16) & 0x8000)
	bits &= 0x7FFFFFFF
	if bits > halfOverflow {
		return 0x7C00 | sign
	}
	e := int32((bits>>23)&0xFF) - 127 + 15
	if e < 0 {
		return sign
	}
	if e > 31 {
		e = 31
	}
	m := uint16((bits & 0x7FFFFF) >> 13)
	return sign | uint16(e<<10)&0x7C00 | m&0x3FF
}

// HalfToFloat expands a 16-bit float.
func HalfToFloat(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	e := uint32(h>>10) & 0x1F
	m := uint32(h & 0x3FF)

	switch {
	case e == 0 && m == 0:
		return math.Float32frombits(sign)
	case e == 0:
		// subnormal
		f := float32(m) / 1024 / 16384
		if sign != 0 {
			return -f
		}
		return f
	case e == 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | m<<13)
	}
	return math.Float32frombits(sign | (e+127-15)<<23 | m<<13)
}
