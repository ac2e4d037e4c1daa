// Package skin quantizes per-point bone influences into fixed-width records.
package skin

import (
	"encoding/binary"
	"math"
	"sort"
)

// MaxInfluences is the number of bone slots per point.
const MaxInfluences = 4

// WeightSum is the total of the quantized weights of every record.
const WeightSum = 0xFF

// Influence is a single bone weight as captured by the host.
type Influence struct {
	Bone   int
	Weight float32
}

// Record is the packed skin data of one point.
type Record struct {
	Bones   [MaxInfluences]uint16
	Weights [MaxInfluences]uint8
}

// Sum returns the total of the weight bytes.
func (r Record) Sum() int {
	s := 0
	for _, w := range r.Weights {
		s += int(w)
	}
	return s
}

// IndexWidth returns the byte width of bone indices for a skin with nBones bones.
func IndexWidth(nBones int) int {
	if nBones <= 1<<8 {
		return 1
	}
	return 2
}

// RecordSize returns the size of one packed record for the given index width.
func RecordSize(width int) int {
	return MaxInfluences*width + MaxInfluences
}

// Pack sorts the influences by descending absolute weight and keeps the strongest four.
// Negative bone indices are ignored. The second result is true when influences were dropped.
// Weights are rounded to bytes and the last kept slot absorbs the rounding remainder,
// so the bytes always add up to 255.
func Pack(in []Influence) (Record, bool) {
	iw := make([]Influence, 0, len(in))
	for _, inf := range in {
		if inf.Bone >= 0 {
			iw = append(iw, inf)
		}
	}
	sort.SliceStable(iw, func(i, j int) bool {
		return math.Abs(float64(iw[i].Weight)) > math.Abs(float64(iw[j].Weight))
	})

	truncated := false
	if len(iw) > MaxInfluences {
		iw = iw[:MaxInfluences]
		truncated = true
	}

	var rec Record
	sum := 0
	for i, inf := range iw {
		rec.Bones[i] = uint16(inf.Bone)
		rec.Weights[i] = clampByte(int(math.Round(float64(inf.Weight) * WeightSum)))
		sum += int(rec.Weights[i])
	}

	if sum != WeightSum {
		rec.absorbRemainder(len(iw))
	}
	return rec, truncated
}

// absorbRemainder forces the lowest-priority kept slot to take 255 minus the other weights.
// When that slot cannot hold the remainder (a zero weight after rounding up the others)
// the next stronger slot takes it instead. With no influences the last slot takes it all.
func (r *Record) absorbRemainder(kept int) {
	if kept == 0 {
		r.Weights[MaxInfluences-1] = WeightSum
		return
	}
	for slot := kept - 1; slot >= 0; slot-- {
		rest := r.Sum() - int(r.Weights[slot])
		if v := WeightSum - rest; v >= 0 && v <= 0xFF {
			r.Weights[slot] = uint8(v)
			return
		}
	}
	r.Weights[kept-1] = clampByte(WeightSum - (r.Sum() - int(r.Weights[kept-1])))
}

// clampByte keeps out-of-range weights (unnormalized input) from wrapping.
func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 0xFF {
		return 0xFF
	}
	return uint8(v)
}

// Append writes the bone indices with the given width followed by the four weight bytes.
func (r Record) Append(dst []byte, width int) []byte {
	for _, b := range r.Bones {
		if width == 1 {
			dst = append(dst, uint8(b))
		} else {
			dst = binary.LittleEndian.AppendUint16(dst, b)
		}
	}
	return append(dst, r.Weights[:]...)
}
