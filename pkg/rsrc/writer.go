// Package rsrc implements the binary stream discipline shared by all resource files:
// a signature header, placeholder slots patched after their section is written,
// and zero padding between sections.
package rsrc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// Header layout.
const (
	SigPrefix   = "rsrc:"
	SigSize     = 16
	VersionSize = 4
	HeaderSize  = SigSize + VersionSize // first format-specific field

	// SectionAlign is the alignment of major sections.
	SectionAlign = 16
)

// Common header field offsets.
const (
	OffsFileSize = 0x14
	OffsStrTop   = 0x18
	OffsStrSize  = 0x1C
)

var (
	ErrNegativeSeek = errors.New("rsrc: negative seek position")
	ErrBadSlot      = errors.New("rsrc: slot outside written data")
)

// Align rounds x up to the next multiple of a.
func Align[T constraints.Integer](x, a T) T {
	return ((x + (a - 1)) / a) * a
}

// Slot is the position of a 4-byte placeholder awaiting a patch.
type Slot int64

// Writer is a growable in-memory io.WriteSeeker.
// Seeking past the end and writing fills the gap with zeros; seeking never truncates.
type Writer struct {
	buf []byte
	pos int64
	err error
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	end := w.pos + int64(len(p))
	if end > int64(len(w.buf)) {
		if end > int64(cap(w.buf)) {
			grown := make([]byte, end, max(end, int64(cap(w.buf))*2))
			copy(grown, w.buf)
			w.buf = grown
		} else {
			w.buf = w.buf[:end]
		}
	}
	copy(w.buf[w.pos:], p)
	w.pos = end
	return len(p), nil
}

// Seek implements io.Seeker.
func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = w.pos + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return w.pos, fmt.Errorf("rsrc: invalid whence %d", whence)
	}
	if abs < 0 {
		return w.pos, ErrNegativeSeek
	}
	w.pos = abs
	return abs, nil
}

// Tell returns the current write position.
func (w *Writer) Tell() uint32 {
	return uint32(w.pos)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written data.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Err returns the first error recorded by a patch.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) U8(v uint8) {
	w.Write([]byte{v})
}

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *Writer) I32(v int32) {
	w.U32(uint32(v))
}

func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

// Vec3 writes three floats.
func (w *Writer) Vec3(v mgl32.Vec3) {
	w.F32(v[0])
	w.F32(v[1])
	w.F32(v[2])
}

// Floats writes a float slice.
func (w *Writer) Floats(v []float32) {
	for _, f := range v {
		w.F32(f)
	}
}

// Raw writes bytes as-is.
func (w *Writer) Raw(p []byte) {
	w.Write(p)
}

// WriteHeader writes the 16-byte signature "rsrc:"+name (truncated to 15 characters, zero padded)
// followed by the version as four ASCII hex digits: high byte then low byte.
func (w *Writer) WriteHeader(name string, version uint16) {
	sig := SigPrefix + name
	if len(sig) > SigSize-1 {
		sig = sig[:SigSize-1]
	}
	var tag [SigSize]byte
	copy(tag[:], sig)
	w.Write(tag[:])
	w.Write([]byte(fmt.Sprintf("%02X%02X", version>>8, version&0xFF)))
}

// Slot writes a zero placeholder and returns its position.
func (w *Writer) Slot() Slot {
	s := Slot(w.pos)
	w.U32(0)
	return s
}

// SlotAt returns a slot for a fixed header offset that has already been written.
func SlotAt(offs int64) Slot {
	return Slot(offs)
}

// Patch overwrites the slot with v and restores the write position.
func (w *Writer) Patch(s Slot, v uint32) {
	if int64(s) < 0 || int64(s)+4 > int64(len(w.buf)) {
		if w.err == nil {
			w.err = fmt.Errorf("%w: %d", ErrBadSlot, s)
		}
		return
	}
	pos := w.pos
	w.pos = int64(s)
	w.U32(v)
	w.pos = pos
}

// PatchHere patches the slot with the current write position.
func (w *Writer) PatchHere(s Slot) {
	w.Patch(s, w.Tell())
}

// Align pads with zeros up to the next multiple of n.
func (w *Writer) Align(n int64) {
	aligned := Align(w.pos, n)
	if aligned > w.pos {
		w.Write(make([]byte, aligned-w.pos))
	}
}

// Finish appends the string blob, patches its offset and size and then the file size.
// The blob is always the final section.
func (w *Writer) Finish(strs []byte) ([]byte, error) {
	w.PatchHere(SlotAt(OffsStrTop))
	w.Patch(SlotAt(OffsStrSize), uint32(len(strs)))
	w.Raw(strs)
	w.PatchHere(SlotAt(OffsFileSize))
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}
