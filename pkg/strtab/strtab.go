// Package strtab interns strings into one contiguous null-terminated blob.
package strtab

import "github.com/Faultbox/gwexport/pkg/encoding"

// Table maps strings to stable byte offsets inside a single blob.
// Offsets are assigned in first-insertion order and never reused.
type Table struct {
	data    []byte
	offsets map[string]uint32
	enc     encoding.Encoder
}

// New returns an empty table that stores strings as UTF-8.
func New() *Table {
	return &Table{offsets: make(map[string]uint32)}
}

// NewWithEncoder returns an empty table that converts every string with enc before storing it.
func NewWithEncoder(enc encoding.Encoder) *Table {
	t := New()
	t.enc = enc
	return t
}

// Add interns s and returns its offset in the blob.
// Adding the same string again returns the previously assigned offset.
func (t *Table) Add(s string) uint32 {
	if offs, ok := t.offsets[s]; ok {
		return offs
	}
	offs := uint32(len(t.data))
	t.offsets[s] = offs
	if t.enc != nil {
		t.data = append(t.data, t.enc.Encode(s)...)
	} else {
		t.data = append(t.data, s...)
	}
	t.data = append(t.data, 0)
	return offs
}

// Lookup returns the offset of s if it was added.
func (t *Table) Lookup(s string) (uint32, bool) {
	offs, ok := t.offsets[s]
	return offs, ok
}

// Len returns the blob size in bytes.
func (t *Table) Len() int {
	return len(t.data)
}

// Bytes returns the blob. The slice must not be modified.
func (t *Table) Bytes() []byte {
	return t.data
}
