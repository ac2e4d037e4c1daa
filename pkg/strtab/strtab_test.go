package strtab

import (
	"bytes"
	"testing"

	"github.com/Faultbox/gwexport/pkg/encoding"
)

func TestAdd_FirstStringAtZero(t *testing.T) {
	tbl := New()
	if offs := tbl.Add("root"); offs != 0 {
		t.Errorf("expected first offset 0, got %d", offs)
	}
}

func TestAdd_Idempotent(t *testing.T) {
	tbl := New()
	a := tbl.Add("a")
	tbl.Add("bc")
	again := tbl.Add("a")
	if a != again {
		t.Errorf("expected repeated add to return %d, got %d", a, again)
	}
	if tbl.Len() != len("a\x00bc\x00") {
		t.Errorf("expected blob of 5 bytes, got %d", tbl.Len())
	}
}

func TestAdd_Offsets(t *testing.T) {
	tbl := New()
	strs := []string{"/obj/geo", "$sys/default", "/obj/geo", "", "tex.png"}
	want := []uint32{0, 9, 0, 22, 23}

	for i, s := range strs {
		if got := tbl.Add(s); got != want[i] {
			t.Errorf("Add(%q) = %d, want %d", s, got, want[i])
		}
	}

	expected := []byte("/obj/geo\x00$sys/default\x00\x00tex.png\x00")
	if !bytes.Equal(tbl.Bytes(), expected) {
		t.Errorf("blob mismatch:\n got %q\nwant %q", tbl.Bytes(), expected)
	}
	if tbl.Len() != len(expected) {
		t.Errorf("expected length %d, got %d", len(expected), tbl.Len())
	}
}

func TestLookup(t *testing.T) {
	tbl := New()
	tbl.Add("x")
	tbl.Add("y")
	if offs, ok := tbl.Lookup("y"); !ok || offs != 2 {
		t.Errorf("Lookup(y) = %d, %v", offs, ok)
	}
	if _, ok := tbl.Lookup("z"); ok {
		t.Error("Lookup(z) should miss")
	}
}

func TestNewWithEncoder(t *testing.T) {
	enc, err := encoding.Lookup("Windows 1252")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	tbl := NewWithEncoder(enc)
	tbl.Add("café")
	next := tbl.Add("b")
	// "café" is 4 bytes in Windows-1252, 5 in UTF-8.
	if next != 5 {
		t.Errorf("expected second offset 5, got %d", next)
	}
}
