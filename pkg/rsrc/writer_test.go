package rsrc

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func TestWriteHeader(t *testing.T) {
	tests := []struct {
		name    string
		sig     string
		version uint16
		wantSig string
		wantVer string
	}{
		{"model", "GWModel", 0x100, "rsrc:GWModel\x00\x00\x00\x00", "0100"},
		{"catalog", "GWCatalog", 0x100, "rsrc:GWCatalog\x00\x00", "0100"},
		{"long name", "VeryLongFormatName", 0xAB0F, "rsrc:VeryLongFo\x00", "AB0F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			w.WriteHeader(tt.sig, tt.version)
			data := w.Bytes()
			if len(data) != HeaderSize {
				t.Fatalf("expected %d header bytes, got %d", HeaderSize, len(data))
			}
			sig := string(data[:SigSize])
			if len(tt.wantSig) < SigSize {
				sig = sig[:len(tt.wantSig)]
			}
			if sig != tt.wantSig {
				t.Errorf("signature = %q, want %q", sig, tt.wantSig)
			}
			if data[SigSize-1] != 0 {
				t.Error("signature must be null-terminated")
			}
			if got := string(data[SigSize:HeaderSize]); got != tt.wantVer {
				t.Errorf("version = %q, want %q", got, tt.wantVer)
			}
		})
	}
}

func TestPatchRestoresPosition(t *testing.T) {
	w := NewWriter()
	w.WriteHeader("Test", 1)
	slot := w.Slot()
	w.U32(0xAAAAAAAA)
	w.U16(0xBBBB)
	before := w.Tell()

	w.Patch(slot, 0x12345678)

	if w.Tell() != before {
		t.Errorf("position moved from %d to %d", before, w.Tell())
	}
	if w.Len() != int(before) {
		t.Errorf("patch changed length to %d", w.Len())
	}
	if got := binary.LittleEndian.Uint32(w.Bytes()[slot:]); got != 0x12345678 {
		t.Errorf("patched value = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(w.Bytes()[slot+4:]); got != 0xAAAAAAAA {
		t.Errorf("following bytes clobbered: %#x", got)
	}
}

func TestPatchBadSlot(t *testing.T) {
	w := NewWriter()
	w.U16(1)
	w.Patch(Slot(10), 1)
	if w.Err() == nil {
		t.Error("expected error for slot past end")
	}
}

func TestAlignPadsZeros(t *testing.T) {
	w := NewWriter()
	w.Raw([]byte{1, 2, 3})
	w.Align(SectionAlign)
	if w.Len() != 16 {
		t.Fatalf("expected 16 bytes, got %d", w.Len())
	}
	if !bytes.Equal(w.Bytes()[3:], make([]byte, 13)) {
		t.Error("padding must be zero")
	}

	w.Align(SectionAlign)
	if w.Len() != 16 {
		t.Errorf("aligned position must not grow, got %d", w.Len())
	}
}

func TestAlignGeneric(t *testing.T) {
	if got := Align(0x64, 0x10); got != 0x70 {
		t.Errorf("Align(0x64) = %#x", got)
	}
	if got := Align(uint32(32), 16); got != 32 {
		t.Errorf("Align(32) = %d", got)
	}
}

func TestSeekPastEndZeroFills(t *testing.T) {
	w := NewWriter()
	w.U8(7)
	if _, err := w.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	w.U8(9)
	want := []byte{7, 0, 0, 0, 9}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got %v, want %v", w.Bytes(), want)
	}
	if _, err := w.Seek(-10, io.SeekCurrent); err == nil {
		t.Error("expected error for negative seek")
	}
}

func TestFinish(t *testing.T) {
	w := NewWriter()
	w.WriteHeader("Test", 0x100)
	w.Slot() // 0x14 size
	w.Slot() // 0x18 strs
	w.Slot() // 0x1C strSize
	w.I32(-1)

	strs := []byte("abc\x00")
	data, err := w.Finish(strs)
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	if got := binary.LittleEndian.Uint32(data[OffsFileSize:]); int(got) != len(data) {
		t.Errorf("file size = %d, want %d", got, len(data))
	}
	if got := binary.LittleEndian.Uint32(data[OffsStrTop:]); got != 0x24 {
		t.Errorf("string offset = %#x, want 0x24", got)
	}
	if got := binary.LittleEndian.Uint32(data[OffsStrSize:]); got != 4 {
		t.Errorf("string size = %d, want 4", got)
	}
	if !bytes.Equal(data[0x24:], strs) {
		t.Errorf("string blob = %q", data[0x24:])
	}
}
