package skin

import (
	"bytes"
	"testing"
)

func TestPack_SumsTo255(t *testing.T) {
	rec, truncated := Pack([]Influence{
		{Bone: 0, Weight: 0.5},
		{Bone: 1, Weight: 0.3},
		{Bone: 2, Weight: 0.2},
		{Bone: 3, Weight: 0.0},
	})
	if truncated {
		t.Error("four influences must not be truncated")
	}
	if rec.Sum() != 255 {
		t.Errorf("weights sum to %d, want 255 (%v)", rec.Sum(), rec.Weights)
	}
	if rec.Weights[0] <= rec.Weights[1] {
		t.Errorf("weight for 0.5 (%d) must exceed weight for 0.3 (%d)", rec.Weights[0], rec.Weights[1])
	}
	if rec.Bones != [4]uint16{0, 1, 2, 3} {
		t.Errorf("bones = %v", rec.Bones)
	}
	// 128+77+51 = 256: the zero slot cannot absorb -1, so the 0.2 slot does.
	if rec.Weights != [4]uint8{128, 77, 50, 0} {
		t.Errorf("weights = %v, want [128 77 50 0]", rec.Weights)
	}
}

func TestPack_RemainderGoesToLastKeptSlot(t *testing.T) {
	rec, _ := Pack([]Influence{
		{Bone: 4, Weight: 0.501},
		{Bone: 7, Weight: 0.501},
	})
	// 128 + 128 = 256 -> last slot becomes 255-128
	if rec.Weights != [4]uint8{128, 127, 0, 0} {
		t.Errorf("weights = %v, want [128 127 0 0]", rec.Weights)
	}
	if rec.Bones != [4]uint16{4, 7, 0, 0} {
		t.Errorf("bones = %v", rec.Bones)
	}
}

func TestPack_SortsByAbsoluteWeight(t *testing.T) {
	rec, _ := Pack([]Influence{
		{Bone: 1, Weight: 0.1},
		{Bone: 2, Weight: 0.6},
		{Bone: 3, Weight: 0.3},
	})
	if rec.Bones[0] != 2 || rec.Bones[1] != 3 || rec.Bones[2] != 1 {
		t.Errorf("bones not sorted by weight: %v", rec.Bones)
	}
}

func TestPack_TruncatesToFour(t *testing.T) {
	rec, truncated := Pack([]Influence{
		{Bone: 0, Weight: 0.05},
		{Bone: 1, Weight: 0.3},
		{Bone: 2, Weight: 0.25},
		{Bone: 3, Weight: 0.2},
		{Bone: 4, Weight: 0.2},
	})
	if !truncated {
		t.Error("expected truncation flag")
	}
	if rec.Bones != [4]uint16{1, 2, 3, 4} {
		t.Errorf("bones = %v, want [1 2 3 4]", rec.Bones)
	}
	if rec.Sum() != 255 {
		t.Errorf("sum = %d", rec.Sum())
	}
}

func TestPack_IgnoresNegativeBones(t *testing.T) {
	rec, _ := Pack([]Influence{
		{Bone: -1, Weight: 0.9},
		{Bone: 5, Weight: 1.0},
	})
	if rec.Bones != [4]uint16{5, 0, 0, 0} || rec.Weights != [4]uint8{255, 0, 0, 0} {
		t.Errorf("got bones %v weights %v", rec.Bones, rec.Weights)
	}
}

func TestPack_NoInfluences(t *testing.T) {
	rec, _ := Pack(nil)
	if rec.Sum() != 255 {
		t.Errorf("empty record must still sum to 255, got %d", rec.Sum())
	}
	if rec.Weights[3] != 255 {
		t.Errorf("remainder must land in the last slot: %v", rec.Weights)
	}
}

func TestIndexWidth(t *testing.T) {
	tests := []struct {
		bones int
		want  int
	}{
		{0, 1},
		{1, 1},
		{256, 1},
		{257, 2},
		{1000, 2},
	}
	for _, tt := range tests {
		if got := IndexWidth(tt.bones); got != tt.want {
			t.Errorf("IndexWidth(%d) = %d, want %d", tt.bones, got, tt.want)
		}
	}
}

func TestRecordAppend(t *testing.T) {
	rec := Record{Bones: [4]uint16{1, 2, 0x0102, 0}, Weights: [4]uint8{200, 55, 0, 0}}

	narrow := rec.Append(nil, 1)
	if !bytes.Equal(narrow, []byte{1, 2, 2, 0, 200, 55, 0, 0}) {
		t.Errorf("narrow record = %v", narrow)
	}
	if len(narrow) != RecordSize(1) {
		t.Errorf("narrow size %d, want %d", len(narrow), RecordSize(1))
	}

	wide := rec.Append(nil, 2)
	want := []byte{1, 0, 2, 0, 2, 1, 0, 0, 200, 55, 0, 0}
	if !bytes.Equal(wide, want) {
		t.Errorf("wide record = %v, want %v", wide, want)
	}
}
