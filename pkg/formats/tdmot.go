package formats

import (
	"bytes"
	"fmt"

	"github.com/Faultbox/gwexport/internal/scene"
)

// MotionLayout selects how sampled tracks are laid out in text.
type MotionLayout string

const (
	// MotionRows writes one line per track: name, then its samples.
	MotionRows MotionLayout = "rows"
	// MotionColumns writes a header line of track names, then one line per frame.
	MotionColumns MotionLayout = "columns"
)

// BuildMotion writes tab-separated motion text with eight decimals per sample.
// In column layout a track shorter than the longest one repeats its last sample.
func BuildMotion(m *scene.Motion, layout MotionLayout) ([]byte, error) {
	if len(m.Tracks) == 0 {
		return nil, ErrEmptyGeometry
	}

	var buf bytes.Buffer
	switch layout {
	case MotionRows, "":
		for _, t := range m.Tracks {
			buf.WriteString(t.Name)
			for _, v := range t.Samples {
				fmt.Fprintf(&buf, "\t%.8f", v)
			}
			buf.WriteByte('\n')
		}
	case MotionColumns:
		for i, t := range m.Tracks {
			if i > 0 {
				buf.WriteByte('\t')
			}
			buf.WriteString(t.Name)
		}
		buf.WriteByte('\n')
		for f := 0; f < m.Frames(); f++ {
			for i, t := range m.Tracks {
				if i > 0 {
					buf.WriteByte('\t')
				}
				fmt.Fprintf(&buf, "%.8f", sampleAt(t.Samples, f))
			}
			buf.WriteByte('\n')
		}
	default:
		return nil, fmt.Errorf("unknown motion layout %q", layout)
	}
	return buf.Bytes(), nil
}

func sampleAt(s []float32, f int) float32 {
	switch {
	case len(s) == 0:
		return 0
	case f < len(s):
		return s[f]
	default:
		return s[len(s)-1]
	}
}
