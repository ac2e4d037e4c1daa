package formats

import (
	"fmt"

	"github.com/Faultbox/gwexport/internal/scene"
	"github.com/Faultbox/gwexport/pkg/rsrc"
)

// DDS header constants for uncompressed RGBA float32 data.
const (
	ddsMagic       = "DDS "
	ddsHeaderSize  = 0x7C
	ddsFlags       = 0x081007 // caps | height | width | pixel format | linear size
	ddsPFSize      = 0x20
	ddsPFFourCC    = 4
	ddsFmtRGBA32F  = 0x74
	ddsCapsTexture = 0x1000
	ddsPixelSize   = 4 * 4

	// DDSFileHeaderSize is the size of everything before the pixel data.
	DDSFileHeaderSize = 4 + ddsHeaderSize
)

// BuildDDS serializes a texture as 32-bit float RGBA. Source rows are stored bottom row first;
// the file receives them in reverse order. A missing alpha plane is written as 1.0.
func BuildDDS(tex *scene.Texture) ([]byte, error) {
	w, h := tex.Width, tex.Height
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyGeometry
	}
	if len(tex.C) != w*h*3 {
		return nil, fmt.Errorf("%w: color plane has %d floats for %dx%d", ErrBadIndex, len(tex.C), w, h)
	}
	if tex.A != nil && len(tex.A) != w*h {
		return nil, fmt.Errorf("%w: alpha plane has %d floats for %dx%d", ErrBadIndex, len(tex.A), w, h)
	}

	out := rsrc.NewWriter()
	out.Raw([]byte(ddsMagic))
	out.I32(ddsHeaderSize)
	out.I32(ddsFlags)
	out.I32(int32(h))
	out.I32(int32(w))
	out.I32(int32(w * h * ddsPixelSize))
	for i := 0; i < 13; i++ {
		out.I32(0)
	}
	out.I32(ddsPFSize)
	out.I32(ddsPFFourCC)
	out.I32(ddsFmtRGBA32F)
	for i := 0; i < 5; i++ {
		out.I32(0)
	}
	out.I32(ddsCapsTexture)
	for i := 0; i < 4; i++ {
		out.I32(0)
	}

	for y := 0; y < h; y++ {
		row := (h - 1 - y) * w
		for x := 0; x < w; x++ {
			i := row + x
			out.Floats(tex.C[i*3 : i*3+3])
			if tex.A != nil {
				out.F32(tex.A[i])
			} else {
				out.F32(1)
			}
		}
	}
	if err := out.Err(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
