package scene

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadTexture decodes an image file into float planes.
// PNG, JPEG, GIF, BMP, TIFF, WebP and TGA sources are supported.
func LoadTexture(path string) (*Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading texture %s", path)
	}

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = decodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding texture %s", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tex := TextureFromImage(img)
	tex.Name = name
	tex.Path = path
	return tex, nil
}

// TextureFromImage converts img into float planes, bottom row first.
// The alpha plane is kept only when some pixel is not fully opaque.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tex := &Texture{
		Width:  w,
		Height: h,
		C:      make([]float32, 0, w*h*3),
	}
	alpha := make([]float32, 0, w*h)
	opaque := true

	for row := 0; row < h; row++ {
		y := b.Max.Y - 1 - row
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a < 0xFFFF {
				opaque = false
			}
			// Planes hold straight (non-premultiplied) color.
			if a > 0 {
				r = r * 0xFFFF / a
				g = g * 0xFFFF / a
				bl = bl * 0xFFFF / a
			}
			tex.C = append(tex.C, float32(r)/0xFFFF, float32(g)/0xFFFF, float32(bl)/0xFFFF)
			alpha = append(alpha, float32(a)/0xFFFF)
		}
	}
	if !opaque {
		tex.A = alpha
	}
	return tex
}
