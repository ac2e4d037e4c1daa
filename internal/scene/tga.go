package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types handled by decodeTGA.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("tga: pixel data truncated")

// decodeTGA decodes uncompressed and RLE true-color (24/32 bit) and grayscale (8 bit) TGA data.
func decodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("tga: header too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("tga: color-mapped images not supported")
	}
	switch imageType {
	case tgaTrueColor, tgaTrueColorRLE:
		if bpp != 24 && bpp != 32 {
			return nil, fmt.Errorf("tga: unsupported true-color depth %d", bpp)
		}
	case tgaGray, tgaGrayRLE:
		if bpp != 8 {
			return nil, fmt.Errorf("tga: unsupported grayscale depth %d", bpp)
		}
	default:
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	d := &tgaDecoder{
		src:         data[offset:],
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		stride:      bpp / 8,
		topToBottom: topToBottom,
	}
	var err error
	if imageType == tgaTrueColorRLE || imageType == tgaGrayRLE {
		err = d.readRLE()
	} else {
		err = d.readRaw()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	src         []byte
	pos         int
	img         *image.NRGBA
	stride      int
	topToBottom bool
	pixel       int
}

func (d *tgaDecoder) next() (color.NRGBA, error) {
	if d.pos+d.stride > len(d.src) {
		return color.NRGBA{}, errTGATruncated
	}
	p := d.src[d.pos : d.pos+d.stride]
	d.pos += d.stride
	switch d.stride {
	case 1:
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: 0xFF}, nil
	case 3:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: 0xFF}, nil
	default:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}, nil
	}
}

func (d *tgaDecoder) put(c color.NRGBA) {
	w := d.img.Rect.Dx()
	h := d.img.Rect.Dy()
	x := d.pixel % w
	y := d.pixel / w
	if !d.topToBottom {
		y = h - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
	d.pixel++
}

func (d *tgaDecoder) total() int {
	return d.img.Rect.Dx() * d.img.Rect.Dy()
}

func (d *tgaDecoder) readRaw() error {
	for d.pixel < d.total() {
		c, err := d.next()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) readRLE() error {
	for d.pixel < d.total() {
		if d.pos >= len(d.src) {
			return errTGATruncated
		}
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, err := d.next()
			if err != nil {
				return err
			}
			for i := 0; i < count && d.pixel < d.total(); i++ {
				d.put(c)
			}
			continue
		}
		for i := 0; i < count && d.pixel < d.total(); i++ {
			c, err := d.next()
			if err != nil {
				return err
			}
			d.put(c)
		}
	}
	return nil
}
