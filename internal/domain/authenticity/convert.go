package authenticity

import (
	"fmt"
	"image"
	"image/color"
)

// FromImage copies a decoded Go image into a 3-channel RGB DecodedImage.
// Gray sources are replicated into equal R, G and B planes and alpha is dropped
// without premultiplying. Single-channel grids only come from direct callers.
func FromImage(img image.Image) (DecodedImage, error) {
	if img == nil {
		return DecodedImage{}, DecodeError("from_image", fmt.Errorf("nil image"))
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return DecodedImage{}, DecodeError("from_image", fmt.Errorf("empty bounds %v", b))
	}

	switch src := img.(type) {
	case *image.Gray:
		return expandGray(w, h, func(x, y int) uint8 {
			return src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
		}), nil

	case *image.Gray16:
		return expandGray(w, h, func(x, y int) uint8 {
			return uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
		}), nil

	case *image.NRGBA:
		pix := make([]uint8, w*h*3)
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := pix[y*w*3:]
			for x := 0; x < w; x++ {
				dst[x*3] = row[x*4]
				dst[x*3+1] = row[x*4+1]
				dst[x*3+2] = row[x*4+2]
			}
		}
		return DecodedImage{Width: w, Height: h, Channels: 3, Pix: pix}, nil
	}

	pix := make([]uint8, w*h*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix[i] = c.R
			pix[i+1] = c.G
			pix[i+2] = c.B
			i += 3
		}
	}
	return DecodedImage{Width: w, Height: h, Channels: 3, Pix: pix}, nil
}

func (d DecodedImage) validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", d.Width, d.Height)
	}
	if d.Channels != 1 && d.Channels != 3 {
		return fmt.Errorf("unsupported channel count %d", d.Channels)
	}
	if want := d.Width * d.Height * d.Channels; len(d.Pix) != want {
		return fmt.Errorf("pixel buffer has %d bytes, want %d", len(d.Pix), want)
	}
	return nil
}

// BT.601 luma in 14-bit fixed point.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
)

// gray returns the single-channel intensity plane.
func (d DecodedImage) gray() []uint8 {
	if d.Channels == 1 {
		return d.Pix
	}
	n := d.Width * d.Height
	out := make([]uint8, n)
	for i := 0; i < n; i++ {
		p := d.Pix[i*3 : i*3+3]
		v := (int(p[0])*lumaR + int(p[1])*lumaG + int(p[2])*lumaB + (1 << (lumaShift - 1))) >> lumaShift
		out[i] = uint8(v)
	}
	return out
}

func expandGray(w, h int, at func(x, y int) uint8) DecodedImage {
	pix := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x, y)
			i := (y*w + x) * 3
			pix[i], pix[i+1], pix[i+2] = v, v, v
		}
	}
	return DecodedImage{Width: w, Height: h, Channels: 3, Pix: pix}
}
