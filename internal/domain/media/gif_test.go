package media

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustlens-server-go/internal/domain/authenticity"
)

var testPalette = color.Palette{
	color.RGBA{A: 0},
	color.RGBA{R: 255, A: 255},
	color.RGBA{G: 255, A: 255},
	color.RGBA{B: 255, A: 255},
}

func solidFrame(rect image.Rectangle, idx uint8) *image.Paletted {
	img := image.NewPaletted(rect, testPalette)
	for i := range img.Pix {
		img.Pix[i] = idx
	}
	return img
}

func encodeGIF(t *testing.T, g *gif.GIF) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

// pixelAt reads an RGB triple from a 3-channel decoded frame.
func pixelAt(img authenticity.DecodedImage, x, y int) [3]uint8 {
	i := (y*img.Width + x) * 3
	return [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

func TestDecodeGIFCompositesFrames(t *testing.T) {
	full := image.Rect(0, 0, 4, 4)
	patch := image.Rect(0, 0, 2, 2)

	g := &gif.GIF{
		Image: []*image.Paletted{
			solidFrame(full, 1),  // red background
			solidFrame(patch, 2), // green patch, kept
			solidFrame(patch, 3), // blue patch, restored afterwards
			solidFrame(image.Rect(3, 3, 4, 4), 2),
		},
		Delay:    []int{0, 0, 0, 0},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone},
		Config:   image.Config{Width: 4, Height: 4, ColorModel: testPalette},
	}

	frames, err := DecodeGIFBytes(encodeGIF(t, g), 30)
	require.NoError(t, err)
	require.Len(t, frames, 4)

	for i, f := range frames {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, 4, f.Image.Width)
		assert.Equal(t, 3, f.Image.Channels)
	}

	assert.Equal(t, [3]uint8{255, 0, 0}, pixelAt(frames[0].Image, 0, 0))
	assert.Equal(t, [3]uint8{0, 255, 0}, pixelAt(frames[1].Image, 1, 1))
	assert.Equal(t, [3]uint8{255, 0, 0}, pixelAt(frames[1].Image, 3, 3))
	assert.Equal(t, [3]uint8{0, 0, 255}, pixelAt(frames[2].Image, 0, 0))
	// frame 2 used DisposalPrevious, so the green patch is back
	assert.Equal(t, [3]uint8{0, 255, 0}, pixelAt(frames[3].Image, 0, 0))
	assert.Equal(t, [3]uint8{0, 255, 0}, pixelAt(frames[3].Image, 3, 3))
}

func TestDecodeGIFSamples(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)
	g := &gif.GIF{Config: image.Config{Width: 2, Height: 2, ColorModel: testPalette}}
	for i := 0; i < 12; i++ {
		g.Image = append(g.Image, solidFrame(rect, uint8(1+i%3)))
		g.Delay = append(g.Delay, 0)
	}

	frames, err := DecodeGIFBytes(encodeGIF(t, g), 4)
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Equal(t, []int{0, 3, 6, 9}, []int{frames[0].Index, frames[1].Index, frames[2].Index, frames[3].Index})
}

func TestDecodeGIFRejectsGarbage(t *testing.T) {
	_, err := DecodeGIFBytes([]byte("GIF89a but not really"), 30)
	assert.True(t, authenticity.IsFailure(err, authenticity.FailureDecode))

	_, err = DecodeGIFBytes(nil, 30)
	assert.True(t, authenticity.IsFailure(err, authenticity.FailureDecode))
}
